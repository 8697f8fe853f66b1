// Copyright (c) 2023 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smoketest

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/internal/testkit"
)

func TestEcho(t *testing.T) {
	srv := New()
	events := testkit.Start(t, srv)
	assert.Equal(t, ProblemID, srv.ProblemID())
	assert.Equal(t, Name, srv.Name())

	c := testkit.Dial(t, srv.Addr())
	payload := []byte("hello\x00\xffworld")
	c.Send(t, payload)
	assert.Equal(t, payload, c.ReadFull(t, len(payload)))

	e := events.WaitFor(t, testkit.OfType(wireloop.EventDataTransmitted)).(wireloop.DataTransmitted)
	assert.False(t, e.Broadcast)
	assert.Equal(t, len(payload), e.ByteCount)
}

func TestEchoHalfClose(t *testing.T) {
	srv := New()
	events := testkit.Start(t, srv)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	payload := bytes.Repeat([]byte("0123456789"), 2000)
	_, err = conn.Write(payload)
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testkit.Timeout)))
	echoed, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, payload, echoed)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventClientDisconnected)).(wireloop.ClientDisconnected)
	assert.Equal(t, wireloop.Terminated, e.Status)
}

func TestEchoConcurrentClients(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		i := i
		g.Go(func() error {
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				return err
			}
			defer conn.Close()
			payload := bytes.Repeat([]byte{byte('a' + i)}, 4096)
			if _, err = conn.Write(payload); err != nil {
				return err
			}
			_ = conn.SetReadDeadline(time.Now().Add(testkit.Timeout))
			got := make([]byte, len(payload))
			if _, err = io.ReadFull(conn, got); err != nil {
				return err
			}
			assert.Equal(t, payload, got)
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
