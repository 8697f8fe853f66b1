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

package udpdb

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/internal/testkit"
	errorx "github.com/panjf2000/wireloop/pkg/errors"
	"github.com/panjf2000/wireloop/pkg/kvstore"
)

type recorder struct {
	responses []string
}

func (*recorder) ID() uint64           { return 1 }
func (*recorder) RemoteAddr() net.Addr { return nil }
func (r *recorder) Respond(p []byte) error {
	r.responses = append(r.responses, string(p))
	return nil
}

func TestHandler(t *testing.T) {
	h := NewHandler(nil, "")
	r := new(recorder)
	do := func(req string) {
		require.NoError(t, h.ProcessDatagram(r, []byte(req)))
	}

	do("version")
	do("version=x")
	do("version")
	do("foo=bar")
	do("foo")
	do("missing")
	do("foo=bar=baz")
	do("foo")
	do("=empty key")
	do("")
	do("empty=")
	do("empty")
	assert.Equal(t, []string{
		"version=Ken's Key-Value Store 1.0",
		"version=Ken's Key-Value Store 1.0",
		"foo=bar",
		"foo=bar=baz",
		"=empty key",
		"empty=",
	}, r.responses)
}

func TestHandlerRejectsNonASCII(t *testing.T) {
	h := NewHandler(kvstore.New(), "v2")
	err := h.ProcessDatagram(new(recorder), []byte("k=\xff"))
	assert.ErrorIs(t, err, errorx.ErrInvalidEncoding)
}

type client struct {
	net.PacketConn
	server net.Addr
}

func dial(t *testing.T, server net.Addr) *client {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return &client{PacketConn: pc, server: server}
}

func (c *client) send(t *testing.T, p string) {
	_, err := c.WriteTo([]byte(p), c.server)
	require.NoError(t, err)
}

func (c *client) recv(t *testing.T, timeout time.Duration) (string, bool) {
	require.NoError(t, c.SetReadDeadline(time.Now().Add(timeout)))
	buf := make([]byte, 2048)
	n, _, err := c.ReadFrom(buf)
	if err != nil {
		return "", false
	}
	return string(buf[:n]), true
}

func TestServer(t *testing.T) {
	store := kvstore.New()
	srv := New(store, "test 1.0")
	events := testkit.Start(t, srv)
	assert.Same(t, store, srv.Store())

	c := dial(t, srv.Addr())
	c.send(t, "version")
	resp, ok := c.recv(t, testkit.Timeout)
	require.True(t, ok)
	assert.Equal(t, "version=test 1.0", resp)

	c.send(t, "foo=bar")
	c.send(t, "foo")
	resp, ok = c.recv(t, testkit.Timeout)
	require.True(t, ok)
	assert.Equal(t, "foo=bar", resp)
	v, ok := store.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "=bar", v.String())

	c.send(t, "unknown")
	_, ok = c.recv(t, 100*time.Millisecond)
	assert.False(t, ok)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventDataTransmitted)).(wireloop.DataTransmitted)
	assert.Equal(t, "version=test 1.0", e.Translation)
}

func TestOversizedRequestRejected(t *testing.T) {
	srv := New(nil, "")
	events := testkit.Start(t, srv)

	c := dial(t, srv.Addr())
	c.send(t, "big="+string(bytes.Repeat([]byte("x"), 1000)))
	_, ok := c.recv(t, 100*time.Millisecond)
	assert.False(t, ok)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventClientError)).(wireloop.ClientError)
	assert.ErrorIs(t, e.Err, errorx.ErrMessageTooLarge)
	_, found := srv.Store().Get("big")
	assert.False(t, found)
}

func TestOversizedResponseRejected(t *testing.T) {
	srv := New(nil, string(bytes.Repeat([]byte("v"), 995)))
	events := testkit.Start(t, srv)

	c := dial(t, srv.Addr())
	c.send(t, VersionKey)
	_, ok := c.recv(t, 200*time.Millisecond)
	assert.False(t, ok)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventClientError)).(wireloop.ClientError)
	assert.ErrorIs(t, e.Err, errorx.ErrMessageTooLarge)
}
