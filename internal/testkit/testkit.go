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

// Package testkit holds the helpers shared by the socket-level tests of the servers.
package testkit

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop"
	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

// Timeout bounds every wait of the tests.
const Timeout = 5 * time.Second

// Collector drains an event stream in the background and keeps every event.
type Collector struct {
	mu     sync.Mutex
	events []wireloop.Event
	done   chan struct{}
}

// Collect starts draining events.
func Collect(events <-chan wireloop.Event) *Collector {
	c := &Collector{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		for e := range events {
			c.mu.Lock()
			c.events = append(c.events, e)
			c.mu.Unlock()
		}
	}()
	return c
}

// Events returns a snapshot of the events collected so far.
func (c *Collector) Events() []wireloop.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wireloop.Event(nil), c.events...)
}

// Wait waits for the stream to complete and returns all of its events.
func (c *Collector) Wait(t testing.TB) []wireloop.Event {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(Timeout):
		require.FailNow(t, "event stream did not complete")
	}
	return c.Events()
}

// WaitFor waits for the first event that satisfies match.
func (c *Collector) WaitFor(t testing.TB, match func(wireloop.Event) bool) wireloop.Event {
	t.Helper()
	var found wireloop.Event
	require.Eventually(t, func() bool {
		for _, e := range c.Events() {
			if match(e) {
				found = e
				return true
			}
		}
		return false
	}, Timeout, 5*time.Millisecond)
	return found
}

// Count returns the number of collected events of type et.
func (c *Collector) Count(et wireloop.EventType) (n int) {
	for _, e := range c.Events() {
		if e.Metadata().Type == et {
			n++
		}
	}
	return
}

// OfType matches events of type et.
func OfType(et wireloop.EventType) func(wireloop.Event) bool {
	return func(e wireloop.Event) bool { return e.Metadata().Type == et }
}

// Start starts svc on an ephemeral loopback port and stops it when the test ends.
func Start(t testing.TB, svc wireloop.Service) *Collector {
	t.Helper()
	events, err := svc.Start(context.Background(), "127.0.0.1", 0)
	require.NoError(t, err)
	c := Collect(events)
	t.Cleanup(func() {
		if err := svc.Stop(); err != nil && !errors.Is(err, errorx.ErrNotListening) {
			t.Errorf("stop %s: %v", svc.Name(), err)
		}
		<-c.done
	})
	return c
}

// Client is a stream client with line helpers.
type Client struct {
	net.Conn
	r *bufio.Reader
}

// Dial connects to addr and closes the connection when the test ends.
func Dial(t testing.TB, addr net.Addr) *Client {
	t.Helper()
	conn, err := net.DialTimeout(addr.Network(), addr.String(), Timeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{Conn: conn, r: bufio.NewReader(conn)}
}

// Send writes p.
func (c *Client) Send(t testing.TB, p []byte) {
	t.Helper()
	require.NoError(t, c.SetWriteDeadline(time.Now().Add(Timeout)))
	_, err := c.Write(p)
	require.NoError(t, err)
}

// SendLine writes s followed by a newline.
func (c *Client) SendLine(t testing.TB, s string) {
	t.Helper()
	c.Send(t, []byte(s+"\n"))
}

// ReadLine reads one line without its newline.
func (c *Client) ReadLine(t testing.TB) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(Timeout)))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return line[:len(line)-1]
}

// ReadFull reads exactly n bytes.
func (c *Client) ReadFull(t testing.TB, n int) []byte {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(Timeout)))
	p := make([]byte, n)
	for off := 0; off < n; {
		m, err := c.r.Read(p[off:])
		require.NoError(t, err)
		off += m
	}
	return p
}

// ExpectClosed waits until the server closes the connection.
func (c *Client) ExpectClosed(t testing.TB) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(Timeout)))
	for {
		_, err := c.r.ReadByte()
		if err != nil {
			var ne net.Error
			require.False(t, errors.As(err, &ne) && ne.Timeout(), "connection still open")
			return
		}
	}
}
