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

package wireloop

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

// ConnStatus is the lifecycle state of a connection.
type ConnStatus int32

const (
	// Connected is the state of a live connection.
	Connected ConnStatus = iota
	// Disconnected is the state of a connection closed on this side, gracefully.
	Disconnected
	// Terminated is the state of a connection closed by the peer at a unit boundary.
	Terminated
	// Error is the state of a connection that ended with a transport or protocol failure.
	Error
)

func (s ConnStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Terminated:
		return "terminated"
	case Error:
		return "error"
	}
	return fmt.Sprintf("ConnStatus(%d)", int32(s))
}

var connIDs atomic.Uint64

// Conn is one stream connection owned by a Server, either accepted from its
// listener or adopted through Server.Adopt.
type Conn struct {
	id         uint64
	rwc        net.Conn
	srv        *Server
	factory    SessionFactory
	session    Session
	localAddr  net.Addr
	remoteAddr net.Addr

	status        atomic.Int32
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64

	wmu     sync.Mutex // serializes writes
	closing atomic.Bool
	cancel  context.CancelFunc
	cmu     sync.Mutex
	ctx     interface{} // user-defined context
	reason  string
	failure error // set by abort, raised on the connection's own goroutine
	endOnce sync.Once
}

func newConn(srv *Server, rwc net.Conn, factory SessionFactory) *Conn {
	return &Conn{
		id:         connIDs.Add(1),
		rwc:        rwc,
		srv:        srv,
		factory:    factory,
		localAddr:  rwc.LocalAddr(),
		remoteAddr: rwc.RemoteAddr(),
	}
}

// ID returns the process-wide unique identifier of the connection.
func (c *Conn) ID() uint64 { return c.id }

// LocalAddr is the connection's local socket address.
func (c *Conn) LocalAddr() net.Addr { return c.localAddr }

// RemoteAddr is the connection's remote peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.remoteAddr }

// Server returns the server that owns the connection.
func (c *Conn) Server() *Server { return c.srv }

// Session returns the protocol session bound to the connection, nil before it is registered.
func (c *Conn) Session() Session { return c.session }

// Status returns the current lifecycle state.
func (c *Conn) Status() ConnStatus { return ConnStatus(c.status.Load()) }

// BytesSent returns the number of bytes written to the peer so far.
func (c *Conn) BytesSent() int64 { return c.bytesSent.Load() }

// BytesReceived returns the number of bytes read from the peer so far.
func (c *Conn) BytesReceived() int64 { return c.bytesReceived.Load() }

// Context returns a user-defined context.
func (c *Conn) Context() interface{} {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return c.ctx
}

// SetContext sets a user-defined context.
func (c *Conn) SetContext(ctx interface{}) {
	c.cmu.Lock()
	c.ctx = ctx
	c.cmu.Unlock()
}

// Close asks the connection to stop: a pending read or write is interrupted,
// the unit being processed, if any, completes and the loop then ends with the
// Disconnected status. It is safe to call Close several times and from any goroutine.
func (c *Conn) Close() error {
	c.cmu.Lock()
	cancel := c.cancel
	c.cmu.Unlock()
	if cancel == nil {
		return c.interrupt()
	}
	cancel()
	return nil
}

// interrupt unblocks pending I/O for good, later writes are refused.
func (c *Conn) interrupt() error {
	c.closing.Store(true)
	return c.rwc.SetDeadline(time.Now())
}

// abort makes the connection fail with err from outside its own goroutine.
func (c *Conn) abort(err error) {
	c.cmu.Lock()
	if c.failure == nil {
		c.failure = err
	}
	c.cmu.Unlock()
	_ = c.Close()
}

func (c *Conn) abortError() error {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return c.failure
}

// Transmit writes p to the peer.
func (c *Conn) Transmit(p []byte) error {
	return c.transmit(p, false)
}

func (c *Conn) transmit(p []byte, broadcast bool) error {
	if c.Status() != Connected {
		return errorx.ErrConnectionClosed
	}

	c.wmu.Lock()
	n, err := c.write(p)
	c.wmu.Unlock()

	c.bytesSent.Add(int64(n))
	c.srv.metrics.sent(n)
	if err != nil {
		return fmt.Errorf("write to connection %d: %w", c.id, err)
	}

	c.srv.emit(DataTransmitted{
		Meta:        newMeta(c.srv.name, EventDataTransmitted, true, "sent %d bytes to %d (%s)", n, c.id, c.remoteAddr),
		ID:          c.id,
		ByteCount:   n,
		Translation: c.session.Translate(p),
		Broadcast:   broadcast,
	})
	return nil
}

// write writes p under the write timeout, it must be called with wmu held.
func (c *Conn) write(p []byte) (int, error) {
	if c.closing.Load() {
		return 0, errorx.ErrConnectionClosed
	}
	if timeout := c.srv.opts.WriteTimeout; timeout > 0 {
		if err := c.rwc.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return 0, err
		}
		// interrupt may have run in between, its deadline must win.
		if c.closing.Load() {
			return 0, errorx.ErrConnectionClosed
		}
	}
	return c.rwc.Write(p)
}

// end records the final status once, it reports whether this call did it.
func (c *Conn) end(status ConnStatus, reason string) bool {
	ended := false
	c.endOnce.Do(func() {
		c.cmu.Lock()
		c.reason = reason
		c.cmu.Unlock()
		c.status.Store(int32(status))
		ended = true
	})
	return ended
}

func (c *Conn) endReason() string {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return c.reason
}

func (c *Conn) String() string {
	return fmt.Sprintf("conn(%d, %s)", c.id, c.remoteAddr)
}
