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
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
	bbPool "github.com/panjf2000/wireloop/pkg/pool/bytebuffer"
)

// serve runs the framing loop of c until the peer goes away, the session
// asks to close, a failure occurs or ctx is cancelled. It never returns
// before the session hooks are done with c.
func (c *Conn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cmu.Lock()
	c.cancel = cancel
	c.cmu.Unlock()
	defer cancel()

	// Unblock the pending read or write once the connection is asked to stop,
	// the unit being processed still runs to completion.
	stop := context.AfterFunc(ctx, func() {
		_ = c.interrupt()
	})
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			c.srv.logger.Errorf("panic in session of %s: %v\n%s", c, r, debug.Stack())
			c.fail(fmt.Errorf("session panic: %v", r))
		}
		c.srv.safely(c, c.session.OnDisconnect)
	}()

	if err := c.session.OnConnect(c); err != nil {
		if c.interrupted(ctx, err) {
			c.stopLocally()
			return
		}
		c.fail(err)
		return
	}

	buf := bbPool.Get()
	defer bbPool.Put(buf)
	chunk := make([]byte, c.srv.opts.ReadBufferCap)

	for {
		n, err := c.rwc.Read(chunk)
		if n > 0 {
			c.bytesReceived.Add(int64(n))
			c.srv.metrics.received(n)
			c.srv.emit(DataReceived{
				Meta:        newMeta(c.srv.name, EventDataReceived, true, "received %d bytes from %d (%s)", n, c.id, c.remoteAddr),
				ID:          c.id,
				ByteCount:   n,
				Translation: c.session.Translate(chunk[:n]),
			})

			buf.B = append(buf.B, chunk[:n]...)
			done, ferr := c.drain(ctx, buf)
			if ferr != nil {
				if c.interrupted(ctx, ferr) {
					c.stopLocally()
					return
				}
				c.fail(ferr)
				return
			}
			if done {
				c.end(Disconnected, "closed by the server")
				return
			}
		}

		if ctx.Err() != nil || c.closing.Load() {
			c.stopLocally()
			return
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if buf.Len() > 0 {
					c.fail(fmt.Errorf("%w: %d bytes pending", errorx.ErrIncompleteMessage, buf.Len()))
					return
				}
				c.end(Terminated, "closed by the peer")
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				// Close was called before the loop took over the cancellation.
				c.end(Disconnected, "closed locally")
				return
			}
			c.fail(err)
			return
		}
	}
}

// interrupted reports whether err only stems from the connection being asked to stop.
func (c *Conn) interrupted(ctx context.Context, err error) bool {
	if ctx.Err() == nil && !c.closing.Load() {
		return false
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, errorx.ErrConnectionClosed)
}

// stopLocally ends a connection that was asked to stop, with the failure that
// caused it when there is one.
func (c *Conn) stopLocally() {
	if err := c.abortError(); err != nil {
		c.fail(err)
		return
	}
	c.end(Disconnected, "closed locally")
}

// drain processes every complete unit held by buf in arrival order and keeps
// the incomplete remainder at the front of buf. done is true when the session
// asked to close the connection.
func (c *Conn) drain(ctx context.Context, buf *bbPool.ByteBuffer) (done bool, err error) {
	consumed := 0
	defer func() {
		buf.B = buf.B[:copy(buf.B, buf.B[consumed:])]
	}()

	for ctx.Err() == nil {
		pending := buf.B[consumed:]
		end := c.session.FindUnitEnd(pending)
		if end <= 0 || end > len(pending) {
			break
		}
		unit := pending[:end]
		consumed += end

		action, err := c.session.ProcessUnit(c, unit)
		if err != nil {
			return false, err
		}
		if action == Close {
			return true, nil
		}
	}

	if limit := c.srv.opts.MaxUnitSize; limit > 0 && len(buf.B)-consumed > limit {
		return false, fmt.Errorf("%w: %d bytes without a complete unit", errorx.ErrMessageTooLarge, len(buf.B)-consumed)
	}
	return false, nil
}

// fail ends the connection with the Error status and reports err.
func (c *Conn) fail(err error) {
	if c.Status() != Connected {
		return
	}
	c.srv.safely(c, func(c *Conn) { c.session.OnException(c, err) })
	if !c.end(Error, err.Error()) {
		return
	}
	c.srv.metrics.clientError()
	c.srv.emit(ClientError{
		Meta: newMeta(c.srv.name, EventClientError, false, "connection %d (%s) failed: %v", c.id, c.remoteAddr, err),
		ID:   c.id,
		Err:  err,
	})
}
