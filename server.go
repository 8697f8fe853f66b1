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
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
	"github.com/panjf2000/wireloop/pkg/pool/goroutine"
)

// Server is a stream server: it accepts connections, drives each of them through
// the framing loop of its Session and reports everything on an event stream.
type Server struct {
	engine
	factory SessionFactory

	mu  sync.Mutex
	cur *run // nil when not listening, set until the run has fully stopped
}

// run is the state of a server between Start and the end of its event stream.
type run struct {
	srv         *Server
	ln          net.Listener
	ctx         context.Context
	cancel      context.CancelFunc
	incoming    chan *Conn
	completions chan *Conn
	acceptErr   chan error
	acceptDone  chan struct{}
	done        chan struct{}
	events      *eventQueue
	pool        *goroutine.Pool // broadcast workers, released with the run
	stopping    bool            // guarded by Server.mu

	// registry is only touched by the coordinating loop, clients mirrors it for readers.
	registry map[*Conn]struct{}
	rmu      sync.RWMutex
	clients  []*Conn
	count    atomic.Int32
}

// NewServer creates a stream server whose connections get their session from factory.
func NewServer(name string, factory SessionFactory, opts ...Option) *Server {
	return &Server{
		engine:  newEngine(name, opts...),
		factory: factory,
	}
}

// Start binds address:port and starts serving, it returns the event stream of
// the run which completes after Stop or when ctx is cancelled.
func (s *Server) Start(ctx context.Context, address string, port int) (<-chan Event, error) {
	addr, err := joinHostPort(address, port)
	if err != nil {
		return nil, err
	}
	return s.StartAddr(ctx, "tcp://"+addr)
}

// StartAddr is like Start with an address in the form "tcp://host:port", the
// scheme may be omitted.
func (s *Server) StartAddr(ctx context.Context, protoAddr string) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return nil, errorx.ErrAlreadyListening
	}

	network, addr := parseProtoAddr(protoAddr)
	ln, err := initListener(ctx, network, addr, s.opts)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", protoAddr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &run{
		srv:         s,
		ln:          ln,
		ctx:         ctx,
		cancel:      cancel,
		incoming:    make(chan *Conn),
		completions: make(chan *Conn),
		acceptErr:   make(chan error, 1),
		acceptDone:  make(chan struct{}),
		done:        make(chan struct{}),
		registry:    make(map[*Conn]struct{}),
		pool:        goroutine.New(s.opts.BroadcastPoolSize),
	}
	s.cur = r

	r.events = s.openEvents()
	s.emit(ServerStarted{
		Meta:     newMeta(s.name, EventServerStarted, true, "listening on %s", ln.Addr()),
		Endpoint: ln.Addr(),
	})
	s.logger.Infof("%s is listening on %s", s.name, ln.Addr())

	go s.accept(r)
	go r.loop()
	return r.events.out, nil
}

// Stop cancels every connection and the accept loop, waits until all of them
// have been released and completes the event stream with ServerStopped.
func (s *Server) Stop() error {
	s.mu.Lock()
	r := s.cur
	if r == nil || r.stopping {
		s.mu.Unlock()
		return errorx.ErrNotListening
	}
	r.stopping = true
	s.mu.Unlock()

	r.cancel()
	<-r.done
	return nil
}

// Addr returns the bound address, nil when not listening.
func (s *Server) Addr() net.Addr {
	if r := s.current(); r != nil {
		return r.ln.Addr()
	}
	return nil
}

// Clients returns a snapshot of the registered connections.
func (s *Server) Clients() []*Conn {
	r := s.current()
	if r == nil {
		return nil
	}
	r.rmu.RLock()
	defer r.rmu.RUnlock()
	return append([]*Conn(nil), r.clients...)
}

// CountConnections counts the number of currently registered connections and returns it.
func (s *Server) CountConnections() int {
	if r := s.current(); r != nil {
		return int(r.count.Load())
	}
	return 0
}

// Adopt registers an outbound connection, it then shares the lifecycle of the
// accepted ones: same framing loop, same events, same cancellation. rwc is
// closed when it cannot be registered.
func (s *Server) Adopt(rwc net.Conn, factory SessionFactory) (*Conn, error) {
	r := s.current()
	if r == nil {
		_ = rwc.Close()
		return nil, errorx.ErrNotListening
	}
	c, err := s.prepare(rwc, factory)
	if err != nil {
		return nil, err
	}
	if err = r.register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Broadcast transmits msg to every recipient concurrently and waits for all of
// them. A recipient that fails to take msg is closed with the failure, the others
// are not affected. It returns the number of failed recipients.
func (s *Server) Broadcast(recipients []*Conn, msg []byte) int {
	var pool *goroutine.Pool
	if r := s.current(); r != nil {
		pool = r.pool
	}
	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)
	for _, c := range recipients {
		c := c
		wg.Add(1)
		goroutine.Submit(pool, func() {
			defer wg.Done()
			if err := c.transmit(msg, true); err != nil {
				failures.Add(1)
				if errors.Is(err, errorx.ErrConnectionClosed) || c.closing.Load() {
					s.logger.Debugf("skipped broadcast to %s: %v", c, err)
					return
				}
				c.abort(err)
			}
		})
	}
	wg.Wait()

	failed := int(failures.Load())
	s.metrics.broadcast()
	s.emit(Broadcast{
		Meta:        newMeta(s.name, EventBroadcast, failed == 0, "broadcast %d bytes to %d clients, %d failed", len(msg), len(recipients), failed),
		Recipients:  len(recipients),
		Failures:    failed,
		Translation: Printable(msg),
	})
	return failed
}

func (s *Server) current() *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// prepare wraps rwc and creates its session.
func (s *Server) prepare(rwc net.Conn, factory SessionFactory) (*Conn, error) {
	c := newConn(s, rwc, factory)
	if c.session = factory(c); c.session == nil {
		_ = rwc.Close()
		return nil, errorx.ErrNilSession
	}
	return c, nil
}

// safely runs a session hook, a panic is logged and swallowed.
func (s *Server) safely(c *Conn, hook func(*Conn)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("panic in session hook of %s: %v\n%s", c, r, debug.Stack())
		}
	}()
	hook(c)
}

// register hands c over to the coordinating loop.
func (r *run) register(c *Conn) error {
	select {
	case r.incoming <- c:
		return nil
	case <-r.ctx.Done():
		_ = c.rwc.Close()
		return errorx.ErrServerShutdown
	}
}

// loop is the coordinating loop of a run: it owns the registry, starts and
// releases connections and shuts everything down in order.
func (r *run) loop() {
	s := r.srv
	var termErr error

serve:
	for {
		select {
		case c := <-r.incoming:
			r.open(c)
		case c := <-r.completions:
			r.release(c)
		case termErr = <-r.acceptErr:
			break serve
		case <-r.ctx.Done():
			break serve
		}
	}

	r.cancel()
	_ = r.ln.Close()
	for len(r.registry) > 0 {
		r.release(<-r.completions)
	}
	<-r.acceptDone
	r.pool.Release()

	if termErr != nil {
		s.logger.Errorf("%s terminated: %v", s.name, termErr)
	} else {
		s.logger.Infof("%s stopped", s.name)
	}
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
	s.closeEvents(r.events, s.lastEvent(termErr))
	close(r.done)
}

func (r *run) open(c *Conn) {
	s := r.srv
	r.registry[c] = struct{}{}
	r.rmu.Lock()
	r.clients = append(r.clients, c)
	r.rmu.Unlock()
	r.count.Add(1)

	s.metrics.connOpened()
	s.emit(ClientConnected{
		Meta:     newMeta(s.name, EventClientConnected, true, "client %d connected from %s", c.id, c.remoteAddr),
		ID:       c.id,
		Endpoint: c.remoteAddr,
	})

	go func() {
		c.serve(r.ctx)
		r.completions <- c
	}()
}

// release disposes c once its loop is done.
func (r *run) release(c *Conn) {
	s := r.srv
	if _, ok := r.registry[c]; !ok {
		return
	}
	delete(r.registry, c)
	r.rmu.Lock()
	for i, cc := range r.clients {
		if cc == c {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			break
		}
	}
	r.rmu.Unlock()
	r.count.Add(-1)

	_ = c.rwc.Close()
	s.metrics.connClosed()
	status := c.Status()
	s.emit(ClientDisconnected{
		Meta:   newMeta(s.name, EventClientDisconnected, status != Error, "client %d disconnected (%s): %s", c.id, status, c.endReason()),
		ID:     c.id,
		Status: status,
		Reason: c.endReason(),
	})
}
