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

	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

// maxPacketSize is the largest payload a UDP datagram can carry.
const maxPacketSize = 1<<16 - 1

// Responder answers the sender of one datagram.
type Responder interface {
	// ID returns the identifier of the datagram, unique among connections and datagrams.
	ID() uint64
	// RemoteAddr returns the address of the sender.
	RemoteAddr() net.Addr
	// Respond sends p back to the sender.
	Respond(p []byte) error
}

// DatagramHandler processes every datagram received by a DatagramServer.
type DatagramHandler interface {
	// ProcessDatagram handles one datagram, payload is only valid until it returns.
	// An error is reported as a ClientError event and does not affect the server.
	ProcessDatagram(w Responder, payload []byte) error
}

// DatagramHandlerFunc adapts a function to DatagramHandler.
type DatagramHandlerFunc func(w Responder, payload []byte) error

// ProcessDatagram implements DatagramHandler.
func (f DatagramHandlerFunc) ProcessDatagram(w Responder, payload []byte) error {
	return f(w, payload)
}

// DatagramServer is a connectionless server: every datagram is an independent
// request handled in arrival order.
type DatagramServer struct {
	engine
	handler DatagramHandler

	mu       sync.Mutex
	pc       net.PacketConn
	cancel   context.CancelFunc
	done     chan struct{}
	stopping bool
}

// NewDatagramServer creates a datagram server that hands every datagram to handler.
func NewDatagramServer(name string, handler DatagramHandler, opts ...Option) *DatagramServer {
	return &DatagramServer{
		engine:  newEngine(name, opts...),
		handler: handler,
	}
}

// Start binds address:port and starts serving, it returns the event stream of the run.
func (s *DatagramServer) Start(ctx context.Context, address string, port int) (<-chan Event, error) {
	addr, err := joinHostPort(address, port)
	if err != nil {
		return nil, err
	}
	return s.StartAddr(ctx, "udp://"+addr)
}

// StartAddr is like Start with an address in the form "udp://host:port".
func (s *DatagramServer) StartAddr(ctx context.Context, protoAddr string) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pc != nil {
		return nil, errorx.ErrAlreadyListening
	}

	network, addr := parseProtoAddr(protoAddr)
	pc, err := initPacketConn(ctx, network, addr, s.opts)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", protoAddr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.pc, s.cancel, s.done, s.stopping = pc, cancel, make(chan struct{}), false

	events := s.openEvents()
	s.emit(ServerStarted{
		Meta:     newMeta(s.name, EventServerStarted, true, "listening on %s", pc.LocalAddr()),
		Endpoint: pc.LocalAddr(),
	})
	s.logger.Infof("%s is listening on %s", s.name, pc.LocalAddr())

	stop := context.AfterFunc(ctx, func() { _ = pc.Close() })
	go func() {
		defer stop()
		s.serve(ctx, pc, events, s.done)
	}()
	return events.out, nil
}

// Stop closes the socket, waits for the datagram in progress and completes the
// event stream with ServerStopped.
func (s *DatagramServer) Stop() error {
	s.mu.Lock()
	if s.pc == nil || s.stopping {
		s.mu.Unlock()
		return errorx.ErrNotListening
	}
	s.stopping = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Addr returns the bound address, nil when not listening.
func (s *DatagramServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pc == nil {
		return nil
	}
	return s.pc.LocalAddr()
}

func (s *DatagramServer) serve(ctx context.Context, pc net.PacketConn, events *eventQueue, done chan struct{}) {
	var termErr error
	buf := make([]byte, maxPacketSize)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				termErr = err
			}
			break
		}
		s.handle(pc, addr, buf[:n])
	}

	_ = pc.Close()
	if termErr != nil {
		s.logger.Errorf("%s terminated: %v", s.name, termErr)
	} else {
		s.logger.Infof("%s stopped", s.name)
	}
	s.mu.Lock()
	s.pc = nil
	s.mu.Unlock()
	s.closeEvents(events, s.lastEvent(termErr))
	close(done)
}

func (s *DatagramServer) handle(pc net.PacketConn, addr net.Addr, payload []byte) {
	d := &datagram{id: connIDs.Add(1), srv: s, pc: pc, addr: addr}
	s.metrics.received(len(payload))
	s.emit(DataReceived{
		Meta:        newMeta(s.name, EventDataReceived, true, "received %d bytes from %s", len(payload), addr),
		ID:          d.id,
		ByteCount:   len(payload),
		Translation: Printable(payload),
	})

	if len(payload) >= s.opts.MaxDatagramSize {
		s.fail(d, fmt.Errorf("%w: request of %d bytes", errorx.ErrMessageTooLarge, len(payload)))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("panic while handling datagram %d: %v\n%s", d.id, r, debug.Stack())
			s.fail(d, fmt.Errorf("handler panic: %v", r))
		}
	}()
	if err := s.handler.ProcessDatagram(d, payload); err != nil {
		s.fail(d, err)
	}
}

func (s *DatagramServer) fail(d *datagram, err error) {
	s.metrics.clientError()
	s.emit(ClientError{
		Meta: newMeta(s.name, EventClientError, false, "datagram %d from %s failed: %v", d.id, d.addr, err),
		ID:   d.id,
		Err:  err,
	})
}

type datagram struct {
	id   uint64
	srv  *DatagramServer
	pc   net.PacketConn
	addr net.Addr
}

func (d *datagram) ID() uint64 { return d.id }

func (d *datagram) RemoteAddr() net.Addr { return d.addr }

func (d *datagram) Respond(p []byte) error {
	s := d.srv
	if len(p) >= s.opts.MaxDatagramSize {
		return fmt.Errorf("%w: response of %d bytes", errorx.ErrMessageTooLarge, len(p))
	}
	n, err := d.pc.WriteTo(p, d.addr)
	if err != nil {
		return fmt.Errorf("write to %s: %w", d.addr, err)
	}
	s.metrics.sent(n)
	s.emit(DataTransmitted{
		Meta:        newMeta(s.name, EventDataTransmitted, true, "sent %d bytes to %s", n, d.addr),
		ID:          d.id,
		ByteCount:   n,
		Translation: Printable(p),
	})
	return nil
}
