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
	"net"
	"strconv"
	"unicode/utf8"
)

// Action is an action that occurs after the completion of a unit.
type Action int

const (
	// None indicates that no action should occur following a unit.
	None Action = iota

	// Close closes the connection gracefully once the unit has been processed.
	Close
)

// Session is the per-connection protocol state machine driven by the framing loop
// of a Conn. A Session is created by a SessionFactory for every connection and is
// only ever called from that connection's goroutine, except for Translate which
// may also be called while other connections transmit to it.
type Session interface {
	// OnConnect fires right after the connection has been registered, before
	// anything is read from it. Returning an error closes the connection.
	OnConnect(c *Conn) (err error)

	// FindUnitEnd returns the length of the first complete unit at the start of buf,
	// or zero when buf does not hold a complete unit yet.
	FindUnitEnd(buf []byte) (n int)

	// ProcessUnit handles one complete unit, it may write responses through c.Transmit.
	// The unit slice is only valid until ProcessUnit returns, copy it to retain it.
	// A non-nil error is treated as a protocol exception and ends the connection.
	ProcessUnit(c *Conn, unit []byte) (action Action, err error)

	// OnDisconnect fires exactly once when the connection's loop ends, whatever the reason.
	OnDisconnect(c *Conn)

	// OnException fires when the connection ends because of an error, before OnDisconnect.
	// The connection may still be written to from within OnException.
	OnException(c *Conn, err error)

	// Translate renders raw bytes of the protocol into human-readable text for events.
	Translate(p []byte) string
}

// SessionFactory creates the Session for a newly registered connection.
type SessionFactory func(c *Conn) Session

// BuiltinSession is a built-in implementation of Session which sets up each method
// with a default implementation: units are newline-terminated lines and all
// hooks do nothing. Protocols embed it and override what they need.
type BuiltinSession struct{}

// OnConnect fires right after the connection has been registered.
func (*BuiltinSession) OnConnect(_ *Conn) (err error) {
	return
}

// FindUnitEnd frames newline-terminated lines.
func (*BuiltinSession) FindUnitEnd(buf []byte) int {
	return LineFramer{}.FindUnitEnd(buf)
}

// ProcessUnit discards the unit.
func (*BuiltinSession) ProcessUnit(_ *Conn, _ []byte) (action Action, err error) {
	return
}

// OnDisconnect fires when the connection's loop ends.
func (*BuiltinSession) OnDisconnect(_ *Conn) {
}

// OnException fires when the connection ends because of an error.
func (*BuiltinSession) OnException(_ *Conn, _ error) {
}

// Translate renders p as printable text.
func (*BuiltinSession) Translate(p []byte) string {
	return Printable(p)
}

// Service is a protocol server which can be started and stopped by the
// collaborators that consume its event stream.
type Service interface {
	// Name returns the human-readable name of the protocol.
	Name() string
	// ProblemID returns the number of the problem this service solves.
	ProblemID() int
	// Start binds address:port and returns the stream of events of the service.
	Start(ctx context.Context, address string, port int) (<-chan Event, error)
	// Stop releases every resource of the service and completes its event stream.
	Stop() error
	// Addr returns the bound address, nil when not listening.
	Addr() net.Addr
}

// Printable returns p as text when it is made of printable utf-8 and common
// whitespace, and as a quoted Go string literal otherwise.
func Printable(p []byte) string {
	if !utf8.Valid(p) {
		return strconv.Quote(string(p))
	}
	for _, r := range string(p) {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if !strconv.IsPrint(r) {
			return strconv.Quote(string(p))
		}
	}
	return string(p)
}
