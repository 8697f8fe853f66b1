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

// Package smoketest implements a TCP echo service: every byte received is sent
// back verbatim, and the connection ends once the client has finished sending.
package smoketest

import (
	"github.com/panjf2000/wireloop"
)

const (
	// Name is the name of the service.
	Name = "Smoke Test"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 0
)

// Server is the echo service.
type Server struct {
	*wireloop.Server
}

var _ wireloop.Service = (*Server)(nil)

// New creates an echo server.
func New(opts ...wireloop.Option) *Server {
	return &Server{wireloop.NewServer(Name, newSession, opts...)}
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

type session struct {
	wireloop.BuiltinSession
	wireloop.RawFramer
}

func newSession(*wireloop.Conn) wireloop.Session { return new(session) }

func (s *session) FindUnitEnd(buf []byte) int {
	return s.RawFramer.FindUnitEnd(buf)
}

func (*session) ProcessUnit(c *wireloop.Conn, unit []byte) (wireloop.Action, error) {
	return wireloop.None, c.Transmit(unit)
}
