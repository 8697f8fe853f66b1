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

// Package budgetchat implements a line-based chat room. Clients pick a name, are
// told who else is in the room, and then every line they send is relayed to the
// other users. System notices start with '*' so that clients can tell them apart
// from user chat.
package budgetchat

import (
	"fmt"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/ascii"
)

const (
	// Name is the name of the service.
	Name = "Budget Chat"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 3

	// MaxNameLen is the maximum length of a user name.
	MaxNameLen = 32
)

var (
	welcome     = ascii.MustNew("Welcome to budgetchat! What shall I call you?\n")
	invalidName = ascii.MustNew("* Invalid name, goodbye.\n")
	marker      = ascii.MustNew("* ")
	separator   = ascii.MustNew(", ")
	newline     = ascii.MustNew("\n")
)

type state int

const (
	awaitingName state = iota
	joined
	parted
)

// Server is the chat service, every server has its own room.
type Server struct {
	*wireloop.Server
	room *Room
}

var _ wireloop.Service = (*Server)(nil)

// New creates a chat server with an empty room.
func New(opts ...wireloop.Option) *Server {
	s := &Server{room: new(Room)}
	s.Server = wireloop.NewServer(Name, func(*wireloop.Conn) wireloop.Session {
		return &session{room: s.room}
	}, opts...)
	return s
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

// Room returns the room of the server.
func (s *Server) Room() *Room { return s.room }

// ValidName reports whether name can be used to join: non-empty, alphanumeric
// and at most MaxNameLen bytes long.
func ValidName(name ascii.Ascii) bool {
	return name.Len() <= MaxNameLen && name.IsAlphanumeric()
}

type session struct {
	wireloop.BuiltinSession
	room  *Room
	state state
	name  ascii.Ascii
}

func (s *session) OnConnect(c *wireloop.Conn) error {
	return c.Transmit(welcome.Bytes())
}

func (s *session) ProcessUnit(c *wireloop.Conn, unit []byte) (wireloop.Action, error) {
	line := wireloop.TrimLF(unit)
	switch s.state {
	case awaitingName:
		return s.join(c, line)
	case joined:
		return wireloop.None, s.chat(c, line)
	}
	return wireloop.Close, nil
}

func (s *session) join(c *wireloop.Conn, line []byte) (wireloop.Action, error) {
	name, err := ascii.FromBytes(line)
	if err != nil || !ValidName(name) {
		_ = c.Transmit(invalidName.Bytes())
		return wireloop.Close, nil
	}
	others, names, ok := s.room.join(c, name)
	if !ok {
		_ = c.Transmit(invalidName.Bytes())
		return wireloop.Close, nil
	}
	s.state, s.name = joined, name

	b := ascii.NewBuilder(64)
	defer b.Release()
	b.Append(marker).Append(name)
	_ = b.AppendString(" has entered the room\n")
	c.Server().Broadcast(others, b.Build().Bytes())

	b.Reset()
	_ = b.AppendString("* The room contains: ")
	b.Join(separator, names...).Append(newline)
	return wireloop.None, c.Transmit(b.Build().Bytes())
}

func (s *session) chat(c *wireloop.Conn, line []byte) error {
	b := ascii.NewBuilder(len(line) + s.name.Len() + 4)
	defer b.Release()
	_ = b.AppendByte('[')
	b.Append(s.name)
	_ = b.AppendString("] ")
	if err := b.AppendBytes(line); err != nil {
		return fmt.Errorf("chat message: %w", err)
	}
	b.Append(newline)
	c.Server().Broadcast(s.room.others(c), b.Build().Bytes())
	return nil
}

func (s *session) OnDisconnect(c *wireloop.Conn) {
	if s.state != joined {
		s.state = parted
		return
	}
	s.state = parted
	others := s.room.leave(c)
	msg := marker.Concat(s.name, ascii.MustNew(" has left the room\n"))
	c.Server().Broadcast(others, msg.Bytes())
}
