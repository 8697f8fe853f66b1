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

// Package mobproxy implements a transparent line proxy in front of a chat
// server which rewrites every address it relays, in both directions.
package mobproxy

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/panjf2000/wireloop"
)

const (
	// Name is the name of the service.
	Name = "Mob in the Middle"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 5

	// DefaultUpstream is the chat server proxied unless configured otherwise.
	DefaultUpstream = "chat.protohackers.com:16963"
	// DefaultToken is the address substituted unless configured otherwise.
	DefaultToken = "7YWHMfk9JZe0LM0g1ZauHuiSxhI"
	// DefaultDialTimeout bounds the connection to the upstream server.
	DefaultDialTimeout = 10 * time.Second
)

// Config sets up the proxy.
type Config struct {
	// Upstream is the host:port of the proxied chat server.
	Upstream string
	// Token is the address that replaces every address relayed.
	Token string
	// DialTimeout bounds the connection to Upstream.
	DialTimeout time.Duration
}

func (cfg *Config) normalize() {
	if cfg.Upstream == "" {
		cfg.Upstream = DefaultUpstream
	}
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
}

// Server is the proxy service.
type Server struct {
	*wireloop.Server
	cfg      Config
	rewriter *Rewriter
}

var _ wireloop.Service = (*Server)(nil)

// New creates a proxy server, zero fields of cfg get their defaults.
func New(cfg Config, opts ...wireloop.Option) (*Server, error) {
	cfg.normalize()
	rw, err := NewRewriter(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("mobproxy: token: %w", err)
	}
	s := &Server{cfg: cfg, rewriter: rw}
	s.Server = wireloop.NewServer(Name, s.newDownstream, opts...)
	return s, nil
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

// Config returns the configuration of the proxy.
func (s *Server) Config() Config { return s.cfg }

func (s *Server) newDownstream(*wireloop.Conn) wireloop.Session {
	return &leg{srv: s}
}

// leg relays the lines of its connection to the peer connection, rewritten.
// The downstream leg is the accepted client, it opens the upstream leg.
type leg struct {
	wireloop.BuiltinSession
	srv  *Server
	peer *wireloop.Conn
}

func (l *leg) OnConnect(c *wireloop.Conn) error {
	if l.peer != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.srv.cfg.DialTimeout)
	defer cancel()
	var d net.Dialer
	rwc, err := d.DialContext(ctx, "tcp", l.srv.cfg.Upstream)
	if err != nil {
		return fmt.Errorf("dial upstream %s: %w", l.srv.cfg.Upstream, err)
	}
	up, err := c.Server().Adopt(rwc, func(*wireloop.Conn) wireloop.Session {
		return &leg{srv: l.srv, peer: c}
	})
	if err != nil {
		return err
	}
	l.peer = up
	return nil
}

func (l *leg) ProcessUnit(_ *wireloop.Conn, unit []byte) (wireloop.Action, error) {
	line, err := l.srv.rewriter.Rewrite(unit)
	if err != nil {
		return wireloop.None, err
	}
	return wireloop.None, l.peer.Transmit(line)
}

func (l *leg) OnDisconnect(*wireloop.Conn) {
	if l.peer != nil {
		_ = l.peer.Close()
	}
}
