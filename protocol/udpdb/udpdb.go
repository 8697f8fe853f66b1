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

// Package udpdb implements a key-value store spoken over single UDP datagrams.
// A datagram holding '=' inserts, anything else retrieves the key it holds.
package udpdb

import (
	"fmt"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/ascii"
	"github.com/panjf2000/wireloop/pkg/kvstore"
)

const (
	// Name is the name of the service.
	Name = "Unusual Database Program"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 4

	// VersionKey is the reserved key answered with the version of the server.
	VersionKey = "version"
	// DefaultVersion is the version of the server unless configured otherwise.
	DefaultVersion = "Ken's Key-Value Store 1.0"
)

// Server is the key-value service.
type Server struct {
	*wireloop.DatagramServer
	handler *Handler
}

var _ wireloop.Service = (*Server)(nil)

// New creates a key-value server over store, a nil store gets a fresh one.
// An empty version falls back to DefaultVersion.
func New(store *kvstore.Store, version string, opts ...wireloop.Option) *Server {
	h := NewHandler(store, version)
	return &Server{
		DatagramServer: wireloop.NewDatagramServer(Name, h, opts...),
		handler:        h,
	}
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

// Store returns the store of the server.
func (s *Server) Store() *kvstore.Store { return s.handler.store }

// Handler answers insert and retrieve requests.
type Handler struct {
	store   *kvstore.Store
	version ascii.Ascii
}

// NewHandler creates a handler over store.
func NewHandler(store *kvstore.Store, version string) *Handler {
	if store == nil {
		store = kvstore.New()
	}
	if version == "" {
		version = DefaultVersion
	}
	v, err := ascii.New("=" + version)
	if err != nil {
		panic(fmt.Sprintf("udpdb: invalid version %q: %v", version, err))
	}
	return &Handler{store: store, version: v}
}

// ProcessDatagram implements wireloop.DatagramHandler.
func (h *Handler) ProcessDatagram(w wireloop.Responder, payload []byte) error {
	req, err := ascii.FromBytes(payload)
	if err != nil {
		return err
	}

	key, value, insert := req.Cut('=')
	if insert {
		if key.String() != VersionKey {
			h.store.Set(key.String(), value)
		}
		return nil
	}

	if key.String() == VersionKey {
		return w.Respond(key.Concat(h.version).Bytes())
	}
	value, ok := h.store.Get(key.String())
	if !ok {
		// Unknown keys are not answered.
		return nil
	}
	return w.Respond(key.Concat(value).Bytes())
}
