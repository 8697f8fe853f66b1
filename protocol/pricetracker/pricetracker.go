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

// Package pricetracker implements a binary time-series service. Every client
// inserts timestamped prices into its own history and queries the mean price
// over a range of time.
package pricetracker

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/panjf2000/wireloop"
	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

const (
	// Name is the name of the service.
	Name = "Means to an End"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 2

	// UnitSize is the size of every request: a type byte and two big-endian int32.
	UnitSize = 9

	// Insert is the type byte of an insert request.
	Insert = 'I'
	// Query is the type byte of a query request.
	Query = 'Q'
)

// Record is one timestamped price.
type Record struct {
	Timestamp int32
	Price     int32
}

// Mean returns the mean price of the records within [minTime, maxTime], truncated
// toward zero. It is zero when the range is inverted or matches nothing.
func Mean(history []Record, minTime, maxTime int32) int32 {
	if minTime > maxTime {
		return 0
	}
	var sum, n int64
	for _, r := range history {
		if r.Timestamp >= minTime && r.Timestamp <= maxTime {
			sum += int64(r.Price)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int32(sum / n)
}

// Server is the price tracking service.
type Server struct {
	*wireloop.Server
}

var _ wireloop.Service = (*Server)(nil)

// New creates a price tracking server.
func New(opts ...wireloop.Option) *Server {
	return &Server{wireloop.NewServer(Name, newSession, opts...)}
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

type session struct {
	wireloop.BuiltinSession
	framer  wireloop.FixedLengthFramer
	history []Record
}

func newSession(*wireloop.Conn) wireloop.Session {
	return &session{framer: wireloop.NewFixedLengthFramer(UnitSize)}
}

func (s *session) FindUnitEnd(buf []byte) int {
	return s.framer.FindUnitEnd(buf)
}

func (s *session) ProcessUnit(c *wireloop.Conn, unit []byte) (wireloop.Action, error) {
	a := int32(binary.BigEndian.Uint32(unit[1:5]))
	b := int32(binary.BigEndian.Uint32(unit[5:9]))

	switch unit[0] {
	case Insert:
		s.history = append(s.history, Record{Timestamp: a, Price: b})
		return wireloop.None, nil
	case Query:
		var resp [4]byte
		binary.BigEndian.PutUint32(resp[:], uint32(Mean(s.history, a, b)))
		return wireloop.None, c.Transmit(resp[:])
	default:
		return wireloop.None, fmt.Errorf("%w: %#02x", errorx.ErrUnknownMessageType, unit[0])
	}
}

// Translate renders requests and responses, anything else is rendered as hex.
func (*session) Translate(p []byte) string {
	switch {
	case len(p) == UnitSize && p[0] == Insert:
		return fmt.Sprintf("I timestamp=%d price=%d", int32(binary.BigEndian.Uint32(p[1:5])), int32(binary.BigEndian.Uint32(p[5:9])))
	case len(p) == UnitSize && p[0] == Query:
		return fmt.Sprintf("Q min=%d max=%d", int32(binary.BigEndian.Uint32(p[1:5])), int32(binary.BigEndian.Uint32(p[5:9])))
	case len(p) == 4:
		return fmt.Sprintf("mean=%d", int32(binary.BigEndian.Uint32(p)))
	}
	return hex.EncodeToString(p)
}
