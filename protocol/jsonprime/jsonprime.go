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

// Package jsonprime implements a line-delimited JSON service that tells whether
// numbers are prime.
package jsonprime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/panjf2000/wireloop"
	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

const (
	// Name is the name of the service.
	Name = "Prime Time"
	// ProblemID is the number of the problem the service solves.
	ProblemID = 1

	// Method is the only method the service knows.
	Method = "isPrime"
)

// Malformed is the line answered to a request that cannot be decoded.
var Malformed = []byte("malformed\n")

// Request is a decoded request line.
type Request struct {
	Method string
	Number *big.Float
}

// Response is the answer to a well-formed request.
type Response struct {
	Method string `json:"method"`
	Prime  bool   `json:"prime"`
}

const (
	// floatPrec is precise enough for every integer the service can tell prime.
	floatPrec = 1024

	// trialDivisionLimit bounds the integers tested by trial division.
	trialDivisionLimit = 1 << 40
)

// ParseRequest decodes a request line, every deviation from the expected shape
// is reported as errorx.ErrMalformedRequest.
func ParseRequest(line []byte) (*Request, error) {
	// Field names are case-sensitive.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", errorx.ErrMalformedRequest, err)
	}
	var method string
	if err := json.Unmarshal(fields["method"], &method); err != nil || method != Method {
		return nil, fmt.Errorf("%w: missing or unknown method", errorx.ErrMalformedRequest)
	}
	number, ok := fields["number"]
	if !ok {
		return nil, fmt.Errorf("%w: missing number", errorx.ErrMalformedRequest)
	}
	raw := bytes.TrimSpace(number)
	// Only JSON number literals, strings holding numbers do not count.
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return nil, fmt.Errorf("%w: number is not numeric", errorx.ErrMalformedRequest)
	}
	n, _, err := big.ParseFloat(string(raw), 10, floatPrec, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errorx.ErrMalformedRequest, err)
	}
	return &Request{Method: method, Number: n}, nil
}

// IsPrime reports whether n is a prime integer, non-integers are never prime.
func IsPrime(n *big.Float) bool {
	if !n.IsInt() || n.Sign() <= 0 {
		return false
	}
	// Beyond the precision the value is a multiple of a power of two.
	if n.MantExp(nil) > floatPrec {
		return false
	}
	i, _ := n.Int(nil)
	if i.IsInt64() && i.Int64() < trialDivisionLimit {
		return isPrime64(i.Int64())
	}
	// Exact below 2^64, probabilistic above.
	return i.ProbablyPrime(20)
}

// isPrime64 tests n by trial division with the 6k±1 wheel.
func isPrime64(n int64) bool {
	switch {
	case n <= 1:
		return false
	case n <= 3:
		return true
	case n%2 == 0 || n%3 == 0:
		return false
	}
	for i := int64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// Server is the primality service.
type Server struct {
	*wireloop.Server
}

var _ wireloop.Service = (*Server)(nil)

// New creates a primality server.
func New(opts ...wireloop.Option) *Server {
	return &Server{wireloop.NewServer(Name, newSession, opts...)}
}

// ProblemID implements wireloop.Service.
func (*Server) ProblemID() int { return ProblemID }

type session struct {
	wireloop.BuiltinSession
}

func newSession(*wireloop.Conn) wireloop.Session { return new(session) }

func (*session) ProcessUnit(c *wireloop.Conn, unit []byte) (wireloop.Action, error) {
	req, err := ParseRequest(wireloop.TrimLF(unit))
	if err != nil {
		return wireloop.None, err
	}
	resp, err := json.Marshal(Response{Method: Method, Prime: IsPrime(req.Number)})
	if err != nil {
		return wireloop.None, err
	}
	return wireloop.None, c.Transmit(append(resp, wireloop.LF))
}

// OnException answers malformed requests before the connection is closed.
func (*session) OnException(c *wireloop.Conn, err error) {
	if errors.Is(err, errorx.ErrMalformedRequest) {
		_ = c.Transmit(Malformed)
	}
}
