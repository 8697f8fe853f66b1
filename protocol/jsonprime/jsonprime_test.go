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

package jsonprime

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/internal/testkit"
	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

func TestIsPrime(t *testing.T) {
	tests := []struct {
		number string
		prime  bool
	}{
		{"-7", false},
		{"0", false},
		{"1", false},
		{"2", true},
		{"3", true},
		{"4", false},
		{"5", true},
		{"7", true},
		{"8", false},
		{"25", false},
		{"49", false},
		{"7919", true},
		{"7.5", false},
		{"7.0", true},
		{"1e3", false},
		{"2147483647", true},
		{"9223372036854775783", true},
		{"9223372036854775807", false},
		{"170141183460469231731687303715884105727", true},
		{"170141183460469231731687303715884105729", false},
		{"1e400", false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			n, _, err := big.ParseFloat(tt.number, 10, floatPrec, big.ToNearestEven)
			require.NoError(t, err)
			assert.Equal(t, tt.prime, IsPrime(n))
		})
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"method":"isPrime","number":7,"extra":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, Method, req.Method)
	assert.True(t, IsPrime(req.Number))

	for _, line := range []string{
		`not json`,
		`{}`,
		`{"method":"isPrime"}`,
		`{"method":"isPrime","number":null}`,
		`{"method":"isPrime","number":"7"}`,
		`{"method":"isprime","number":7}`,
		`{"method":7,"number":7}`,
		`{"number":7}`,
		`[{"method":"isPrime","number":7}]`,
		`{"method":"isPrime","number":7`,
		`{"METHOD":"isPrime","NUMBER":7}`,
		`{"Method":"isPrime","Number":7}`,
		`{"method":"isPrime","Number":7}`,
		`null`,
	} {
		_, err := ParseRequest([]byte(line))
		assert.ErrorIsf(t, err, errorx.ErrMalformedRequest, "line %s", line)
	}
}

func TestSession(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)
	c := testkit.Dial(t, srv.Addr())

	c.SendLine(t, `{"method":"isPrime","number":7}`)
	assert.Equal(t, `{"method":"isPrime","prime":true}`, c.ReadLine(t))
	c.SendLine(t, `{"method":"isPrime","number":8}`)
	assert.Equal(t, `{"method":"isPrime","prime":false}`, c.ReadLine(t))
	c.SendLine(t, `{"method":"isPrime","number":7.5}`)
	assert.Equal(t, `{"method":"isPrime","prime":false}`, c.ReadLine(t))

	// Several requests in one write are answered in order.
	c.Send(t, []byte("{\"method\":\"isPrime\",\"number\":13}\n{\"method\":\"isPrime\",\"number\":15}\n"))
	assert.Equal(t, `{"method":"isPrime","prime":true}`, c.ReadLine(t))
	assert.Equal(t, `{"method":"isPrime","prime":false}`, c.ReadLine(t))
}

func TestMalformed(t *testing.T) {
	srv := New()
	events := testkit.Start(t, srv)
	c := testkit.Dial(t, srv.Addr())

	c.SendLine(t, `not json`)
	assert.Equal(t, "malformed", c.ReadLine(t))
	c.ExpectClosed(t)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventClientError)).(wireloop.ClientError)
	assert.ErrorIs(t, e.Err, errorx.ErrMalformedRequest)
}

func TestMalformedDoesNotAffectOthers(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)
	good := testkit.Dial(t, srv.Addr())
	bad := testkit.Dial(t, srv.Addr())

	bad.SendLine(t, `{"method":"isPrime"}`)
	assert.Equal(t, "malformed", bad.ReadLine(t))

	good.SendLine(t, `{"method":"isPrime","number":2}`)
	assert.Equal(t, `{"method":"isPrime","prime":true}`, good.ReadLine(t))
}

func TestTrialDivisionAgreesWithBig(t *testing.T) {
	for n := int64(-10); n < 20000; n++ {
		require.Equalf(t, big.NewInt(n).ProbablyPrime(0), isPrime64(n), "n=%d", n)
	}
}
