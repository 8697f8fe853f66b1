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
	"testing"

	"github.com/stretchr/testify/assert"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

func TestLineFramer(t *testing.T) {
	var f LineFramer
	assert.Equal(t, 0, f.FindUnitEnd(nil))
	assert.Equal(t, 0, f.FindUnitEnd([]byte("partial")))
	assert.Equal(t, 1, f.FindUnitEnd([]byte("\n")))
	assert.Equal(t, 6, f.FindUnitEnd([]byte("hello\nworld\n")))
}

func TestDelimiterFramer(t *testing.T) {
	f := NewDelimiterFramer(0)
	assert.Equal(t, 0, f.FindUnitEnd([]byte("abc")))
	assert.Equal(t, 4, f.FindUnitEnd([]byte("abc\x00def\x00")))
}

func TestFixedLengthFramer(t *testing.T) {
	f := NewFixedLengthFramer(9)
	assert.Equal(t, 0, f.FindUnitEnd(make([]byte, 8)))
	assert.Equal(t, 9, f.FindUnitEnd(make([]byte, 9)))
	assert.Equal(t, 9, f.FindUnitEnd(make([]byte, 20)))

	assert.PanicsWithValue(t, errorx.ErrInvalidFixedLength, func() { NewFixedLengthFramer(0) })
}

func TestRawFramer(t *testing.T) {
	var f RawFramer
	assert.Equal(t, 0, f.FindUnitEnd(nil))
	assert.Equal(t, 3, f.FindUnitEnd([]byte("abc")))
}

func TestTrimLF(t *testing.T) {
	assert.Equal(t, []byte("abc"), TrimLF([]byte("abc\n")))
	assert.Equal(t, []byte("abc"), TrimLF([]byte("abc")))
	assert.Equal(t, []byte("abc\r"), TrimLF([]byte("abc\r\n")))
	assert.Empty(t, TrimLF(nil))
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, "hello\n", Printable([]byte("hello\n")))
	assert.Equal(t, `"\x00\x01"`, Printable([]byte{0, 1}))
	assert.Equal(t, `"\xff"`, Printable([]byte{0xff}))
	assert.Equal(t, "café", Printable([]byte("café")))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "ServerStarted", EventServerStarted.String())
	assert.Equal(t, "ClientError", EventClientError.String())
	assert.Equal(t, "EventType(42)", EventType(42).String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "ConnStatus(9)", ConnStatus(9).String())
}

func TestEventQueueOrder(t *testing.T) {
	q := newEventQueue(1)
	for i := 0; i < 1000; i++ {
		q.push(DataReceived{ByteCount: i})
	}
	q.close(ServerStopped{})
	q.push(DataReceived{ByteCount: -1})

	var got []Event
	for e := range q.out {
		got = append(got, e)
	}
	if assert.Len(t, got, 1001) {
		for i := 0; i < 1000; i++ {
			assert.Equal(t, i, got[i].(DataReceived).ByteCount)
		}
		assert.IsType(t, ServerStopped{}, got[1000])
	}
}
