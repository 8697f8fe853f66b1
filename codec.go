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
	"bytes"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

// LF is the byte that terminates a line.
const LF = byte('\n')

// Framer delimits units within the bytes buffered for a connection.
type Framer interface {
	// FindUnitEnd returns the length of the first complete unit at the start of buf,
	// or zero when buf does not hold a complete unit yet.
	FindUnitEnd(buf []byte) int
}

// LineFramer frames units terminated by LF, the delimiter is part of the unit.
type LineFramer struct{}

// FindUnitEnd implements Framer.
func (LineFramer) FindUnitEnd(buf []byte) int {
	return bytes.IndexByte(buf, LF) + 1
}

// DelimiterFramer frames units terminated by a specific byte, the delimiter is part of the unit.
type DelimiterFramer struct {
	delimiter byte
}

// NewDelimiterFramer instantiates and returns a framer with a specific delimiter.
func NewDelimiterFramer(delimiter byte) DelimiterFramer {
	return DelimiterFramer{delimiter}
}

// FindUnitEnd implements Framer.
func (f DelimiterFramer) FindUnitEnd(buf []byte) int {
	return bytes.IndexByte(buf, f.delimiter) + 1
}

// FixedLengthFramer frames units of a fixed size.
type FixedLengthFramer struct {
	unitLength int
}

// NewFixedLengthFramer instantiates and returns a framer with fixed length,
// it panics when unitLength is not positive.
func NewFixedLengthFramer(unitLength int) FixedLengthFramer {
	if unitLength <= 0 {
		panic(errorx.ErrInvalidFixedLength)
	}
	return FixedLengthFramer{unitLength}
}

// FindUnitEnd implements Framer.
func (f FixedLengthFramer) FindUnitEnd(buf []byte) int {
	if len(buf) < f.unitLength {
		return 0
	}
	return f.unitLength
}

// RawFramer treats whatever has been buffered as one unit.
type RawFramer struct{}

// FindUnitEnd implements Framer.
func (RawFramer) FindUnitEnd(buf []byte) int {
	return len(buf)
}

// TrimLF returns unit without its trailing LF, if any.
func TrimLF(unit []byte) []byte {
	if n := len(unit); n > 0 && unit[n-1] == LF {
		return unit[:n-1]
	}
	return unit
}
