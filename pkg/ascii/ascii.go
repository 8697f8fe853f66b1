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

// Package ascii implements an immutable 7-bit byte string and a builder for it.
//
// Text protocols keep their payloads as Ascii so that bytes read off the wire
// can be compared, hashed, stored and written back without transcoding.
package ascii

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/panjf2000/wireloop/pkg/errors"
)

// MaxByte is the largest byte value allowed in an Ascii.
const MaxByte = 0x7f

// Ascii is an immutable sequence of 7-bit bytes.
//
// The zero value is the empty string. An Ascii owns its backing array
// exclusively, nothing outside of this package ever gets a reference to it.
type Ascii struct {
	b []byte
}

// Empty is the empty Ascii.
var Empty = Ascii{}

// validate returns the offset of the first non-ascii byte, or -1.
func validate(p []byte) int {
	for i, c := range p {
		if c > MaxByte {
			return i
		}
	}
	return -1
}

func invalid(off int, c byte) error {
	return fmt.Errorf("%w: byte 0x%02x at offset %d", errors.ErrInvalidEncoding, c, off)
}

// New returns the Ascii holding the bytes of s.
func New(s string) (Ascii, error) {
	for i := 0; i < len(s); i++ {
		if s[i] > MaxByte {
			return Empty, invalid(i, s[i])
		}
	}
	if len(s) == 0 {
		return Empty, nil
	}
	return Ascii{b: []byte(s)}, nil
}

// MustNew is like New but panics on invalid input, it is meant for literals.
func MustNew(s string) Ascii {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes returns an Ascii holding a copy of p.
func FromBytes(p []byte) (Ascii, error) {
	if off := validate(p); off >= 0 {
		return Empty, invalid(off, p[off])
	}
	if len(p) == 0 {
		return Empty, nil
	}
	b := make([]byte, len(p))
	copy(b, p)
	return Ascii{b: b}, nil
}

// FromBuffers returns an Ascii holding the concatenation of a segmented byte sequence.
func FromBuffers(segments [][]byte) (Ascii, error) {
	n, off := 0, 0
	for _, seg := range segments {
		if i := validate(seg); i >= 0 {
			return Empty, invalid(off+i, seg[i])
		}
		n += len(seg)
		off += len(seg)
	}
	if n == 0 {
		return Empty, nil
	}
	b := make([]byte, 0, n)
	for _, seg := range segments {
		b = append(b, seg...)
	}
	return Ascii{b: b}, nil
}

// Len returns the number of bytes.
func (a Ascii) Len() int { return len(a.b) }

// IsEmpty reports whether a holds no bytes.
func (a Ascii) IsEmpty() bool { return len(a.b) == 0 }

// At returns the byte at index i, it panics if i is out of range.
func (a Ascii) At(i int) byte { return a.b[i] }

// CopyTo copies the bytes of a into dst and returns the number of bytes copied.
func (a Ascii) CopyTo(dst []byte) int { return copy(dst, a.b) }

// AppendTo appends the bytes of a to dst.
func (a Ascii) AppendTo(dst []byte) []byte { return append(dst, a.b...) }

// Bytes returns a copy of the underlying bytes.
func (a Ascii) Bytes() []byte {
	if len(a.b) == 0 {
		return nil
	}
	b := make([]byte, len(a.b))
	copy(b, a.b)
	return b
}

// String returns the bytes of a as a string.
func (a Ascii) String() string { return string(a.b) }

// Contains reports whether sub is within a.
func (a Ascii) Contains(sub Ascii) bool { return bytes.Contains(a.b, sub.b) }

// ContainsByte reports whether c is within a.
func (a Ascii) ContainsByte(c byte) bool { return bytes.IndexByte(a.b, c) >= 0 }

// Index returns the index of the first instance of sub in a, or -1.
func (a Ascii) Index(sub Ascii) int { return bytes.Index(a.b, sub.b) }

// IndexByte returns the index of the first instance of c in a, or -1.
func (a Ascii) IndexByte(c byte) int { return bytes.IndexByte(a.b, c) }

// HasPrefix reports whether a begins with prefix.
func (a Ascii) HasPrefix(prefix Ascii) bool { return bytes.HasPrefix(a.b, prefix.b) }

// Slice returns the bytes in [i, j) as a new Ascii.
func (a Ascii) Slice(i, j int) Ascii {
	if i == j {
		return Empty
	}
	b := make([]byte, j-i)
	copy(b, a.b[i:j])
	return Ascii{b: b}
}

// Cut slices a around the first instance of sep, returning the text before
// and from sep on (sep included in after). found is false when sep is absent.
func (a Ascii) Cut(sep byte) (before, after Ascii, found bool) {
	i := bytes.IndexByte(a.b, sep)
	if i < 0 {
		return a, Empty, false
	}
	return a.Slice(0, i), a.Slice(i, len(a.b)), true
}

// Concat returns a new Ascii holding a followed by others.
func (a Ascii) Concat(others ...Ascii) Ascii {
	n := len(a.b)
	for _, o := range others {
		n += len(o.b)
	}
	if n == 0 {
		return Empty
	}
	b := make([]byte, 0, n)
	b = append(b, a.b...)
	for _, o := range others {
		b = append(b, o.b...)
	}
	return Ascii{b: b}
}

// Compare returns an integer comparing a and other lexicographically.
// The result will be 0 if a == other, -1 if a < other, and +1 if a > other.
func (a Ascii) Compare(other Ascii) int { return bytes.Compare(a.b, other.b) }

// Equal reports whether a and other have the same length and bytes.
func (a Ascii) Equal(other Ascii) bool { return bytes.Equal(a.b, other.b) }

// EqualBytes reports whether a holds exactly p.
func (a Ascii) EqualBytes(p []byte) bool { return bytes.Equal(a.b, p) }

// Hash returns the xxhash of the bytes of a, equal values always hash equally.
func (a Ascii) Hash() uint64 { return xxhash.Sum64(a.b) }

// IsAlphanumeric reports whether a is non-empty and holds only letters and digits.
func (a Ascii) IsAlphanumeric() bool {
	if len(a.b) == 0 {
		return false
	}
	for _, c := range a.b {
		if !IsAlphanumeric(c) {
			return false
		}
	}
	return true
}

// IsAlphanumeric reports whether c is an ascii letter or digit.
func IsAlphanumeric(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// IsSpace reports whether c is ascii whitespace.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
