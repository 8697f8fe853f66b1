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

package ascii

import (
	bbPool "github.com/panjf2000/wireloop/pkg/pool/bytebuffer"
)

// Builder incrementally assembles an Ascii.
//
// The builder owns a pooled buffer whose capacity at least doubles whenever an
// append does not fit. Build copies the content out, so the builder can keep
// appending or be released afterwards. A Builder must not be copied after
// first use and is not safe for concurrent use.
type Builder struct {
	buf *bbPool.ByteBuffer
}

// NewBuilder returns a Builder with room for at least size bytes.
func NewBuilder(size int) *Builder {
	b := &Builder{buf: bbPool.Get()}
	if size > 0 {
		bbPool.Grow(b.buf, size)
	}
	return b
}

func (b *Builder) grow(n int) {
	if b.buf == nil {
		b.buf = bbPool.Get()
	}
	bbPool.Grow(b.buf, n)
}

// Len returns the number of bytes appended so far.
func (b *Builder) Len() int {
	if b.buf == nil {
		return 0
	}
	return len(b.buf.B)
}

// Cap returns the capacity of the underlying buffer.
func (b *Builder) Cap() int {
	if b.buf == nil {
		return 0
	}
	return cap(b.buf.B)
}

// Append appends the bytes of a.
func (b *Builder) Append(a Ascii) *Builder {
	b.grow(len(a.b))
	b.buf.B = append(b.buf.B, a.b...)
	return b
}

// AppendByte appends a single byte, which must be 7-bit.
func (b *Builder) AppendByte(c byte) error {
	if c > MaxByte {
		return invalid(b.Len(), c)
	}
	b.grow(1)
	b.buf.B = append(b.buf.B, c)
	return nil
}

// AppendBytes validates and appends p, nothing is appended when p holds a non-ascii byte.
func (b *Builder) AppendBytes(p []byte) error {
	if off := validate(p); off >= 0 {
		return invalid(b.Len()+off, p[off])
	}
	b.grow(len(p))
	b.buf.B = append(b.buf.B, p...)
	return nil
}

// AppendString validates and appends s.
func (b *Builder) AppendString(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > MaxByte {
			return invalid(b.Len()+i, s[i])
		}
	}
	b.grow(len(s))
	b.buf.B = append(b.buf.B, s...)
	return nil
}

// AppendFill appends n copies of c.
func (b *Builder) AppendFill(c byte, n int) error {
	if c > MaxByte {
		return invalid(b.Len(), c)
	}
	if n <= 0 {
		return nil
	}
	b.grow(n)
	for i := 0; i < n; i++ {
		b.buf.B = append(b.buf.B, c)
	}
	return nil
}

// AppendSegments appends every segment of a segmented byte sequence in order.
// All segments are validated before anything is appended.
func (b *Builder) AppendSegments(segments [][]byte) error {
	n, off := 0, b.Len()
	for _, seg := range segments {
		if i := validate(seg); i >= 0 {
			return invalid(off+n+i, seg[i])
		}
		n += len(seg)
	}
	b.grow(n)
	for _, seg := range segments {
		b.buf.B = append(b.buf.B, seg...)
	}
	return nil
}

// Join appends items separated by sep.
func (b *Builder) Join(sep Ascii, items ...Ascii) *Builder {
	for i, item := range items {
		if i > 0 {
			b.Append(sep)
		}
		b.Append(item)
	}
	return b
}

// Reset discards the content but keeps the buffer.
func (b *Builder) Reset() {
	if b.buf != nil {
		b.buf.Reset()
	}
}

// Build returns an Ascii holding a copy of the appended bytes.
func (b *Builder) Build() Ascii {
	if b.Len() == 0 {
		return Empty
	}
	out := make([]byte, len(b.buf.B))
	copy(out, b.buf.B)
	return Ascii{b: out}
}

// Release hands the buffer back to the pool, the builder is empty afterwards.
func (b *Builder) Release() {
	if b.buf == nil {
		return
	}
	bbPool.Put(b.buf)
	b.buf = nil
}
