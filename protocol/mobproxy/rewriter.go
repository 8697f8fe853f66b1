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

package mobproxy

import (
	"bytes"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/ascii"
)

const (
	// AddressMarker is the first byte of every address.
	AddressMarker = '7'
	// MinAddressLen is the minimum length of an address.
	MinAddressLen = 26
	// MaxAddressLen is the maximum length of an address.
	MaxAddressLen = 35
)

var space = []byte{' '}

// IsAddress reports whether tok looks like an address: 26 to 35 alphanumeric
// bytes starting with AddressMarker.
func IsAddress(tok []byte) bool {
	if len(tok) < MinAddressLen || len(tok) > MaxAddressLen || tok[0] != AddressMarker {
		return false
	}
	for _, c := range tok {
		if !ascii.IsAlphanumeric(c) {
			return false
		}
	}
	return true
}

// Rewriter replaces every address of a line with a fixed token.
type Rewriter struct {
	token ascii.Ascii
}

// NewRewriter creates a Rewriter that substitutes token for addresses.
func NewRewriter(token string) (*Rewriter, error) {
	t, err := ascii.New(token)
	if err != nil {
		return nil, err
	}
	return &Rewriter{token: t}, nil
}

// Token returns the substitution token.
func (r *Rewriter) Token() ascii.Ascii { return r.token }

// Rewrite returns line with every space-delimited address replaced by the token.
// Everything else, the trailing newline included, is kept byte for byte.
func (r *Rewriter) Rewrite(line []byte) ([]byte, error) {
	content := wireloop.TrimLF(line)
	tokens := bytes.Split(content, space)

	token := r.token.Bytes()
	segments := make([][]byte, 0, 2*len(tokens)+1)
	for i, tok := range tokens {
		if i > 0 {
			segments = append(segments, space)
		}
		if IsAddress(tok) {
			tok = token
		}
		segments = append(segments, tok)
	}
	if len(content) < len(line) {
		segments = append(segments, line[len(content):])
	}

	b := ascii.NewBuilder(len(line) + MaxAddressLen)
	defer b.Release()
	if err := b.AppendSegments(segments); err != nil {
		return nil, err
	}
	return b.Build().Bytes(), nil
}
