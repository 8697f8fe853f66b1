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

package kvstore

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop/pkg/ascii"
)

func TestStoreLastWriteWins(t *testing.T) {
	s := New()
	_, ok := s.Get("foo")
	assert.False(t, ok)

	s.Set("foo", ascii.MustNew("=bar"))
	s.Set("foo", ascii.MustNew("=baz"))
	v, ok := s.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "=baz", v.String())
	assert.Equal(t, 1, s.Len())

	// The empty key is a key like any other.
	s.Set("", ascii.MustNew("=empty"))
	v, ok = s.Get("")
	require.True(t, ok)
	assert.Equal(t, "=empty", v.String())
	assert.Equal(t, 2, s.Len())
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := ascii.MustNew("=" + strconv.Itoa(i))
			for j := 0; j < 100; j++ {
				s.Set("shared", value)
				s.Set("key"+strconv.Itoa(i), value)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 33, s.Len())
	v, ok := s.Get("shared")
	require.True(t, ok)
	n, err := strconv.Atoi(v.String()[1:])
	require.NoError(t, err)
	assert.True(t, n >= 0 && n < 32)
}
