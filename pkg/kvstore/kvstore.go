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

// Package kvstore provides the concurrency-safe key/value store shared by the
// datagrams of a single UDP database server.
package kvstore

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/panjf2000/wireloop/pkg/ascii"
)

// Store maps keys to ascii values. Every operation is atomic for its key;
// there is no locking across keys. Entries never expire.
type Store struct {
	cache *gocache.Cache
}

// New returns an empty Store.
func New() *Store {
	return &Store{cache: gocache.New(gocache.NoExpiration, 0)}
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key string, value ascii.Ascii) {
	s.cache.Set(key, value, gocache.NoExpiration)
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (ascii.Ascii, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return ascii.Empty, false
	}
	return v.(ascii.Ascii), true
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
