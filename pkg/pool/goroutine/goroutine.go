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

// Package goroutine provides the worker pool that wireloop servers use to fan out
// broadcast writes, backed by github.com/panjf2000/ants/v2.
package goroutine

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPoolSize sets up the capacity of the broadcast worker pool.
	DefaultPoolSize = 1 << 12

	// ExpiryDuration is the interval time to clean up those expired workers.
	ExpiryDuration = 10 * time.Second

	// Nonblocking decides what to do when submitting a new task to a full worker pool: waiting for a available worker
	// or returning ants.ErrPoolOverload directly.
	Nonblocking = true
)

func init() {
	// It releases the default pool from ants.
	ants.Release()
}

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// ErrPoolOverload is returned by Submit when a non-blocking pool is saturated.
var ErrPoolOverload = ants.ErrPoolOverload

// Default instantiates a non-blocking *Pool with the capacity of DefaultPoolSize.
func Default() *Pool {
	return New(DefaultPoolSize)
}

// New instantiates a non-blocking *Pool with the given capacity, a non-positive
// size falls back to DefaultPoolSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	options := ants.Options{ExpiryDuration: ExpiryDuration, Nonblocking: Nonblocking}
	pool, _ := ants.NewPool(size, ants.WithOptions(options))
	return pool
}

// Submit runs task on the pool, it falls back to a plain goroutine when the pool
// is overloaded or already released so that the task is never dropped.
func Submit(pool *Pool, task func()) {
	if pool == nil || pool.Submit(task) != nil {
		go task()
	}
}
