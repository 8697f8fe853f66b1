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

// Package queue delivers an implementation of lock-free concurrent queue based on
// the algorithm presented by Maged M. Michael and Michael L. Scott in 1996: https://dl.acm.org/doi/10.1145/248052.248106
package queue

import "sync/atomic"

// Queue is an unbounded, non-blocking FIFO safe for concurrent producers and consumers.
// The zero value is not usable, create one with New.
type Queue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
}

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// New instantiates and returns an empty Queue.
func New[T any]() *Queue[T] {
	q := new(Queue[T])
	n := new(node[T])
	q.head.Store(n)
	q.tail.Store(n)
	return q
}

// Enqueue puts v at the tail of the queue.
func (q *Queue[T]) Enqueue(v T) {
	n := &node[T]{value: v}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		// Are tail and next consistent?
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// Tail was not pointing to the last node, try to swing it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)
			return
		}
	}
}

// Dequeue removes and returns the value at the head of the queue,
// ok is false when the queue is empty.
func (q *Queue[T]) Dequeue() (v T, ok bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				return v, false
			}
			// Tail is falling behind, try to advance it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		// Read value before CAS, otherwise another dequeue might release the next node.
		v = next.value
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			return v, true
		}
	}
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	return int(q.length.Load())
}

// IsEmpty indicates whether this queue is empty or not.
func (q *Queue[T]) IsEmpty() bool {
	return q.length.Load() == 0
}
