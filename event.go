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
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/wireloop/internal/queue"
)

// EventType tags the concrete kind of an Event.
type EventType int

const (
	// EventServerStarted is the type of ServerStarted.
	EventServerStarted EventType = iota
	// EventServerStopped is the type of ServerStopped.
	EventServerStopped
	// EventServerTerminated is the type of ServerTerminated.
	EventServerTerminated
	// EventClientConnected is the type of ClientConnected.
	EventClientConnected
	// EventClientDisconnected is the type of ClientDisconnected.
	EventClientDisconnected
	// EventDataReceived is the type of DataReceived.
	EventDataReceived
	// EventDataTransmitted is the type of DataTransmitted.
	EventDataTransmitted
	// EventBroadcast is the type of Broadcast.
	EventBroadcast
	// EventClientError is the type of ClientError.
	EventClientError
)

var eventTypeNames = [...]string{
	EventServerStarted:      "ServerStarted",
	EventServerStopped:      "ServerStopped",
	EventServerTerminated:   "ServerTerminated",
	EventClientConnected:    "ClientConnected",
	EventClientDisconnected: "ClientDisconnected",
	EventDataReceived:       "DataReceived",
	EventDataTransmitted:    "DataTransmitted",
	EventBroadcast:          "Broadcast",
	EventClientError:        "ClientError",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return fmt.Sprintf("EventType(%d)", int(t))
	}
	return eventTypeNames[t]
}

// Event is an immutable snapshot of a state transition or an I/O event of a server.
type Event interface {
	// Metadata returns the fields shared by every event.
	Metadata() Meta
	// String returns a one-line human-readable rendering of the event.
	String() string
}

// Meta holds the fields shared by every event.
type Meta struct {
	Type      EventType
	Source    string
	Timestamp time.Time
	Message   string
	Success   bool
}

// Metadata implements Event.
func (m Meta) Metadata() Meta { return m }

func (m Meta) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", m.Timestamp.Format(time.RFC3339Nano), m.Source, m.Type, m.Message)
}

func newMeta(source string, t EventType, success bool, format string, args ...interface{}) Meta {
	return Meta{
		Type:      t,
		Source:    source,
		Timestamp: time.Now(),
		Message:   fmt.Sprintf(format, args...),
		Success:   success,
	}
}

// ServerStarted is emitted once the listener is bound.
type ServerStarted struct {
	Meta
	Endpoint net.Addr
}

// ServerStopped is the last event of a server stopped through Stop.
type ServerStopped struct {
	Meta
}

// ServerTerminated is the last event of a server whose accept loop failed.
type ServerTerminated struct {
	Meta
	Err error
}

// ClientConnected is emitted when a connection is registered.
type ClientConnected struct {
	Meta
	ID       uint64
	Endpoint net.Addr
}

// ClientDisconnected is emitted when a connection has been disposed.
type ClientDisconnected struct {
	Meta
	ID     uint64
	Status ConnStatus
	Reason string
}

// DataReceived is emitted for every chunk read from a connection or every datagram.
type DataReceived struct {
	Meta
	ID          uint64
	ByteCount   int
	Translation string
}

// DataTransmitted is emitted for every successful write.
type DataTransmitted struct {
	Meta
	ID          uint64
	ByteCount   int
	Translation string
	Broadcast   bool
}

// Broadcast is emitted once every recipient of a broadcast has been attempted.
type Broadcast struct {
	Meta
	Recipients  int
	Failures    int
	Translation string
}

// ClientError is emitted when a connection or a datagram fails.
type ClientError struct {
	Meta
	ID  uint64
	Err error
}

// eventQueue is an unbounded FIFO of events drained into a channel by a single
// goroutine, so that emitters never block on a slow consumer.
type eventQueue struct {
	mu     sync.RWMutex // excludes pushes from close
	items  *queue.Queue[Event]
	closed atomic.Bool
	signal chan struct{}
	out    chan Event
}

func newEventQueue(capacity int) *eventQueue {
	q := &eventQueue{
		items:  queue.New[Event](),
		signal: make(chan struct{}, 1),
		out:    make(chan Event, capacity),
	}
	go q.pump()
	return q
}

func (q *eventQueue) push(e Event) {
	q.mu.RLock()
	if q.closed.Load() {
		q.mu.RUnlock()
		return
	}
	q.items.Enqueue(e)
	q.mu.RUnlock()
	q.notify()
}

// close pushes the final event and closes the queue, the channel is closed
// once everything has been delivered.
func (q *eventQueue) close(last Event) {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return
	}
	q.items.Enqueue(last)
	q.closed.Store(true)
	q.mu.Unlock()
	q.notify()
}

func (q *eventQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() {
	for e, ok := q.items.Dequeue(); ok; e, ok = q.items.Dequeue() {
		q.out <- e
	}
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		q.drain()
		if q.closed.Load() {
			q.drain()
			return
		}
		<-q.signal
	}
}
