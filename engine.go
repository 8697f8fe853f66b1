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
	"net"
	"strconv"
	"sync/atomic"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
	"github.com/panjf2000/wireloop/pkg/logging"
)

// engine holds what stream and datagram servers share: naming, options,
// logging, metrics and the event stream of the current run.
type engine struct {
	name    string
	opts    *Options
	logger  logging.Logger
	flush   logging.Flusher
	metrics *metrics
	events  atomic.Pointer[eventQueue] // event stream of the current run
}

func newEngine(name string, options ...Option) engine {
	opts := loadOptions(options...)
	eng := engine{name: name, opts: opts}

	if opts.Logger == nil {
		if opts.LogPath != "" {
			logger, flush, err := logging.CreateLoggerAsLocalFile(opts.LogPath, opts.LogLevel)
			if err != nil {
				logging.Errorf("failed to create the logger of %s at %s: %v", name, opts.LogPath, err)
				opts.Logger = logging.GetDefaultLogger()
			} else {
				opts.Logger, eng.flush = logger, flush
			}
		} else {
			opts.Logger = logging.GetDefaultLogger()
		}
	}
	eng.logger = opts.Logger
	eng.metrics = newMetrics(opts.Registerer, name)
	return eng
}

// Name returns the name the server was created with, it is the source of its events.
func (eng *engine) Name() string { return eng.name }

// emit queues e on the event stream of the current run, if any.
func (eng *engine) emit(e Event) {
	if q := eng.events.Load(); q != nil {
		q.push(e)
	}
}

// openEvents starts the event stream of a new run.
func (eng *engine) openEvents() *eventQueue {
	q := newEventQueue(eng.opts.EventBufferCap)
	eng.events.Store(q)
	return q
}

// closeEvents delivers last and completes the event stream q.
func (eng *engine) closeEvents(q *eventQueue, last Event) {
	eng.events.CompareAndSwap(q, nil)
	q.close(last)
	if eng.flush != nil {
		_ = eng.flush()
	}
}

// lastEvent builds the final event of a run, ServerTerminated when err is not nil.
func (eng *engine) lastEvent(err error) Event {
	if err != nil {
		return ServerTerminated{
			Meta: newMeta(eng.name, EventServerTerminated, false, "terminated: %v", err),
			Err:  err,
		}
	}
	return ServerStopped{Meta: newMeta(eng.name, EventServerStopped, true, "stopped")}
}

// joinHostPort validates port and joins it with address.
func joinHostPort(address string, port int) (string, error) {
	if port < 0 || port > 65535 {
		return "", errorx.ErrInvalidNetworkAddress
	}
	return net.JoinHostPort(address, strconv.Itoa(port)), nil
}
