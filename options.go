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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/panjf2000/wireloop/pkg/logging"
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	if opts.ReadBufferCap <= 0 {
		opts.ReadBufferCap = DefaultReadBufferCap
	}
	if opts.EventBufferCap <= 0 {
		opts.EventBufferCap = DefaultEventBufferCap
	}
	if opts.MaxDatagramSize <= 0 {
		opts.MaxDatagramSize = DefaultMaxDatagramSize
	}
	return opts
}

const (
	// DefaultReadBufferCap is the size of the chunk read from a connection at once.
	DefaultReadBufferCap = 4096
	// DefaultEventBufferCap is the capacity of the channel returned by Start.
	DefaultEventBufferCap = 256
	// DefaultMaxDatagramSize is the size a datagram must stay below, in bytes.
	DefaultMaxDatagramSize = 1000
)

// Options are configurations for the wireloop servers.
type Options struct {
	// ReadBufferCap is the maximum number of bytes that can be read from the peer at once.
	ReadBufferCap int

	// MaxUnitSize limits the number of buffered bytes that do not form a complete unit yet,
	// the connection fails with ErrMessageTooLarge above it. Zero means no limit.
	MaxUnitSize int

	// WriteTimeout bounds every write to a connection, a peer that does not read
	// fails the write once it expires. Zero means no limit.
	WriteTimeout time.Duration

	// MaxDatagramSize is the exclusive upper bound of the size of datagrams, in both directions.
	MaxDatagramSize int

	// EventBufferCap is the capacity of the event channel, events beyond it are queued
	// in memory until the consumer catches up.
	EventBufferCap int

	// ReusePort indicates whether to set up the SO_REUSEPORT socket option.
	ReusePort bool

	// ReuseAddr indicates whether to set up the SO_REUSEADDR socket option.
	ReuseAddr bool

	// SocketRecvBuffer sets the maximum socket receive buffer in bytes.
	SocketRecvBuffer int

	// SocketSendBuffer sets the maximum socket send buffer in bytes.
	SocketSendBuffer int

	// TCPKeepAlive sets up a duration for (SO_KEEPALIVE) socket option.
	TCPKeepAlive time.Duration

	// BroadcastPoolSize is the capacity of the worker pool used by Broadcast.
	BroadcastPoolSize int

	// Registerer receives the metrics collectors of the server, metrics are off when nil.
	Registerer prometheus.Registerer

	// LogPath the local path where logs will be written, this is the easiest way to set up logging,
	// wireloop instantiates a default uber-go/zap logger with this given log path, you are also allowed to employ
	// you own logger during the lifetime by implementing the following log.Logger interface.
	//
	// Note that this option can be overridden by the option Logger.
	LogPath string

	// LogLevel indicates the logging level, it should be used along with LogPath.
	LogLevel logging.Level

	// Logger is the customized logger for logging info, if it is not set,
	// then wireloop will use the default logger powered by go.uber.org/zap.
	Logger logging.Logger
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithReadBufferCap sets up ReadBufferCap for reading bytes.
func WithReadBufferCap(readBufferCap int) Option {
	return func(opts *Options) {
		opts.ReadBufferCap = readBufferCap
	}
}

// WithMaxUnitSize sets up the limit of buffered bytes of an incomplete unit.
func WithMaxUnitSize(size int) Option {
	return func(opts *Options) {
		opts.MaxUnitSize = size
	}
}

// WithWriteTimeout sets up the limit of every write to a connection.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.WriteTimeout = timeout
	}
}

// WithMaxDatagramSize sets up the exclusive upper bound of datagram sizes.
func WithMaxDatagramSize(size int) Option {
	return func(opts *Options) {
		opts.MaxDatagramSize = size
	}
}

// WithEventBufferCap sets up the capacity of the event channel.
func WithEventBufferCap(capacity int) Option {
	return func(opts *Options) {
		opts.EventBufferCap = capacity
	}
}

// WithReusePort sets up SO_REUSEPORT socket option.
func WithReusePort(reusePort bool) Option {
	return func(opts *Options) {
		opts.ReusePort = reusePort
	}
}

// WithReuseAddr sets up SO_REUSEADDR socket option.
func WithReuseAddr(reuseAddr bool) Option {
	return func(opts *Options) {
		opts.ReuseAddr = reuseAddr
	}
}

// WithSocketRecvBuffer sets the maximum socket receive buffer in bytes.
func WithSocketRecvBuffer(recvBuf int) Option {
	return func(opts *Options) {
		opts.SocketRecvBuffer = recvBuf
	}
}

// WithSocketSendBuffer sets the maximum socket send buffer in bytes.
func WithSocketSendBuffer(sendBuf int) Option {
	return func(opts *Options) {
		opts.SocketSendBuffer = sendBuf
	}
}

// WithTCPKeepAlive sets up the SO_KEEPALIVE socket option with duration.
func WithTCPKeepAlive(tcpKeepAlive time.Duration) Option {
	return func(opts *Options) {
		opts.TCPKeepAlive = tcpKeepAlive
	}
}

// WithBroadcastPoolSize sets up the capacity of the broadcast worker pool.
func WithBroadcastPoolSize(size int) Option {
	return func(opts *Options) {
		opts.BroadcastPoolSize = size
	}
}

// WithMetrics registers the metrics of the server with registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = registerer
	}
}

// WithLogPath is an option to set up the local path of log file.
func WithLogPath(fileName string) Option {
	return func(opts *Options) {
		opts.LogPath = fileName
	}
}

// WithLogLevel is an option to set up the logging level.
func WithLogLevel(lvl logging.Level) Option {
	return func(opts *Options) {
		opts.LogLevel = lvl
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
