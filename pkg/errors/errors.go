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

// Package errors defines common errors for wireloop.
package errors

import "errors"

var (
	// ErrAlreadyListening occurs when Start is called on a server that is already listening.
	ErrAlreadyListening = errors.New("wireloop: server is already listening")
	// ErrNotListening occurs when Stop is called on a server that is not listening.
	ErrNotListening = errors.New("wireloop: server is not listening")
	// ErrAcceptSocket occurs when acceptor does not accept the new connection properly.
	ErrAcceptSocket = errors.New("wireloop: accept a new connection error")
	// ErrInvalidNetworkAddress occurs when the network address is invalid.
	ErrInvalidNetworkAddress = errors.New("wireloop: invalid network address")
	// ErrUnsupportedProtocol occurs when trying to use protocol that is not supported.
	ErrUnsupportedProtocol = errors.New("wireloop: only tcp/tcp4/tcp6, udp/udp4/udp6 are supported")
	// ErrConnectionClosed occurs when operating on a connection that has already been closed.
	ErrConnectionClosed = errors.New("wireloop: connection is closed")
	// ErrUnsupportedOp occurs when calling some methods that are not supported on the current platform.
	ErrUnsupportedOp = errors.New("wireloop: unsupported operation")
	// ErrServerShutdown occurs when registering a connection on a server that is shutting down.
	ErrServerShutdown = errors.New("wireloop: server is going to be shutdown")
	// ErrNilSession occurs when a session factory returns nil for a new connection.
	ErrNilSession = errors.New("wireloop: session factory returned nil")

	// ================================================= framing errors =================================================.

	// ErrIncompleteMessage occurs when the peer closes the stream in the middle of a unit.
	ErrIncompleteMessage = errors.New("wireloop: stream ended with an incomplete message")
	// ErrMessageTooLarge occurs when a datagram or message exceeds the size limit of its protocol.
	ErrMessageTooLarge = errors.New("wireloop: message exceeds the maximum size")
	// ErrInvalidFixedLength occurs when a fixed-length framer is configured with a non-positive size.
	ErrInvalidFixedLength = errors.New("wireloop: invalid fixed length of bytes")

	// ================================================= ascii errors =================================================.

	// ErrInvalidEncoding occurs when a byte outside of the 7-bit ASCII range is found.
	ErrInvalidEncoding = errors.New("wireloop: invalid ascii encoding")

	// =============================================== protocol errors ===============================================.

	// ErrUnknownMessageType occurs when a binary unit carries a type byte the protocol does not know.
	ErrUnknownMessageType = errors.New("wireloop: unknown message type")
	// ErrMalformedRequest occurs when a request cannot be decoded by its protocol.
	ErrMalformedRequest = errors.New("wireloop: malformed request")
)
