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

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package socket

import (
	"syscall"

	"github.com/panjf2000/wireloop/pkg/errors"
)

// Option is used for setting an option on socket.
type Option struct {
	SetSockOpt func(int, int) error
	Opt        int
}

// Control returns nil, socket options are not supported on this platform.
func Control([]Option) func(network, address string, c syscall.RawConn) error {
	return nil
}

// SetReuseport is not supported on this platform.
func SetReuseport(int, int) error { return errors.ErrUnsupportedOp }

// SetReuseAddr is not supported on this platform.
func SetReuseAddr(int, int) error { return errors.ErrUnsupportedOp }

// SetRecvBuffer is not supported on this platform.
func SetRecvBuffer(int, int) error { return errors.ErrUnsupportedOp }

// SetSendBuffer is not supported on this platform.
func SetSendBuffer(int, int) error { return errors.ErrUnsupportedOp }
