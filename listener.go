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
	"context"
	"net"
	"strings"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
	"github.com/panjf2000/wireloop/pkg/socket"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sockOpts collects the socket options to apply before binding.
func sockOpts(opts *Options) (sos []socket.Option) {
	if opts.ReusePort {
		sos = append(sos, socket.Option{SetSockOpt: socket.SetReuseport, Opt: boolToInt(opts.ReusePort)})
	}
	if opts.ReuseAddr {
		sos = append(sos, socket.Option{SetSockOpt: socket.SetReuseAddr, Opt: boolToInt(opts.ReuseAddr)})
	}
	if opts.SocketRecvBuffer > 0 {
		sos = append(sos, socket.Option{SetSockOpt: socket.SetRecvBuffer, Opt: opts.SocketRecvBuffer})
	}
	if opts.SocketSendBuffer > 0 {
		sos = append(sos, socket.Option{SetSockOpt: socket.SetSendBuffer, Opt: opts.SocketSendBuffer})
	}
	return
}

func listenConfig(opts *Options) *net.ListenConfig {
	return &net.ListenConfig{
		Control:   socket.Control(sockOpts(opts)),
		KeepAlive: opts.TCPKeepAlive,
	}
}

// initListener binds a stream listener on addr.
func initListener(ctx context.Context, network, addr string, opts *Options) (net.Listener, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, errorx.ErrUnsupportedProtocol
	}
	return listenConfig(opts).Listen(ctx, network, addr)
}

// initPacketConn binds a datagram socket on addr.
func initPacketConn(ctx context.Context, network, addr string, opts *Options) (net.PacketConn, error) {
	switch network {
	case "udp", "udp4", "udp6":
	default:
		return nil, errorx.ErrUnsupportedProtocol
	}
	return listenConfig(opts).ListenPacket(ctx, network, addr)
}

// parseProtoAddr splits "proto://addr", the protocol defaults to tcp.
func parseProtoAddr(protoAddr string) (network, address string) {
	network = "tcp"
	address = strings.ToLower(protoAddr)
	if strings.Contains(address, "://") {
		pair := strings.SplitN(address, "://", 2)
		network, address = pair[0], pair[1]
	}
	return
}
