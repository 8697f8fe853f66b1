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

/*
Package wireloop is a small engine for line and binary wire protocols. It runs one
goroutine per connection, frames the bytes read from every connection into units
and hands them in order to a per-connection Session, while a coordinating loop
per server owns the registry of connections and shuts everything down in order.

Everything a server does is reported on an ordered event stream returned by Start.

An echo server built upon wireloop is shown below:

	package main

	import (
		"context"
		"log"

		"github.com/panjf2000/wireloop"
	)

	type echoSession struct {
		wireloop.BuiltinSession
	}

	func (*echoSession) FindUnitEnd(buf []byte) int {
		return wireloop.RawFramer{}.FindUnitEnd(buf)
	}

	func (*echoSession) ProcessUnit(c *wireloop.Conn, unit []byte) (wireloop.Action, error) {
		return wireloop.None, c.Transmit(unit)
	}

	func main() {
		srv := wireloop.NewServer("echo", func(*wireloop.Conn) wireloop.Session { return new(echoSession) })
		events, err := srv.Start(context.Background(), "", 9000)
		if err != nil {
			log.Fatal(err)
		}
		for e := range events {
			log.Println(e)
		}
	}
*/
package wireloop
