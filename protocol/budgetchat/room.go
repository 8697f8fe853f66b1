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

package budgetchat

import (
	"sync"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/ascii"
)

type member struct {
	conn *wireloop.Conn
	name ascii.Ascii
}

// Room is the set of joined users of one server, in joining order.
type Room struct {
	mu      sync.Mutex
	members []member
}

// join adds c under name unless the name is taken. It returns the connections
// and names of the users that were already there.
func (r *Room) join(c *wireloop.Conn, name ascii.Ascii) (others []*wireloop.Conn, names []ascii.Ascii, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.name.Equal(name) {
			return nil, nil, false
		}
	}
	for _, m := range r.members {
		others = append(others, m.conn)
		names = append(names, m.name)
	}
	r.members = append(r.members, member{conn: c, name: name})
	return others, names, true
}

// leave removes c and returns the connections of the remaining users.
func (r *Room) leave(c *wireloop.Conn) (others []*wireloop.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.conn == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	for _, m := range r.members {
		others = append(others, m.conn)
	}
	return
}

// others returns the connections of every user but c.
func (r *Room) others(c *wireloop.Conn) (conns []*wireloop.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.conn != c {
			conns = append(conns, m.conn)
		}
	}
	return
}

// Names returns the names of the joined users, in joining order.
func (r *Room) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.members))
	for i, m := range r.members {
		names[i] = m.name.String()
	}
	return names
}
