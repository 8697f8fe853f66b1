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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/internal/testkit"
	"github.com/panjf2000/wireloop/pkg/ascii"
)

const welcomeLine = "Welcome to budgetchat! What shall I call you?"

func join(t *testing.T, srv *Server, name string) *testkit.Client {
	t.Helper()
	c := testkit.Dial(t, srv.Addr())
	require.Equal(t, welcomeLine, c.ReadLine(t))
	c.SendLine(t, name)
	require.True(t, strings.HasPrefix(c.ReadLine(t), "* The room contains:"))
	return c
}

func TestValidName(t *testing.T) {
	for name, valid := range map[string]bool{
		"alice":                 true,
		"Bob42":                 true,
		"":                      false,
		"al ice":                false,
		"alice!":                false,
		strings.Repeat("a", 32): true,
		strings.Repeat("a", 33): false,
	} {
		assert.Equalf(t, valid, ValidName(ascii.MustNew(name)), "name %q", name)
	}
}

func TestJoinChatPart(t *testing.T) {
	srv := New()
	events := testkit.Start(t, srv)

	alice := testkit.Dial(t, srv.Addr())
	assert.Equal(t, welcomeLine, alice.ReadLine(t))
	alice.SendLine(t, "alice")
	assert.Equal(t, "* The room contains: ", alice.ReadLine(t))

	bob := testkit.Dial(t, srv.Addr())
	assert.Equal(t, welcomeLine, bob.ReadLine(t))
	bob.SendLine(t, "bob")
	assert.Equal(t, "* The room contains: alice", bob.ReadLine(t))
	assert.Equal(t, "* bob has entered the room", alice.ReadLine(t))
	assert.Equal(t, []string{"alice", "bob"}, srv.Room().Names())

	bob.SendLine(t, "hi alice")
	assert.Equal(t, "[bob] hi alice", alice.ReadLine(t))

	// Nothing is echoed back to the sender: the next line bob gets is alice's.
	alice.SendLine(t, "hello bob")
	assert.Equal(t, "[alice] hello bob", bob.ReadLine(t))

	require.NoError(t, bob.Close())
	assert.Equal(t, "* bob has left the room", alice.ReadLine(t))
	require.Eventually(t, func() bool {
		return len(srv.Room().Names()) == 1
	}, testkit.Timeout, 5*time.Millisecond)

	e := events.WaitFor(t, func(e wireloop.Event) bool {
		b, ok := e.(wireloop.Broadcast)
		return ok && b.Translation == "[bob] hi alice\n"
	}).(wireloop.Broadcast)
	assert.Equal(t, 1, e.Recipients)
	assert.Zero(t, e.Failures)
}

func TestPresenceListsEveryoneElse(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)

	join(t, srv, "alice")
	join(t, srv, "bob")
	carol := testkit.Dial(t, srv.Addr())
	require.Equal(t, welcomeLine, carol.ReadLine(t))
	carol.SendLine(t, "carol")
	assert.Equal(t, "* The room contains: alice, bob", carol.ReadLine(t))
}

func TestDuplicateNameRejected(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)

	join(t, srv, "alice")
	dup := testkit.Dial(t, srv.Addr())
	require.Equal(t, welcomeLine, dup.ReadLine(t))
	dup.SendLine(t, "alice")
	assert.Equal(t, "* Invalid name, goodbye.", dup.ReadLine(t))
	dup.ExpectClosed(t)
	assert.Equal(t, []string{"alice"}, srv.Room().Names())
}

func TestInvalidNameRejected(t *testing.T) {
	srv := New()
	events := testkit.Start(t, srv)

	c := testkit.Dial(t, srv.Addr())
	require.Equal(t, welcomeLine, c.ReadLine(t))
	c.SendLine(t, "not valid!")
	assert.Equal(t, "* Invalid name, goodbye.", c.ReadLine(t))
	c.ExpectClosed(t)

	e := events.WaitFor(t, testkit.OfType(wireloop.EventClientDisconnected)).(wireloop.ClientDisconnected)
	assert.Equal(t, wireloop.Disconnected, e.Status)
	assert.Empty(t, srv.Room().Names())
}

func TestUnjoinedUsersSeeNothing(t *testing.T) {
	srv := New()
	testkit.Start(t, srv)

	alice := join(t, srv, "alice")
	lurker := testkit.Dial(t, srv.Addr())
	require.Equal(t, welcomeLine, lurker.ReadLine(t))

	bob := join(t, srv, "bob")
	assert.Equal(t, "* bob has entered the room", alice.ReadLine(t))
	bob.SendLine(t, "secret")
	assert.Equal(t, "[bob] secret", alice.ReadLine(t))

	require.NoError(t, lurker.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err := lurker.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestRoomsArePerServer(t *testing.T) {
	a, b := New(), New()
	testkit.Start(t, a)
	testkit.Start(t, b)

	join(t, a, "alice")
	join(t, b, "alice")
	assert.Equal(t, []string{"alice"}, a.Room().Names())
	assert.Equal(t, []string{"alice"}, b.Room().Names())
}
