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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastPoolFollowsRun(t *testing.T) {
	s := NewServer("pool", func(*Conn) Session { return new(BuiltinSession) })
	assert.Zero(t, s.Broadcast(nil, []byte("nobody\n")))

	for i := 0; i < 2; i++ {
		events, err := s.Start(context.Background(), "127.0.0.1", 0)
		require.NoError(t, err)
		go func() {
			for range events {
			}
		}()

		r := s.current()
		require.NotNil(t, r)
		assert.False(t, r.pool.IsClosed())

		require.NoError(t, s.Stop())
		assert.True(t, r.pool.IsClosed(), "the pool of a stopped run is released")
	}
}
