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
	"errors"
	"net"
	"time"

	errorx "github.com/panjf2000/wireloop/pkg/errors"
)

const maxAcceptDelay = time.Second

// accept runs the accept loop of a run until its listener is closed. Accepted
// connections are handed to the coordinating loop, a listener failure is
// reported on r.acceptErr.
func (s *Server) accept(r *run) {
	defer close(r.acceptDone)

	var delay time.Duration
	for {
		rwc, err := r.ln.Accept()
		if err != nil {
			if r.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// Transient failure, back off before the next attempt.
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else if delay *= 2; delay > maxAcceptDelay {
					delay = maxAcceptDelay
				}
				s.logger.Warnf("accept on %s failed: %v, retrying in %v", s.name, err, delay)
				time.Sleep(delay)
				continue
			}
			s.logger.Errorf("accept on %s failed: %v", s.name, err)
			select {
			case r.acceptErr <- errors.Join(errorx.ErrAcceptSocket, err):
			case <-r.ctx.Done():
			}
			return
		}
		delay = 0

		c, err := s.prepare(rwc, s.factory)
		if err != nil {
			s.logger.Errorf("rejected connection from %s: %v", rwc.RemoteAddr(), err)
			continue
		}
		if err = r.register(c); err != nil {
			return
		}
	}
}
