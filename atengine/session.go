/*
 * Copyright 2026 The Modem Core Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package atengine

import (
	"github.com/modemcore/atcore/attransceiver"
	"github.com/modemcore/atcore/internal/txpool"
)

// Session is the handle returned by Engine.OpenTransceiver or
// Engine.OpenBufferedTransceiver: it grants its holder exclusive use
// of the Transceiver until Close is called. Only one Session may be
// open at a time; a second OpenTransceiver call blocks until the
// first Session is closed.
type Session struct {
	t      *attransceiver.Transceiver
	engine *Engine
	// txBuf is non-nil only for sessions opened with
	// OpenBufferedTransceiver; Close returns it to the pool it came
	// from.
	txBuf []byte
}

// Transceiver returns the underlying Transceiver this Session guards.
func (s *Session) Transceiver() *attransceiver.Transceiver { return s.t }

// Close releases exclusive access, allowing the next OpenTransceiver
// caller (or the URC Listener's blocking Lock) to proceed. Close must
// be called exactly once per Session.
func (s *Session) Close() {
	s.t.Unlock()
	if s.txBuf != nil {
		txpool.Put(s.txBuf)
		s.txBuf = nil
	}
}
