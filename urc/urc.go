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

// Package urc implements dispatch of Unsolicited Result Codes: lines a
// modem emits without a preceding command. A Dispatcher holds a
// mnemonic-keyed handler table and a bounded-scan loop that either the
// idle URC listener or a command sender parsing inline URCs can drive.
package urc

import (
	"errors"
	"time"

	"github.com/modemcore/atcore/attransceiver"
)

// scanLimit bounds how many URC lines HandleResponses will parse in a
// single call before giving control back to the caller, so a flood of
// unsolicited lines cannot starve whoever is driving the loop.
const scanLimit = 2

// shortTimeout is how long HandleResponses waits for a mnemonic to
// appear before concluding the ring is idle.
const shortTimeout = 100 * time.Millisecond

// Handler reads one URC's arguments from t. It must return
// ErrNotMine (or an error wrapping it via errors.Is) if the mnemonic
// it was invoked for turns out not to be the URC it actually handles
// — the mnemonic-keyed table makes that rare, but a single mnemonic
// can legitimately map to more than one shape of line.
type Handler func(t *attransceiver.Transceiver) error

// Dispatcher owns the mnemonic-to-Handler table and drives bounded URC
// scans over a Transceiver.
type Dispatcher struct {
	handlers map[string]Handler
}

// New returns an empty Dispatcher; register handlers with Register.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register associates mnemonic (including its leading '+', e.g.
// "+CREG") with handler. Registering the same mnemonic twice replaces
// the previous handler.
func (d *Dispatcher) Register(mnemonic string, handler Handler) {
	d.handlers[mnemonic] = handler
}

// HandleResponses runs the bounded URC scan loop against t: it calls
// ReadCommandAny with a short timeout, dispatches to a registered
// handler on a match or SkipLine otherwise, and repeats up to
// scanLimit times. A clean TIMEOUT (no mnemonic bytes buffered) ends
// the scan silently — the caller's idle loop or inline command parse
// simply continues. A TIMEOUT with a partial mnemonic already
// buffered means the modem started a URC line and stalled mid
// mnemonic; that is reported as an error. A handler reporting
// ErrNotMine just moves the scan on to its next iteration rather than
// aborting it, matching the original dispatch loop.
func (d *Dispatcher) HandleResponses(t *attransceiver.Transceiver) error {
	for i := 0; i < scanLimit; i++ {
		var mnemonic [32]byte
		n, err := t.ReadCommandAny(mnemonic[:], shortTimeout)
		if err != nil {
			attErr, ok := err.(*attransceiver.Error)
			switch {
			case ok && attErr.Kind == attransceiver.KindTimeout:
				if n == 0 {
					return nil
				}
				return &attransceiver.Error{
					Kind:     attransceiver.KindTimeout,
					Severity: attransceiver.SeverityError,
					Msg:      "URC scan stalled mid-mnemonic",
				}
			case ok && attErr.Kind == attransceiver.KindOutOfResources:
				// mnemonic truncated but still usable; fall through to
				// dispatch on the truncated name like the original does.
			default:
				return err
			}
		}

		name := string(mnemonic[:n])
		handler, ok := d.handlers[name]
		if !ok {
			if err := t.SkipLine(shortTimeout); err != nil {
				return err
			}
			continue
		}
		if err := handler(t); err != nil {
			if errors.Is(err, ErrNotMine) {
				continue
			}
			return err
		}
	}
	return nil
}
