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

package attransceiver

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// PrepareWrite begins a new write sequence: the write state resets to
// Start (or Invalid if OptNoState is set), the TX buffer usage resets
// to zero, and txBuf becomes the buffer writer primitives accumulate
// into when OptNoBuffer is not set. Passing a nil txBuf while
// buffering is requested means every writer call will immediately
// report OutOfResources.
func (t *Transceiver) PrepareWrite(options WriteOption, txBuf []byte) {
	t.options = options
	t.txUsed = 0
	t.txBuf = txBuf
	if options.has(OptNoState) {
		t.writeState = StateInvalid
	} else {
		t.writeState = StateStart
	}
}

// emit sends data either to the TX buffer (buffered mode) or straight
// to the write sink (OptNoBuffer), tracking txUsed either way so
// Flush's echo-consumption byte count is always correct.
func (t *Transceiver) emit(data []byte) error {
	if t.options.has(OptNoBuffer) {
		n, err := t.sink.Write(data)
		t.txUsed += n
		if err != nil {
			return err
		}
		if n != len(data) {
			return inconsistentStateErr("short write to sink")
		}
		return nil
	}

	room := len(t.txBuf) - t.txUsed
	toCopy := len(data)
	if toCopy > room {
		toCopy = room
	}
	if toCopy > 0 {
		copy(t.txBuf[t.txUsed:], data[:toCopy])
		t.txUsed += toCopy
	}
	if toCopy < len(data) {
		return outOfResourcesWarning("TX buffer full")
	}
	return nil
}

// WriteAction emits "AT"+suffix and transitions to End. Used for
// V.250-style action commands such as ATE1.
func (t *Transceiver) WriteAction(suffix string) error {
	if err := t.requireState(StateStart); err != nil {
		return err
	}
	err := t.emit([]byte("AT" + suffix))
	t.setState(StateEnd)
	return err
}

// WriteSet emits "AT"+name+"=" and transitions to Command, the state
// from which the first argument writer may be called.
func (t *Transceiver) WriteSet(name string) error {
	if err := t.requireState(StateStart); err != nil {
		return err
	}
	err := t.emit([]byte("AT" + name + "="))
	t.setState(StateCommand)
	return err
}

// WriteGet emits "AT"+name+"?" and transitions to End.
func (t *Transceiver) WriteGet(name string) error {
	if err := t.requireState(StateStart); err != nil {
		return err
	}
	err := t.emit([]byte("AT" + name + "?"))
	t.setState(StateEnd)
	return err
}

// beginArgument validates the writer is in Command or Argument state
// and, if a previous argument was already written (Argument state),
// emits the ',' separator before the new one, per the separator law.
func (t *Transceiver) beginArgument() error {
	if err := t.requireState(StateCommand, StateArgument); err != nil {
		return err
	}
	if t.writeState == StateArgument {
		if err := t.emit([]byte{','}); err != nil {
			return err
		}
	}
	return nil
}

func formatBase(base int) (int, error) {
	switch base {
	case 8, 10, 16:
		return base, nil
	default:
		return 0, invalidParamErr("invalid numeric base")
	}
}

// WriteI32 writes a signed integer argument formatted in base
// (8, 10, or 16).
func (t *Transceiver) WriteI32(value int32, base int) error {
	b, err := formatBase(base)
	if err != nil {
		return err
	}
	if err := t.beginArgument(); err != nil {
		return err
	}
	err = t.emit([]byte(strconv.FormatInt(int64(value), b)))
	t.setState(StateArgument)
	return err
}

// WriteU32 writes an unsigned integer argument formatted in base.
func (t *Transceiver) WriteU32(value uint32, base int) error {
	b, err := formatBase(base)
	if err != nil {
		return err
	}
	if err := t.beginArgument(); err != nil {
		return err
	}
	err = t.emit([]byte(strconv.FormatUint(uint64(value), b)))
	t.setState(StateArgument)
	return err
}

// WriteI16 writes a signed 16-bit integer argument.
func (t *Transceiver) WriteI16(value int16, base int) error { return t.WriteI32(int32(value), base) }

// WriteU16 writes an unsigned 16-bit integer argument.
func (t *Transceiver) WriteU16(value uint16, base int) error {
	return t.WriteU32(uint32(value), base)
}

// WriteI8 writes a signed 8-bit integer argument.
func (t *Transceiver) WriteI8(value int8, base int) error { return t.WriteI32(int32(value), base) }

// WriteU8 writes an unsigned 8-bit integer argument.
func (t *Transceiver) WriteU8(value uint8, base int) error { return t.WriteU32(uint32(value), base) }

// WriteString writes a quoted string argument.
func (t *Transceiver) WriteString(s string) error {
	if err := t.beginArgument(); err != nil {
		return err
	}
	err := t.emit([]byte(`"` + s + `"`))
	t.setState(StateArgument)
	return err
}

// WriteHexString writes data as a quoted uppercase hex-encoded string
// argument.
func (t *Transceiver) WriteHexString(data []byte) error {
	if err := t.beginArgument(); err != nil {
		return err
	}
	encoded := strings.ToUpper(hex.EncodeToString(data))
	err := t.emit([]byte(`"` + encoded + `"`))
	t.setState(StateArgument)
	return err
}

// Write is the raw escape hatch: it bypasses the write-state guard
// entirely, emitting data verbatim and leaving the sequence in
// nextState. Used for binary payloads embedded in a line.
func (t *Transceiver) Write(data []byte, nextState State) error {
	err := t.emit(data)
	t.setState(nextState)
	return err
}

// Flush terminates the write sequence: it appends "\r\n" unless
// OptNoFinalS3S4 is set, transmits the TX buffer when buffering is
// enabled (OptNoBuffer unset — unbuffered writes already reached the
// sink as they were produced), then consumes echoed bytes from the
// ring unless OptNoEcho is set. Buffered echo is byte-compared against
// the TX buffer, failing with InconsistentState on mismatch;
// unbuffered echo is skipped by count only. On success txUsed resets
// to zero; the write state is left as-is for the next PrepareWrite.
func (t *Transceiver) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	if !t.options.has(OptNoFinalS3S4) {
		if err := t.emit([]byte("\r\n")); err != nil {
			return err
		}
	}

	if !t.options.has(OptNoBuffer) {
		n, err := t.sink.Write(t.txBuf[:t.txUsed])
		if err != nil {
			return err
		}
		if n != t.txUsed {
			return inconsistentStateErr("short write to sink during flush")
		}
	}

	if !t.options.has(OptNoEcho) {
		if t.options.has(OptNoBuffer) {
			if _, err := t.skipDeadline(t.txUsed, deadline); err != nil {
				return err
			}
		} else {
			echoed := make([]byte, t.txUsed)
			n, err := t.popDeadline(echoed, deadline)
			if err != nil {
				return err
			}
			if n != t.txUsed || !bytesEqual(echoed[:n], t.txBuf[:t.txUsed]) {
				return inconsistentStateErr("echo mismatch")
			}
		}
	}

	t.txUsed = 0
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
