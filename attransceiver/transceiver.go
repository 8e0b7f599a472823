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

// Package attransceiver implements the stateful reader/writer that
// turns a raw byte stream from a cellular modem into structured AT
// command exchanges: command/argument parsing, final response codes,
// and a write-state machine that builds compliant command lines with
// optional transmit buffering and echo verification.
package attransceiver

import (
	"sync"
	"time"

	"github.com/modemcore/atcore/atring"
)

// WriteSink is the byte-sink capability the Engine supplies, bound to
// its UART. Write must transmit all of data before returning a nil
// error; a short write is reported via n.
type WriteSink interface {
	Write(data []byte) (n int, err error)
}

// Transceiver is a stateful reader/writer over a byte ring and a
// write sink. It owns the session mutex describing exclusive access
// to the physical channel: callers obtain that exclusivity by calling
// Lock (typically through an owning Engine's Session handle, not
// directly) and must call Unlock when done.
type Transceiver struct {
	ring *atring.Ring
	sink WriteSink
	opts Options

	mu sync.Mutex

	writeState State
	options    WriteOption
	txBuf      []byte
	txUsed     int

	startOfLine bool
}

// New constructs a Transceiver over ring, sending flushed bytes to
// sink. The Transceiver is ready for use immediately; Lock/Unlock (or
// an owning Engine's OpenTransceiver/CloseTransceiver) delimits each
// command sequence.
func New(ring *atring.Ring, sink WriteSink, opts Options) *Transceiver {
	if opts.ResponseCodeSkipLimit <= 0 {
		opts.ResponseCodeSkipLimit = DefaultOptions().ResponseCodeSkipLimit
	}
	return &Transceiver{
		ring:        ring,
		sink:        sink,
		opts:        opts,
		startOfLine: true,
	}
}

// Lock acquires the session mutex with no timeout, matching
// OpenTransceiver's contract.
func (t *Transceiver) Lock() { t.mu.Lock() }

// Unlock releases the session mutex.
func (t *Transceiver) Unlock() { t.mu.Unlock() }

// StartOfLine reports whether the last byte consumed by a reader was
// the line terminator, per the start-of-line invariant.
func (t *Transceiver) StartOfLine() bool { return t.startOfLine }

// waitForData blocks until the ring's RX-wakeup signal fires or
// timeout elapses, whichever first. A wakeup may be spurious; callers
// always re-check ring availability in a loop after returning.
func (t *Transceiver) waitForData(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.ring.Notify():
	case <-timer.C:
	}
}

// peekDeadline blocks until len(buf) bytes are visible in the ring or
// deadline passes, returning the actual count visible (<= len(buf)).
func (t *Transceiver) peekDeadline(buf []byte, deadline time.Time) (int, error) {
	need := len(buf)
	for {
		n := t.ring.Peek(buf)
		if n >= need {
			return n, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return n, timeoutErr("peek")
		}
		t.waitForData(remaining)
	}
}

// popDeadline blocks until len(buf) bytes can be consumed or deadline
// passes; on timeout it still consumes whatever partial count was
// available, returning that count alongside the timeout error.
func (t *Transceiver) popDeadline(buf []byte, deadline time.Time) (int, error) {
	need := len(buf)
	for {
		avail := t.ring.AvailableRead()
		if avail >= need {
			n := t.ring.Read(buf)
			return n, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			got := t.ring.Read(buf[:avail])
			return got, timeoutErr("pop")
		}
		t.waitForData(remaining)
	}
}

// skipDeadline is popDeadline without copying the discarded bytes
// anywhere.
func (t *Transceiver) skipDeadline(n int, deadline time.Time) (int, error) {
	for {
		avail := t.ring.AvailableRead()
		if avail >= n {
			got := t.ring.Discard(n)
			return got, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			got := t.ring.Discard(avail)
			return got, timeoutErr("skip")
		}
		t.waitForData(remaining)
	}
}

// popByteDeadline pops exactly one byte, blocking until available or
// deadline passes. It is the primitive popUntil/skipUntil scan with.
func (t *Transceiver) popByteDeadline(deadline time.Time) (byte, error) {
	var b [1]byte
	n, err := t.popDeadline(b[:], deadline)
	if n == 1 {
		return b[0], nil
	}
	return 0, err
}

// peek blocks until n bytes are visible or timeout elapses, returning
// the actual count visible without removing them.
func (t *Transceiver) peek(buf []byte, timeout time.Duration) (int, error) {
	return t.peekDeadline(buf, time.Now().Add(timeout))
}

// pop blocks until len(buf) bytes can be consumed or timeout elapses.
func (t *Transceiver) pop(buf []byte, timeout time.Duration) (int, error) {
	return t.popDeadline(buf, time.Now().Add(timeout))
}

// skip discards n bytes, blocking until available or timeout elapses.
func (t *Transceiver) skip(n int, timeout time.Duration) (int, error) {
	return t.skipDeadline(n, time.Now().Add(timeout))
}

func indexByte(set []byte, b byte) bool {
	for _, s := range set {
		if s == b {
			return true
		}
	}
	return false
}

// popUntil copies into out up to len(out) bytes, stopping after
// consuming the first byte matching needles. If out fills before a
// needle is found, it keeps discarding bytes (without storing them)
// until a needle appears or the deadline passes, leaving the cursor
// in a recoverable position for the caller's next primitive; in that
// case it returns the OutOfResources warning.
func (t *Transceiver) popUntil(out []byte, needles []byte, timeout time.Duration) (int, byte, error) {
	deadline := time.Now().Add(timeout)
	n := 0
	overflowed := false
	for {
		b, err := t.popByteDeadline(deadline)
		if err != nil {
			return n, 0, err
		}
		if indexByte(needles, b) {
			if overflowed {
				return n, b, outOfResourcesWarning("popUntil: buffer too small")
			}
			return n, b, nil
		}
		if n < len(out) {
			out[n] = b
			n++
		} else {
			overflowed = true
		}
	}
}

// skipUntil discards bytes until one matches needles, returning the
// matched byte. It never reports OutOfResources since nothing is
// being stored.
func (t *Transceiver) skipUntil(needles []byte, timeout time.Duration) (byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		b, err := t.popByteDeadline(deadline)
		if err != nil {
			return 0, err
		}
		if indexByte(needles, b) {
			return b, nil
		}
	}
}

// skipUntilExclusive discards bytes strictly before the first one
// matching needles, leaving that byte unconsumed so a following
// read sees it as the next byte in the stream.
func (t *Transceiver) skipUntilExclusive(needles []byte, deadline time.Time) error {
	var b [1]byte
	for {
		n, err := t.peekDeadline(b[:], deadline)
		if err != nil {
			return err
		}
		if n == 1 && indexByte(needles, b[0]) {
			return nil
		}
		if _, err := t.skipDeadline(1, deadline); err != nil {
			return err
		}
	}
}
