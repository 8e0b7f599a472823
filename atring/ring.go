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

// Package atring implements a lock-free single-producer/single-consumer
// byte ring buffer. It is the sole path by which bytes arriving from a
// serial receiver reach the rest of the driver: the producer side
// (Write) is safe to call from an interrupt handler or its goroutine
// equivalent because it never blocks and never allocates.
package atring

import "sync/atomic"

// minCapacity is the smallest ring this package will allocate; rings
// this small aren't useful for AT response lines but rounding up keeps
// the mask arithmetic simple.
const minCapacity = 64

// Ring is a fixed-capacity SPSC byte queue. One goroutine may call
// Write; a different single goroutine (or multiple goroutines
// serialized by an external mutex, as attransceiver.Transceiver does)
// may call Read/Peek/Discard. A Ring must be created with New.
type Ring struct {
	buf  []byte
	mask uint64

	// write is advanced only by the producer; read only by the
	// consumer. Both are monotonically increasing counts of bytes
	// ever written/read, not indices, so the count of readable bytes is
	// always write-read without wraparound bookkeeping.
	write uint64
	read  uint64

	notify chan struct{}
}

// New allocates a Ring able to hold at least capacity bytes. The
// actual capacity is rounded up to the next power of two.
func New(capacity int) *Ring {
	if capacity < minCapacity {
		capacity = minCapacity
	}
	size := nextPowerOfTwo(uint64(capacity))
	return &Ring{
		buf:    make([]byte, size),
		mask:   size - 1,
		notify: make(chan struct{}, 1),
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Cap returns the ring's total byte capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// AvailableRead returns the number of bytes a consumer can currently
// read or peek without blocking.
func (r *Ring) AvailableRead() int {
	w := atomic.LoadUint64(&r.write)
	rd := atomic.LoadUint64(&r.read)
	return int(w - rd)
}

// availableWrite returns the number of free bytes the producer may
// still write before the ring is full.
func (r *Ring) availableWrite() int {
	return len(r.buf) - r.AvailableRead()
}

// Write pushes as many bytes of data as fit into the ring, returning
// the count actually stored. Once the ring is full, newest incoming
// bytes are dropped silently — the caller is responsible for sizing
// the ring to cover worst-case bursts. Write never blocks and is safe
// to call from the receive path of a serial driver.
func (r *Ring) Write(data []byte) int {
	room := r.availableWrite()
	n := len(data)
	if n > room {
		n = room
	}
	if n > 0 {
		w := atomic.LoadUint64(&r.write)
		r.copyIn(w, data[:n])
		atomic.AddUint64(&r.write, uint64(n))
	}
	if n > 0 {
		r.raise()
	}
	return n
}

func (r *Ring) copyIn(at uint64, data []byte) {
	start := at & r.mask
	first := uint64(len(r.buf)) - start
	if first >= uint64(len(data)) {
		copy(r.buf[start:], data)
		return
	}
	copy(r.buf[start:], data[:first])
	copy(r.buf, data[first:])
}

func (r *Ring) copyOut(at uint64, out []byte) {
	start := at & r.mask
	first := uint64(len(r.buf)) - start
	if first >= uint64(len(out)) {
		copy(out, r.buf[start:])
		return
	}
	copy(out, r.buf[start:])
	copy(out[first:], r.buf[:uint64(len(out))-first])
}

// Read pops up to len(buf) bytes into buf, returning the count
// actually popped. It never blocks; callers that need to wait for
// more data build that on top using Notify.
func (r *Ring) Read(buf []byte) int {
	n := r.Peek(buf)
	if n > 0 {
		atomic.AddUint64(&r.read, uint64(n))
	}
	return n
}

// Peek copies up to len(buf) bytes without removing them from the
// ring. It never blocks.
func (r *Ring) Peek(buf []byte) int {
	avail := r.AvailableRead()
	n := len(buf)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}
	rd := atomic.LoadUint64(&r.read)
	r.copyOut(rd, buf[:n])
	return n
}

// Discard removes up to n bytes from the ring without copying them
// anywhere, returning the count actually removed. It never blocks.
func (r *Ring) Discard(n int) int {
	avail := r.AvailableRead()
	if n > avail {
		n = avail
	}
	if n > 0 {
		atomic.AddUint64(&r.read, uint64(n))
	}
	return n
}

// Notify returns the channel a consumer can select on to wake up when
// new bytes arrive. A receive may be spurious — the ring may still be
// short of what the consumer needs — callers must always re-check
// availability after waking.
func (r *Ring) Notify() <-chan struct{} {
	return r.notify
}

// raise signals Notify without blocking; if a wakeup is already
// pending, this is a no-op, matching the binary-semaphore semantics
// described for the RX-wakeup signal.
func (r *Ring) raise() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}
