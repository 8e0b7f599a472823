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
	"time"

	"github.com/modemcore/atcore/attransceiver"
	"github.com/modemcore/atcore/internal/atlog"
)

// SendTimeout bounds how long the write sink waits for a TX-complete
// signal before failing, matching the reference firmware's
// SEND_TIMEOUT constant.
const SendTimeout = 1000 * time.Millisecond

// RingCapacity is the default Byte Ring size: large enough to hold a
// full AT response line plus burst headroom from a typical 3GPP
// status URC.
const RingCapacity = 1024

// defaultReadChunkSize is how many bytes the RX feed loop reads from
// the port per transport.Port.ReadTimeout call before pushing them
// into the ring. The reference firmware feeds the ring one byte per
// UART RX interrupt; a goroutine-driven loop pays a channel-select
// per iteration instead of a hardware interrupt, so batching a few
// bytes per read trades a negligible amount of latency for far fewer
// wakeups. Set ReadChunkSize to 1 to match the reference cadence.
const defaultReadChunkSize = 32

// defaultReadPollInterval bounds how long a single RX feed read blocks
// before the loop rechecks for shutdown; it is not a data timeout.
const defaultReadPollInterval = 200 * time.Millisecond

// defaultTXBufferCapacity sizes the pooled TX buffer
// OpenBufferedTransceiver draws on when the caller doesn't request a
// specific capacity: enough for the longest command lines used in
// practice (AT+COPS-style set commands with a quoted operator name
// plus a handful of numeric arguments).
const defaultTXBufferCapacity = 128

// Options configures Initialize.
type Options struct {
	// RingCapacity sizes the Byte Ring fed by the UART read loop.
	RingCapacity int
	// SendTimeout bounds the write sink's wait for TX-complete.
	SendTimeout time.Duration
	// ReadChunkSize is how many bytes the RX feed loop reads from the
	// port per call before pushing them into the ring. Set to 1 to
	// match the reference firmware's byte-at-a-time ISR cadence
	// exactly; defaults to a small batch for lower goroutine-wakeup
	// overhead.
	ReadChunkSize int
	// ReadPollInterval bounds how long the RX feed loop's read blocks
	// before rechecking for shutdown. It is not a data timeout.
	ReadPollInterval time.Duration
	// TransceiverOptions is passed through to attransceiver.New.
	TransceiverOptions attransceiver.Options
	// Logger receives warnings/errors the Engine and its URC Listener
	// would otherwise only be able to swallow. Defaults to
	// atlog.Default() when nil.
	Logger atlog.Logger
}

// DefaultOptions returns the tunables this package ships with.
func DefaultOptions() Options {
	return Options{
		RingCapacity:       RingCapacity,
		SendTimeout:        SendTimeout,
		ReadChunkSize:      defaultReadChunkSize,
		ReadPollInterval:   defaultReadPollInterval,
		TransceiverOptions: attransceiver.DefaultOptions(),
		Logger:             atlog.Default(),
	}
}
