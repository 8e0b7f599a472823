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

// Package atengine wires together the Byte Ring, the Transceiver, and
// the URC dispatcher into the single long-lived object an application
// talks to: one Engine per physical modem, feeding it bytes from a
// transport.Port and handing out exclusive Sessions to command
// senders while a background task drains unsolicited lines.
package atengine

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modemcore/atcore/atring"
	"github.com/modemcore/atcore/attransceiver"
	"github.com/modemcore/atcore/internal/atlog"
	"github.com/modemcore/atcore/internal/taskpool"
	"github.com/modemcore/atcore/internal/txpool"
	"github.com/modemcore/atcore/transport"
	"github.com/modemcore/atcore/urc"
)

// Engine owns one Transceiver instance, its write sink, the session
// mutex (held inside the Transceiver itself), the URC Listener task,
// and the application state callback.
type Engine struct {
	ring   *atring.Ring
	sink   *uartSink
	t      *attransceiver.Transceiver
	disp   *urc.Dispatcher
	port   transport.Port
	pool   *taskpool.Pool
	logger atlog.Logger

	readChunkSize    int
	readPollInterval time.Duration

	echoMode atomic.Bool

	stateMu  sync.Mutex
	state    State
	onChange StateChangeFunc

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs an Engine around dispatcher (pre-populated with
// whatever URC handlers the application needs registered before
// Initialize starts the listener). Dispatcher may be nil, in which
// case a fresh empty one is created and can be populated with
// Dispatcher before Initialize is called.
func New(dispatcher *urc.Dispatcher) *Engine {
	if dispatcher == nil {
		dispatcher = urc.New()
	}
	return &Engine{disp: dispatcher}
}

// Dispatcher returns the URC dispatcher this Engine drives, so callers
// can Register handlers before calling Initialize.
func (e *Engine) Dispatcher() *urc.Dispatcher { return e.disp }

// Initialize brings the Engine up over port: it allocates the Byte
// Ring and write sink, constructs the Transceiver, starts the RX feed
// loop and the URC Listener task, records onChange as the state
// callback, sets the state to StatePowerOff, and defaults echo mode
// to on. selfSignalTxComplete should be true for ports (like
// transport/uartserial.Adapter) whose Write blocks until the bytes are
// already accepted by the kernel, and false when the caller will
// invoke NotifyTxComplete itself from a real asynchronous TX-done
// signal.
func (e *Engine) Initialize(port transport.Port, opts Options, selfSignalTxComplete bool, onChange StateChangeFunc) error {
	if opts.RingCapacity <= 0 {
		opts = DefaultOptions()
	}
	if opts.Logger == nil {
		opts.Logger = atlog.Default()
	}

	readChunkSize := opts.ReadChunkSize
	if readChunkSize <= 0 {
		readChunkSize = defaultReadChunkSize
	}
	readPollInterval := opts.ReadPollInterval
	if readPollInterval <= 0 {
		readPollInterval = defaultReadPollInterval
	}

	e.port = port
	e.logger = opts.Logger
	e.ring = atring.New(opts.RingCapacity)
	e.sink = newUARTSink(port, opts.SendTimeout, selfSignalTxComplete)
	e.t = attransceiver.New(e.ring, e.sink, opts.TransceiverOptions)
	e.pool = taskpool.New(e.logger)
	e.readChunkSize = readChunkSize
	e.readPollInterval = readPollInterval
	e.echoMode.Store(true)
	e.onChange = onChange
	e.state = StatePowerOff
	e.stop = make(chan struct{})

	e.sink.setReady(true)

	ctx := atlog.WithLogger(context.Background(), e.logger)
	e.pool.Go(ctx, e.feedLoop)
	e.pool.Go(ctx, e.urcListenLoop)
	return nil
}

// NotifyTxComplete raises the TX-complete signal the write sink is
// waiting on. Call this from a real TX-done interrupt when Initialize
// was told selfSignalTxComplete is false; it is a no-op otherwise.
func (e *Engine) NotifyTxComplete() {
	if e.sink != nil {
		e.sink.notifyTxComplete()
	}
}

// OpenTransceiver acquires the session mutex with no timeout and
// prepares a fresh write sequence with NO-BUFFER set (and NO-ECHO too
// when echo mode is currently off), returning a Session the caller
// must Close exactly once.
func (e *Engine) OpenTransceiver() (*Session, error) {
	e.t.Lock()
	opts := attransceiver.OptNoBuffer
	if !e.echoMode.Load() {
		opts |= attransceiver.OptNoEcho
	}
	e.t.PrepareWrite(opts, nil)
	return &Session{t: e.t, engine: e}, nil
}

// OpenBufferedTransceiver is like OpenTransceiver but accumulates the
// write sequence into a pooled TX buffer of the given capacity instead
// of streaming straight to the write sink (write-option NO-BUFFER
// unset): Flush hands the whole line to the sink in one call and
// byte-compares the echo against it, catching a garbled echo that
// unbuffered mode can only skip past by count. The buffer is drawn
// from internal/txpool and returned to the pool when the Session is
// closed.
func (e *Engine) OpenBufferedTransceiver(txCapacity int) (*Session, error) {
	if txCapacity <= 0 {
		txCapacity = defaultTXBufferCapacity
	}
	e.t.Lock()
	txBuf := txpool.Get(txCapacity)
	opts := attransceiver.WriteOption(0)
	if !e.echoMode.Load() {
		opts |= attransceiver.OptNoEcho
	}
	e.t.PrepareWrite(opts, txBuf)
	return &Session{t: e.t, engine: e, txBuf: txBuf}, nil
}

// NotifyNewState reports a transition to newState. If it differs from
// the state currently recorded, the registered state callback (if any)
// is invoked with the old and new states before the new state is
// stored; a report that repeats the current state is a no-op.
func (e *Engine) NotifyNewState(newState State, param []byte) {
	e.stateMu.Lock()
	old := e.state
	if old == newState {
		e.stateMu.Unlock()
		return
	}
	e.state = newState
	cb := e.onChange
	e.stateMu.Unlock()

	if cb != nil {
		cb(old, newState, param)
	}
}

// State returns the most recently recorded state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// SetEchoMode toggles the internal echo expectation used by sessions
// opened after this call; it sends no AT command to the modem.
func (e *Engine) SetEchoMode(on bool) { e.echoMode.Store(on) }

// GetEchoMode reports the current echo expectation.
func (e *Engine) GetEchoMode() bool { return e.echoMode.Load() }

// Deinitialize stops the URC Listener and RX feed loop, tears down the
// hardware port, and clears the state callback. It blocks until both
// background tasks have returned.
func (e *Engine) Deinitialize() error {
	e.stopOnce.Do(func() {
		close(e.stop)
		e.sink.setReady(false)
		e.pool.Wait()

		e.stateMu.Lock()
		e.onChange = nil
		e.stateMu.Unlock()
	})

	return e.port.Close()
}

// feedLoop reads from the port and pushes whatever arrived into the
// ring, standing in for the serial RX ISR the reference firmware
// drives Feed from.
func (e *Engine) feedLoop(ctx context.Context) {
	buf := make([]byte, e.readChunkSize)
	logger := atlog.FromContext(ctx)
	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := e.port.ReadTimeout(buf, e.readPollInterval)
		if err != nil {
			if isTimeoutLike(err) {
				continue
			}
			logger.Error("atengine: RX feed read failed", "error", err)
			return
		}
		if n > 0 {
			e.ring.Write(buf[:n])
		}
	}
}

// timeoutError is the interface net.Error and similar deadline-aware
// errors satisfy; used so isTimeoutLike doesn't need to import a
// specific transport's error type.
type timeoutError interface {
	Timeout() bool
}

// isTimeoutLike reports whether err represents nothing more than the
// ReadTimeout deadline elapsing with no data available, which the feed
// loop treats as a normal iteration rather than a fatal transport
// error.
func isTimeoutLike(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

// urcListenLoop waits for RX activity and, whenever it can acquire the
// session mutex, runs one bounded URC scan before releasing it and
// waiting again. If a command sender already holds the mutex this
// blocks until that sender releases it — the bytes it was waiting on
// get consumed by that sender's own response parsing instead, which is
// the intended outcome.
func (e *Engine) urcListenLoop(ctx context.Context) {
	logger := atlog.FromContext(ctx)
	for {
		select {
		case <-e.stop:
			return
		case <-e.ring.Notify():
		}

		select {
		case <-e.stop:
			return
		default:
		}

		var err error
		func() {
			e.t.Lock()
			defer e.t.Unlock()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("atengine: URC handler panicked", "panic", r)
				}
			}()
			err = e.disp.HandleResponses(e.t)
		}()
		if err != nil {
			logger.Warn("atengine: URC dispatch error", "error", err)
		}
	}
}
