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
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modemcore/atcore/attransceiver"
	"github.com/modemcore/atcore/internal/atlog"
)

const testTimeout = 500 * time.Millisecond

// fakeTimeoutError satisfies the timeoutError interface isTimeoutLike
// checks for, standing in for whatever deadline error a real
// transport.Port returns from a ReadTimeout that elapsed with nothing
// to read.
type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string { return "fake: read deadline exceeded" }
func (fakeTimeoutError) Timeout() bool { return true }

// fakePort is an in-memory transport.Port: writes are captured for
// assertions and inbound bytes are queued with Feed, letting tests
// script a modem's side of the conversation without real hardware.
type fakePort struct {
	mu     sync.Mutex
	inbox  bytes.Buffer
	outbox bytes.Buffer
	closed bool
}

func (p *fakePort) Feed(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox.Write(data)
}

func (p *fakePort) Sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.outbox.Bytes()...)
}

func (p *fakePort) Read(data []byte) (int, error) {
	return p.ReadTimeout(data, time.Second)
}

func (p *fakePort) ReadTimeout(data []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		p.mu.Lock()
		if p.inbox.Len() > 0 {
			n, _ := p.inbox.Read(data)
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()
		if time.Now().After(deadline) {
			return 0, fakeTimeoutError{}
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.Write(data)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakePort) {
	t.Helper()
	port := &fakePort{}
	engine := New(nil)
	opts := DefaultOptions()
	opts.Logger = atlog.Noop()
	opts.ReadPollInterval = 5 * time.Millisecond
	opts.ReadChunkSize = 8
	require.NoError(t, engine.Initialize(port, opts, true, nil))
	t.Cleanup(func() { engine.Deinitialize() })
	return engine, port
}

func TestOpenTransceiverWriteFlushReadCode(t *testing.T) {
	engine, port := newTestEngine(t)

	sess, err := engine.OpenTransceiver()
	require.NoError(t, err)

	tr := sess.Transceiver()
	require.NoError(t, tr.WriteAction(""))
	port.Feed([]byte("AT\r\n\r\nOK\r\n"))
	require.NoError(t, tr.Flush(testTimeout))
	sess.Close()

	require.Equal(t, "AT\r\n", string(port.Sent()))

	sess2, err := engine.OpenTransceiver()
	require.NoError(t, err)
	code, err := sess2.Transceiver().ReadCode(testTimeout)
	sess2.Close()
	require.NoError(t, err)
	require.Equal(t, attransceiver.CodeOK, code)
}

func TestOpenTransceiverSerializesSessions(t *testing.T) {
	engine, _ := newTestEngine(t)

	sess, err := engine.OpenTransceiver()
	require.NoError(t, err)

	opened := make(chan struct{})
	go func() {
		s2, err := engine.OpenTransceiver()
		require.NoError(t, err)
		close(opened)
		s2.Close()
	}()

	select {
	case <-opened:
		t.Fatal("second OpenTransceiver returned before first Session closed")
	case <-time.After(50 * time.Millisecond):
	}

	sess.Close()

	select {
	case <-opened:
	case <-time.After(testTimeout):
		t.Fatal("second OpenTransceiver never unblocked after Close")
	}
}

func TestEchoModeTogglesNoEchoOption(t *testing.T) {
	engine, port := newTestEngine(t)
	engine.SetEchoMode(false)
	require.False(t, engine.GetEchoMode())

	sess, err := engine.OpenTransceiver()
	require.NoError(t, err)
	require.NoError(t, sess.Transceiver().WriteAction(""))
	// no echo fed back at all; with echo mode off Flush must not wait on it
	require.NoError(t, sess.Transceiver().Flush(testTimeout))
	sess.Close()
	require.Equal(t, "AT\r\n", string(port.Sent()))
}

func TestOpenBufferedTransceiverDetectsEchoMismatch(t *testing.T) {
	engine, port := newTestEngine(t)

	sess, err := engine.OpenBufferedTransceiver(0)
	require.NoError(t, err)

	tr := sess.Transceiver()
	require.NoError(t, tr.WriteAction("+FOO"))
	// garbled echo: modem echoed "X" in place of the first "A"
	port.Feed([]byte("XT+FOO\r\n"))

	err = tr.Flush(testTimeout)
	sess.Close()

	var attErr *attransceiver.Error
	require.ErrorAs(t, err, &attErr)
	require.Equal(t, attransceiver.KindInconsistentState, attErr.Kind)
}

func TestOpenBufferedTransceiverFlushesWholeLineAtOnce(t *testing.T) {
	engine, port := newTestEngine(t)

	sess, err := engine.OpenBufferedTransceiver(64)
	require.NoError(t, err)

	tr := sess.Transceiver()
	require.NoError(t, tr.WriteSet("+COPS"))
	require.NoError(t, tr.WriteI32(1, 10))
	require.NoError(t, tr.WriteString("FOO"))

	expected := `AT+COPS=1,"FOO"` + "\r\n"
	port.Feed([]byte(expected))
	require.Empty(t, port.Sent())
	require.NoError(t, tr.Flush(testTimeout))
	sess.Close()

	require.Equal(t, expected, string(port.Sent()))
}

func TestNotifyNewStateInvokesCallbackOnlyOnTransition(t *testing.T) {
	port := &fakePort{}
	engine := New(nil)
	opts := DefaultOptions()
	opts.Logger = atlog.Noop()

	var calls []string
	var mu sync.Mutex
	onChange := func(old, next State, param []byte) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, string(param))
		_ = old
		_ = next
	}
	require.NoError(t, engine.Initialize(port, opts, true, onChange))
	defer engine.Deinitialize()

	require.Equal(t, StatePowerOff, engine.State())

	engine.NotifyNewState(StatePowerOff, []byte("noop"))
	engine.NotifyNewState(State(1), []byte("booting"))
	engine.NotifyNewState(State(1), []byte("repeat-ignored"))
	engine.NotifyNewState(State(2), []byte("registered"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"booting", "registered"}, calls)
	require.Equal(t, State(2), engine.State())
}

func TestURCListenerDispatchesWhileIdle(t *testing.T) {
	port := &fakePort{}
	engine := New(nil)
	var gotParam int32
	done := make(chan struct{})
	engine.Dispatcher().Register("+CREG", func(tr *attransceiver.Transceiver) error {
		v, err := tr.ReadI32(10, testTimeout)
		if err != nil {
			return err
		}
		gotParam = v
		close(done)
		return nil
	})

	opts := DefaultOptions()
	opts.Logger = atlog.Noop()
	opts.ReadPollInterval = 5 * time.Millisecond
	require.NoError(t, engine.Initialize(port, opts, true, nil))
	defer engine.Deinitialize()

	port.Feed([]byte("\r\n+CREG:5\r\n"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("URC listener never dispatched the registered handler")
	}
	require.Equal(t, int32(5), gotParam)
}

func TestDeinitializeClosesPort(t *testing.T) {
	engine, port := newTestEngine(t)
	require.NoError(t, engine.Deinitialize())
	port.mu.Lock()
	closed := port.closed
	port.mu.Unlock()
	require.True(t, closed)
}
