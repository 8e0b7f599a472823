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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modemcore/atcore/atring"
)

const testTimeout = 200 * time.Millisecond

// recordingSink collects every byte handed to it, standing in for the
// Engine's UART write sink in tests.
type recordingSink struct {
	sent []byte
}

func (s *recordingSink) Write(data []byte) (int, error) {
	s.sent = append(s.sent, data...)
	return len(data), nil
}

func newHarness(t *testing.T) (*Transceiver, *recordingSink, *atring.Ring) {
	t.Helper()
	ring := atring.New(256)
	sink := &recordingSink{}
	tr := New(ring, sink, DefaultOptions())
	return tr, sink, ring
}

// S1 — Minimal action with echo and OK.
func TestScenarioMinimalActionWithEchoAndOK(t *testing.T) {
	tr, sink, ring := newHarness(t)

	tr.PrepareWrite(OptNoBuffer, nil)
	require.NoError(t, tr.WriteAction(""))
	ring.Write([]byte("AT\r\n\r\nOK\r\n"))
	require.NoError(t, tr.Flush(testTimeout))
	require.Equal(t, "AT\r\n", string(sink.sent))

	code, err := tr.ReadCode(testTimeout)
	require.NoError(t, err)
	require.Equal(t, CodeOK, code)
}

// S2 — Set with mixed arguments.
func TestScenarioSetWithMixedArguments(t *testing.T) {
	tr, sink, ring := newHarness(t)

	tr.PrepareWrite(OptNoBuffer, nil)
	require.NoError(t, tr.WriteSet("+COPS"))
	require.NoError(t, tr.WriteI32(1, 10))
	require.NoError(t, tr.WriteString("FOO"))
	require.NoError(t, tr.WriteI32(123, 10))

	expected := `AT+COPS=1,"FOO",123` + "\r\n"
	ring.Write([]byte(expected + "\r\nOK\r\n"))
	require.NoError(t, tr.Flush(testTimeout))
	require.Equal(t, expected, string(sink.sent))

	code, err := tr.ReadCode(testTimeout)
	require.NoError(t, err)
	require.Equal(t, CodeOK, code)
}

// S3 — Get with response line, integer arg, and OK.
func TestScenarioGetWithResponseLine(t *testing.T) {
	tr, sink, ring := newHarness(t)

	ring.Write([]byte("AT+CFUN?\r\n" + "\r\n+CFUN: 4\r\n\r\nOK\r\n"))
	tr.PrepareWrite(OptNoBuffer, nil)
	require.NoError(t, tr.WriteGet("+CFUN"))
	require.NoError(t, tr.Flush(testTimeout))
	require.Equal(t, "AT+CFUN?\r\n", string(sink.sent))

	require.NoError(t, tr.ReadCommand("+CFUN", testTimeout))
	// the response carries a leading space before the value; ReadI32 would
	// skip it on its own, but the test pops it explicitly first to check
	// that ReadCommand stopped right after the ':'.
	var ws [1]byte
	_, err := tr.pop(ws[:], testTimeout)
	require.NoError(t, err)
	require.Equal(t, byte(' '), ws[0])

	fun, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	require.Equal(t, int32(4), fun)

	code, err := tr.ReadCode(testTimeout)
	require.NoError(t, err)
	require.Equal(t, CodeOK, code)
}

// S4 — URC interleaved with command response; the extra blank line
// between them must be tolerated by ReadCode.
func TestScenarioURCInterleavedWithResponse(t *testing.T) {
	tr, _, ring := newHarness(t)

	ring.Write([]byte("\r\n+CEREG: 0,2\r\n\r\n+CREG: 0,2\r\n\r\nOK\r\n"))

	require.NoError(t, tr.ReadCommand("+CEREG", testTimeout))
	stat1, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	n1, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	require.Equal(t, int32(0), stat1)
	require.Equal(t, int32(2), n1)

	require.NoError(t, tr.ReadCommand("+CREG", testTimeout))
	stat2, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	n2, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	require.Equal(t, int32(0), stat2)
	require.Equal(t, int32(2), n2)

	code, err := tr.ReadCode(testTimeout)
	require.NoError(t, err)
	require.Equal(t, CodeOK, code)
}

// S5 — Buffer-too-small mnemonic.
func TestScenarioBufferTooSmallMnemonic(t *testing.T) {
	tr, _, ring := newHarness(t)

	ring.Write([]byte("\r\n+LONGCOMMANDNAME:1,2\r\n\r\nOK\r\n"))

	buf := make([]byte, 6)
	n, err := tr.ReadCommandAny(buf, testTimeout)
	var attErr *Error
	require.ErrorAs(t, err, &attErr)
	require.Equal(t, KindOutOfResources, attErr.Kind)
	require.Equal(t, SeverityWarning, attErr.Severity)
	require.Equal(t, "+LONG", string(buf[:n]))

	v1, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	require.Equal(t, int32(1), v1)
	v2, err := tr.ReadI32(10, testTimeout)
	require.NoError(t, err)
	require.Equal(t, int32(2), v2)

	code, err := tr.ReadCode(testTimeout)
	require.NoError(t, err)
	require.Equal(t, CodeOK, code)
}

// S6 — Echo mismatch. Echo mismatch is only detectable in buffered
// mode: NO-BUFFER Flush skips the echoed bytes by count only (spec
// §4.3 step 3), so this must run with a real TX buffer and without
// OptNoBuffer for the byte-compare at Flush to actually fire.
func TestScenarioEchoMismatch(t *testing.T) {
	tr, _, ring := newHarness(t)

	txBuf := make([]byte, 32)
	tr.PrepareWrite(0, txBuf)
	require.NoError(t, tr.Write([]byte("AT+FOO"), StateEnd))
	ring.Write([]byte("ATXFOO\r\n"))

	err := tr.Flush(testTimeout)
	var attErr *Error
	require.ErrorAs(t, err, &attErr)
	require.Equal(t, KindInconsistentState, attErr.Kind)
}

func TestRoundTripIntegersAllBases(t *testing.T) {
	for _, base := range []int{8, 10, 16} {
		v, err := writeThenRead(t, base, -12345)
		require.NoError(t, err)
		require.Equal(t, int32(-12345), v)
	}
}

// writeThenRead exercises the write-then-read round trip for a single
// integer argument in isolation from a full command sequence.
func writeThenRead(t *testing.T, base int, value int32) (int32, error) {
	t.Helper()
	ring := atring.New(64)
	sink := &recordingSink{}
	tr := New(ring, sink, DefaultOptions())
	tr.PrepareWrite(OptNoBuffer|OptNoEcho|OptNoFinalS3S4, nil)
	require.NoError(t, tr.WriteSet("+X"))
	require.NoError(t, tr.WriteI32(value, base))
	require.NoError(t, tr.Flush(testTimeout))
	ring.Write(sink.sent[len("AT+X="):])
	ring.Write([]byte("\n"))
	return tr.ReadI32(base, testTimeout)
}

func TestRoundTripHexString(t *testing.T) {
	ring := atring.New(64)
	sink := &recordingSink{}
	tr := New(ring, sink, DefaultOptions())

	tr.PrepareWrite(OptNoBuffer|OptNoEcho, nil)
	require.NoError(t, tr.WriteSet("+X"))
	require.NoError(t, tr.WriteHexString([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	require.NoError(t, tr.Flush(testTimeout))
	require.Equal(t, `AT+X="DEADBEEF"`+"\r\n", string(sink.sent))

	ring.Write([]byte(`"DEADBEEF"` + ",\r\n"))
	out := make([]byte, 8)
	n, err := tr.ReadHexString(out, testTimeout)
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, out[:n])
}

func TestReadArgumentTrimsWhitespace(t *testing.T) {
	tr, _, ring := newHarness(t)
	ring.Write([]byte("   hello world   ,\n"))
	out := make([]byte, 32)
	n, err := tr.ReadArgument(out, testTimeout)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(out[:n]))
	require.False(t, tr.StartOfLine())
}

func TestCheckEndOfLine(t *testing.T) {
	tr, _, ring := newHarness(t)
	ring.Write([]byte("\r\nrest"))
	eol, err := tr.CheckEndOfLine(testTimeout)
	require.NoError(t, err)
	require.True(t, eol)
	// not consumed
	require.Equal(t, 6, ring.AvailableRead())
}

func TestReadCodeTimeoutWithNoData(t *testing.T) {
	tr, _, _ := newHarness(t)
	_, err := tr.ReadCode(10 * time.Millisecond)
	var attErr *Error
	require.ErrorAs(t, err, &attErr)
	require.Equal(t, KindTimeout, attErr.Kind)
}
