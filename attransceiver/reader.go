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
	"strconv"
	"time"
)

var mnemonicStart = []byte{'+'}
var argSeparators = []byte{',', '\n'}
var numericSeparators = []byte{',', '\r', '\n'}
var colonSep = []byte{':'}
var quoteSep = []byte{'"'}
var newline = []byte{'\n'}
var crlf = []byte{'\r', '\n'}
var spaceOrTab = []byte{' ', '\t'}

// ReadCommand consumes input up to the mnemonic-start character '+',
// then requires the exact sequence name (which must itself begin with
// '+') followed by the argument-list separator ':'. On any mismatch
// it fails with InconsistentState.
func (t *Transceiver) ReadCommand(name string, timeout time.Duration) error {
	if len(name) == 0 || name[0] != '+' {
		return invalidParamErr("ReadCommand: name must start with '+'")
	}
	deadline := time.Now().Add(timeout)
	if err := t.skipUntilExclusive(mnemonicStart, deadline); err != nil {
		return err
	}
	got := make([]byte, len(name))
	n, err := t.popDeadline(got, deadline)
	if n > 0 {
		t.startOfLine = false
	}
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if got[i] != name[i] {
			return inconsistentStateErr("ReadCommand: mnemonic mismatch")
		}
	}
	colon, err := t.popByteDeadline(deadline)
	if err != nil {
		return err
	}
	if colon != ':' {
		return inconsistentStateErr("ReadCommand: missing ':' after mnemonic")
	}
	return nil
}

// ReadCommandAny behaves like ReadCommand but copies the mnemonic,
// including its leading '+' and excluding the trailing ':', into out
// and returns the count written. If out cannot hold the mnemonic plus
// its NUL terminator, the mnemonic is truncated, any remaining
// mnemonic bytes are skipped up to ':', and a Warning/OutOfResources
// is returned so the caller's following argument reads still work.
func (t *Transceiver) ReadCommandAny(out []byte, timeout time.Duration) (int, error) {
	if len(out) < 2 {
		return 0, invalidParamErr("ReadCommandAny: buffer too small to hold any mnemonic")
	}
	deadline := time.Now().Add(timeout)
	if err := t.skipUntilExclusive(mnemonicStart, deadline); err != nil {
		return 0, err
	}
	n, _, err := t.popUntil(out[:len(out)-1], colonSep, time.Until(deadline))
	if n > 0 {
		t.startOfLine = false
	}
	out[n] = 0
	return n, err
}

// readNumericToken skips any leading spaces/tabs (AT responses commonly
// follow a ':' with one), then reads bytes up to a ',', '\r', or '\n'
// separator and returns them as the token the ReadI32/ReadU32 family
// parses in its requested base (0 means decimal there, matching the
// legacy firmware's convention rather than Go's auto-detect). A '\r'
// separator is followed through to the '\n' that terminates the line,
// same as ReadArgument.
func (t *Transceiver) readNumericToken(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	if err := t.skipLeadingWhitespace(deadline); err != nil {
		return "", err
	}

	var scratch [24]byte
	n, sep, err := t.popUntil(scratch[:], numericSeparators, time.Until(deadline))
	if err != nil && n == 0 {
		return "", err
	}
	if err != nil {
		return "", err
	}
	if sep == '\r' {
		if _, skipErr := t.skipUntil(newline, time.Until(deadline)); skipErr != nil {
			return "", skipErr
		}
		t.startOfLine = true
	} else {
		t.startOfLine = sep == '\n'
	}
	return string(scratch[:n]), nil
}

// skipLeadingWhitespace discards spaces/tabs up to (not including) the
// next non-whitespace byte.
func (t *Transceiver) skipLeadingWhitespace(deadline time.Time) error {
	var b [1]byte
	for {
		n, err := t.peekDeadline(b[:], deadline)
		if err != nil {
			return err
		}
		if n == 1 && indexByte(spaceOrTab, b[0]) {
			if _, err := t.skipDeadline(1, deadline); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

func normalizeBase(base int) (int, error) {
	if base == 0 {
		return 10, nil
	}
	switch base {
	case 8, 10, 16:
		return base, nil
	default:
		return 0, invalidParamErr("invalid numeric base")
	}
}

// ReadI32 reads a signed 32-bit integer token terminated by ',' or '\n'.
func (t *Transceiver) ReadI32(base int, timeout time.Duration) (int32, error) {
	b, err := normalizeBase(base)
	if err != nil {
		return 0, err
	}
	tok, rerr := t.readNumericToken(timeout)
	if rerr != nil {
		return 0, rerr
	}
	v, err := strconv.ParseInt(tok, b, 32)
	if err != nil {
		return 0, inconsistentStateErr("ReadI32: " + err.Error())
	}
	return int32(v), nil
}

// ReadU32 reads an unsigned 32-bit integer token.
func (t *Transceiver) ReadU32(base int, timeout time.Duration) (uint32, error) {
	b, err := normalizeBase(base)
	if err != nil {
		return 0, err
	}
	tok, rerr := t.readNumericToken(timeout)
	if rerr != nil {
		return 0, rerr
	}
	v, err := strconv.ParseUint(tok, b, 32)
	if err != nil {
		return 0, inconsistentStateErr("ReadU32: " + err.Error())
	}
	return uint32(v), nil
}

// ReadI16 reads a signed integer token, truncating a 32-bit parse
// result to 16 bits as the original firmware does.
func (t *Transceiver) ReadI16(base int, timeout time.Duration) (int16, error) {
	v, err := t.ReadI32(base, timeout)
	if err != nil {
		return 0, err
	}
	return int16(v), nil
}

// ReadU16 reads an unsigned integer token, truncated to 16 bits.
func (t *Transceiver) ReadU16(base int, timeout time.Duration) (uint16, error) {
	v, err := t.ReadU32(base, timeout)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// ReadI8 reads a signed integer token, truncated to 8 bits.
func (t *Transceiver) ReadI8(base int, timeout time.Duration) (int8, error) {
	v, err := t.ReadI32(base, timeout)
	if err != nil {
		return 0, err
	}
	return int8(v), nil
}

// ReadU8 reads an unsigned integer token, truncated to 8 bits.
func (t *Transceiver) ReadU8(base int, timeout time.Duration) (uint8, error) {
	v, err := t.ReadU32(base, timeout)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// ReadString skips to an opening '"', copies bytes up to the closing
// '"' into out, then skips to the next ',' or '\n' separator.
func (t *Transceiver) ReadString(out []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	if _, err := t.skipUntil(quoteSep, time.Until(deadline)); err != nil {
		return 0, err
	}
	n, _, err := t.popUntil(out, quoteSep, time.Until(deadline))
	if err != nil {
		return n, err
	}
	sep, err := t.skipUntil(argSeparators, time.Until(deadline))
	if err != nil {
		return n, err
	}
	t.startOfLine = sep == '\n'
	return n, nil
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// ReadHexString behaves like ReadString but decodes hex digit pairs
// into binary. If out cannot hold every decoded byte, it decodes what
// fits, returns Warning/OutOfResources, but always continues
// consuming through the closing '"' and the trailing separator so the
// cursor is left in a recoverable position.
func (t *Transceiver) ReadHexString(out []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	if _, err := t.skipUntil(quoteSep, time.Until(deadline)); err != nil {
		return 0, err
	}

	written := 0
	overflowed := false
	havePending := false
	var pending byte
	for {
		b, err := t.popByteDeadline(deadline)
		if err != nil {
			return written, err
		}
		if b == '"' {
			break
		}
		nibble, ok := hexNibble(b)
		if !ok {
			return written, inconsistentStateErr("ReadHexString: invalid hex digit")
		}
		if !havePending {
			pending = nibble
			havePending = true
			continue
		}
		val := pending<<4 | nibble
		havePending = false
		if written < len(out) {
			out[written] = val
			written++
		} else {
			overflowed = true
		}
	}

	sep, err := t.skipUntil(argSeparators, time.Until(deadline))
	if err != nil {
		return written, err
	}
	t.startOfLine = sep == '\n'
	if overflowed {
		return written, outOfResourcesWarning("ReadHexString: buffer too small")
	}
	return written, nil
}

// ReadArgument reads a generic unquoted argument: leading whitespace
// is discarded, internal whitespace is kept, trailing whitespace is
// trimmed, and the argument ends at ',', '\r', or '\n'. If it ends on
// '\r' the matching '\n' is consumed too, so the cursor always lands
// just past the full line terminator or the ',' separator.
func (t *Transceiver) ReadArgument(out []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	leadingSkipped := false
	n := 0
	trailingWS := 0
	for {
		b, err := t.popByteDeadline(deadline)
		if err != nil {
			return n, err
		}
		if b == ',' || b == '\n' || b == '\r' {
			n -= trailingWS
			if n < 0 {
				n = 0
			}
			if b == '\r' {
				if _, err := t.skipUntil(newline, time.Until(deadline)); err != nil {
					return n, err
				}
				t.startOfLine = true
			} else {
				t.startOfLine = b == '\n'
			}
			return n, nil
		}
		isWS := b == ' ' || b == '\t'
		if !leadingSkipped {
			if isWS {
				continue
			}
			leadingSkipped = true
		}
		if n < len(out) {
			if isWS {
				trailingWS++
			} else {
				trailingWS = 0
			}
			out[n] = b
			n++
		}
	}
}

// SkipArgument discards input up to the next ',' or '\n'.
func (t *Transceiver) SkipArgument(timeout time.Duration) error {
	sep, err := t.skipUntil(argSeparators, timeout)
	if err != nil {
		return err
	}
	t.startOfLine = sep == '\n'
	return nil
}

// SkipLine discards input up to the next '\n'.
func (t *Transceiver) SkipLine(timeout time.Duration) error {
	if _, err := t.skipUntil(newline, timeout); err != nil {
		return err
	}
	t.startOfLine = true
	return nil
}

// CheckEndOfLine peeks two bytes without consuming them and reports
// whether they equal "\r\n".
func (t *Transceiver) CheckEndOfLine(timeout time.Duration) (bool, error) {
	var buf [2]byte
	n, err := t.peek(buf[:], timeout)
	if err != nil {
		return false, err
	}
	if n < 2 {
		return false, nil
	}
	return buf[0] == crlf[0] && buf[1] == crlf[1], nil
}

// ReadCode recognizes a final response code, tolerating up to
// Options.ResponseCodeSkipLimit consecutive blank "\r\n" lines first.
// It matches the first token against the response-code table by
// longest-prefix, distinguishing a bare CONNECT from CONNECT<rate>,
// and consumes through the final '\n' of the code line.
func (t *Transceiver) ReadCode(timeout time.Duration) (Code, error) {
	deadline := time.Now().Add(timeout)

	for i := 0; i < t.opts.ResponseCodeSkipLimit; i++ {
		var buf [2]byte
		n, err := t.peekDeadline(buf[:], deadline)
		if err != nil {
			return 0, err
		}
		if n < 2 || buf[0] != '\r' || buf[1] != '\n' {
			break
		}
		if _, err := t.skipDeadline(2, deadline); err != nil {
			return 0, err
		}
	}

	var scratch [64]byte
	n, _, err := t.popUntil(scratch[:], newline, time.Until(deadline))
	if err != nil && n == 0 {
		return 0, err
	}
	t.startOfLine = err == nil
	line := string(scratch[:n])
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	code, ok := matchCode(line)
	if !ok {
		return 0, inconsistentStateErr("ReadCode: unrecognized response token " + line)
	}
	return code, nil
}
