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

package urc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modemcore/atcore/atring"
	"github.com/modemcore/atcore/attransceiver"
)

type nopSink struct{}

func (nopSink) Write(data []byte) (int, error) { return len(data), nil }

func newTransceiver(seed string) *attransceiver.Transceiver {
	ring := atring.New(256)
	ring.Write([]byte(seed))
	return attransceiver.New(ring, nopSink{}, attransceiver.DefaultOptions())
}

func TestHandleResponsesDispatchesRegisteredHandler(t *testing.T) {
	tr := newTransceiver("\r\n+CEREG: 0,2\r\n")
	d := New()

	var gotStat, gotN int32
	d.Register("+CEREG", func(t *attransceiver.Transceiver) error {
		var err error
		gotStat, err = t.ReadI32(10, time.Second)
		if err != nil {
			return err
		}
		gotN, err = t.ReadI32(10, time.Second)
		return err
	})

	require.NoError(t, d.HandleResponses(tr))
	require.Equal(t, int32(0), gotStat)
	require.Equal(t, int32(2), gotN)
}

func TestHandleResponsesSkipsUnknownMnemonic(t *testing.T) {
	tr := newTransceiver("\r\n+UNKNOWNURC: 1,2\r\n\r\n+CREG: 0,1\r\n")
	d := New()

	var dispatched bool
	d.Register("+CREG", func(t *attransceiver.Transceiver) error {
		dispatched = true
		return t.SkipArgument(time.Second)
	})

	require.NoError(t, d.HandleResponses(tr))
	require.True(t, dispatched)
}

func TestHandleResponsesContinuesScanAfterErrNotMine(t *testing.T) {
	tr := newTransceiver("\r\n+CEREG: 0,2\r\n\r\n+CREG: 0,1\r\n")
	d := New()

	var dispatched bool
	d.Register("+CEREG", func(t *attransceiver.Transceiver) error {
		return ErrNotMine
	})
	d.Register("+CREG", func(t *attransceiver.Transceiver) error {
		dispatched = true
		return t.SkipArgument(time.Second)
	})

	require.NoError(t, d.HandleResponses(tr))
	require.True(t, dispatched)
}

func TestHandleResponsesCleanTimeoutWhenIdle(t *testing.T) {
	tr := newTransceiver("")
	d := New()
	require.NoError(t, d.HandleResponses(tr))
}

func TestHandleResponsesErrorsOnPartialMnemonicTimeout(t *testing.T) {
	tr := newTransceiver("\r\n+PART")
	d := New()
	err := d.HandleResponses(tr)
	var attErr *attransceiver.Error
	require.ErrorAs(t, err, &attErr)
	require.Equal(t, attransceiver.KindTimeout, attErr.Kind)
}
