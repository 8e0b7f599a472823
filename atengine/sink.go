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
	"sync/atomic"
	"time"

	"github.com/modemcore/atcore/attransceiver"
	"github.com/modemcore/atcore/transport"
)

// uartSink adapts a transport.Port into the attransceiver.WriteSink
// the Transceiver calls on Flush. It reproduces the reference
// firmware's write-sink protocol: reject writes before the hardware
// is ready, pre-drain any stale TX-complete signal, issue the send,
// then wait up to sendTimeout for TX-complete to be raised.
//
// transport.Port.Write is documented to block until the kernel has
// accepted every byte, so for the reference UART adapter
// (transport/uartserial) that acceptance already is the completion
// event and uartSink raises its own signal right after Write returns.
// Hardware with a genuinely asynchronous DMA-driven UART can instead
// call Engine.NotifyTxComplete from its TX-done interrupt and never
// have uartSink self-signal; see selfSignal.
type uartSink struct {
	port        transport.Port
	txComplete  chan struct{}
	sendTimeout time.Duration
	ready       atomic.Bool
	selfSignal  bool
}

func newUARTSink(port transport.Port, sendTimeout time.Duration, selfSignal bool) *uartSink {
	return &uartSink{
		port:        port,
		txComplete:  make(chan struct{}, 1),
		sendTimeout: sendTimeout,
		selfSignal:  selfSignal,
	}
}

func (s *uartSink) setReady(v bool) { s.ready.Store(v) }

// notifyTxComplete raises the TX-complete signal; called by a real
// TX-done ISR when selfSignal is false.
func (s *uartSink) notifyTxComplete() {
	select {
	case s.txComplete <- struct{}{}:
	default:
	}
}

func (s *uartSink) Write(data []byte) (int, error) {
	if !s.ready.Load() {
		return 0, &attransceiver.Error{Kind: attransceiver.KindUninitialized, Severity: attransceiver.SeverityError, Msg: "write sink used before hardware is ready"}
	}

	// pre-drain any stale signal from a previous, unrelated completion
	select {
	case <-s.txComplete:
	default:
	}

	n, err := s.port.Write(data)
	if err != nil {
		return n, err
	}
	if s.selfSignal {
		s.notifyTxComplete()
	}

	timer := time.NewTimer(s.sendTimeout)
	defer timer.Stop()
	select {
	case <-s.txComplete:
		return n, nil
	case <-timer.C:
		return n, &attransceiver.Error{Kind: attransceiver.KindTimeout, Severity: attransceiver.SeverityError, Msg: "TX-complete not raised within SEND_TIMEOUT"}
	}
}
