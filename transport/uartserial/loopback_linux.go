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

package uartserial

import (
	serial "github.com/daedaluz/goserial"
)

// Loopback is a PTY pair standing in for a real modem UART in tests:
// the Engine drives Modem as its transport.Port while the test drives
// Master directly to play back canned modem responses and observe
// exactly what the Transceiver wrote.
type Loopback struct {
	Modem  *Adapter
	Master *serial.Port
}

// OpenLoopback opens a fresh PTY pair and wraps its slave side as a
// transport.Port-compatible Adapter.
func OpenLoopback() (*Loopback, error) {
	master, slave, err := serial.OpenPTY(nil, nil)
	if err != nil {
		return nil, err
	}
	if err := slave.MakeRaw(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	return &Loopback{
		Modem:  &Adapter{port: slave, readChunkSize: 1},
		Master: master,
	}, nil
}

// Close releases both ends of the PTY pair.
func (l *Loopback) Close() error {
	err1 := l.Modem.Close()
	err2 := l.Master.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
