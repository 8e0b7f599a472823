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

// Package uartserial adapts a termios-backed serial device into the
// transport.Port interface the Engine's write sink is built on.
package uartserial

import (
	"time"

	serial "github.com/daedaluz/goserial"
)

// Adapter wraps a raw termios serial.Port as a transport.Port, with a
// configurable read granularity. The reference firmware this driver
// generalizes feeds its byte ring one UART-ISR byte at a time;
// ReadChunkSize defaults to 1 to stay faithful to that cadence, and
// can be raised for higher-throughput deployments where per-byte
// syscalls are a bottleneck.
type Adapter struct {
	port          *serial.Port
	readChunkSize int
}

// Options configures Open.
type Options struct {
	// BaudRate is applied via the termios2 custom-speed ioctl, so any
	// rate the hardware supports works, not just the POSIX B-constants.
	BaudRate uint32
	// ReadChunkSize bounds how many bytes a single Read call off the
	// wire may return. Defaults to 1.
	ReadChunkSize int
}

// Open configures device as a raw 8N1 serial port at the requested
// baud rate and returns an Adapter ready for use as a transport.Port.
func Open(device string, opts Options) (*Adapter, error) {
	port, err := serial.Open(device, serial.NewOptions())
	if err != nil {
		return nil, err
	}
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, err
	}
	if opts.BaudRate > 0 {
		attrs, err := port.GetAttr2()
		if err != nil {
			port.Close()
			return nil, err
		}
		attrs.MakeRaw()
		attrs.SetCustomSpeed(opts.BaudRate)
		if err := port.SetAttr2(serial.TCSANOW, attrs); err != nil {
			port.Close()
			return nil, err
		}
	}
	chunk := opts.ReadChunkSize
	if chunk <= 0 {
		chunk = 1
	}
	return &Adapter{port: port, readChunkSize: chunk}, nil
}

// ReadChunkSize returns the configured read granularity.
func (a *Adapter) ReadChunkSize() int { return a.readChunkSize }

// Read pops up to ReadChunkSize bytes off the wire, blocking until at
// least one byte arrives.
func (a *Adapter) Read(data []byte) (int, error) {
	if len(data) > a.readChunkSize {
		data = data[:a.readChunkSize]
	}
	return a.port.Read(data)
}

// ReadTimeout behaves like Read but bounds the wait.
func (a *Adapter) ReadTimeout(data []byte, timeout time.Duration) (int, error) {
	if len(data) > a.readChunkSize {
		data = data[:a.readChunkSize]
	}
	return a.port.ReadTimeout(data, timeout)
}

// Write transmits data, blocking until the kernel has accepted all of
// it. The adapter raises no separate TX-done signal; the Engine's
// write sink treats Write's return as transmission complete (see
// atengine).
func (a *Adapter) Write(data []byte) (int, error) {
	return a.port.Write(data)
}

// Close releases the underlying file descriptor.
func (a *Adapter) Close() error {
	return a.port.Close()
}

// SetModemLines drives the port's modem control lines (DTR/RTS/...),
// used by a driver's power-on sequence. This is a thin passthrough;
// the core attaches no semantics to it.
func (a *Adapter) SetModemLines(line serial.ModemLine) error {
	return a.port.SetModemLines(line)
}

// GetModemLines reads the current modem control line state.
func (a *Adapter) GetModemLines() (serial.ModemLine, error) {
	return a.port.GetModemLines()
}

// SetRS485 configures RS485 direction-control timing on ports that
// support it, passed straight through to the underlying driver.
func (a *Adapter) SetRS485(cfg *serial.RS485) error {
	return a.port.SetRS485(cfg)
}
