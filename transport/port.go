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

// Package transport defines the hardware-facing interface the Engine
// drives its UART through. Concrete adapters (see transport/uartserial)
// live in subpackages; the core never imports a specific driver
// directly.
package transport

import "time"

// Port is the minimal capability set the Engine needs from a serial
// link: read the inbound byte stream (with or without a deadline),
// write outbound bytes, and close the underlying device.
type Port interface {
	Read(data []byte) (int, error)
	ReadTimeout(data []byte, timeout time.Duration) (int, error)
	Write(data []byte) (int, error)
	Close() error
}
