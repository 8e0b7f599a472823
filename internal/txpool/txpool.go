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

// Package txpool backs the Transceiver's optional buffered-write TX
// buffer with pooled, size-classed byte slices instead of a fresh
// make([]byte, n) per opened session, the same technique used
// elsewhere in this module's ancestry for scratch read buffers.
package txpool

import "github.com/bytedance/gopkg/lang/mcache"

// Get returns a byte slice of length n drawn from the size-classed
// pool. The returned slice's capacity may exceed n.
func Get(n int) []byte {
	return mcache.Malloc(n)
}

// Put returns buf to the pool. buf must have been obtained from Get
// and must not be used afterwards.
func Put(buf []byte) {
	mcache.Free(buf)
}
