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

// WriteOption is a bitset controlling how PrepareWrite/Flush treat a
// single command's write sequence.
type WriteOption uint8

const (
	// OptNoBuffer streams each writer call straight to the write sink
	// instead of accumulating into the TX buffer; Flush's echo
	// consumption then skips by count only, without byte comparison.
	OptNoBuffer WriteOption = 1 << iota
	// OptNoEcho disables echo consumption entirely during Flush.
	OptNoEcho
	// OptNoFinalS3S4 suppresses the trailing "\r\n" Flush would
	// otherwise append.
	OptNoFinalS3S4
	// OptNoState disables write-state transition enforcement; every
	// writer call is accepted unconditionally and the state is never
	// consulted or updated.
	OptNoState
)

func (o WriteOption) has(bit WriteOption) bool { return o&bit != 0 }

// Options configures tunables that are not part of the per-sequence
// write-options bitset.
type Options struct {
	// ResponseCodeSkipLimit bounds how many consecutive blank "\r\n"
	// lines ReadCode tolerates before the final response token. Some
	// modems (observed on u-blox SARA R410 after AT+COPS=2) interleave
	// empty lines ahead of the code; kept configurable per spec design
	// notes rather than hard-coded.
	ResponseCodeSkipLimit int
}

// DefaultOptions returns the tunables this package ships with, mirroring
// the behavior observed in the reference modem firmware.
func DefaultOptions() Options {
	return Options{ResponseCodeSkipLimit: 5}
}
