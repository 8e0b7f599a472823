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

// State is the write-sequence state machine a Transceiver enforces
// between PrepareWrite and Flush, unless OptNoState disables the
// guard. It is exported so Write's raw escape hatch can name the
// state it leaves the sequence in.
type State int

const (
	StateInvalid State = iota
	StateStart
	StateCommand
	StateArgument
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCommand:
		return "command"
	case StateArgument:
		return "argument"
	case StateEnd:
		return "end"
	default:
		return "invalid"
	}
}

// requireState checks the current write state against the set of
// states a caller is allowed to invoke from, unless OptNoState is
// set. It never mutates the state; callers transition afterwards on
// success.
func (t *Transceiver) requireState(allowed ...State) error {
	if t.options.has(OptNoState) {
		return nil
	}
	for _, s := range allowed {
		if t.writeState == s {
			return nil
		}
	}
	return inconsistentStateErr("writer call not valid from state " + t.writeState.String())
}

func (t *Transceiver) setState(s State) {
	if t.options.has(OptNoState) {
		return
	}
	t.writeState = s
}
