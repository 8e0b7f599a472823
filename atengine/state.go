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

// State identifies where the modem sits in the driver-integration
// layer's own state machine (registration, power, etc). This package
// only tracks transitions and fires StateChangeFunc; it assigns no
// meaning to any value beyond StatePowerOff, the value Initialize
// starts in.
type State int

// StatePowerOff is the state Initialize leaves the Engine in before
// any caller has reported a transition via NotifyNewState.
const StatePowerOff State = 0

// StateChangeFunc is invoked once per distinct transition reported to
// NotifyNewState, never for a report that repeats the current state.
// param is passed through verbatim for the callback to interpret.
type StateChangeFunc func(oldState, newState State, param []byte)
