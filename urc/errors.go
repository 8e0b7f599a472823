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

import "github.com/modemcore/atcore/attransceiver"

// ErrNotMine is returned by a Handler to tell the Dispatcher that the
// mnemonic it was invoked for isn't the shape of line this particular
// handler understands, letting the caller decide how to recover
// (typically by skipping the line).
var ErrNotMine = &attransceiver.Error{Kind: attransceiver.KindURCNotPresent}
