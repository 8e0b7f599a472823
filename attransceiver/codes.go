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

import "strings"

// Code is a final response code recognized by ReadCode. The numeric
// values are the legacy wire table's; gaps at 5 and 14-16 are
// preserved deliberately and must not be renumbered.
type Code int

const (
	CodeOK                  Code = 0
	CodeConnect             Code = 1
	CodeRing                Code = 2
	CodeNoCarrier           Code = 3
	CodeError               Code = 4
	CodeNoDialtone          Code = 6
	CodeBusy                Code = 7
	CodeNoAnswer            Code = 8
	CodeConnectRate         Code = 9
	CodeNotSupport          Code = 10
	CodeInvalidCommandLine  Code = 11
	CodeCR                  Code = 12
	CodeSimDrop             Code = 13
	CodeSendOK              Code = 17
	CodeSendFail            Code = 18
	CodeCommandAborted      Code = 3000
)

func (c Code) String() string {
	for _, e := range codeTable {
		if e.code == c {
			return e.token
		}
	}
	return "UNKNOWN"
}

// Err reports the error a caller would raise for treating this code
// as the outcome of an AT command: nil for OK, a ModemRespondedError
// otherwise. ReadCode itself never returns this error — it only
// parses the token — callers decide whether a non-OK code is fatal.
func (c Code) Err() error {
	if c == CodeOK {
		return nil
	}
	return newErr(KindModemRespondedError, SeverityError, "modem responded "+c.String())
}

type codeTableEntry struct {
	token string
	code  Code
}

// codeTable is walked top to bottom and the first prefix match wins.
// No token in it is a prefix of another, so that first match is also
// the longest one; CONNECT versus CONNECT<rate> is told apart by
// matchCode looking at what follows the CONNECT token.
var codeTable = []codeTableEntry{
	{"INVALID COMMAND LINE", CodeInvalidCommandLine},
	{"NO DIALTONE", CodeNoDialtone},
	{"Command aborted", CodeCommandAborted},
	{"NO CARRIER", CodeNoCarrier},
	{"NO ANSWER", CodeNoAnswer},
	{"NOT SUPPORT", CodeNotSupport},
	{"SEND FAIL", CodeSendFail},
	{"SIM DROP", CodeSimDrop},
	{"SEND OK", CodeSendOK},
	{"CONNECT", CodeConnect}, // special-cased below for the <rate> suffix
	{"ERROR", CodeError},
	{"BUSY", CodeBusy},
	{"RING", CodeRing},
	{"OK", CodeOK},
	{"CR", CodeCR},
}

// matchCode applies longest-prefix matching of line (already trimmed
// of its terminator) against the response-code table, special-casing
// CONNECT with a trailing data-rate suffix.
func matchCode(line string) (Code, bool) {
	for _, e := range codeTable {
		if strings.HasPrefix(line, e.token) {
			if e.token == "CONNECT" && len(line) > len("CONNECT") {
				return CodeConnectRate, true
			}
			return e.code, true
		}
	}
	return 0, false
}
