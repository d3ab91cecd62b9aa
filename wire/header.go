// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import "github.com/coremesh/fabric/ferrors"

// writeHeader assembles the fixed wire header ([cat][is_enc][tname_len]
// [tname][payload]) ahead of an already-encoded payload.
func writeHeader(cat Category, isEnc bool, typeName string, payload []byte) ([]byte, error) {
	if len(typeName) > 255 {
		return nil, ferrors.Wiref("type name %q exceeds 255 bytes", typeName)
	}

	out := make([]byte, 0, 3+len(typeName)+len(payload))
	out = append(out, byte(cat))

	if isEnc {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}

	out = append(out, byte(len(typeName)))
	out = append(out, typeName...)
	out = append(out, payload...)

	return out, nil
}

// readHeader parses the fixed wire header and returns the remaining
// payload slice (a sub-slice of data, not a copy).
func readHeader(data []byte) (cat Category, isEnc bool, typeName string, payload []byte, err error) {
	if len(data) < 3 {
		return 0, false, "", nil, ferrors.Wire("header too short")
	}

	rawCat := data[0]
	if rawCat > byte(Json) {
		return 0, false, "", nil, ferrors.Wiref("unknown category byte %d", rawCat)
	}

	tnameLen := int(data[2])
	if 3+tnameLen > len(data) {
		return 0, false, "", nil, ferrors.Wire("type name length exceeds payload")
	}

	return Category(rawCat), data[1] != 0, string(data[3 : 3+tnameLen]), data[3+tnameLen:], nil
}
