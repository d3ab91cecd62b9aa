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

// Package wire implements AnyValue, a category-tagged, self-describing
// binary value container with a fixed wire header, CBOR-encoded
// category payloads, optional outer envelope encryption, and
// lazy decrypt-on-access semantics for its complex categories.
//
// Grounded on binding/json.go and binding/msgpack/msgpack.go's
// "bytes in, typed value out, options carry behavior" shape, and
// binding/convert.go's fallback-chain style for container element
// decoding: DecodeList/DecodeMap try a direct decode, then per-element
// envelope decryption. Elements that fit neither are not converted one
// by one; those calls return an error naming AsAnyValueArray/
// AsAnyValueMap instead.
package wire

import "fmt"

// Category is the wire tag identifying what shape an AnyValue's payload
// takes. Values are fixed by the wire format and must never change.
type Category uint8

const (
	Null      Category = 0
	Primitive Category = 1
	List      Category = 2
	Map       Category = 3
	Struct    Category = 4
	Bytes     Category = 5
	Json      Category = 6
)

// String renders the category name, used in error messages.
func (c Category) String() string {
	switch c {
	case Null:
		return "Null"
	case Primitive:
		return "Primitive"
	case List:
		return "List"
	case Map:
		return "Map"
	case Struct:
		return "Struct"
	case Bytes:
		return "Bytes"
	case Json:
		return "Json"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// outerEnvelopeEligible reports whether c may ever carry is_enc=1 as
// produced by Serialize (Null, Primitive, and Bytes are never
// outer-enveloped per spec).
func (c Category) outerEnvelopeEligible() bool {
	switch c {
	case List, Map, Struct, Json:
		return true
	default:
		return false
	}
}
