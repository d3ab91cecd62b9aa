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

import (
	"reflect"

	"github.com/coremesh/fabric/ferrors"
	"github.com/coremesh/fabric/keys"
)

// AnyValue is a category-tagged, self-describing value: either an
// eager native value (freshly constructed, or already decoded from the
// wire) or a lazy payload awaiting decrypt-and-decode on first typed
// access. The zero value is not valid; build one with From, FromJSON,
// FromList, FromMap, FromStruct, NullValue, or Deserialize.
type AnyValue struct {
	state *state
}

// state is held behind a pointer so every copy of an AnyValue sharing
// one deserialization shares the same lazy-decrypt memoization, per
// spec.md §5's "decrypt at most once per AnyValue instance".
type state struct {
	category Category
	typeName string

	hasValue bool
	value    any

	// langTypeName is the registered Go type name (distinct from the
	// wire name), used to look up encrypt/decrypt functions for Struct
	// values. Empty unless set by FromStruct or Deserialize (resolved
	// via the wire name -> language type name table).
	langTypeName string

	lazy *lazyHolder
}

// Category reports the value's wire category.
func (v AnyValue) Category() Category {
	if v.state == nil {
		return Null
	}

	return v.state.category
}

// TypeName reports the value's wire type name.
func (v AnyValue) TypeName() string {
	if v.state == nil {
		return "null"
	}

	return v.state.typeName
}

// IsEncrypted reports whether the value, as constructed or
// deserialized, carries an is_enc=1 payload not yet decrypted.
func (v AnyValue) IsEncrypted() bool {
	return v.state != nil && v.state.lazy != nil && v.state.lazy.isEncrypted && !v.state.lazy.decryptedOK()
}

func newEager(cat Category, typeName string, value any) AnyValue {
	return AnyValue{state: &state{category: cat, typeName: typeName, hasValue: true, value: value}}
}

// NullValue returns the canonical Null AnyValue.
func NullValue() AnyValue {
	return newEager(Null, "null", nil)
}

// wireNameForKind maps a concrete Go integer/float kind to its
// spec.md §6 wire name. Integers default to i64 unless the concrete Go
// type already names a narrower width (spec.md §4.C).
func wireNameForKind(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.Bool:
		return "bool", true
	case reflect.String:
		return "string", true
	case reflect.Int8:
		return "i8", true
	case reflect.Int16:
		return "i16", true
	case reflect.Int32:
		return "i32", true
	case reflect.Int, reflect.Int64:
		return "i64", true
	case reflect.Uint8:
		return "u8", true
	case reflect.Uint16:
		return "u16", true
	case reflect.Uint32:
		return "u32", true
	case reflect.Uint, reflect.Uint64:
		return "u64", true
	case reflect.Float32:
		return "f32", true
	case reflect.Float64:
		return "f64", true
	default:
		return "", false
	}
}

// From builds an AnyValue from a native Go value by type detection
// (spec.md §4.C "Type detection and wire name resolution"): nil becomes
// Null, bool/string/numeric/rune become Primitive, []byte becomes
// Bytes, []AnyValue becomes List, map[string]AnyValue becomes Map. Use
// FromJSON or FromStruct for the Json and Struct categories explicitly,
// since those can't be distinguished from a plain map/struct value by
// reflection alone.
func From(v any) (AnyValue, error) {
	if v == nil {
		return NullValue(), nil
	}

	switch vv := v.(type) {
	case []byte:
		return newEager(Bytes, "bytes", vv), nil
	case []AnyValue:
		return FromList(vv), nil
	case map[string]AnyValue:
		return FromMap(vv), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Int32 {
		// rune is an alias for int32; spec.md §6 names it "char".
		if _, isRune := v.(rune); isRune {
			return newEager(Primitive, "char", v), nil
		}
	}

	wireName, ok := wireNameForKind(rv.Kind())
	if !ok {
		return AnyValue{}, ferrors.Typef("cannot infer wire category for Go type %T", v)
	}

	return newEager(Primitive, wireName, v), nil
}

// FromJSON wraps an arbitrary JSON-shaped value (map[string]any,
// []any, or a scalar produced by a JSON decoder) as a Json-category
// AnyValue.
func FromJSON(v any) AnyValue {
	return newEager(Json, "json", v)
}

// listWireName derives "list<E>" for a homogeneous element type name or
// "list<any>" for a heterogeneous/empty list.
func listWireName(elements []AnyValue) string {
	if len(elements) == 0 {
		return "list<any>"
	}

	first := elements[0].TypeName()
	for _, e := range elements[1:] {
		if e.TypeName() != first {
			return "list<any>"
		}
	}

	return "list<" + first + ">"
}

// FromList builds a List AnyValue from already-wrapped elements.
func FromList(elements []AnyValue) AnyValue {
	return newEager(List, listWireName(elements), elements)
}

// mapWireName derives "map<string,E>" / "map<string,any>" analogously
// to listWireName.
func mapWireName(entries map[string]AnyValue) string {
	if len(entries) == 0 {
		return "map<string,any>"
	}

	var first string
	firstSeen := false

	for _, v := range entries {
		if !firstSeen {
			first = v.TypeName()
			firstSeen = true

			continue
		}

		if v.TypeName() != first {
			return "map<string,any>"
		}
	}

	return "map<string," + first + ">"
}

// FromMap builds a Map AnyValue from already-wrapped entries.
func FromMap(entries map[string]AnyValue) AnyValue {
	return newEager(Map, mapWireName(entries), entries)
}

// FromStruct builds a Struct AnyValue from a registered language type.
// If no wire name is registered for reflect.TypeOf(v).Name() in
// registry, the default wire name "struct" is used (spec.md §4.C).
func FromStruct(v any, registry *keys.TypeRegistry) AnyValue {
	typeName := reflect.TypeOf(v).Name()

	wireName, ok := registry.LookupWireName(typeName)
	if !ok {
		wireName = "struct"
	}

	av := newEager(Struct, wireName, v)
	av.state.langTypeName = typeName

	return av
}
