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

package keys

import "sync"

// Constructor builds a zero/default instance of a registered type.
type Constructor func() any

// Decoder decodes raw CBOR-decoded data into a registered type's native
// shape, for types whose wire representation needs more than a direct
// CBOR unmarshal (e.g. encrypted companions).
type Decoder func(data []byte) (any, error)

// EncryptFn produces a type's encrypted companion value (fields
// replaced by per-label envelopes) from its plain value.
type EncryptFn func(value any) (any, error)

// DecryptFn reconstructs a type's plain value from its encrypted
// companion.
type DecryptFn func(companion any) (any, error)

// ToJSONFn converts a registered type's value to a JSON-marshalable
// representation.
type ToJSONFn func(value any) (any, error)

// TypeRegistration is what register_type stores for a language type
// name: an optional constructor and an optional custom decoder.
type TypeRegistration struct {
	Constructor Constructor
	Decoder     Decoder
}

// TypeRegistry is the process-wide set of tables AnyValue and its
// typed accessors consult: wire-name↔language-type-name, per-type
// constructors/decoders, and per-type encrypt/decrypt/JSON-converter
// functions. Populated at startup (primitives pre-registered, see New)
// and by decorators on user types; safe for concurrent reads, and
// writes are expected only at initialisation (spec.md §5).
type TypeRegistry struct {
	mu sync.RWMutex

	types         map[string]TypeRegistration // by language type name
	wireByType    map[string]string           // language type name -> wire name
	typeByWire    map[string]string           // wire name -> language type name
	encryptByType map[string]EncryptFn
	decryptByType map[string]DecryptFn
	jsonByWire    map[string]ToJSONFn
	jsonByType    map[string]ToJSONFn
}

var defaultRegistry = New()

// Default returns the process-wide TypeRegistry (spec.md §4.D/§5:
// "process-wide registries... populated at startup"), the way
// config/codec's package-level Registry is the one every RegisterEncoder/
// GetEncoder call operates on. Tests that register their own types
// should call Clear() when done.
func Default() *TypeRegistry {
	return defaultRegistry
}

// New builds a TypeRegistry with the primitive wire names and JSON
// converters of spec.md §4.C/§6 pre-registered.
func New() *TypeRegistry {
	r := &TypeRegistry{
		types:         make(map[string]TypeRegistration),
		wireByType:    make(map[string]string),
		typeByWire:    make(map[string]string),
		encryptByType: make(map[string]EncryptFn),
		decryptByType: make(map[string]DecryptFn),
		jsonByWire:    make(map[string]ToJSONFn),
		jsonByType:    make(map[string]ToJSONFn),
	}

	r.seedPrimitives()

	return r
}

func identityJSON(v any) (any, error) { return v, nil }

func (r *TypeRegistry) seedPrimitives() {
	primitives := map[string]string{
		"string":  "string",
		"bool":    "bool",
		"int8":    "i8",
		"int16":   "i16",
		"int32":   "i32",
		"int64":   "i64",
		"int":     "i64",
		"uint8":   "u8",
		"uint16":  "u16",
		"uint32":  "u32",
		"uint64":  "u64",
		"uint":    "u64",
		"float32": "f32",
		"float64": "f64",
		"rune":    "char",
		"[]byte":  "bytes",
		"json":    "json",
		"null":    "null",
		"struct":  "struct",
	}

	for langType, wireName := range primitives {
		r.wireByType[langType] = wireName
		r.typeByWire[wireName] = langType
		r.jsonByWire[wireName] = identityJSON
		r.jsonByType[langType] = identityJSON
	}
}

// RegisterType records a constructor/decoder pair under a language
// type name.
func (r *TypeRegistry) RegisterType(name string, reg TypeRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[name] = reg
}

// RegisterWireName associates a language type name with its wire name,
// both directions.
func (r *TypeRegistry) RegisterWireName(langType, wireName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wireByType[langType] = wireName
	r.typeByWire[wireName] = langType
}

// RegisterEncrypt registers the function producing a type's encrypted
// companion value.
func (r *TypeRegistry) RegisterEncrypt(typeName string, fn EncryptFn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.encryptByType[typeName] = fn
}

// RegisterDecrypt registers the function reconstructing a type's plain
// value from its encrypted companion.
func (r *TypeRegistry) RegisterDecrypt(typeName string, fn DecryptFn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decryptByType[typeName] = fn
}

// RegisterToJSON registers a type's JSON converter, indexed by both its
// language type name and (if known) its wire name.
func (r *TypeRegistry) RegisterToJSON(typeName string, fn ToJSONFn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jsonByType[typeName] = fn

	if wireName, ok := r.wireByType[typeName]; ok {
		r.jsonByWire[wireName] = fn
	}
}

// ResolveType looks up the constructor/decoder registered for a
// language type name.
func (r *TypeRegistry) ResolveType(name string) (TypeRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.types[name]

	return reg, ok
}

// LookupWireName returns the wire name registered for a language type
// name.
func (r *TypeRegistry) LookupWireName(langType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.wireByType[langType]

	return name, ok
}

// LookupTypeName returns the language type name registered for a wire
// name (the reverse of LookupWireName).
func (r *TypeRegistry) LookupTypeName(wireName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.typeByWire[wireName]

	return name, ok
}

// LookupEncryptorByTypeName returns the encryptor registered for a
// language type name.
func (r *TypeRegistry) LookupEncryptorByTypeName(typeName string) (EncryptFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.encryptByType[typeName]

	return fn, ok
}

// LookupDecryptorByTypeName returns the decryptor registered for a
// language type name.
func (r *TypeRegistry) LookupDecryptorByTypeName(typeName string) (DecryptFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.decryptByType[typeName]

	return fn, ok
}

// JSONConverterByWireName returns the JSON converter registered for a
// wire name.
func (r *TypeRegistry) JSONConverterByWireName(wireName string) (ToJSONFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.jsonByWire[wireName]

	return fn, ok
}

// JSONConverterByTypeName returns the JSON converter registered for a
// language type name.
func (r *TypeRegistry) JSONConverterByTypeName(typeName string) (ToJSONFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.jsonByType[typeName]

	return fn, ok
}

// Clear empties every table except the pre-seeded primitives, for test
// isolation between cases that register their own types.
func (r *TypeRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = make(map[string]TypeRegistration)
	r.encryptByType = make(map[string]EncryptFn)
	r.decryptByType = make(map[string]DecryptFn)
	r.wireByType = make(map[string]string)
	r.typeByWire = make(map[string]string)
	r.jsonByWire = make(map[string]ToJSONFn)
	r.jsonByType = make(map[string]ToJSONFn)

	r.seedPrimitives()
}
