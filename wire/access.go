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
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/coremesh/fabric/ferrors"
	"github.com/coremesh/fabric/keys"
	"github.com/coremesh/fabric/keystore"
)

// hasEncryptedFieldShape reports whether a CBOR-decoded map looks like
// an encrypted companion value: at least one key ending in
// "_encrypted", the naming convention the generated companion types use
// for fields replaced by a per-label envelope.
func hasEncryptedFieldShape(m map[string]any) bool {
	for k := range m {
		if strings.HasSuffix(k, "_encrypted") {
			return true
		}
	}

	return false
}

// rawValue returns the decrypted (if necessary) payload bytes for an
// eager or lazy AnyValue.
func rawValue(v AnyValue) ([]byte, bool, error) {
	if v.state == nil {
		return nil, false, nil
	}

	if v.state.lazy != nil {
		plain, err := v.state.lazy.plaintext()
		if err != nil {
			return nil, false, err
		}

		return plain, true, nil
	}

	return nil, false, nil
}

// AsType decodes a Primitive, Json, or Struct AnyValue as T. For a
// lazily-deserialized value this triggers decode-on-access: CBOR
// decoding happens here, and for Struct values whose decoded shape
// looks like an encrypted companion, the registered decryptor for the
// value's language type name runs first.
//
// List and Map categories are rejected: use DecodeList/DecodeMap, which
// take an explicit element type argument since Go generics can't infer
// one from an AnyValue alone.
func AsType[T any](av AnyValue) (T, error) {
	var zero T

	switch av.Category() {
	case Null:
		return zero, nil
	case List, Map:
		return zero, ferrors.Typef("use DecodeList/DecodeMap for category %s", av.Category())
	}

	if av.state.hasValue {
		if typed, ok := av.state.value.(T); ok {
			return typed, nil
		}

		return zero, ferrors.Typef("value is not assignable to requested type")
	}

	raw, _, err := rawValue(av)
	if err != nil {
		return zero, err
	}

	if av.Category() == Bytes {
		if typed, ok := any(raw).(T); ok {
			return typed, nil
		}

		return zero, ferrors.Typef("bytes value is not assignable to requested type")
	}

	// Struct payloads may be shaped as an encrypted companion (fields
	// replaced by "..._encrypted" envelopes) rather than T's own shape.
	// CBOR-into-struct decoding silently ignores unknown/missing fields,
	// so the companion shape must be ruled out first; decoding it
	// straight into T would otherwise "succeed" with a zero value.
	if av.Category() == Struct {
		var companion map[string]any
		if err := cbor.Unmarshal(raw, &companion); err == nil && hasEncryptedFieldShape(companion) {
			return decryptCompanion[T](companion, av.state.langTypeName)
		}
	}

	var direct T
	if err := cbor.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	if av.Category() != Struct {
		return zero, ferrors.Wire("failed to decode payload into requested type")
	}

	var companion map[string]any
	if err := cbor.Unmarshal(raw, &companion); err != nil {
		return zero, ferrors.Wiref("failed to decode struct payload: %v", err)
	}

	if !hasEncryptedFieldShape(companion) {
		return zero, ferrors.Wire("struct payload does not match requested type and has no encrypted fields")
	}

	decryptFn, ok := keys.Default().LookupDecryptorByTypeName(av.state.langTypeName)
	if !ok {
		return zero, ferrors.Cryptof("no decryptor registered for type %q", av.state.langTypeName)
	}

	plain, err := decryptFn(companion)
	if err != nil {
		return zero, ferrors.Crypto("failed to decrypt struct companion", err)
	}

	if typed, ok := plain.(T); ok {
		return typed, nil
	}

	return zero, ferrors.Typef("decrypted value is not assignable to requested type")
}

// decodeElementBytes runs the container element decryption fallback
// chain against raw CBOR bytes shaped like []T, in the order spec.md
// §4.C mandates: try a direct decode into []T first (a plain, never-
// encrypted layout must win here, since a byte-string element type
// decodes structurally the same whether or not it happens to also be a
// valid envelope blob); only if that fails, and only when a decryptor
// is actually registered for T's element type, try []T as [][]byte
// per-element envelopes and decrypt each; otherwise this is not a shape
// decodeElementBytes can resolve and the caller should fall back to
// AsAnyValueArray.
func decodeElementBytes[T any](raw []byte, ks keystore.Keystore) ([]T, error) {
	var direct []T
	if err := cbor.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	typeName := elementTypeNameHint[T]()
	if _, ok := keys.Default().LookupDecryptorByTypeName(typeName); !ok {
		return nil, ferrors.Wire("container elements do not decode as the requested type and no decryptor is registered for it; use AsAnyValueArray")
	}

	var blobs [][]byte
	if err := cbor.Unmarshal(raw, &blobs); err != nil {
		return nil, ferrors.Wiref("failed to decode container payload: %v", err)
	}

	if ks == nil {
		return nil, ferrors.Crypto("container elements are encrypted but no keystore provided", nil)
	}

	out := make([]T, len(blobs))

	for i, blob := range blobs {
		plain, err := ks.DecryptEnvelope(blob)
		if err != nil {
			return nil, ferrors.Crypto("failed to decrypt container element", err)
		}

		elem, err := decodeContainerElement[T](plain)
		if err != nil {
			return nil, err
		}

		out[i] = elem
	}

	return out, nil
}

// decodeContainerElement decodes CBOR-encoded container-element bytes
// (already decrypted, if they were encrypted) into T, checking the
// encrypted-companion shape before a direct struct decode for the same
// reason AsType does.
func decodeContainerElement[T any](plain []byte) (T, error) {
	var companion map[string]any
	if err := cbor.Unmarshal(plain, &companion); err == nil && hasEncryptedFieldShape(companion) {
		return decryptCompanion[T](companion, elementTypeNameHint[T]())
	}

	var elem T
	if err := cbor.Unmarshal(plain, &elem); err != nil {
		var zero T

		return zero, ferrors.Wiref("failed to decode decrypted container element: %v", err)
	}

	return elem, nil
}

// decryptCompanion reconstructs T from an encrypted companion value via
// the registered decryptor for typeName (a language type name).
func decryptCompanion[T any](companion map[string]any, typeName string) (T, error) {
	var zero T

	if !hasEncryptedFieldShape(companion) {
		return zero, ferrors.Wire("container element does not match requested type and has no encrypted fields")
	}

	decryptFn, ok := keys.Default().LookupDecryptorByTypeName(typeName)
	if !ok {
		return zero, ferrors.Cryptof("no decryptor registered for container element type %q", typeName)
	}

	plain, err := decryptFn(companion)
	if err != nil {
		return zero, ferrors.Crypto("failed to decrypt container element companion", err)
	}

	elem, ok := plain.(T)
	if !ok {
		return zero, ferrors.Typef("decrypted container element is not assignable to requested type")
	}

	return elem, nil
}

// elementTypeNameHint returns the Go type name of T for decryptor
// lookup purposes. Named types (including predeclared ones such as
// string) yield their name; unnamed types (slices, maps, anonymous
// structs) and an interface T yield "", in which case the lookup
// simply misses.
func elementTypeNameHint[T any]() string {
	var zero T

	t := reflect.TypeOf(zero)
	if t == nil {
		return ""
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Name()
}

// DecodeList decodes a List AnyValue's elements as []T, running the
// container element decryption fallback chain when the elements are not
// directly CBOR-decodable as T.
func DecodeList[T any](av AnyValue, ks keystore.Keystore) ([]T, error) {
	if av.Category() == Null {
		return nil, nil
	}

	if av.Category() != List {
		return nil, ferrors.Typef("DecodeList requires category List, got %s", av.Category())
	}

	if av.state.hasValue {
		elements, _ := av.state.value.([]AnyValue)
		out := make([]T, len(elements))

		for i, e := range elements {
			typed, err := AsType[T](e)
			if err != nil {
				return nil, err
			}

			out[i] = typed
		}

		return out, nil
	}

	raw, _, err := rawValue(av)
	if err != nil {
		return nil, err
	}

	return decodeElementBytes[T](raw, ks)
}

// DecodeMap decodes a Map AnyValue's entries as map[string]T, running
// the same container element decryption fallback chain as DecodeList.
func DecodeMap[T any](av AnyValue, ks keystore.Keystore) (map[string]T, error) {
	if av.Category() == Null {
		return nil, nil
	}

	if av.Category() != Map {
		return nil, ferrors.Typef("DecodeMap requires category Map, got %s", av.Category())
	}

	if av.state.hasValue {
		entries, _ := av.state.value.(map[string]AnyValue)
		out := make(map[string]T, len(entries))

		for k, e := range entries {
			typed, err := AsType[T](e)
			if err != nil {
				return nil, err
			}

			out[k] = typed
		}

		return out, nil
	}

	raw, _, err := rawValue(av)
	if err != nil {
		return nil, err
	}

	// Same ordering as decodeElementBytes: a direct decode into
	// map[string]T must be tried, and win, before the encrypted-blob
	// interpretation is even considered.
	var direct map[string]T
	if err := cbor.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	typeName := elementTypeNameHint[T]()
	if _, ok := keys.Default().LookupDecryptorByTypeName(typeName); !ok {
		return nil, ferrors.Wire("container entries do not decode as the requested type and no decryptor is registered for it; use AsAnyValueMap")
	}

	var blobs map[string][]byte
	if err := cbor.Unmarshal(raw, &blobs); err != nil {
		return nil, ferrors.Wiref("failed to decode container payload: %v", err)
	}

	if ks == nil {
		return nil, ferrors.Crypto("container elements are encrypted but no keystore provided", nil)
	}

	out := make(map[string]T, len(blobs))

	for k, blob := range blobs {
		plain, err := ks.DecryptEnvelope(blob)
		if err != nil {
			return nil, ferrors.Crypto("failed to decrypt container element", err)
		}

		elem, err := decodeContainerElement[T](plain)
		if err != nil {
			return nil, err
		}

		out[k] = elem
	}

	return out, nil
}

// anyValueFromDecoded wraps a CBOR-decoded Go value (map[string]any,
// []any, or a scalar) as an AnyValue, the way a Json-category element
// is represented once decoded off the wire.
func anyValueFromDecoded(v any) (AnyValue, error) {
	switch vv := v.(type) {
	case map[string]any:
		return FromJSON(vv), nil
	case []any:
		return FromJSON(vv), nil
	default:
		return From(v)
	}
}

// AsAnyValueArray returns a List AnyValue's elements as []AnyValue. For
// an eager value built with FromList this is a direct return of the
// wrapped elements; for a deserialized value, element-level encrypted
// payloads (per-element envelope blobs) are decrypted eagerly here,
// since a container element has no wire header of its own to defer
// decoding behind a lazyHolder.
func AsAnyValueArray(av AnyValue, ks keystore.Keystore) ([]AnyValue, error) {
	if av.Category() == Null {
		return nil, nil
	}

	if av.Category() != List {
		return nil, ferrors.Typef("AsAnyValueArray requires category List, got %s", av.Category())
	}

	if av.state.hasValue {
		elements, _ := av.state.value.([]AnyValue)

		return elements, nil
	}

	raw, _, err := rawValue(av)
	if err != nil {
		return nil, err
	}

	if ks != nil {
		var blobs [][]byte
		if err := cbor.Unmarshal(raw, &blobs); err == nil {
			return decryptAnyValueBlobs(blobs, ks)
		}
	}

	var plain []any
	if err := cbor.Unmarshal(raw, &plain); err != nil {
		return nil, ferrors.Wiref("failed to decode list elements: %v", err)
	}

	out := make([]AnyValue, len(plain))

	for i, p := range plain {
		elem, err := anyValueFromDecoded(p)
		if err != nil {
			return nil, err
		}

		out[i] = elem
	}

	return out, nil
}

func decryptAnyValueBlobs(blobs [][]byte, ks keystore.Keystore) ([]AnyValue, error) {
	out := make([]AnyValue, len(blobs))

	for i, blob := range blobs {
		plainBytes, err := ks.DecryptEnvelope(blob)
		if err != nil {
			return nil, ferrors.Crypto("failed to decrypt list element", err)
		}

		var companion any
		if err := cbor.Unmarshal(plainBytes, &companion); err != nil {
			return nil, ferrors.Wiref("failed to decode decrypted list element: %v", err)
		}

		elem, err := anyValueFromDecoded(companion)
		if err != nil {
			return nil, err
		}

		out[i] = elem
	}

	return out, nil
}

// AsAnyValueMap is AsAnyValueArray's Map counterpart.
func AsAnyValueMap(av AnyValue, ks keystore.Keystore) (map[string]AnyValue, error) {
	if av.Category() == Null {
		return nil, nil
	}

	if av.Category() != Map {
		return nil, ferrors.Typef("AsAnyValueMap requires category Map, got %s", av.Category())
	}

	if av.state.hasValue {
		entries, _ := av.state.value.(map[string]AnyValue)

		return entries, nil
	}

	raw, _, err := rawValue(av)
	if err != nil {
		return nil, err
	}

	if ks != nil {
		var blobs map[string][]byte
		if err := cbor.Unmarshal(raw, &blobs); err == nil {
			out := make(map[string]AnyValue, len(blobs))

			for k, blob := range blobs {
				plainBytes, err := ks.DecryptEnvelope(blob)
				if err != nil {
					return nil, ferrors.Crypto("failed to decrypt map entry", err)
				}

				var companion any
				if err := cbor.Unmarshal(plainBytes, &companion); err != nil {
					return nil, ferrors.Wiref("failed to decode decrypted map entry: %v", err)
				}

				elem, err := anyValueFromDecoded(companion)
				if err != nil {
					return nil, err
				}

				out[k] = elem
			}

			return out, nil
		}
	}

	var plain map[string]any
	if err := cbor.Unmarshal(raw, &plain); err != nil {
		return nil, ferrors.Wiref("failed to decode map entries: %v", err)
	}

	out := make(map[string]AnyValue, len(plain))

	for k, p := range plain {
		elem, err := anyValueFromDecoded(p)
		if err != nil {
			return nil, err
		}

		out[k] = elem
	}

	return out, nil
}
