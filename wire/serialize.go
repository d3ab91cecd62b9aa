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
	"github.com/fxamacker/cbor/v2"

	"github.com/coremesh/fabric/ferrors"
	"github.com/coremesh/fabric/keys"
	"github.com/coremesh/fabric/keystore"
)

// plainValue recursively lowers an AnyValue tree to nested native Go
// values (map/slice/scalar) suitable for direct CBOR encoding, per the
// container-recurse rule: nested AnyValue elements are serialised to
// their own category-appropriate representation, never as a nested
// framed AnyValue.
func plainValue(v AnyValue) (any, error) {
	if v.state == nil {
		return nil, nil
	}

	switch v.state.category {
	case Null:
		return nil, nil
	case List:
		elements, _ := v.state.value.([]AnyValue)
		out := make([]any, len(elements))

		for i, e := range elements {
			pv, err := plainValue(e)
			if err != nil {
				return nil, err
			}

			out[i] = pv
		}

		return out, nil
	case Map:
		entries, _ := v.state.value.(map[string]AnyValue)
		out := make(map[string]any, len(entries))

		for k, e := range entries {
			pv, err := plainValue(e)
			if err != nil {
				return nil, err
			}

			out[k] = pv
		}

		return out, nil
	default:
		return v.state.value, nil
	}
}

func outerEnvelope(ctx *SerializationContext, payload []byte) (out []byte, isEnc bool, err error) {
	if ctx == nil || ctx.Keystore == nil {
		return payload, false, nil
	}

	sealed, err := ctx.Keystore.EncryptWithEnvelope(payload, ctx.NetworkPublicKey, ctx.ProfilePublicKeys)
	if err != nil {
		return nil, false, ferrors.Crypto("failed to seal outer envelope", err)
	}

	return sealed, true, nil
}

// elementEncryptedArray attempts the "Element-level encryption
// (containers)" path: if every element is a Struct with a registered
// encryptor, each element's encrypted companion is sealed individually
// via the keystore and the array payload becomes CBOR of those envelope
// blobs. ok is false (falling back to plain flattening) if any element
// lacks an encryptor or ctx has no keystore.
func elementEncryptedArray(ctx *SerializationContext, elements []AnyValue) (payload []byte, ok bool, err error) {
	if ctx == nil || ctx.Keystore == nil {
		return nil, false, nil
	}

	registry := ctx.registry()
	blobs := make([][]byte, len(elements))

	for i, e := range elements {
		if e.Category() != Struct {
			return nil, false, nil
		}

		encFn, has := registry.LookupEncryptorByTypeName(e.state.langTypeName)
		if !has {
			return nil, false, nil
		}

		companion, err := encFn(e.state.value)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to build encrypted companion for container element", err)
		}

		companionBytes, err := cbor.Marshal(companion)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to encode encrypted companion", err)
		}

		blob, err := ctx.Keystore.EncryptWithEnvelope(companionBytes, ctx.NetworkPublicKey, ctx.ProfilePublicKeys)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to seal container element envelope", err)
		}

		blobs[i] = blob
	}

	out, err := cbor.Marshal(blobs)
	if err != nil {
		return nil, false, ferrors.Crypto("failed to encode encrypted element array", err)
	}

	return out, true, nil
}

// elementEncryptedObject is elementEncryptedArray's Map counterpart.
func elementEncryptedObject(ctx *SerializationContext, entries map[string]AnyValue) (payload []byte, ok bool, err error) {
	if ctx == nil || ctx.Keystore == nil {
		return nil, false, nil
	}

	registry := ctx.registry()
	blobs := make(map[string][]byte, len(entries))

	for k, e := range entries {
		if e.Category() != Struct {
			return nil, false, nil
		}

		encFn, has := registry.LookupEncryptorByTypeName(e.state.langTypeName)
		if !has {
			return nil, false, nil
		}

		companion, err := encFn(e.state.value)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to build encrypted companion for container element", err)
		}

		companionBytes, err := cbor.Marshal(companion)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to encode encrypted companion", err)
		}

		blob, err := ctx.Keystore.EncryptWithEnvelope(companionBytes, ctx.NetworkPublicKey, ctx.ProfilePublicKeys)
		if err != nil {
			return nil, false, ferrors.Crypto("failed to seal container element envelope", err)
		}

		blobs[k] = blob
	}

	out, err := cbor.Marshal(blobs)
	if err != nil {
		return nil, false, ferrors.Crypto("failed to encode encrypted element map", err)
	}

	return out, true, nil
}

// Serialize encodes v to its full wire representation: header followed
// by its category payload. A nil ctx produces plain, unencrypted bytes.
func Serialize(v AnyValue, ctx *SerializationContext) ([]byte, error) {
	if v.state == nil || v.state.category == Null {
		return writeHeader(Null, false, "null", nil)
	}

	switch v.state.category {
	case Primitive:
		payload, err := cbor.Marshal(v.state.value)
		if err != nil {
			return nil, ferrors.Wiref("failed to encode primitive payload: %v", err)
		}

		return writeHeader(Primitive, false, v.state.typeName, payload)

	case Bytes:
		b, _ := v.state.value.([]byte)

		return writeHeader(Bytes, false, "bytes", b)

	case Json:
		payload, err := cbor.Marshal(v.state.value)
		if err != nil {
			return nil, ferrors.Wiref("failed to encode json payload: %v", err)
		}

		payload, isEnc, err := outerEnvelope(ctx, payload)
		if err != nil {
			return nil, err
		}

		return writeHeader(Json, isEnc, "json", payload)

	case List:
		elements, _ := v.state.value.([]AnyValue)

		payload, elementEncrypted, err := elementEncryptedArray(ctx, elements)
		if err != nil {
			return nil, err
		}

		if !elementEncrypted {
			plain, err := plainValue(v)
			if err != nil {
				return nil, err
			}

			payload, err = cbor.Marshal(plain)
			if err != nil {
				return nil, ferrors.Wiref("failed to encode list payload: %v", err)
			}
		}

		payload, isEnc, err := outerEnvelope(ctx, payload)
		if err != nil {
			return nil, err
		}

		return writeHeader(List, isEnc, v.state.typeName, payload)

	case Map:
		entries, _ := v.state.value.(map[string]AnyValue)

		payload, elementEncrypted, err := elementEncryptedObject(ctx, entries)
		if err != nil {
			return nil, err
		}

		if !elementEncrypted {
			plain, err := plainValue(v)
			if err != nil {
				return nil, err
			}

			payload, err = cbor.Marshal(plain)
			if err != nil {
				return nil, ferrors.Wiref("failed to encode map payload: %v", err)
			}
		}

		payload, isEnc, err := outerEnvelope(ctx, payload)
		if err != nil {
			return nil, err
		}

		return writeHeader(Map, isEnc, v.state.typeName, payload)

	case Struct:
		registry := ctx.registry()

		var (
			payload []byte
			err     error
		)

		if ctx != nil && ctx.Keystore != nil {
			if encFn, has := registry.LookupEncryptorByTypeName(v.state.langTypeName); has {
				companion, err := encFn(v.state.value)
				if err != nil {
					return nil, ferrors.Crypto("failed to build encrypted companion", err)
				}

				payload, err = cbor.Marshal(companion)
				if err != nil {
					return nil, ferrors.Wiref("failed to encode encrypted companion: %v", err)
				}
			} else {
				payload, err = cbor.Marshal(v.state.value)
				if err != nil {
					return nil, ferrors.Wiref("failed to encode struct payload: %v", err)
				}
			}
		} else {
			payload, err = cbor.Marshal(v.state.value)
			if err != nil {
				return nil, ferrors.Wiref("failed to encode struct payload: %v", err)
			}
		}

		payload, isEnc, err := outerEnvelope(ctx, payload)
		if err != nil {
			return nil, err
		}

		return writeHeader(Struct, isEnc, v.state.typeName, payload)

	default:
		return nil, ferrors.Wiref("cannot serialize unknown category %s", v.state.category)
	}
}

// Deserialize parses the fixed wire header and constructs an AnyValue.
// Every non-Null category is returned as a lazy value: decoding and (if
// encrypted) decryption happen on first typed access, via AsType,
// DecodeList, or DecodeMap. ks may be nil if the caller knows no value
// in this stream is encrypted; any is_enc=1 payload then fails at
// access time with a CryptoError.
func Deserialize(data []byte, ks keystore.Keystore) (AnyValue, error) {
	cat, isEnc, typeName, payload, err := readHeader(data)
	if err != nil {
		return AnyValue{}, err
	}

	if cat == Null {
		return NullValue(), nil
	}

	if isEnc && !cat.outerEnvelopeEligible() {
		return AnyValue{}, ferrors.Crypto("encrypted "+cat.String()+" is not supported", nil)
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	langTypeName, _ := keys.Default().LookupTypeName(typeName)

	return AnyValue{state: &state{
		category:     cat,
		typeName:     typeName,
		langTypeName: langTypeName,
		lazy:         newLazy(buf, isEnc, ks),
	}}, nil
}
