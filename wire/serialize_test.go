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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coremesh/fabric/internal/flog"
	"github.com/coremesh/fabric/keys"
	"github.com/coremesh/fabric/keystore/memkeystore"
)

func TestSerialize_Primitive_HeaderBytes(t *testing.T) {
	av, err := From("string")
	require.NoError(t, err)

	data, err := Serialize(av, nil)
	require.NoError(t, err)

	// cat=Primitive(1), is_enc=0, tname_len=6, tname="string", then the
	// CBOR-encoded payload.
	require.True(t, len(data) > 9)
	assert.Equal(t, []byte{1, 0, 6, 's', 't', 'r', 'i', 'n', 'g'}, data[:9])
}

func TestSerializeDeserialize_RoundTrip_NoEncryption(t *testing.T) {
	cases := []any{
		"hello",
		true,
		int64(42),
		1.5,
	}

	for _, v := range cases {
		av, err := From(v)
		require.NoError(t, err)

		data, err := Serialize(av, nil)
		require.NoError(t, err)

		out, err := Deserialize(data, nil)
		require.NoError(t, err)
		assert.False(t, out.IsEncrypted())

		got, err := AsType[any](out)
		require.NoError(t, err)
		assert.EqualValues(t, v, got)
	}
}

func TestSerializeDeserialize_Null(t *testing.T) {
	data, err := Serialize(NullValue(), nil)
	require.NoError(t, err)

	out, err := Deserialize(data, nil)
	require.NoError(t, err)
	assert.Equal(t, Null, out.Category())
}

func TestSerializeDeserialize_Bytes(t *testing.T) {
	av, err := From([]byte("raw"))
	require.NoError(t, err)

	data, err := Serialize(av, nil)
	require.NoError(t, err)

	out, err := Deserialize(data, nil)
	require.NoError(t, err)
	assert.Equal(t, Bytes, out.Category())

	got, err := AsType[[]byte](out)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)
}

func TestSerializeDeserialize_List(t *testing.T) {
	a, _ := From("a")
	b, _ := From("b")
	av := FromList([]AnyValue{a, b})

	data, err := Serialize(av, nil)
	require.NoError(t, err)

	out, err := Deserialize(data, nil)
	require.NoError(t, err)
	assert.Equal(t, List, out.Category())

	got, err := DecodeList[string](out, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSerializeDeserialize_Map(t *testing.T) {
	a, _ := From("x")
	av := FromMap(map[string]AnyValue{"k": a})

	data, err := Serialize(av, nil)
	require.NoError(t, err)

	out, err := Deserialize(data, nil)
	require.NoError(t, err)
	assert.Equal(t, Map, out.Category())

	got, err := DecodeMap[string](out, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "x"}, got)
}

func TestSerializeDeserialize_Json_WithEnvelope(t *testing.T) {
	ks, err := memkeystore.New()
	require.NoError(t, err)

	av := FromJSON(map[string]any{"a": float64(1)})
	ctx := &SerializationContext{Keystore: ks}

	data, err := Serialize(av, ctx)
	require.NoError(t, err)

	out, err := Deserialize(data, ks)
	require.NoError(t, err)
	assert.Equal(t, Json, out.Category())
	assert.True(t, out.IsEncrypted())

	got, err := AsType[map[string]any](out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
	assert.False(t, out.IsEncrypted())
}

type encryptedProfile struct {
	Name string
}

func TestSerializeDeserialize_EncryptedStruct_LazyDecryptOnce(t *testing.T) {
	t.Cleanup(keys.Default().Clear)

	ks, err := memkeystore.New()
	require.NoError(t, err)

	keys.Default().RegisterWireName("encryptedProfile", "profile")

	decryptCalls := 0

	keys.Default().RegisterEncrypt("encryptedProfile", func(v any) (any, error) {
		p := v.(encryptedProfile)

		blob, err := ks.EncryptWithEnvelope([]byte(p.Name), nil, nil)
		if err != nil {
			return nil, err
		}

		return map[string]any{"name_encrypted": blob}, nil
	})

	keys.Default().RegisterDecrypt("encryptedProfile", func(companion any) (any, error) {
		decryptCalls++

		m := companion.(map[string]any)

		blob, ok := m["name_encrypted"].([]byte)
		require.True(t, ok)

		plain, err := ks.DecryptEnvelope(blob)
		if err != nil {
			return nil, err
		}

		return encryptedProfile{Name: string(plain)}, nil
	})

	av := FromStruct(encryptedProfile{Name: "ada"}, keys.Default())
	ctx := &SerializationContext{Keystore: ks}

	data, err := Serialize(av, ctx)
	require.NoError(t, err)

	out, err := Deserialize(data, ks)
	require.NoError(t, err)
	assert.True(t, out.IsEncrypted())

	got, err := AsType[encryptedProfile](out)
	require.NoError(t, err)
	assert.Equal(t, encryptedProfile{Name: "ada"}, got)
	assert.Equal(t, 1, decryptCalls)

	// A second typed access must not re-invoke the decryptor.
	got2, err := AsType[encryptedProfile](out)
	require.NoError(t, err)
	assert.Equal(t, got, got2)
	assert.Equal(t, 1, decryptCalls)
	assert.False(t, out.IsEncrypted())
}

func TestDeserialize_EncryptedPrimitive_Rejected(t *testing.T) {
	header, err := writeHeader(Primitive, true, "string", []byte{0x60})
	require.NoError(t, err)

	_, err = Deserialize(header, nil)
	require.Error(t, err)
}

func TestSetLogger_TracesLazyDecrypt(t *testing.T) {
	var buf bytes.Buffer
	l := flog.MustNew(flog.WithOutput(&buf), flog.WithDebugLevel())
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })

	ks, err := memkeystore.New()
	require.NoError(t, err)

	av := FromJSON(map[string]any{"a": float64(1)})
	data, err := Serialize(av, &SerializationContext{Keystore: ks})
	require.NoError(t, err)

	out, err := Deserialize(data, ks)
	require.NoError(t, err)

	_, err = AsType[map[string]any](out)
	require.NoError(t, err)
	_, err = AsType[map[string]any](out)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "wire: decrypted lazy value")
	assert.Contains(t, buf.String(), "wire: lazy decrypt cache hit")
}

func TestDeserialize_NoKeystore_FailsOnAccessNotOnDeserialize(t *testing.T) {
	ks, err := memkeystore.New()
	require.NoError(t, err)

	ctx := &SerializationContext{Keystore: ks}

	data, err := Serialize(FromJSON(map[string]any{"s": "secret"}), ctx)
	require.NoError(t, err)

	out, err := Deserialize(data, nil)
	require.NoError(t, err)

	_, err = AsType[any](out)
	require.Error(t, err)
}
