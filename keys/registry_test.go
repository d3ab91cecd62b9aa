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

package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coremesh/fabric/keys"
)

func TestTypeRegistry_PrimitivesPreRegistered(t *testing.T) {
	t.Parallel()

	r := keys.New()

	wireName, ok := r.LookupWireName("int64")
	require.True(t, ok)
	assert.Equal(t, "i64", wireName)

	langType, ok := r.LookupTypeName("string")
	require.True(t, ok)
	assert.Equal(t, "string", langType)

	fn, ok := r.JSONConverterByWireName("bool")
	require.True(t, ok)
	v, err := fn(true)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

type fakeDecorated struct{ Secret string }

func TestTypeRegistry_UserTypeRegistration(t *testing.T) {
	t.Parallel()

	r := keys.New()
	r.RegisterWireName("fakeDecorated", "fake_decorated")
	r.RegisterType("fakeDecorated", keys.TypeRegistration{
		Constructor: func() any { return &fakeDecorated{} },
	})
	r.RegisterEncrypt("fakeDecorated", func(v any) (any, error) {
		d := v.(*fakeDecorated)
		return map[string]string{"secret_encrypted": "***" + d.Secret}, nil
	})
	r.RegisterDecrypt("fakeDecorated", func(companion any) (any, error) {
		m := companion.(map[string]string)
		return &fakeDecorated{Secret: m["secret_encrypted"][3:]}, nil
	})

	wireName, ok := r.LookupWireName("fakeDecorated")
	require.True(t, ok)
	assert.Equal(t, "fake_decorated", wireName)

	enc, ok := r.LookupEncryptorByTypeName("fakeDecorated")
	require.True(t, ok)
	companion, err := enc(&fakeDecorated{Secret: "shh"})
	require.NoError(t, err)

	dec, ok := r.LookupDecryptorByTypeName("fakeDecorated")
	require.True(t, ok)
	back, err := dec(companion)
	require.NoError(t, err)
	assert.Equal(t, &fakeDecorated{Secret: "shh"}, back)
}

func TestTypeRegistry_Clear_KeepsPrimitives(t *testing.T) {
	t.Parallel()

	r := keys.New()
	r.RegisterWireName("fakeDecorated", "fake_decorated")

	r.Clear()

	_, ok := r.LookupWireName("fakeDecorated")
	assert.False(t, ok)

	_, ok = r.LookupWireName("string")
	assert.True(t, ok)
}

func TestTypeRegistry_UnregisteredLookupsFail(t *testing.T) {
	t.Parallel()

	r := keys.New()

	_, ok := r.LookupEncryptorByTypeName("nope")
	assert.False(t, ok)

	_, ok = r.ResolveType("nope")
	assert.False(t, ok)
}
