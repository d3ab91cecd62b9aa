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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coremesh/fabric/keys"
)

func TestFrom_Primitives(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		wireName string
	}{
		{"string", "hello", "string"},
		{"bool", true, "bool"},
		{"int8", int8(1), "i8"},
		{"int64", int64(1), "i64"},
		{"int", 1, "i64"},
		{"uint32", uint32(1), "u32"},
		{"float64", 1.5, "f64"},
		{"rune", rune('a'), "char"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			av, err := From(tc.value)
			require.NoError(t, err)
			assert.Equal(t, Primitive, av.Category())
			assert.Equal(t, tc.wireName, av.TypeName())
		})
	}
}

func TestFrom_Nil_IsNull(t *testing.T) {
	av, err := From(nil)
	require.NoError(t, err)
	assert.Equal(t, Null, av.Category())
}

func TestFrom_Bytes(t *testing.T) {
	av, err := From([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, Bytes, av.Category())
	assert.Equal(t, "bytes", av.TypeName())
}

func TestFrom_UnrepresentableType(t *testing.T) {
	_, err := From(struct{ X int }{X: 1})
	require.Error(t, err)
}

func TestFromList_HomogeneousAndMixed(t *testing.T) {
	a, _ := From("x")
	b, _ := From("y")
	homogeneous := FromList([]AnyValue{a, b})
	assert.Equal(t, "list<string>", homogeneous.TypeName())

	c, _ := From(1)
	mixed := FromList([]AnyValue{a, c})
	assert.Equal(t, "list<any>", mixed.TypeName())

	empty := FromList(nil)
	assert.Equal(t, "list<any>", empty.TypeName())
}

func TestFromMap_HomogeneousAndMixed(t *testing.T) {
	a, _ := From("x")
	b, _ := From("y")
	homogeneous := FromMap(map[string]AnyValue{"a": a, "b": b})
	assert.Equal(t, "map<string,string>", homogeneous.TypeName())

	c, _ := From(1)
	mixed := FromMap(map[string]AnyValue{"a": a, "c": c})
	assert.Equal(t, "map<string,any>", mixed.TypeName())
}

type testProfile struct {
	Name string
	Age  int
}

func TestFromStruct_RegisteredAndUnregistered(t *testing.T) {
	t.Cleanup(keys.Default().Clear)

	unregistered := FromStruct(testProfile{Name: "a"}, keys.Default())
	assert.Equal(t, "struct", unregistered.TypeName())

	keys.Default().RegisterWireName("testProfile", "profile")

	registered := FromStruct(testProfile{Name: "a"}, keys.Default())
	assert.Equal(t, "profile", registered.TypeName())
}

func TestIsEncrypted_EagerValueNeverEncrypted(t *testing.T) {
	av, _ := From("x")
	assert.False(t, av.IsEncrypted())
}
