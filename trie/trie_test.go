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

package trie_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coremesh/fabric/internal/flog"
	"github.com/coremesh/fabric/topic"
	"github.com/coremesh/fabric/trie"
)

func mustParse(t *testing.T, s, network string) topic.TopicPath {
	t.Helper()

	p, err := topic.Parse(s, network)
	require.NoError(t, err)

	return p
}

// S1: exact handlers.
func TestFind_ExactHandler(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	delta := pt.SetValue(mustParse(t, "n1:services/math/add", "n1"), "H1")
	assert.Equal(t, 1, delta)

	assert.Equal(t, []string{"H1"}, pt.Find(mustParse(t, "n1:services/math/add", "n1")))
	assert.Empty(t, pt.Find(mustParse(t, "n2:services/math/add", "n2")))
}

// S2: template binding.
func TestFindMatches_TemplateBinding(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:services/{svc}/state", "n1"), "H")

	matches := pt.FindMatches(mustParse(t, "n1:services/math/state", "n1"))
	require.Len(t, matches, 1)
	assert.Equal(t, "H", matches[0].Content)
	assert.Equal(t, map[string]string{"svc": "math"}, matches[0].Params)
}

// S3: multi-wildcard.
func TestFind_MultiWildcard(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:services/>", "n1"), "H")

	assert.Equal(t, []string{"H"}, pt.Find(mustParse(t, "n1:services/math/actions/add", "n1")))
	assert.Empty(t, pt.Find(mustParse(t, "n1:events/x", "n1")))
}

// S3 corner case: '>' matches zero trailing segments too.
func TestFind_MultiWildcard_MatchesOwnPrefix(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:services/>", "n1"), "H")

	assert.Equal(t, []string{"H"}, pt.Find(mustParse(t, "n1:services", "n1")))
}

// S4: wildcard search of concrete registrations.
func TestFind_WildcardSearchOfConcreteRegistrations(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:users_db/execute_query", "n1"), "Ha")
	pt.SetValue(mustParse(t, "n1:users_db/replication/get_table_events", "n1"), "Hb")

	got := pt.Find(mustParse(t, "n1:users_db/*", "n1"))
	assert.ElementsMatch(t, []string{"Ha", "Hb"}, got)
}

func TestHandlerCount_And_IsEmpty(t *testing.T) {
	t.Parallel()

	pt := trie.New[int]()
	assert.True(t, pt.IsEmpty())
	assert.Equal(t, 0, pt.HandlerCount())

	pt.SetValues(mustParse(t, "n1:a/b", "n1"), []int{1, 2, 3})
	assert.False(t, pt.IsEmpty())
	assert.Equal(t, 3, pt.HandlerCount())

	pt.SetValues(mustParse(t, "n1:a/b", "n1"), []int{9})
	assert.Equal(t, 1, pt.HandlerCount())

	removed := pt.RemoveValues(mustParse(t, "n1:a/b", "n1"))
	assert.Equal(t, -1, removed)
	assert.True(t, pt.IsEmpty())
}

func TestRemoveHandler_FiltersByPredicate(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValues(mustParse(t, "n1:a/b", "n1"), []string{"keep", "drop", "keep2"})

	ok := pt.RemoveHandler(mustParse(t, "n1:a/b", "n1"), func(v string) bool {
		return v == "drop"
	})
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"keep", "keep2"}, pt.GetExactValues(mustParse(t, "n1:a/b", "n1")))
	assert.Equal(t, 2, pt.HandlerCount())

	ok = pt.RemoveHandler(mustParse(t, "n1:a/b", "n1"), func(v string) bool { return v == "nonexistent" })
	assert.False(t, ok)
}

func TestAddBatchValues(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	paths := []topic.TopicPath{
		mustParse(t, "n1:a", "n1"),
		mustParse(t, "n1:b", "n1"),
	}

	pt.AddBatchValues(paths, []string{"X"})
	assert.Equal(t, []string{"X"}, pt.Find(mustParse(t, "n1:a", "n1")))
	assert.Equal(t, []string{"X"}, pt.Find(mustParse(t, "n1:b", "n1")))
	assert.Equal(t, 2, pt.HandlerCount())
}

// Network isolation (spec.md §8 property 5): identical topic strings in
// different networks never cross-match.
func TestNetworkIsolation(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:services/math/add", "n1"), "H1")
	pt.SetValue(mustParse(t, "n2:services/math/add", "n2"), "H2")

	assert.Equal(t, []string{"H1"}, pt.Find(mustParse(t, "n1:services/math/add", "n1")))
	assert.Equal(t, []string{"H2"}, pt.Find(mustParse(t, "n2:services/math/add", "n2")))
}

func TestGetExactValues_DoesNotMatchWildcard(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:a/*", "n1"), "wild")

	assert.Nil(t, pt.GetExactValues(mustParse(t, "n1:a/b", "n1")))
	assert.Equal(t, []string{"wild"}, pt.GetExactValues(mustParse(t, "n1:a/*", "n1")))
}

func TestFindWildcardMatches_NoParams(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:services/{svc}/state", "n1"), "H")

	matches := pt.FindWildcardMatches(mustParse(t, "n1:services/*", "n1"))
	require.Len(t, matches, 1)
	assert.Equal(t, "H", matches[0].Content)
	assert.Nil(t, matches[0].Params)
}

func TestGetAllValues(t *testing.T) {
	t.Parallel()

	pt := trie.New[string]()
	pt.SetValue(mustParse(t, "n1:a", "n1"), "A")
	pt.SetValue(mustParse(t, "n2:b", "n2"), "B")

	assert.ElementsMatch(t, []string{"A", "B"}, pt.GetAllValues())
}

func TestSetLogger_TracesMutations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := flog.MustNew(flog.WithOutput(&buf), flog.WithDebugLevel())

	pt := trie.New[string]()
	pt.SetLogger(logger)

	pt.SetValue(mustParse(t, "n1:a", "n1"), "A")
	pt.RemoveValues(mustParse(t, "n1:a", "n1"))

	assert.Contains(t, buf.String(), "trie: set values")
	assert.Contains(t, buf.String(), "trie: remove values")
}
