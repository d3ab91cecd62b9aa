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

package topic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coremesh/fabric/topic"
)

func TestFromTemplate_RoundTrip(t *testing.T) {
	t.Parallel()

	params := map[string]string{"svc": "math"}
	p, err := topic.FromTemplate("services/{svc}/state", params, "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1:services/math/state", p.String())

	extracted, err := p.ExtractParams("services/{svc}/state")
	require.NoError(t, err)
	assert.Equal(t, params, extracted)
}

func TestFromTemplate_MissingParam(t *testing.T) {
	t.Parallel()

	_, err := topic.FromTemplate("services/{svc}/state", map[string]string{}, "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "svc")
}

func TestExtractParams_RepeatedNameLastWins(t *testing.T) {
	t.Parallel()

	p, err := topic.Parse("n1:a/b", "n1")
	require.NoError(t, err)

	params, err := p.ExtractParams("{x}/{x}")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "b"}, params)
}

func TestExtractParams_SegmentCountMismatch(t *testing.T) {
	t.Parallel()

	p, err := topic.Parse("n1:a/b/c", "n1")
	require.NoError(t, err)

	_, err = p.ExtractParams("{x}/{y}")
	require.Error(t, err)
}

func TestExtractParams_LiteralMismatch(t *testing.T) {
	t.Parallel()

	p, err := topic.Parse("n1:a/b", "n1")
	require.NoError(t, err)

	_, err = p.ExtractParams("a/c")
	require.Error(t, err)

	_, err = p.ExtractParams("a/{y}")
	require.NoError(t, err)
}

func TestMatchesTemplate(t *testing.T) {
	t.Parallel()

	p, err := topic.Parse("n1:services/math/state", "n1")
	require.NoError(t, err)

	assert.True(t, p.MatchesTemplate("services/{svc}/state"))
	assert.False(t, p.MatchesTemplate("events/{svc}/state"))
}
