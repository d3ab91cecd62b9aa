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

package flog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HandlerTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{"default", nil},
		{"json", []Option{WithJSONHandler()}},
		{"text", []Option{WithTextHandler()}},
		{"console", []Option{WithConsoleHandler()}},
		{"debug level", []Option{WithDebugLevel()}},
		{"with source", []Option{WithSource(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l, err := New(append(tt.opts, WithOutput(&buf))...)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Info("hello", "k", "v")
			assert.Contains(t, buf.String(), "hello")
		})
	}
}

func TestNew_InvalidHandler(t *testing.T) {
	t.Parallel()

	_, err := New(WithHandlerType("bogus"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHandler)
}

func TestNew_NilOutput(t *testing.T) {
	t.Parallel()

	_, err := New(WithOutput(nil))
	require.Error(t, err)
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithLevel(LevelWarn))

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("this one appears")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this one appears")
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithLevel(LevelInfo))

	require.NoError(t, l.SetLevel(LevelDebug))
	assert.Equal(t, LevelDebug, l.Level())

	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_Shutdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf))
	l.Shutdown()

	assert.False(t, l.IsEnabled())

	l.Error("dropped")
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithTextHandler())

	l.With("component", "trie").Info("started")
	assert.Contains(t, buf.String(), "component=trie")
}

func TestConsoleHandler_WritesColoredOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithConsoleHandler())

	l.Info("hi", "n", 1)
	assert.Contains(t, buf.String(), "hi")
	assert.Contains(t, buf.String(), "n=1")
}
