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

package trie

import (
	"sync"

	"github.com/coremesh/fabric/internal/flog"
	"github.com/coremesh/fabric/topic"
)

// Match is one hit returned by FindMatches: the payload registered at a
// matching node, plus any template parameter bindings accumulated while
// descending to it. Params is nil (not a zero-length map) when no
// template segment contributed to the match.
type Match[T any] struct {
	Content T
	Params  map[string]string
}

// PathTrie is a generic, per-network index of payloads keyed by
// topic.TopicPath. The zero value is not usable; construct with New.
// All exported methods are safe for concurrent use: writers take the
// root lock exclusively, readers take it shared, so every FindMatches
// call observes a single consistent snapshot of the whole forest (spec.md
// §5's linearizable-writes / consistent-snapshot-reads contract).
type PathTrie[T any] struct {
	mu       sync.RWMutex
	networks map[string]*node[T]
	total    int
	logger   *flog.Logger
}

// New constructs an empty PathTrie.
func New[T any]() *PathTrie[T] {
	return &PathTrie[T]{networks: make(map[string]*node[T], 2)}
}

// SetLogger attaches a diagnostic logger used to trace mutations
// (SetValues, RemoveValues, RemoveHandler). A nil logger (the default)
// disables tracing entirely; there is no cost to a nil check on every
// mutation.
func (t *PathTrie[T]) SetLogger(l *flog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = l
}

func (t *PathTrie[T]) networkRoot(id string) *node[T] {
	root, ok := t.networks[id]
	if !ok {
		root = &node[T]{}
		t.networks[id] = root
	}

	return root
}

// SetValue replaces the payload list at path with a single value and
// returns the resulting change in total handler count (may be negative).
func (t *PathTrie[T]) SetValue(path topic.TopicPath, value T) int {
	return t.SetValues(path, []T{value})
}

// SetValues replaces the payload list registered at path wholesale and
// returns the resulting change in total handler count.
func (t *PathTrie[T]) SetValues(path topic.TopicPath, values []T) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	root := t.networkRoot(path.NetworkID())
	leaf, isMulti, chain := navigateCreate(root, path.Segments())

	var old int
	if isMulti {
		old = len(leaf.multiWildcard)
		leaf.multiWildcard = values
	} else {
		old = len(leaf.content)
		leaf.content = values
	}

	delta := len(values) - old
	for _, n := range chain {
		n.count += delta
	}

	t.total += delta

	if t.logger != nil {
		t.logger.Debug("trie: set values", "network", path.NetworkID(), "path", path.ServicePath(), "delta", delta)
	}

	return delta
}

// AddBatchValues registers the same values at every path in paths in a
// single critical section.
func (t *PathTrie[T]) AddBatchValues(paths []topic.TopicPath, values []T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range paths {
		root := t.networkRoot(p.NetworkID())
		leaf, isMulti, chain := navigateCreate(root, p.Segments())

		var old int
		if isMulti {
			old = len(leaf.multiWildcard)
			leaf.multiWildcard = values
		} else {
			old = len(leaf.content)
			leaf.content = values
		}

		delta := len(values) - old
		for _, n := range chain {
			n.count += delta
		}

		t.total += delta
	}
}

// RemoveValues clears every payload registered exactly at path and
// returns the resulting change in total handler count (zero or
// negative). Removing an unregistered path is a no-op.
func (t *PathTrie[T]) RemoveValues(path topic.TopicPath) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, ok := t.networks[path.NetworkID()]
	if !ok {
		return 0
	}

	leaf, isMulti, chain, ok := navigateLookup(root, path.Segments())
	if !ok {
		return 0
	}

	var old int
	if isMulti {
		old = len(leaf.multiWildcard)
		leaf.multiWildcard = nil
	} else {
		old = len(leaf.content)
		leaf.content = nil
	}

	delta := -old
	for _, n := range chain {
		n.count += delta
	}

	t.total += delta

	if t.logger != nil {
		t.logger.Debug("trie: remove values", "network", path.NetworkID(), "path", path.ServicePath(), "delta", delta)
	}

	return delta
}

// RemoveHandler removes every payload registered at path for which
// match returns true, and reports whether anything was removed.
func (t *PathTrie[T]) RemoveHandler(path topic.TopicPath, match func(T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, ok := t.networks[path.NetworkID()]
	if !ok {
		return false
	}

	leaf, isMulti, chain, ok := navigateLookup(root, path.Segments())
	if !ok {
		return false
	}

	var old []T
	if isMulti {
		old = leaf.multiWildcard
	} else {
		old = leaf.content
	}

	kept := make([]T, 0, len(old))
	removed := false

	for _, v := range old {
		if match(v) {
			removed = true
			continue
		}

		kept = append(kept, v)
	}

	if !removed {
		return false
	}

	if isMulti {
		leaf.multiWildcard = kept
	} else {
		leaf.content = kept
	}

	delta := len(kept) - len(old)
	for _, n := range chain {
		n.count += delta
	}

	t.total += delta

	if t.logger != nil {
		t.logger.Debug("trie: remove handler", "network", path.NetworkID(), "path", path.ServicePath(), "delta", delta)
	}

	return true
}

// GetExactValues returns the payload list registered exactly at path,
// or nil if nothing is registered there. The returned slice is a copy;
// mutating it does not affect the trie.
func (t *PathTrie[T]) GetExactValues(path topic.TopicPath) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	root, ok := t.networks[path.NetworkID()]
	if !ok {
		return nil
	}

	leaf, isMulti, _, ok := navigateLookup(root, path.Segments())
	if !ok {
		return nil
	}

	var src []T
	if isMulti {
		src = leaf.multiWildcard
	} else {
		src = leaf.content
	}

	if len(src) == 0 {
		return nil
	}

	out := make([]T, len(src))
	copy(out, src)

	return out
}

// Find returns just the Content of every Match returned by FindMatches,
// in the same order.
func (t *PathTrie[T]) Find(path topic.TopicPath) []T {
	matches := t.FindMatches(path)
	out := make([]T, len(matches))

	for i, m := range matches {
		out[i] = m.Content
	}

	return out
}

// FindMatches looks up path — typically a concrete topic produced by a
// publisher or caller — against every registered pattern (literal,
// wildcard, template, multi-wildcard) in path's network and returns
// every payload whose registration matches, with template parameter
// bindings captured along the way. If path itself contains wildcard
// segments, the lookup is delegated to FindWildcardMatches instead
// (spec.md §4.B).
func (t *PathTrie[T]) FindMatches(path topic.TopicPath) []Match[T] {
	if path.IsPattern() {
		return t.FindWildcardMatches(path)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	root, ok := t.networks[path.NetworkID()]
	if !ok {
		return nil
	}

	var out []Match[T]
	segs := path.Segments()

	var walk func(n *node[T], idx int, params map[string]string)
	walk = func(n *node[T], idx int, params map[string]string) {
		if n == nil {
			return
		}

		if idx == len(segs) {
			for _, v := range n.content {
				out = append(out, Match[T]{Content: v, Params: params})
			}

			for _, v := range n.multiWildcard {
				out = append(out, Match[T]{Content: v, Params: params})
			}

			return
		}

		// A '>' registered at any strict prefix of path matches the
		// remaining, as-yet-unconsumed tail too.
		for _, v := range n.multiWildcard {
			out = append(out, Match[T]{Content: v, Params: params})
		}

		seg := segs[idx]
		text := seg.String()

		if n.children != nil {
			if child, ok := n.children[text]; ok {
				walk(child, idx+1, params)
			}
		}

		if n.templateChild != nil {
			bound := make(map[string]string, len(params)+1)
			for k, v := range params {
				bound[k] = v
			}

			bound[n.templateParamName] = text
			walk(n.templateChild, idx+1, bound)
		}

		if n.wildcardChild != nil {
			walk(n.wildcardChild, idx+1, params)
		}
	}

	walk(root, 0, nil)

	return out
}

// FindWildcardMatches treats pattern's own segments as a search
// expression over registered handlers: at the first '*' or '>' in
// pattern (or once pattern's segments are exhausted), every payload in
// the corresponding subtree is collected. No parameter bindings are
// produced.
func (t *PathTrie[T]) FindWildcardMatches(pattern topic.TopicPath) []Match[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	root, ok := t.networks[pattern.NetworkID()]
	if !ok {
		return nil
	}

	var out []Match[T]
	segs := pattern.Segments()

	var walk func(n *node[T], idx int)
	walk = func(n *node[T], idx int) {
		if n == nil {
			return
		}

		if idx == len(segs) {
			t.collectAll(n, &out)
			return
		}

		seg := segs[idx]

		switch seg.Kind {
		case topic.SingleWildcard, topic.MultiWildcard:
			t.collectAll(n, &out)
		case topic.Literal:
			if n.children != nil {
				if child, ok := n.children[seg.Literal]; ok {
					walk(child, idx+1)
				}
			}
		case topic.Template:
			for _, child := range n.children {
				walk(child, idx+1)
			}

			if n.templateChild != nil {
				walk(n.templateChild, idx+1)
			}

			if n.wildcardChild != nil {
				walk(n.wildcardChild, idx+1)
			}
		}
	}

	walk(root, 0)

	return out
}

// collectAll gathers every payload registered anywhere in n's subtree,
// without parameter bindings.
func (t *PathTrie[T]) collectAll(n *node[T], out *[]Match[T]) {
	if n == nil {
		return
	}

	for _, v := range n.content {
		*out = append(*out, Match[T]{Content: v})
	}

	for _, v := range n.multiWildcard {
		*out = append(*out, Match[T]{Content: v})
	}

	for _, child := range n.children {
		t.collectAll(child, out)
	}

	t.collectAll(n.templateChild, out)
	t.collectAll(n.wildcardChild, out)
}

// GetAllValues returns every payload registered in the trie, across all
// networks, in no particular order.
func (t *PathTrie[T]) GetAllValues() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []T

	var walk func(n *node[T])
	walk = func(n *node[T]) {
		if n == nil {
			return
		}

		out = append(out, n.content...)
		out = append(out, n.multiWildcard...)

		for _, child := range n.children {
			walk(child)
		}

		walk(n.templateChild)
		walk(n.wildcardChild)
	}

	for _, root := range t.networks {
		walk(root)
	}

	return out
}

// IsEmpty reports whether the trie holds zero payloads across every
// network.
func (t *PathTrie[T]) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.total == 0
}

// HandlerCount returns the total number of registered payloads across
// every network, in O(1).
func (t *PathTrie[T]) HandlerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.total
}
