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

// Package trie implements PathTrie, a generic, per-network index of
// handler payloads keyed by topic.TopicPath. It is the second leaf of
// the routing core (the first is the topic package); every publish,
// subscribe, request, and registry lookup passes through a PathTrie.
//
// Shape mirrors router/radix.go's per-segment-children tree: a literal
// child map plays the role of radix.go's edges, a templateChild plays
// the role of its param node, and a multi-wildcard slot at a node plays
// the role of its trailing "/*" wildcard node, generalized from HTTP
// path segments (":id", "/*") to topic segments ({name}, *, >).
package trie

import "github.com/coremesh/fabric/topic"

// node is one position in a per-network trie. Exactly one wildcardChild
// and one templateChild may exist per node (invariant ii); repeated
// template registrations at the same node overwrite templateParamName.
type node[T any] struct {
	content       []T
	multiWildcard []T
	children      map[string]*node[T]
	wildcardChild *node[T]
	templateChild *node[T]

	templateParamName string
	count              int
}

// navigateCreate walks segs from n, creating intermediate nodes as
// needed, and returns the leaf node to mutate plus the full node chain
// from n (inclusive) to the leaf (inclusive) so callers can propagate a
// count delta up the chain in one pass. If the final segment is a
// MultiWildcard, leaf is the node one level above it (multi-wildcard
// content is stored on the parent, not a child of its own) and isMulti
// is true.
func navigateCreate[T any](n *node[T], segs []topic.Segment) (leaf *node[T], isMulti bool, chain []*node[T]) {
	chain = make([]*node[T], 0, len(segs)+1)
	chain = append(chain, n)
	current := n

	for _, seg := range segs {
		if seg.Kind == topic.MultiWildcard {
			return current, true, chain
		}

		switch seg.Kind {
		case topic.Literal:
			if current.children == nil {
				current.children = make(map[string]*node[T], 4)
			}

			child, ok := current.children[seg.Literal]
			if !ok {
				child = &node[T]{}
				current.children[seg.Literal] = child
			}

			current = child
		case topic.SingleWildcard:
			if current.wildcardChild == nil {
				current.wildcardChild = &node[T]{}
			}

			current = current.wildcardChild
		case topic.Template:
			if current.templateChild == nil {
				current.templateChild = &node[T]{}
			}

			current.templateParamName = seg.Name
			current = current.templateChild
		}

		chain = append(chain, current)
	}

	return current, false, chain
}

// navigateLookup walks segs from n without creating any node. ok is
// false if any segment along the way has no matching child.
func navigateLookup[T any](n *node[T], segs []topic.Segment) (leaf *node[T], isMulti bool, chain []*node[T], ok bool) {
	chain = make([]*node[T], 0, len(segs)+1)
	chain = append(chain, n)
	current := n

	for _, seg := range segs {
		if seg.Kind == topic.MultiWildcard {
			return current, true, chain, true
		}

		var next *node[T]

		switch seg.Kind {
		case topic.Literal:
			if current.children != nil {
				next = current.children[seg.Literal]
			}
		case topic.SingleWildcard:
			next = current.wildcardChild
		case topic.Template:
			next = current.templateChild
		}

		if next == nil {
			return nil, false, nil, false
		}

		current = next
		chain = append(chain, current)
	}

	return current, false, chain, true
}
