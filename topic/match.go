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

package topic

import "strings"

// Matches reports whether the receiver, treated as a pattern, matches
// other, treated as a concrete (or at least more-concrete) path. Match
// direction matters: p.Matches(other) is not generally equal to
// other.Matches(p). See spec.md §4.A for the full semantics; summarized:
//
//  1. Different networks never match.
//  2. Identical canonical strings always match.
//  3. Two fully concrete, non-identical paths never match.
//  4. A template-bearing receiver does not match a non-template other;
//     a template-bearing other is matched via MatchesTemplate against
//     the receiver's ActionPath instead of segment-by-segment.
//  5. Otherwise, segments are matched pattern-against-concrete.
func (p TopicPath) Matches(other TopicPath) bool {
	if p.networkID != other.networkID {
		return false
	}

	if p.canonical == other.canonical {
		return true
	}

	pConcrete := !p.isPattern && !p.hasTemplates
	oConcrete := !other.isPattern && !other.hasTemplates
	if pConcrete && oConcrete {
		return false
	}

	if p.hasTemplates && !other.hasTemplates {
		return false
	}

	if other.hasTemplates && !p.hasTemplates {
		return other.MatchesTemplate(p.actionPath)
	}

	return matchSegments(p.segments, other.segments)
}

// matchSegments compares two segment lists symmetrically: a wildcard
// found on either side governs the comparison at that position, so
// a.Matches(b) and b.Matches(a) agree whenever neither side has
// templates (spec.md §8 property 3). Literal matches identical Literal
// only; Template matches any Literal (from either side); SingleWildcard
// matches any one segment; a terminal MultiWildcard (guaranteed last by
// construction) matches zero or more remaining segments on either side.
// Segment-count equality is required when neither side reaches a
// terminal MultiWildcard.
func matchSegments(a, b []Segment) bool {
	ai, bi := 0, 0

	for ai < len(a) && bi < len(b) {
		segA, segB := a[ai], b[bi]

		if segA.Kind == MultiWildcard || segB.Kind == MultiWildcard {
			return true
		}

		if !segmentsCompatible(segA, segB) {
			return false
		}

		ai++
		bi++
	}

	if ai < len(a) && a[ai].Kind == MultiWildcard {
		return true
	}

	if bi < len(b) && b[bi].Kind == MultiWildcard {
		return true
	}

	return ai == len(a) && bi == len(b)
}

func segmentsCompatible(x, y Segment) bool {
	if x.Kind == SingleWildcard || y.Kind == SingleWildcard {
		return true
	}

	if x.Kind == Literal && y.Kind == Literal {
		return x.Literal == y.Literal
	}

	if x.Kind == Template && y.Kind == Literal {
		return true
	}

	if y.Kind == Template && x.Kind == Literal {
		return true
	}

	return x.Kind == Template && y.Kind == Template
}

// StartsWith reports whether the receiver and other share a network and
// the receiver's ServicePath string-prefixes other's ServicePath.
//
// This is intentionally a byte-prefix comparison of the first segment's
// text, not a segment-aware prefix check: "main:auth".StartsWith
// ("main:authorize") is true (the string "auth" prefixes "authorize"),
// while "main:authorize".StartsWith("main:authz") is false. Callers
// relying on this as a service-scoping filter should be aware of the
// distinction; see DESIGN.md for the Open Question this preserves.
func (p TopicPath) StartsWith(other TopicPath) bool {
	if p.networkID != other.networkID {
		return false
	}

	return strings.HasPrefix(other.servicePath, p.servicePath)
}
