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

import (
	"strings"

	"github.com/coremesh/fabric/ferrors"
)

// TopicPath is an immutable, network-scoped, segmented address. Zero
// value is not a valid path; construct one with Parse, ParseFull, or
// NewService.
type TopicPath struct {
	networkID string
	segments  []Segment

	// Derived and cached at construction time.
	isPattern    bool
	hasTemplates bool
	servicePath  string
	actionPath   string
	bitmap       uint64
	canonical    string
}

// NetworkID returns the path's network isolation scope.
func (p TopicPath) NetworkID() string { return p.networkID }

// Segments returns the path's segments. The returned slice must not be
// mutated; TopicPath is meant to be immutable.
func (p TopicPath) Segments() []Segment { return p.segments }

// IsPattern reports whether the path contains any * or > segment.
func (p TopicPath) IsPattern() bool { return p.isPattern }

// HasTemplates reports whether the path contains any {name} segment.
func (p TopicPath) HasTemplates() bool { return p.hasTemplates }

// ServicePath is the string form of the first segment.
func (p TopicPath) ServicePath() string { return p.servicePath }

// ActionPath is the joined string form of all segments from the second
// onward, or "" if the path has fewer than two segments.
func (p TopicPath) ActionPath() string { return p.actionPath }

// String returns the canonical "network:rest" textual form.
func (p TopicPath) String() string { return p.canonical }

// kindAt returns the Kind of the segment at index i, preferring the
// cached bitmap when the path is short enough for it to cover the index.
func (p TopicPath) kindAt(i int) Kind {
	if i < segmentBitmapCap {
		return Kind((p.bitmap >> uint(i*bitsPerSegment)) & 0x3)
	}

	return p.segments[i].Kind
}

// build finalizes a TopicPath from a network id and segment list,
// computing and caching all derived fields. It does not itself validate
// segment-ordering invariants (e.g. MultiWildcard-must-be-last); callers
// validate before calling build.
func build(networkID string, segments []Segment) TopicPath {
	p := TopicPath{
		networkID: networkID,
		segments:  segments,
		bitmap:    buildBitmap(segments),
	}

	for _, seg := range segments {
		switch seg.Kind {
		case SingleWildcard, MultiWildcard:
			p.isPattern = true
		case Template:
			p.hasTemplates = true
		}
	}

	p.servicePath = segments[0].String()

	if len(segments) >= 2 {
		parts := make([]string, len(segments)-1)
		for i, seg := range segments[1:] {
			parts[i] = seg.String()
		}
		p.actionPath = strings.Join(parts, "/")
	}

	rest := make([]string, len(segments))
	for i, seg := range segments {
		rest[i] = seg.String()
	}
	p.canonical = networkID + ":" + strings.Join(rest, "/")

	return p
}

// parseSegment classifies a single non-empty segment string.
func parseSegment(raw string) (Segment, error) {
	switch raw {
	case "*":
		return Segment{Kind: SingleWildcard}, nil
	case ">":
		return Segment{Kind: MultiWildcard}, nil
	}

	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") && len(raw) >= 2 {
		return Segment{Kind: Template, Name: raw[1 : len(raw)-1]}, nil
	}

	if strings.ContainsAny(raw, "{}*>") {
		return Segment{}, ferrors.Parsef("invalid segment %q", raw)
	}

	return Segment{Kind: Literal, Literal: raw}, nil
}

// splitSegments splits rest on '/' and drops empty segments, per the
// "empty segments are dropped before validation of count" invariant.
func splitSegments(rest string) []string {
	raw := strings.Split(rest, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Parse parses input as either "network:rest" or "rest" (with
// defaultNetwork injected in the latter case). It rejects: empty input,
// more than one ':', an empty network, zero non-empty segments, and a
// MultiWildcard segment that is not last.
func Parse(input, defaultNetwork string) (TopicPath, error) {
	if input == "" {
		return TopicPath{}, ferrors.Parse("topic path must not be empty")
	}

	networkID := defaultNetwork
	rest := input

	if idx := strings.IndexByte(input, ':'); idx >= 0 {
		if strings.Count(input, ":") > 1 {
			return TopicPath{}, ferrors.Parsef("topic path %q contains more than one ':'", input)
		}

		networkID = input[:idx]
		rest = input[idx+1:]

		if networkID == "" {
			return TopicPath{}, ferrors.Parsef("topic path %q has an empty network", input)
		}
	}

	rawSegments := splitSegments(rest)
	if len(rawSegments) == 0 {
		return TopicPath{}, ferrors.Parsef("topic path %q has no segments", input)
	}

	segments := make([]Segment, len(rawSegments))
	for i, raw := range rawSegments {
		seg, err := parseSegment(raw)
		if err != nil {
			return TopicPath{}, err
		}

		if seg.Kind == MultiWildcard && i != len(rawSegments)-1 {
			return TopicPath{}, ferrors.Parsef("'>' must be the last segment in %q", input)
		}

		segments[i] = seg
	}

	return build(networkID, segments), nil
}

// ParseFull requires a ':' separator; inputs without one are rejected.
func ParseFull(input string) (TopicPath, error) {
	if !strings.Contains(input, ":") {
		return TopicPath{}, ferrors.Parsef("topic path %q must contain a network (':')", input)
	}

	return Parse(input, "")
}

// NewService builds a single-segment Literal path under network.
func NewService(network, serviceName string) (TopicPath, error) {
	seg, err := parseSegment(serviceName)
	if err != nil {
		return TopicPath{}, err
	}

	if seg.Kind != Literal {
		return TopicPath{}, ferrors.Parsef("service name %q must be a literal segment", serviceName)
	}

	if network == "" {
		return TopicPath{}, ferrors.Parse("network must not be empty")
	}

	return build(network, []Segment{seg}), nil
}

// Child appends a literal segment. Rejects arguments containing '/'.
func (p TopicPath) Child(segment string) (TopicPath, error) {
	if strings.Contains(segment, "/") {
		return TopicPath{}, ferrors.Parsef("child segment %q must not contain '/'", segment)
	}

	seg, err := parseSegment(segment)
	if err != nil {
		return TopicPath{}, err
	}

	next := make([]Segment, len(p.segments)+1)
	copy(next, p.segments)
	next[len(p.segments)] = seg

	return build(p.networkID, next), nil
}

// Parent drops the last segment. Rejects single-segment paths.
func (p TopicPath) Parent() (TopicPath, error) {
	if len(p.segments) <= 1 {
		return TopicPath{}, ferrors.Parse("cannot take the parent of a single-segment path")
	}

	next := make([]Segment, len(p.segments)-1)
	copy(next, p.segments[:len(p.segments)-1])

	return build(p.networkID, next), nil
}

// NewActionTopic appends a literal action-name segment to a service-only
// path (one with exactly one segment). Rejects names containing ':' or
// '/', and rejects receivers that already have more than one segment.
func (p TopicPath) NewActionTopic(name string) (TopicPath, error) {
	return p.appendSingleSegmentName(name)
}

// NewEventTopic appends a literal event-name segment to a service-only
// path. Same validation rules as NewActionTopic.
func (p TopicPath) NewEventTopic(name string) (TopicPath, error) {
	return p.appendSingleSegmentName(name)
}

func (p TopicPath) appendSingleSegmentName(name string) (TopicPath, error) {
	if len(p.segments) > 1 {
		return TopicPath{}, ferrors.Parse("receiver must be a service-only path (exactly one segment)")
	}

	if strings.ContainsAny(name, ":/") {
		return TopicPath{}, ferrors.Parsef("name %q must not contain ':' or '/'", name)
	}

	return p.Child(name)
}
