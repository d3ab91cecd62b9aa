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

// templateSegments strips an optional "network:" prefix and splits the
// remainder into raw segment strings, the same way Parse does, but
// without segment-kind validation (a template segment may be a bare
// "{name}" that parseSegment would also accept as a path segment, so
// this shares the same splitting, just not the same validation).
func templateSegments(template string) []string {
	rest := template
	if idx := strings.IndexByte(template, ':'); idx >= 0 {
		rest = template[idx+1:]
	}

	return splitSegments(rest)
}

func isTemplateSegment(raw string) (string, bool) {
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") && len(raw) >= 2 {
		return raw[1 : len(raw)-1], true
	}

	return "", false
}

// FromTemplate substitutes each {k} segment of template with
// params[k], failing with a BindingError if a parameter is missing, then
// parses the resulting concrete string under network.
func FromTemplate(template string, params map[string]string, network string) (TopicPath, error) {
	rawSegments := templateSegments(template)
	filled := make([]string, len(rawSegments))

	for i, raw := range rawSegments {
		name, isTmpl := isTemplateSegment(raw)
		if !isTmpl {
			filled[i] = raw
			continue
		}

		val, ok := params[name]
		if !ok {
			return TopicPath{}, ferrors.Bindingf("Missing parameter value for '%s'", name)
		}

		filled[i] = val
	}

	return Parse(strings.Join(filled, "/"), network)
}

// ExtractParams matches template's segments against the receiver's
// concrete segments. Segment counts must be equal. Each {k} template
// segment binds params[k] to the corresponding receiver segment's
// rendered text; a repeated {k} has the last occurrence win. Each
// literal template segment must equal the receiver segment literally.
func (p TopicPath) ExtractParams(template string) (map[string]string, error) {
	rawSegments := templateSegments(template)
	if len(rawSegments) != len(p.segments) {
		return nil, ferrors.Bindingf(
			"template %q has %d segments, path %q has %d", template, len(rawSegments), p.canonical, len(p.segments))
	}

	params := make(map[string]string, len(rawSegments))

	for i, raw := range rawSegments {
		if name, isTmpl := isTemplateSegment(raw); isTmpl {
			params[name] = p.segments[i].String()
			continue
		}

		if raw != p.segments[i].String() {
			return nil, ferrors.Bindingf(
				"segment %d: template expects %q, path has %q", i, raw, p.segments[i].String())
		}
	}

	return params, nil
}

// MatchesTemplate reports whether ExtractParams would succeed.
func (p TopicPath) MatchesTemplate(template string) bool {
	_, err := p.ExtractParams(template)

	return err == nil
}
