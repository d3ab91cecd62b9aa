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

// Package keys resolves encryption labels to key material and holds the
// process-wide type/encrypt/decrypt/JSON-converter registries AnyValue
// consults by wire name. Grounded on config/codec's registry-by-name
// pattern (config/codec/registry.go) and binding/types.go's
// populate-once-read-concurrently structInfo cache.
package keys

import "github.com/coremesh/fabric/ferrors"

// UserKeySpecKind selects how a label's profile key set is populated.
type UserKeySpecKind uint8

const (
	// UserKeySpecCurrentUser includes the caller's own profile public
	// keys, whatever they are (possibly none).
	UserKeySpecCurrentUser UserKeySpecKind = iota
	// UserKeySpecCustom is a placeholder for future extension; profile
	// keys remain empty for labels configured this way.
	UserKeySpecCustom
)

// LabelValue is one entry of a LabelResolverConfig: the static
// configuration for a single label, before the caller's profile keys
// are folded in.
type LabelValue struct {
	NetworkPublicKey *[]byte
	UserKeySpec      UserKeySpecKind
}

// LabelResolverConfig is the static, loadable configuration a
// LabelResolver is built from (see LoadLabelResolverConfig).
type LabelResolverConfig struct {
	Labels map[string]LabelValue
}

// ValidateLabelConfig rejects an empty configuration and any label
// whose NetworkPublicKey is present but zero-length.
func ValidateLabelConfig(cfg LabelResolverConfig) error {
	if len(cfg.Labels) == 0 {
		return ferrors.Config("label resolver config must declare at least one label")
	}

	for label, v := range cfg.Labels {
		if v.NetworkPublicKey != nil && len(*v.NetworkPublicKey) == 0 {
			return ferrors.Configf("label %q has an empty network_public_key", label)
		}
	}

	return nil
}

// LabelInfo is the resolved key material for one label: the merge of
// its static network key (if any) and the caller's profile keys (if
// UserKeySpecCurrentUser applies).
type LabelInfo struct {
	NetworkPublicKey  []byte
	ProfilePublicKeys [][]byte
}

// LabelResolver answers "what key material backs label L for this
// caller", built once per request/session from a LabelResolverConfig
// and the caller's profile public keys.
type LabelResolver struct {
	entries map[string]LabelInfo
}

// NewLabelResolver validates cfg and builds a LabelResolver, folding
// profilePublicKeys into every label configured with
// UserKeySpecCurrentUser. Construction fails if any resulting label
// would have neither a network public key nor any profile key.
func NewLabelResolver(cfg LabelResolverConfig, profilePublicKeys [][]byte) (*LabelResolver, error) {
	if err := ValidateLabelConfig(cfg); err != nil {
		return nil, err
	}

	entries := make(map[string]LabelInfo, len(cfg.Labels))

	for label, v := range cfg.Labels {
		info := LabelInfo{}
		if v.NetworkPublicKey != nil {
			info.NetworkPublicKey = *v.NetworkPublicKey
		}

		switch v.UserKeySpec {
		case UserKeySpecCurrentUser:
			info.ProfilePublicKeys = profilePublicKeys
		case UserKeySpecCustom:
			// Placeholder for future extension; profile keys stay empty.
		}

		if len(info.NetworkPublicKey) == 0 && len(info.ProfilePublicKeys) == 0 {
			return nil, ferrors.Configf(
				"label %q must specify either network_public_key or user_key_spec (or both)", label)
		}

		entries[label] = info
	}

	return &LabelResolver{entries: entries}, nil
}

// ResolveLabelInfo returns the key material for label, or false if
// label is not configured.
func (r *LabelResolver) ResolveLabelInfo(label string) (LabelInfo, bool) {
	info, ok := r.entries[label]
	return info, ok
}

// AvailableLabels returns every label this resolver was built with, in
// no particular order.
func (r *LabelResolver) AvailableLabels() []string {
	out := make([]string, 0, len(r.entries))
	for label := range r.entries {
		out = append(out, label)
	}

	return out
}

// CanResolve reports whether label is configured on this resolver.
func (r *LabelResolver) CanResolve(label string) bool {
	_, ok := r.entries[label]
	return ok
}
