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

package keys

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"

	"github.com/coremesh/fabric/ferrors"
)

// rawLabel is the on-disk shape of one label entry: a hex-encoded
// network public key and a user-key-spec name, both optional.
type rawLabel struct {
	NetworkPublicKey string `yaml:"network_public_key" toml:"network_public_key"`
	UserKeySpec      string `yaml:"user_key_spec" toml:"user_key_spec"`
}

// rawConfig is the on-disk shape LoadLabelResolverConfig decodes,
// mirroring config/codec's "decode into a plain struct, then adapt"
// style.
type rawConfig struct {
	Labels map[string]rawLabel `yaml:"labels" toml:"labels"`
}

// LoadLabelResolverConfig reads a YAML or TOML file (selected by
// extension: .yaml/.yml or .toml) and decodes it into a
// LabelResolverConfig. Hex-encoded network public keys are decoded to
// raw bytes; user_key_spec is matched case-insensitively against
// "current_user" (the default when absent) and "custom".
func LoadLabelResolverConfig(path string) (LabelResolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LabelResolverConfig{}, ferrors.Configf("failed to read label resolver config %q: %v", path, err)
	}

	var raw rawConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return LabelResolverConfig{}, ferrors.Configf("failed to parse YAML label resolver config %q: %v", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return LabelResolverConfig{}, ferrors.Configf("failed to parse TOML label resolver config %q: %v", path, err)
		}
	default:
		return LabelResolverConfig{}, ferrors.Configf("unsupported label resolver config extension %q (want .yaml, .yml, or .toml)", ext)
	}

	cfg := LabelResolverConfig{Labels: make(map[string]LabelValue, len(raw.Labels))}

	for label, rl := range raw.Labels {
		lv := LabelValue{}

		if hexKey := cast.ToString(rl.NetworkPublicKey); hexKey != "" {
			keyBytes, err := hex.DecodeString(hexKey)
			if err != nil {
				return LabelResolverConfig{}, ferrors.Configf(
					"label %q has an invalid hex network_public_key: %v", label, err)
			}

			lv.NetworkPublicKey = &keyBytes
		}

		switch strings.ToLower(strings.TrimSpace(rl.UserKeySpec)) {
		case "", "current_user":
			lv.UserKeySpec = UserKeySpecCurrentUser
		case "custom":
			lv.UserKeySpec = UserKeySpecCustom
		default:
			return LabelResolverConfig{}, ferrors.Configf(
				"label %q has an unrecognised user_key_spec %q", label, rl.UserKeySpec)
		}

		cfg.Labels[label] = lv
	}

	return cfg, nil
}
