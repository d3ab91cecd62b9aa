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

package wire

import (
	"github.com/coremesh/fabric/keys"
	"github.com/coremesh/fabric/keystore"
)

// SerializationContext carries the collaborators Serialize needs to
// produce an encrypted outer envelope (and, for Struct values with a
// registered encryptor, an encrypted companion payload). A nil context
// passed to Serialize means "no encryption": payloads are plain CBOR
// and is_enc is always 0.
type SerializationContext struct {
	Keystore keystore.Keystore

	// NetworkPublicKey and ProfilePublicKeys are passed through to
	// keystore.EncryptWithEnvelope verbatim; either may be nil/empty.
	NetworkPublicKey  []byte
	ProfilePublicKeys [][]byte

	// Registry resolves Struct encryptors and wire names. Defaults to
	// keys.Default() when nil.
	Registry *keys.TypeRegistry
}

func (ctx *SerializationContext) registry() *keys.TypeRegistry {
	if ctx != nil && ctx.Registry != nil {
		return ctx.Registry
	}

	return keys.Default()
}
