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

// Package keystore declares the capability AnyValue envelopes call out
// to: envelope encrypt/decrypt, state introspection, and the
// administrative surface callers may drive independently of the core.
// See keystore/memkeystore for a reference implementation.
package keystore

// State is the coarse lifecycle state of a Keystore.
type State int

const (
	// StateUninitialized means no symmetric or asymmetric key material
	// has been established yet.
	StateUninitialized State = iota
	// StateReady means the keystore can service both encrypt and decrypt
	// calls.
	StateReady
	// StateLocked means the keystore holds key material but has been
	// locked against use (e.g. pending a passphrase).
	StateLocked
)

// Capabilities reports what a Keystore can presently do, so callers can
// decide whether to attempt an envelope operation at all.
type Capabilities struct {
	CanEncrypt     bool
	CanDecrypt     bool
	HasNetworkKeys bool
	HasProfileKeys bool
}

// Keystore is the capability AnyValue's outer envelope and container
// element encryption invoke. Implementations must be safe for concurrent
// use; encrypt/decrypt calls are the only operations in this module that
// may block or allocate meaningfully.
type Keystore interface {
	// EncryptWithEnvelope seals data for the given recipients. A nil
	// networkPublicKey omits network-wide recipients; profilePublicKeys
	// may be empty. The result is an opaque envelope blob suitable for
	// CBOR-wrapping as an AnyValue payload.
	EncryptWithEnvelope(data []byte, networkPublicKey []byte, profilePublicKeys [][]byte) ([]byte, error)

	// DecryptEnvelope opens a blob produced by EncryptWithEnvelope.
	DecryptEnvelope(envelope []byte) ([]byte, error)

	// GetKeystoreState reports the keystore's current lifecycle state.
	GetKeystoreState() State

	// GetKeystoreCaps reports what the keystore can presently do.
	GetKeystoreCaps() Capabilities

	// Administrative. Not invoked by AnyValue itself, but part of the
	// contract every Keystore implementation honors.
	EnsureSymmetricKey(label string) error
	SetLocalNodeInfo(nodeID string, networkPublicKey []byte) error
	SetPersistenceDir(dir string) error
	EnableAutoPersist(enabled bool)
	WipePersistence() error
	FlushState() error
	SetLabelMapping(label string, networkPublicKey []byte) error
}
