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

// Package memkeystore is a reference, in-memory keystore.Keystore meant
// for tests and local development: one X25519 identity keypair per
// instance, envelope sealing via per-recipient key wrapping, and
// XChaCha20-Poly1305 for both the content and the wrapped keys.
//
// Grounded on orbas1-Synnergy/synnergy-network/core/security.go's
// Encrypt/Decrypt pair (nonce || ciphertext via chacha20poly1305.NewX),
// generalised from a single shared symmetric key to per-recipient key
// wrapping over X25519 ECDH + HKDF, since the envelope here must address
// zero or more recipients rather than one fixed channel key.
package memkeystore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/coremesh/fabric/ferrors"
	"github.com/coremesh/fabric/keystore"
)

const wrapInfo = "fabric-envelope-wrap-v1"

// envelope is the CBOR-serialised blob placed as an AnyValue's payload
// when is_enc=1.
type envelope struct {
	Nonce      []byte       `cbor:"1,keyasint"`
	Ciphertext []byte       `cbor:"2,keyasint"`
	Recipients []wrappedKey `cbor:"3,keyasint"`
}

type wrappedKey struct {
	EphemeralPublicKey []byte `cbor:"1,keyasint"`
	RecipientPublicKey []byte `cbor:"2,keyasint"`
	WrapNonce          []byte `cbor:"3,keyasint"`
	WrappedKey         []byte `cbor:"4,keyasint"`
}

// Keystore is a reference keystore.Keystore backed by process memory
// only; nothing it holds survives past the process. FlushState,
// SetPersistenceDir, and WipePersistence are accepted but no-ops.
type Keystore struct {
	mu         sync.RWMutex
	privateKey [32]byte
	publicKey  [32]byte
	state      keystore.State

	autoPersist bool
	persistDir  string
	labels      map[string][]byte
}

// New generates a fresh X25519 identity and returns a ready keystore.
func New() (*Keystore, error) {
	k := &Keystore{state: keystore.StateReady, labels: make(map[string][]byte)}

	if _, err := io.ReadFull(rand.Reader, k.privateKey[:]); err != nil {
		return nil, ferrors.Crypto("failed to generate keystore identity", err)
	}

	pub, err := curve25519.X25519(k.privateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, ferrors.Crypto("failed to derive keystore public key", err)
	}

	copy(k.publicKey[:], pub)

	return k, nil
}

// PublicKey returns this keystore's X25519 identity public key, for
// wiring into LabelResolverConfig or test fixtures as a recipient.
func (k *Keystore) PublicKey() []byte {
	out := make([]byte, 32)
	copy(out, k.publicKey[:])

	return out
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}

	return b, nil
}

func wrapFor(recipientPublicKey []byte, cek []byte) (wrappedKey, error) {
	var ephPriv [32]byte
	if _, err := io.ReadFull(rand.Reader, ephPriv[:]); err != nil {
		return wrappedKey{}, err
	}

	ephPub, err := curve25519.X25519(ephPriv[:], curve25519.Basepoint)
	if err != nil {
		return wrappedKey{}, err
	}

	shared, err := curve25519.X25519(ephPriv[:], recipientPublicKey)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("ecdh with recipient: %w", err)
	}

	wrapKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, []byte(wrapInfo)), wrapKey); err != nil {
		return wrappedKey{}, err
	}

	aead, err := chacha20poly1305.NewX(wrapKey)
	if err != nil {
		return wrappedKey{}, err
	}

	nonce, err := randomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return wrappedKey{}, err
	}

	wrapped := aead.Seal(nil, nonce, cek, nil)

	return wrappedKey{
		EphemeralPublicKey: ephPub,
		RecipientPublicKey: append([]byte(nil), recipientPublicKey...),
		WrapNonce:          nonce,
		WrappedKey:         wrapped,
	}, nil
}

func (k *Keystore) unwrapFor(w wrappedKey) ([]byte, bool, error) {
	if len(w.RecipientPublicKey) != 32 {
		return nil, false, nil
	}

	var rpk [32]byte
	copy(rpk[:], w.RecipientPublicKey)
	if rpk != k.publicKey {
		return nil, false, nil
	}

	shared, err := curve25519.X25519(k.privateKey[:], w.EphemeralPublicKey)
	if err != nil {
		return nil, true, fmt.Errorf("ecdh with ephemeral key: %w", err)
	}

	wrapKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, []byte(wrapInfo)), wrapKey); err != nil {
		return nil, true, err
	}

	aead, err := chacha20poly1305.NewX(wrapKey)
	if err != nil {
		return nil, true, err
	}

	cek, err := aead.Open(nil, w.WrapNonce, w.WrappedKey, nil)
	if err != nil {
		return nil, true, err
	}

	return cek, true, nil
}

// EncryptWithEnvelope implements keystore.Keystore. When both
// networkPublicKey and profilePublicKeys are empty, this keystore's own
// identity is used as the sole recipient, so a caller encrypting and
// decrypting with the same keystore instance always round-trips.
func (k *Keystore) EncryptWithEnvelope(data []byte, networkPublicKey []byte, profilePublicKeys [][]byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	recipients := make([][]byte, 0, len(profilePublicKeys)+1)
	if len(networkPublicKey) > 0 {
		recipients = append(recipients, networkPublicKey)
	}

	recipients = append(recipients, profilePublicKeys...)

	if len(recipients) == 0 {
		recipients = append(recipients, k.PublicKey())
	}

	cek, err := randomBytes(chacha20poly1305.KeySize)
	if err != nil {
		return nil, ferrors.Crypto("failed to generate content key", err)
	}

	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, ferrors.Crypto("failed to initialise content cipher", err)
	}

	nonce, err := randomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, ferrors.Crypto("failed to generate content nonce", err)
	}

	env := envelope{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, data, nil),
		Recipients: make([]wrappedKey, 0, len(recipients)),
	}

	for _, recipient := range recipients {
		w, err := wrapFor(recipient, cek)
		if err != nil {
			return nil, ferrors.Crypto("failed to wrap content key for recipient", err)
		}

		env.Recipients = append(env.Recipients, w)
	}

	out, err := cbor.Marshal(env)
	if err != nil {
		return nil, ferrors.Crypto("failed to encode envelope", err)
	}

	return out, nil
}

// DecryptEnvelope implements keystore.Keystore.
func (k *Keystore) DecryptEnvelope(blob []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var env envelope
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, ferrors.Crypto("failed to decode envelope", err)
	}

	var cek []byte

	for _, w := range env.Recipients {
		key, matched, err := k.unwrapFor(w)
		if err != nil {
			return nil, ferrors.Crypto("failed to unwrap content key", err)
		}

		if matched {
			cek = key
			break
		}
	}

	if cek == nil {
		return nil, ferrors.Crypto("no envelope recipient matches this keystore's identity", nil)
	}

	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, ferrors.Crypto("failed to initialise content cipher", err)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ferrors.Crypto("envelope authentication failed", err)
	}

	return plaintext, nil
}

// GetKeystoreState implements keystore.Keystore.
func (k *Keystore) GetKeystoreState() keystore.State {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.state
}

// GetKeystoreCaps implements keystore.Keystore.
func (k *Keystore) GetKeystoreCaps() keystore.Capabilities {
	k.mu.RLock()
	defer k.mu.RUnlock()

	ready := k.state == keystore.StateReady

	return keystore.Capabilities{
		CanEncrypt:     ready,
		CanDecrypt:     ready,
		HasNetworkKeys: true,
		HasProfileKeys: true,
	}
}

// EnsureSymmetricKey implements keystore.Keystore. This reference
// implementation only manages its own asymmetric identity; a fresh
// random content key is generated for every envelope it seals, so
// there is nothing to provision ahead of time.
func (k *Keystore) EnsureSymmetricKey(_ string) error { return nil }

// SetLocalNodeInfo implements keystore.Keystore.
func (k *Keystore) SetLocalNodeInfo(_ string, _ []byte) error { return nil }

// SetPersistenceDir implements keystore.Keystore.
func (k *Keystore) SetPersistenceDir(dir string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.persistDir = dir

	return nil
}

// EnableAutoPersist implements keystore.Keystore.
func (k *Keystore) EnableAutoPersist(enabled bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.autoPersist = enabled
}

// WipePersistence implements keystore.Keystore. Nothing is ever written
// to disk by this implementation, so there is nothing to wipe.
func (k *Keystore) WipePersistence() error { return nil }

// FlushState implements keystore.Keystore.
func (k *Keystore) FlushState() error { return nil }

// SetLabelMapping implements keystore.Keystore.
func (k *Keystore) SetLabelMapping(label string, networkPublicKey []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.labels[label] = append([]byte(nil), networkPublicKey...)

	return nil
}

var _ keystore.Keystore = (*Keystore)(nil)
