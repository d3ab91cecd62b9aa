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
	"sync"
	"sync/atomic"

	"github.com/coremesh/fabric/ferrors"
	"github.com/coremesh/fabric/internal/flog"
	"github.com/coremesh/fabric/keystore"
)

// logger traces lazy-decrypt activity when set via SetLogger. Nil by
// default, so plaintext() costs one nil check per call when tracing is
// off.
var logger *flog.Logger

// SetLogger attaches a diagnostic logger for the package-wide lazy
// decrypt cache. Pass nil to disable tracing.
func SetLogger(l *flog.Logger) {
	logger = l
}

// lazyHolder references the raw post-header payload bytes of a
// deserialized AnyValue, decoded and (if encrypted) decrypted on first
// typed access. The payload is an owned copy made at Deserialize time
// (DESIGN.md: "copy slice" implementer choice over a shared
// ref-counted buffer), so a lazyHolder never outlives anything beyond
// its own AnyValue.
type lazyHolder struct {
	payload     []byte
	isEncrypted bool
	keystore    keystore.Keystore

	once       sync.Once
	done       atomic.Bool
	plain      []byte
	decryptOK  bool
	decryptErr error
}

func newLazy(payload []byte, isEncrypted bool, ks keystore.Keystore) *lazyHolder {
	return &lazyHolder{payload: payload, isEncrypted: isEncrypted, keystore: ks}
}

// plaintext returns the payload's decrypted bytes, decrypting via the
// keystore at most once and memoising the result for every subsequent
// call on this instance.
func (h *lazyHolder) plaintext() ([]byte, error) {
	if !h.isEncrypted {
		return h.payload, nil
	}

	alreadyDone := h.done.Load()

	h.once.Do(func() {
		defer h.done.Store(true)

		if h.keystore == nil {
			h.decryptErr = ferrors.Crypto("data is encrypted but no keystore provided", nil)
			return
		}

		plain, err := h.keystore.DecryptEnvelope(h.payload)
		if err != nil {
			h.decryptErr = ferrors.Crypto("envelope decryption failed", err)
			return
		}

		h.plain = plain
		h.decryptOK = true

		if logger != nil {
			logger.Debug("wire: decrypted lazy value", "bytes", len(h.payload))
		}
	})

	if alreadyDone && logger != nil && h.decryptOK {
		logger.Debug("wire: lazy decrypt cache hit")
	}

	if h.decryptErr != nil {
		return nil, h.decryptErr
	}

	return h.plain, nil
}

func (h *lazyHolder) decryptedOK() bool {
	return h.decryptOK
}
