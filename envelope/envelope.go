// Package envelope seals and opens content with per-operation keys. Each Seal
// generates a fresh 256-bit content key, encrypts the plaintext with
// AES-256-GCM and wraps the content key under the provider's master key, so a
// stored record carries everything needed to open it except the master key.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/clearslate/defender-api/models"
)

const gcmTagSize = 16

// Provider seals plaintext into an envelope and opens envelopes it produced.
// The same provider instance (or one holding the same master key) must be used
// for both directions.
type Provider interface {
	Seal(plaintext []byte) (models.Envelope, error)
	Open(env models.Envelope) ([]byte, error)
}

// LocalKeyProvider implements Provider with a process-local symmetric master
// key. A managed key service can replace it behind the same interface.
type LocalKeyProvider struct {
	master cipher.AEAD
}

// NewLocalKeyProvider builds a provider from a 32-byte master key.
func NewLocalKeyProvider(masterKey []byte) (*LocalKeyProvider, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("envelope: master key must be 32 bytes, got %d", len(masterKey))
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &LocalKeyProvider{master: aead}, nil
}

// Seal encrypts plaintext under a fresh content key and wraps that key under
// the master key.
func (p *LocalKeyProvider) Seal(plaintext []byte) (models.Envelope, error) {
	contentKey := make([]byte, 32)
	if _, err := rand.Read(contentKey); err != nil {
		return models.Envelope{}, err
	}

	aead, err := newAEAD(contentKey)
	if err != nil {
		return models.Envelope{}, err
	}

	iv := make([]byte, aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return models.Envelope{}, err
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	// GCM appends the tag to the ciphertext; store them separately.
	split := len(sealed) - gcmTagSize
	ciphertext, tag := sealed[:split], sealed[split:]

	wrapped, err := p.wrapKey(contentKey)
	if err != nil {
		return models.Envelope{}, err
	}

	return models.Envelope{
		Ciphertext: ciphertext,
		IV:         iv,
		Tag:        tag,
		WrappedKey: wrapped,
	}, nil
}

// Open unwraps the content key and decrypts the envelope, failing if any field
// was tampered with.
func (p *LocalKeyProvider) Open(env models.Envelope) ([]byte, error) {
	contentKey, err := p.unwrapKey(env.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("envelope: unwrap content key: %w", err)
	}

	aead, err := newAEAD(contentKey)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := aead.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("envelope: open: %w", err)
	}
	return plaintext, nil
}

// wrapKey encrypts a content key under the master key, nonce prepended.
func (p *LocalKeyProvider) wrapKey(contentKey []byte) ([]byte, error) {
	nonce := make([]byte, p.master.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return p.master.Seal(nonce, nonce, contentKey, nil), nil
}

func (p *LocalKeyProvider) unwrapKey(wrapped []byte) ([]byte, error) {
	ns := p.master.NonceSize()
	if len(wrapped) < ns {
		return nil, fmt.Errorf("wrapped key too short")
	}
	return p.master.Open(nil, wrapped[:ns], wrapped[ns:], nil)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
