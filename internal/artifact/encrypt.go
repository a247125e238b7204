// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package artifact

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// aesKeySize selects AES-256.
	aesKeySize = 32

	// gcmNonceSize is the standard GCM nonce length in bytes.
	gcmNonceSize = 12

	// encryptionSalt and encryptionInfo bind derived keys to this use.
	// Changing either invalidates every encrypted artifact.
	encryptionSalt = "vcarpool-dr-artifacts"
	encryptionInfo = "artifact-encryption-v1"
)

var (
	// ErrEmptyEncryptionKey is returned when constructing an Encryptor
	// with an empty key.
	ErrEmptyEncryptionKey = errors.New("encryption key is empty")

	// ErrCiphertextTooShort is returned when an encrypted artifact is
	// shorter than a nonce plus GCM tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrDecryptionFailed is returned when authentication fails, which
	// means a wrong key or a tampered artifact.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Encryptor seals and opens artifact bytes with AES-256-GCM. The key is
// derived from the configured secret with HKDF-SHA256 so operators can
// supply a passphrase of any length. Output is binary: the random nonce is
// prepended to the ciphertext.
type Encryptor struct {
	gcm   cipher.AEAD
	keyID string
}

// NewEncryptor derives the AES key from secret and returns a ready
// Encryptor. keyID is an operator label recorded in backup metadata, it
// plays no cryptographic role.
func NewEncryptor(secret, keyID string) (*Encryptor, error) {
	if secret == "" {
		return nil, ErrEmptyEncryptionKey
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, fmt.Errorf("deriving artifact key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Encryptor{gcm: gcm, keyID: keyID}, nil
}

// KeyID returns the operator label for the active key.
func (e *Encryptor) KeyID() string {
	return e.keyID
}

// Encrypt seals plaintext and returns nonce||ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens nonce||ciphertext produced by Encrypt.
func (e *Encryptor) Decrypt(data []byte) ([]byte, error) {
	if len(data) < gcmNonceSize+e.gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := data[:gcmNonceSize], data[gcmNonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Validate performs an encrypt/decrypt round trip so a misconfigured key
// surfaces at startup instead of during the first backup.
func (e *Encryptor) Validate() error {
	probe := []byte("vcarpool-dr encryption probe")
	sealed, err := e.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("encryption validation: %w", err)
	}
	opened, err := e.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("encryption validation: %w", err)
	}
	if !bytes.Equal(probe, opened) {
		return errors.New("encryption validation: round trip mismatch")
	}
	return nil
}

// deriveKey stretches the operator secret into an AES-256 key.
func deriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), []byte(encryptionSalt), []byte(encryptionInfo))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptedStore wraps a Store with transparent encryption. Writes are
// sealed before they reach the inner store, reads are opened on the way
// out. Key enumeration and deletion pass straight through.
type EncryptedStore struct {
	inner Store
	enc   *Encryptor
}

// NewEncryptedStore wraps inner with enc.
func NewEncryptedStore(inner Store, enc *Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc}
}

func (s *EncryptedStore) Put(ctx context.Context, key string, data []byte) error {
	sealed, err := s.enc.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypting artifact %s: %w", key, err)
	}
	return s.inner.Put(ctx, key, sealed)
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting artifact %s: %w", key, err)
	}
	return plaintext, nil
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *EncryptedStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return s.inner.DeletePrefix(ctx, prefix)
}

func (s *EncryptedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *EncryptedStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}
