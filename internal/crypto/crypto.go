// Package crypto seals secret setting values (the SMTP password) with
// AES-256-GCM before they are written to the settings table.
//
// Sealed values carry a version prefix so plaintext rows written before a
// key was configured can still be read back.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	KeySize = 32

	sealedPrefix = "enc:v1:"
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
	ErrNoKey              = errors.New("value is encrypted but no settings key is configured")
)

type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromBase64 decodes a standard base64 key. An empty string yields
// a nil Sealer, which stores values as plaintext.
func NewSealerFromBase64(encodedKey string) (*Sealer, error) {
	if encodedKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewSealer(key)
}

func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Seal encrypts plaintext. A nil Sealer and an empty plaintext both return
// the input unchanged.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if s == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if s == nil {
		return "", ErrNoKey
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh base64 encoded key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
