package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrMissingSecret = errors.New("secret is required for token sealing")
	ErrInvalidSealed = errors.New("invalid sealed token")
)

// TokenBox seals OAuth tokens before they are persisted.
type TokenBox struct {
	key [32]byte
}

// NewTokenBox derives the sealing key from secret.
func NewTokenBox(secret string) (*TokenBox, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenBox{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal encrypts plain. The empty string seals to the empty string.
func (b *TokenBox) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (b *TokenBox) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(data) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrInvalidSealed
	}
	return string(plain), nil
}
