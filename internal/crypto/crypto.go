// Package crypto seals provider access tokens at rest with XChaCha20-Poly1305.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when the key does not decode to 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (raw, hex or base64)")
	// ErrMalformedCiphertext is returned for input that was not produced by Encrypt.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// Encryptor encrypts and decrypts short secrets. Ciphertexts are
// base64(nonce || sealed box).
type Encryptor struct {
	key []byte
}

// NewEncryptor accepts a 32-byte key given raw, hex-encoded or base64-encoded.
func NewEncryptor(key string) (*Encryptor, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	return &Encryptor{key: raw}, nil
}

// GenerateKey returns a fresh random key in hex form.
func GenerateKey() (string, error) {
	buf := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func decodeKey(key string) ([]byte, error) {
	switch {
	case len(key) == chacha20poly1305.KeySize:
		return []byte(key), nil
	case len(key) == hex.EncodedLen(chacha20poly1305.KeySize):
		if raw, err := hex.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(key); err == nil && len(raw) == chacha20poly1305.KeySize {
		return raw, nil
	}
	return nil, ErrInvalidKey
}

// Encrypt seals plaintext under a random nonce. The empty string maps to itself.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("reading nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Tampered or foreign input fails
// authentication and returns an error.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	return string(plaintext), nil
}
