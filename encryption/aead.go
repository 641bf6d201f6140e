package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies an AEAD profile.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM with a 12-byte nonce.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305 with a 12-byte nonce.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"

	// AlgorithmXChaCha20 is XChaCha20-Poly1305 with a 24-byte nonce.
	// Random nonces of this size are safe for very many messages per key.
	AlgorithmXChaCha20 Algorithm = "xchacha20-poly1305"
)

// NonceSize returns the profile's nonce length, or 0 for unknown profiles.
func (a Algorithm) NonceSize() int {
	switch a {
	case AlgorithmAESGCM, AlgorithmChaCha20:
		return 12
	case AlgorithmXChaCha20:
		return chacha20poly1305.NonceSizeX
	default:
		return 0
	}
}

// Valid reports whether a is a known profile.
func (a Algorithm) Valid() bool { return a.NonceSize() > 0 }

func (a Algorithm) newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) < KeyLength {
		return nil, ErrKeyTooShort
	}
	key = key[:KeyLength]

	switch a {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("create cipher: %w", err)
		}
		return cipher.NewGCM(block)
	case AlgorithmChaCha20:
		return chacha20poly1305.New(key)
	case AlgorithmXChaCha20:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, a)
	}
}

// Encrypt seals plaintext under key with a fresh random nonce. Only the
// first KeyLength bytes of key are used.
func Encrypt(alg Algorithm, plaintext, key, aad []byte) (ciphertext, nonce []byte, err error) {
	return sealWith(rand.Reader, alg, plaintext, key, aad)
}

// Decrypt opens ciphertext sealed by Encrypt.
func Decrypt(alg Algorithm, ciphertext, nonce, key, aad []byte) ([]byte, error) {
	aead, err := alg.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidNonce
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func sealWith(r io.Reader, alg Algorithm, plaintext, key, aad []byte) ([]byte, []byte, error) {
	aead, err := alg.newAEAD(key)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}
