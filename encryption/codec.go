package encryption

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kbukum/authkit/secret"
)

// Codec encrypts strings under a passphrase into a self-describing
// base64(salt ‖ nonce ‖ ciphertext) encoding. It is safe for concurrent use.
type Codec struct {
	alg  Algorithm
	kdf  *KeyDerivation
	rand io.Reader
}

// NewCodec creates a Codec for alg. A nil kdf uses default parameters.
func NewCodec(alg Algorithm, kdf *KeyDerivation) (*Codec, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
	if kdf == nil {
		var err error
		if kdf, err = NewKeyDerivation(KDFConfig{}); err != nil {
			return nil, err
		}
	}
	return &Codec{alg: alg, kdf: kdf, rand: kdf.rand}, nil
}

// Algorithm returns the codec's AEAD profile.
func (c *Codec) Algorithm() Algorithm { return c.alg }

// Encrypt seals plaintext under a raw key with a fresh nonce.
func (c *Codec) Encrypt(plaintext, key, aad []byte) (ciphertext, nonce []byte, err error) {
	r := c.rand
	if r == nil {
		r = rand.Reader
	}
	return sealWith(r, c.alg, plaintext, key, aad)
}

// Decrypt opens a ciphertext produced by Encrypt.
func (c *Codec) Decrypt(ciphertext, nonce, key, aad []byte) ([]byte, error) {
	return Decrypt(c.alg, ciphertext, nonce, key, aad)
}

// EncryptString derives a key from passphrase and a new salt, encrypts
// plaintext and returns base64(salt ‖ nonce ‖ ciphertext).
func (c *Codec) EncryptString(plaintext string, passphrase *secret.Secret, aad []byte) (string, error) {
	if utf8Len(passphrase) < MinPassphraseLength {
		return "", ErrPassphraseTooShort
	}

	salt, err := c.kdf.GenerateSalt()
	if err != nil {
		return "", err
	}
	key, err := c.kdf.Derive(passphrase.Bytes(), salt)
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	ciphertext, nonce, err := c.Encrypt([]byte(plaintext), key.Bytes(), aad)
	if err != nil {
		return "", err
	}

	combined := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = append(combined, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptString reverses EncryptString.
func (c *Codec) DecryptString(encoded string, passphrase *secret.Secret, aad []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidEncoding
	}

	nonceSize := c.alg.NonceSize()
	if len(data) < SaltLength+nonceSize {
		return "", ErrTruncated
	}
	salt := data[:SaltLength]
	nonce := data[SaltLength : SaltLength+nonceSize]
	ciphertext := data[SaltLength+nonceSize:]

	key, err := c.kdf.Derive(passphrase.Bytes(), salt)
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	plaintext, err := c.Decrypt(ciphertext, nonce, key.Bytes(), aad)
	if err != nil {
		return "", err
	}
	defer secret.Zero(plaintext)

	if !utf8.Valid(plaintext) {
		return "", ErrInvalidUTF8
	}
	return string(plaintext), nil
}

func utf8Len(s *secret.Secret) int {
	return utf8.RuneCount(s.Bytes())
}
