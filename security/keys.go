package security

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/secret"
)

// KeyAssociatedData binds encrypted private keys to their purpose.
const KeyAssociatedData = "nova_tls_key"

// KeyAlgorithm is the AEAD profile used for private keys at rest.
const KeyAlgorithm = encryption.AlgorithmChaCha20

var (
	// ErrPassphraseRequired is returned when an encrypted key is read without a passphrase.
	ErrPassphraseRequired = errors.New("security: private key is encrypted and no passphrase was given")
	// ErrNotPEM is returned when decrypted key material is not PEM.
	ErrNotPEM = errors.New("security: key material is not PEM encoded")
)

var pemPrefix = []byte("-----BEGIN ")

// IsEncryptedKey reports whether data looks like an encrypted key rather than PEM.
func IsEncryptedKey(data []byte) bool {
	return !bytes.HasPrefix(bytes.TrimSpace(data), pemPrefix)
}

// EncryptPrivateKey encrypts PEM key material under passphrase. The result is
// base64(salt ‖ nonce ‖ ciphertext) text suitable for writing to disk.
func EncryptPrivateKey(pemData []byte, passphrase *secret.Secret, kdf *encryption.KeyDerivation) (string, error) {
	if IsEncryptedKey(pemData) {
		return "", ErrNotPEM
	}
	codec, err := encryption.NewCodec(KeyAlgorithm, kdf)
	if err != nil {
		return "", err
	}
	return codec.EncryptString(string(pemData), passphrase, []byte(KeyAssociatedData))
}

// UnlockPrivateKey decrypts a key produced by EncryptPrivateKey and returns
// the PEM bytes wrapped in a Secret.
func UnlockPrivateKey(encoded string, passphrase *secret.Secret, kdf *encryption.KeyDerivation) (*secret.Secret, error) {
	codec, err := encryption.NewCodec(KeyAlgorithm, kdf)
	if err != nil {
		return nil, err
	}
	pemText, err := codec.DecryptString(string(bytes.TrimSpace([]byte(encoded))), passphrase, []byte(KeyAssociatedData))
	if err != nil {
		return nil, fmt.Errorf("security: unlock private key: %w", err)
	}
	key := secret.NewString(pemText)
	if IsEncryptedKey(key.Bytes()) {
		key.Destroy()
		return nil, ErrNotPEM
	}
	return key, nil
}

// ReadPrivateKey reads a PEM private key from path, unlocking it first when
// the file holds an encrypted key. passphrase may be nil for plain PEM files.
func ReadPrivateKey(path string, passphrase *secret.Secret, kdf *encryption.KeyDerivation) (*secret.Secret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security: read private key: %w", err)
	}
	if !IsEncryptedKey(data) {
		return secret.New(data), nil
	}
	defer secret.Zero(data)
	if passphrase == nil || passphrase.Len() == 0 {
		return nil, ErrPassphraseRequired
	}
	return UnlockPrivateKey(string(data), passphrase, kdf)
}
