package encryption

import "github.com/kbukum/authkit/secret"

// Encryptor defines the interface for symmetric string encryption.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Option configures an Encryptor built by New.
type Option func(*options)

type options struct {
	algorithm Algorithm
	kdf       *KeyDerivation
	aad       []byte
}

// WithAlgorithm selects the AEAD profile (default: XChaCha20-Poly1305).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithKeyDerivation sets the KDF used to stretch the passphrase.
func WithKeyDerivation(kdf *KeyDerivation) Option {
	return func(o *options) { o.kdf = kdf }
}

// WithAssociatedData binds every ciphertext to aad.
func WithAssociatedData(aad []byte) Option {
	return func(o *options) { o.aad = append([]byte(nil), aad...) }
}

type passphraseEncryptor struct {
	codec      *Codec
	passphrase *secret.Secret
	aad        []byte
}

// New creates an Encryptor bound to one passphrase and associated-data tag.
// The Encryptor keeps a private copy of passphrase.
func New(passphrase *secret.Secret, opts ...Option) (Encryptor, error) {
	o := &options{algorithm: AlgorithmXChaCha20}
	for _, opt := range opts {
		opt(o)
	}
	if utf8Len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooShort
	}
	codec, err := NewCodec(o.algorithm, o.kdf)
	if err != nil {
		return nil, err
	}
	return &passphraseEncryptor{codec: codec, passphrase: passphrase.Clone(), aad: o.aad}, nil
}

func (e *passphraseEncryptor) Encrypt(plaintext string) (string, error) {
	return e.codec.EncryptString(plaintext, e.passphrase, e.aad)
}

func (e *passphraseEncryptor) Decrypt(ciphertext string) (string, error) {
	return e.codec.DecryptString(ciphertext, e.passphrase, e.aad)
}
