package encryption

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/argon2"

	"github.com/kbukum/authkit/secret"
)

const (
	// SaltLength is the size of generated salts and the minimum accepted by Derive.
	SaltLength = 32
	// KeyLength is the size of every derived key.
	KeyLength = 32
	// MinPassphraseLength is the shortest passphrase EncryptString accepts.
	MinPassphraseLength = 32
)

// KDFConfig holds Argon2id cost parameters.
type KDFConfig struct {
	// Memory is the memory cost in KiB (default: 64 MiB).
	Memory uint32 `mapstructure:"memory" yaml:"memory"`

	// Time is the number of passes (default: 3).
	Time uint32 `mapstructure:"time" yaml:"time"`

	// Parallelism is the lane count (default: min(NumCPU, 8)).
	Parallelism uint8 `mapstructure:"parallelism" yaml:"parallelism"`
}

// ApplyDefaults fills zero-valued fields.
func (c *KDFConfig) ApplyDefaults() {
	if c.Memory == 0 {
		c.Memory = 64 * 1024
	}
	if c.Time == 0 {
		c.Time = 3
	}
	if c.Parallelism == 0 {
		c.Parallelism = uint8(min(runtime.NumCPU(), 8))
	}
}

// Validate checks the parameters are acceptable to Argon2id.
func (c *KDFConfig) Validate() error {
	if c.Time < 1 {
		return fmt.Errorf("encryption: kdf time must be >= 1")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("encryption: kdf parallelism must be >= 1")
	}
	if c.Memory < 8*uint32(c.Parallelism) {
		return fmt.Errorf("encryption: kdf memory must be >= 8*parallelism KiB, got %d", c.Memory)
	}
	return nil
}

// KeyDerivation turns passphrases into fixed-length keys.
// It is safe for concurrent use.
type KeyDerivation struct {
	cfg    KDFConfig
	pepper *secret.Secret
	rand   io.Reader
}

// KDFOption configures a KeyDerivation.
type KDFOption func(*KeyDerivation)

// WithPepper mixes a secret pepper into every derivation. The KeyDerivation
// keeps its own copy; the caller still owns p.
func WithPepper(p *secret.Secret) KDFOption {
	return func(k *KeyDerivation) {
		if p != nil && p.Len() > 0 {
			k.pepper = p.Clone()
		}
	}
}

// WithPepperString is WithPepper for a pepper read from configuration.
// An empty string leaves the derivation unpeppered.
func WithPepperString(p string) KDFOption {
	return func(k *KeyDerivation) {
		if p != "" {
			k.pepper = secret.NewString(p)
		}
	}
}

// WithRandom replaces crypto/rand as the salt source.
func WithRandom(r io.Reader) KDFOption {
	return func(k *KeyDerivation) { k.rand = r }
}

// NewKeyDerivation creates a KeyDerivation with the given parameters.
func NewKeyDerivation(cfg KDFConfig, opts ...KDFOption) (*KeyDerivation, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k := &KeyDerivation{cfg: cfg, rand: rand.Reader}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Config returns the effective parameters.
func (k *KeyDerivation) Config() KDFConfig { return k.cfg }

// GenerateSalt returns SaltLength random bytes. It fails if the random
// source cannot supply them.
func (k *KeyDerivation) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(k.rand, salt); err != nil {
		return nil, fmt.Errorf("encryption: generate salt: %w", err)
	}
	return salt, nil
}

// Derive stretches passphrase with salt into a KeyLength-byte key.
// The caller must Destroy the returned key.
func (k *KeyDerivation) Derive(passphrase, salt []byte) (*secret.Secret, error) {
	if len(salt) < SaltLength {
		return nil, fmt.Errorf("%w: got %d", ErrSaltTooShort, len(salt))
	}

	input := passphrase
	if k.pepper != nil {
		// x/crypto/argon2 has no secret parameter, so the pepper keys an
		// HMAC over the passphrase before stretching.
		mac := hmac.New(sha256.New, k.pepper.Bytes())
		mac.Write(passphrase)
		input = mac.Sum(nil)
		defer secret.Zero(input)
	}

	key := argon2.IDKey(input, salt, k.cfg.Time, k.cfg.Memory, k.cfg.Parallelism, KeyLength)
	return secret.New(key), nil
}
