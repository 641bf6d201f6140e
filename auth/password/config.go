package password

import "fmt"

// Algorithm represents supported password hashing algorithms.
type Algorithm string

const (
	// AlgorithmArgon2id is argon2id hashing in PHC string format (default).
	AlgorithmArgon2id Algorithm = "argon2id"

	// AlgorithmBcrypt is bcrypt hashing.
	AlgorithmBcrypt Algorithm = "bcrypt"
)

// Config configures password hashing behavior.
type Config struct {
	// Algorithm selects the hashing algorithm for new hashes (default: "argon2id").
	// Verify recognizes both formats regardless.
	Algorithm Algorithm `mapstructure:"algorithm"`

	// BcryptCost is the bcrypt cost parameter (default: 12, range: 4-31).
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// Argon2Time is the number of iterations for argon2id (default: 2).
	Argon2Time uint32 `mapstructure:"argon2_time"`

	// Argon2Memory is the memory usage in KiB for argon2id (default: 19456).
	Argon2Memory uint32 `mapstructure:"argon2_memory"`

	// Argon2Threads is the parallelism for argon2id (default: 1).
	Argon2Threads uint8 `mapstructure:"argon2_threads"`

	// MinLength is the minimum password length accepted by Hash (default: 8).
	MinLength int `mapstructure:"min_length"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmArgon2id
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 2
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 19 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 1
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported algorithm: %s (use argon2id or bcrypt)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be >= 1 (got: %d)", c.MinLength)
	}
	return nil
}

// NewHasher creates a Hasher from configuration. The returned hasher
// produces hashes with the configured algorithm and verifies both formats.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	argon := NewArgon2Hasher(
		WithArgon2Time(cfg.Argon2Time),
		WithArgon2Memory(cfg.Argon2Memory),
		WithArgon2Threads(cfg.Argon2Threads),
		WithArgon2MinLength(cfg.MinLength),
	)
	bc := NewBcryptHasher(WithCost(cfg.BcryptCost), WithBcryptMinLength(cfg.MinLength))
	if cfg.Algorithm == AlgorithmBcrypt {
		return &multiHasher{primary: bc, argon: argon, bcrypt: bc}
	}
	return &multiHasher{primary: argon, argon: argon, bcrypt: bc}
}
