package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbukum/authkit/encryption"
)

// Fixed identifiers of the persisted session.
const (
	DefaultService        = "com.nova.auth"
	DefaultAccount        = "nova_token"
	DefaultAssociatedData = "nova_persist"
	DefaultFileName       = "nova_session.toml"
	DefaultAppDir         = "nova"
	Version               = "1.0.0"
)

// Config configures the session store.
type Config struct {
	// Dir holds the session file (default: <user config dir>/nova).
	Dir string `mapstructure:"dir"`

	// FileName is the session file name (default: nova_session.toml).
	FileName string `mapstructure:"file_name"`

	// Service and Account identify the keyring entry.
	Service string `mapstructure:"service"`
	Account string `mapstructure:"account"`

	// AssociatedData binds the ciphertext to this store (default: nova_persist).
	AssociatedData string `mapstructure:"associated_data"`

	// PassphraseLength is the generated keyring passphrase length (default and minimum: 32).
	PassphraseLength int `mapstructure:"passphrase_length"`

	// KDF tunes the passphrase stretching.
	KDF encryption.KDFConfig `mapstructure:"kdf"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = defaultDir()
	}
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}
	if c.Service == "" {
		c.Service = DefaultService
	}
	if c.Account == "" {
		c.Account = DefaultAccount
	}
	if c.AssociatedData == "" {
		c.AssociatedData = DefaultAssociatedData
	}
	if c.PassphraseLength == 0 {
		c.PassphraseLength = encryption.MinPassphraseLength
	}
	c.KDF.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("session: dir is required")
	}
	if c.PassphraseLength < encryption.MinPassphraseLength {
		return fmt.Errorf("session: passphrase_length must be >= %d", encryption.MinPassphraseLength)
	}
	return c.KDF.Validate()
}

// Path returns the full session file path.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, c.FileName)
}

func defaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, DefaultAppDir)
}
