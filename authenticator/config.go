package authenticator

import (
	"fmt"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/middleware"
)

// ServiceName is the default config name and the name used to locate
// config files.
const ServiceName = "authenticator"

// Config is the authenticator's configuration.
type Config struct {
	config.BaseConfig `yaml:",inline" mapstructure:",squash"`

	JWT jwt.Config `yaml:"jwt" mapstructure:"jwt"`

	// KeyPassphrase unlocks encrypted signing and TLS private keys. Set it
	// through the environment (KEY_PASSPHRASE), not the config file.
	KeyPassphrase string `yaml:"-" mapstructure:"key_passphrase"`

	// KDFPepper is mixed into key derivation for encrypted private keys.
	// Set it through the environment (KDF_PEPPER); keys must be encrypted
	// with the same pepper.
	KDFPepper string `yaml:"-" mapstructure:"kdf_pepper"`

	// KDF holds the Argon2id cost used for encrypted private keys. It must
	// match the parameters the keys were encrypted with.
	KDF encryption.KDFConfig `yaml:"kdf" mapstructure:"kdf"`

	Password      password.Config      `yaml:"password" mapstructure:"password"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Users         UsersConfig          `yaml:"users" mapstructure:"users"`

	// AccountLimit throttles login attempts per username.
	AccountLimit middleware.RateLimitConfig `yaml:"account_limit" mapstructure:"account_limit"`
}

// UsersConfig locates the users file.
type UsersConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.BaseConfig.ApplyDefaults()
	c.JWT.ApplyDefaults()
	c.KDF.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.AccountLimit.ApplyDefaults()
	if c.Users.File == "" {
		c.Users.File = "users.yml"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.JWT.Validate(); err != nil {
		return err
	}
	if err := c.KDF.Validate(); err != nil {
		return err
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if err := c.AccountLimit.Validate(); err != nil {
		return fmt.Errorf("account_limit: %w", err)
	}
	return nil
}

// LoadConfig reads the authenticator configuration, applies defaults and
// validates it.
func LoadConfig(opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	if err := config.LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
