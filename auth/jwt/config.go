package jwt

import (
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	ES256 SigningMethod = "ES256"
	ES384 SigningMethod = "ES384"
	ES512 SigningMethod = "ES512"
)

// RefreshIssuerSuffix is appended to the base issuer in refresh tokens.
const RefreshIssuerSuffix = "_refresh"

// Config configures the token issuer.
type Config struct {
	// Method is the ECDSA signing algorithm (default: ES256).
	Method SigningMethod `mapstructure:"method"`

	// Issuer is the base "iss" claim (default: "nova").
	Issuer string `mapstructure:"issuer"`

	// PrivateKeyPEM is the PEM-encoded EC private key (PKCS#8 or SEC 1).
	PrivateKeyPEM string `mapstructure:"private_key"`

	// PublicKeyPEM is the PEM-encoded EC public key (PKIX).
	PublicKeyPEM string `mapstructure:"public_key"`

	// PrivateKeyFile is read when PrivateKeyPEM is empty.
	PrivateKeyFile string `mapstructure:"private_key_file"`

	// PublicKeyFile is read when PublicKeyPEM is empty.
	PublicKeyFile string `mapstructure:"public_key_file"`

	// AccessTokenTTL is the lifetime of access tokens (default: 1h).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// RefreshTokenTTL is the lifetime of refresh tokens (default: 1 week).
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = ES256
	}
	if c.Issuer == "" {
		c.Issuer = "nova"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = time.Hour
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
}

// Validate checks the configuration without touching key material.
func (c *Config) Validate() error {
	switch c.Method {
	case ES256, ES384, ES512:
	default:
		return errors.New("jwt: unsupported signing method: " + string(c.Method))
	}
	if c.PrivateKeyPEM == "" && c.PrivateKeyFile == "" {
		return errors.New("jwt: private key is required")
	}
	if c.PublicKeyPEM == "" && c.PublicKeyFile == "" {
		return errors.New("jwt: public key is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("jwt: token TTLs must be positive")
	}
	return nil
}

// RefreshIssuer returns the issuer carried by refresh tokens.
func (c *Config) RefreshIssuer() string {
	return c.Issuer + RefreshIssuerSuffix
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case ES384:
		return gojwt.SigningMethodES384
	case ES512:
		return gojwt.SigningMethodES512
	default:
		return gojwt.SigningMethodES256
	}
}

func (c *Config) privateKeyPEM() ([]byte, error) {
	return pemOrFile(c.PrivateKeyPEM, c.PrivateKeyFile, "private")
}

func (c *Config) publicKeyPEM() ([]byte, error) {
	return pemOrFile(c.PublicKeyPEM, c.PublicKeyFile, "public")
}

func pemOrFile(inline, path, kind string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwt: read %s key %q: %w", kind, path, err)
	}
	return data, nil
}
