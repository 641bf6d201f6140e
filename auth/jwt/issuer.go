// Package jwt issues and verifies ES256 access/refresh token pairs.
//
// Access and refresh tokens of one pair carry identical claims except for
// "iss" and "exp": refresh tokens use the base issuer plus "_refresh". Each
// pair gets a fresh "jti", so pairs minted in the same second still differ.
// Verify checks signature and expiry only; use VerifyAccess or
// VerifyRefresh where the token's purpose matters.
//
//	issuer, err := jwt.NewIssuer(jwt.Config{
//	    Issuer:         "nova",
//	    PrivateKeyFile: "jwt.key",
//	    PublicKeyFile:  "jwt.pub",
//	}, log)
//	tokens, err := issuer.CreateTokens("alice")
//	claims, err := issuer.VerifyRefresh(tokens.Refresh)
package jwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/logger"
)

// Claims are the registered claims carried by both token kinds:
// sub, iss, iat and exp (unix seconds), plus the pair's jti.
type Claims = gojwt.RegisteredClaims

var (
	// ErrEmptySubject is returned by CreateTokens for an empty subject.
	ErrEmptySubject = errors.New("jwt: subject is empty")
	// ErrEmptyToken is returned when verifying an empty string.
	ErrEmptyToken = errors.New("jwt: token is empty")
	// ErrWrongPurpose is returned when a valid token has the other token kind's issuer.
	ErrWrongPurpose = errors.New("jwt: token issuer does not match expected purpose")
)

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer mints and verifies token pairs. It is safe for concurrent use.
type Issuer struct {
	cfg        Config
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	now        func() time.Time
	log        *logger.Logger
}

// NewIssuer creates an Issuer. It fails if either key cannot be read or parsed.
func NewIssuer(cfg Config, log *logger.Logger, opts ...Option) (*Issuer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	privPEM, err := cfg.privateKeyPEM()
	if err != nil {
		return nil, err
	}
	privateKey, err := gojwt.ParseECPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse private key: %w", err)
	}

	pubPEM, err := cfg.publicKeyPEM()
	if err != nil {
		return nil, err
	}
	publicKey, err := gojwt.ParseECPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse public key: %w", err)
	}

	if log == nil {
		log = logger.NewDefault("jwt")
	}
	i := &Issuer{
		cfg:        cfg,
		privateKey: privateKey,
		publicKey:  publicKey,
		now:        time.Now,
		log:        log.WithComponent("jwt"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Config returns the effective configuration.
func (i *Issuer) Config() Config { return i.cfg }

// CreateTokens signs an access and a refresh token for subject.
func (i *Issuer) CreateTokens(subject string) (auth.Tokens, error) {
	if subject == "" {
		i.log.Error("Failed to create jwt token: missing subject")
		return auth.Tokens{}, ErrEmptySubject
	}

	now := i.now()
	id := uuid.NewString()
	access, err := i.sign(id, subject, i.cfg.Issuer, now, i.cfg.AccessTokenTTL)
	if err != nil {
		return auth.Tokens{}, err
	}
	refresh, err := i.sign(id, subject, i.cfg.RefreshIssuer(), now, i.cfg.RefreshTokenTTL)
	if err != nil {
		return auth.Tokens{}, err
	}
	return auth.Tokens{Access: access, Refresh: refresh}, nil
}

// Verify reports whether token has a valid signature and has not expired.
// It accepts both access and refresh tokens.
func (i *Issuer) Verify(token string) bool {
	claims, err := i.Parse(token)
	if err != nil {
		i.log.Debug("Failed to verify jwt token", map[string]interface{}{"error": err.Error()})
		return false
	}
	i.log.Debug("Verified jwt token", map[string]interface{}{"subject": claims.Subject})
	return true
}

// Parse validates signature and expiry and returns the claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, i.keyFunc,
		gojwt.WithValidMethods([]string{i.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}

// VerifyAccess parses token and requires the access issuer.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.parseFor(token, i.cfg.Issuer)
}

// VerifyRefresh parses token and requires the refresh issuer.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.parseFor(token, i.cfg.RefreshIssuer())
}

// ValidatorFunc adapts VerifyAccess for auth.NewValidator and the
// Bearer middleware.
func (i *Issuer) ValidatorFunc() func(string) (any, error) {
	return func(token string) (any, error) {
		return i.VerifyAccess(token)
	}
}

func (i *Issuer) parseFor(token, issuer string) (*Claims, error) {
	claims, err := i.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Issuer != issuer {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func (i *Issuer) sign(id, subject, issuer string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		ID:        id,
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := gojwt.NewWithClaims(i.cfg.signingMethod(), claims).SignedString(i.privateKey)
	if err != nil {
		i.log.Error("Failed to encode jwt token", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// keyFunc checks the header algorithm before returning the public key.
func (i *Issuer) keyFunc(token *gojwt.Token) (interface{}, error) {
	expected := i.cfg.signingMethod()
	if token.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return i.publicKey, nil
}
