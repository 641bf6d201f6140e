package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/resilience"
	"github.com/kbukum/authkit/secret"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("authenticator: invalid username or password")
	// ErrTooManyAttempts is returned when an account exhausts its login permits.
	ErrTooManyAttempts = errors.New("authenticator: too many login attempts")
	// ErrInvalidToken is returned for refresh tokens that fail verification.
	ErrInvalidToken = errors.New("authenticator: invalid refresh token")
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records login and refresh outcomes on m.
func WithMetrics(m *observability.AuthMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithAccountLimiter limits login attempts per username, on top of the
// per-IP limit applied by the HTTP middleware.
func WithAccountLimiter(cfg resilience.RateLimiterConfig, maxKeys int) ServiceOption {
	return func(s *Service) { s.limiter = resilience.NewKeyedRateLimiter(cfg, maxKeys) }
}

// WithServiceClock overrides time.Now for revocation TTLs.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// Service checks credentials and issues, verifies and rotates token pairs.
// It is safe for concurrent use.
type Service struct {
	issuer      *jwt.Issuer
	users       UserStore
	hasher      password.Hasher
	revocations RevocationStore
	limiter     *resilience.KeyedRateLimiter
	metrics     *observability.AuthMetrics
	log         *logger.Logger
	now         func() time.Time

	// dummyHash is verified against for unknown users so that both failure
	// paths cost one hash verification.
	dummyHash string
}

// NewService creates a Service. It hashes a random password once to prepare
// the unknown-user path.
func NewService(issuer *jwt.Issuer, users UserStore, hasher password.Hasher, revocations RevocationStore, log *logger.Logger, opts ...ServiceOption) (*Service, error) {
	if issuer == nil || users == nil || hasher == nil || revocations == nil {
		return nil, errors.New("authenticator: issuer, users, hasher and revocations are required")
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		issuer:      issuer,
		users:       users,
		hasher:      hasher,
		revocations: revocations,
		log:         log.WithComponent("authenticator"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	filler, err := password.GenerateToken(16)
	if err != nil {
		return nil, err
	}
	pw := secret.NewString(filler)
	defer pw.Destroy()
	if s.dummyHash, err = hasher.Hash(pw); err != nil {
		return nil, fmt.Errorf("authenticator: prepare dummy hash: %w", err)
	}
	return s, nil
}

// Login checks username and pw and issues a token pair for the user.
func (s *Service) Login(ctx context.Context, username string, pw *secret.Secret) (tokens auth.Tokens, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin,
		attribute.String(observability.AttrUsername, username))
	defer func() {
		s.metrics.RecordLogin(ctx, result(err), time.Since(start))
		observability.EndSpan(span, err)
	}()
	log := s.log.WithContext(ctx)

	if s.limiter != nil && !s.limiter.Allow(username) {
		log.Warn("Account login attempts exhausted", logger.Fields(logger.FieldUsername, username))
		s.metrics.RecordRateLimited(ctx, "account")
		return auth.Tokens{}, ErrTooManyAttempts
	}

	user, err := s.users.Lookup(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = s.hasher.Verify(pw, s.dummyHash)
		log.Info("Login rejected", logger.Fields(logger.FieldUsername, username, "reason", "unknown user"))
		return auth.Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.RecordError(ctx, "users")
		return auth.Tokens{}, fmt.Errorf("authenticator: lookup user: %w", err)
	}

	if err := s.hasher.Verify(pw, user.PasswordHash); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("Stored password hash is unusable", logger.Fields(
				logger.FieldUsername, username, logger.FieldError, err.Error()))
			s.metrics.RecordError(ctx, "users")
		}
		log.Info("Login rejected", logger.Fields(logger.FieldUsername, username, "reason", "bad password"))
		return auth.Tokens{}, ErrInvalidCredentials
	}

	tokens, err = s.issuer.CreateTokens(user.Username)
	if err != nil {
		return auth.Tokens{}, err
	}
	log.Info("Login succeeded", logger.Fields(logger.FieldSubject, user.Username))
	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked until its expiry, so each refresh token can be used once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (tokens auth.Tokens, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanRefresh)
	defer func() {
		s.metrics.RecordRefresh(ctx, result(err), time.Since(start))
		observability.EndSpan(span, err)
	}()
	log := s.log.WithContext(ctx)

	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		log.Debug("Refresh token rejected", logger.Fields(logger.FieldError, err.Error()))
		return auth.Tokens{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := revocationID(refreshToken)

	revoked, err := s.revocations.IsRevoked(ctx, id)
	if err != nil {
		s.metrics.RecordError(ctx, "revocations")
		return auth.Tokens{}, fmt.Errorf("authenticator: check revocation: %w", err)
	}
	if revoked {
		log.Warn("Revoked refresh token presented", logger.Fields(logger.FieldSubject, claims.Subject))
		return auth.Tokens{}, auth.ErrTokenRevoked
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revocations.Revoke(ctx, id, claims.Subject, ttl); err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			log.Warn("Refresh token consumed concurrently", logger.Fields(logger.FieldSubject, claims.Subject))
			return auth.Tokens{}, err
		}
		s.metrics.RecordError(ctx, "revocations")
		return auth.Tokens{}, fmt.Errorf("authenticator: revoke refresh token: %w", err)
	}
	s.metrics.RecordRevocation(ctx)

	tokens, err = s.issuer.CreateTokens(claims.Subject)
	if err != nil {
		return auth.Tokens{}, err
	}
	log.Debug("Refreshed tokens", logger.Fields(logger.FieldSubject, claims.Subject))
	return tokens, nil
}

// revocationID keys a refresh token by its signing input. ECDSA signatures
// are malleable, so the signature segment is left out.
func revocationID(token string) string {
	if i := strings.LastIndexByte(token, '.'); i > 0 {
		token = token[:i]
	}
	return password.HashSHA256(token)
}

func sessionInfo(claims *jwt.Claims) auth.SessionInfo {
	info := auth.SessionInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return info
}

func result(err error) string {
	switch {
	case err == nil:
		return observability.ResultSuccess
	case errors.Is(err, ErrTooManyAttempts):
		return observability.ResultRateLimited
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		return observability.ResultRejected
	default:
		return observability.ResultError
	}
}
