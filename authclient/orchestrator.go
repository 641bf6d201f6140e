package authclient

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/resilience"
	"github.com/kbukum/authkit/secret"
)

// Exchanger trades credentials or a refresh token for a token pair.
type Exchanger interface {
	Login(ctx context.Context, username string, password *secret.Secret) (auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error)
}

// SessionStore persists the refresh token between runs.
type SessionStore interface {
	Persist(refreshToken string) error
	Load() (string, error)
	Remove() error
}

// forgetter is implemented by stores that also hold a credential outside
// the session file.
type forgetter interface {
	Forget() error
}

// Config configures an Orchestrator.
type Config struct {
	// Limiter throttles Login. Defaults to resilience.LoginRateLimiterConfig.
	Limiter resilience.RateLimiterConfig `mapstructure:"limiter"`

	// Metrics records login outcomes. Nil disables recording.
	Metrics *observability.AuthMetrics `mapstructure:"-"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	def := resilience.LoginRateLimiterConfig()
	if c.Limiter.Name == "" {
		c.Limiter.Name = def.Name
	}
	if c.Limiter.Capacity == 0 {
		c.Limiter.Capacity = def.Capacity
	}
	if c.Limiter.RefillInterval == 0 {
		c.Limiter.RefillInterval = def.RefillInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return c.Limiter.Validate()
}

// state is the orchestrator's session. The loggedOut sentinel is the only
// state without tokens.
type state struct {
	tokens auth.Tokens
}

var loggedOut = &state{}

// Orchestrator owns the login state of one user.
type Orchestrator struct {
	exchanger Exchanger
	store     SessionStore
	limiter   *resilience.RateLimiter
	metrics   *observability.AuthMetrics
	log       *logger.Logger

	state atomic.Pointer[state]
}

// New creates a logged-out Orchestrator. store may be nil, in which case
// sessions are never persisted and TryLoadSession always fails.
func New(cfg Config, exchanger Exchanger, store SessionStore, log *logger.Logger) (*Orchestrator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if exchanger == nil {
		return nil, errors.New("authclient: exchanger is required")
	}
	if log == nil {
		log = logger.NewDefault("authclient")
	}

	o := &Orchestrator{
		exchanger: exchanger,
		store:     store,
		limiter:   resilience.NewRateLimiter(cfg.Limiter),
		metrics:   cfg.Metrics,
		log:       log.WithComponent("authclient"),
	}
	o.state.Store(loggedOut)
	return o, nil
}

// Login exchanges username and password for tokens and activates them.
// When persist is set the refresh token is saved; a failure to save is
// logged and does not fail the login. The caller keeps ownership of
// password.
func (o *Orchestrator) Login(ctx context.Context, username string, password *secret.Secret, persist bool) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin,
		attribute.String(observability.AttrUsername, username))
	defer func() {
		o.metrics.RecordLogin(ctx, loginResult(err), time.Since(start))
		observability.EndSpan(span, err)
	}()

	if !o.limiter.Allow() {
		o.log.Warn("Login rate limit reached", logger.Fields(
			logger.FieldUsername, username,
			logger.FieldLimiter, o.limiter.Name(),
		))
		o.metrics.RecordRateLimited(ctx, o.limiter.Name())
		return ErrRateLimitReached
	}

	if o.IsAuthenticated() {
		return ErrAlreadyLoggedIn
	}

	tokens, err := o.exchange(ctx, func(ctx context.Context) (auth.Tokens, error) {
		return o.exchanger.Login(ctx, username, password)
	})
	if err != nil {
		o.log.Debug("Login failed", logger.Fields(
			logger.FieldUsername, username,
			logger.FieldError, err.Error(),
		))
		return err
	}

	if !o.activate(tokens) {
		o.log.Warn("Another login attempt was made before this one completed, ignoring this one")
		return ErrConcurrentLogin
	}

	if persist {
		o.persist(ctx, tokens.Refresh)
	}

	o.log.Info("Logged in", logger.Fields(logger.FieldUsername, username))
	return nil
}

// TryLoadSession resumes a persisted session by refreshing its token. The
// new refresh token is not written back.
func (o *Orchestrator) TryLoadSession(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanRefresh)
	defer func() {
		o.metrics.RecordRefresh(ctx, loginResult(err), time.Since(start))
		observability.EndSpan(span, err)
	}()

	if o.IsAuthenticated() {
		return ErrAlreadyLoggedIn
	}

	refreshToken, err := o.load(ctx)
	if err != nil {
		o.log.Debug("No usable session", logger.Fields(logger.FieldError, err.Error()))
		return loginFailed("no usable session", err)
	}

	tokens, err := o.exchange(ctx, func(ctx context.Context) (auth.Tokens, error) {
		return o.exchanger.Refresh(ctx, refreshToken)
	})
	if err != nil {
		o.log.Debug("Session refresh failed", logger.Fields(logger.FieldError, err.Error()))
		return err
	}

	if !o.activate(tokens) {
		o.log.Warn("Another login or load session attempt was made before this one completed, ignoring this one")
		return ErrConcurrentLogin
	}

	o.log.Info("Session resumed")
	return nil
}

// Logout drops the active tokens. It reports whether a session was
// active. The persisted session file is kept; see ForgetSession.
func (o *Orchestrator) Logout() bool {
	current := o.state.Load()
	if current == loggedOut {
		return false
	}
	if !o.state.CompareAndSwap(current, loggedOut) {
		return false
	}
	o.log.Info("Logged out")
	return true
}

// ForgetSession removes the persisted session so the next run cannot
// resume it. The in-memory state is untouched.
func (o *Orchestrator) ForgetSession() error {
	if o.store == nil {
		return nil
	}
	if f, ok := o.store.(forgetter); ok {
		return f.Forget()
	}
	return o.store.Remove()
}

// Tokens returns the active tokens.
func (o *Orchestrator) Tokens() (auth.Tokens, bool) {
	current := o.state.Load()
	if current == loggedOut {
		return auth.Tokens{}, false
	}
	return current.tokens, true
}

// IsAuthenticated reports whether a session is active.
func (o *Orchestrator) IsAuthenticated() bool {
	return o.state.Load() != loggedOut
}

// RemainingAttempts returns the login permits left in the current window.
func (o *Orchestrator) RemainingAttempts() int {
	return o.limiter.Remaining()
}

func (o *Orchestrator) activate(tokens auth.Tokens) bool {
	return o.state.CompareAndSwap(loggedOut, &state{tokens: tokens})
}

func (o *Orchestrator) exchange(ctx context.Context, fn func(context.Context) (auth.Tokens, error)) (auth.Tokens, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCredentialTry)
	tokens, err := fn(ctx)
	if err == nil && !tokens.Complete() {
		err = errIncompleteTokens
	}
	observability.EndSpan(span, err)
	if err != nil {
		return auth.Tokens{}, loginFailed(reason(err), err)
	}
	return tokens, nil
}

func (o *Orchestrator) load(ctx context.Context) (string, error) {
	_, span := observability.StartSpan(ctx, observability.SpanSessionLoad)
	var (
		token string
		err   error
	)
	if o.store == nil {
		err = errNoStore
	} else {
		token, err = o.store.Load()
	}
	observability.EndSpan(span, err)
	return token, err
}

func (o *Orchestrator) persist(ctx context.Context, refreshToken string) {
	_, span := observability.StartSpan(ctx, observability.SpanSessionSave)
	err := errNoStore
	if o.store != nil {
		err = o.store.Persist(refreshToken)
	}
	observability.EndSpan(span, err)

	if err != nil {
		o.log.Error("Failed to persist login. User will have to login again if app is restarted", logger.Fields(
			logger.FieldError, err.Error(),
		))
		o.metrics.RecordError(ctx, "session")
		return
	}
	o.log.Info("Persistent session saved successfully")
}

var (
	errIncompleteTokens = errors.New("authclient: server returned an incomplete token pair")
	errNoStore          = errors.New("authclient: no session store configured")
)

// reason turns an exchange failure into text without server or transport detail.
func reason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded), httpclient.IsTimeout(err):
		return "authentication server timed out"
	case httpclient.IsAuth(err):
		return "credentials rejected"
	case httpclient.IsRateLimit(err):
		return "authentication server is throttling requests"
	case httpclient.IsConnection(err):
		return "authentication server unreachable"
	case httpclient.IsServerError(err):
		return "authentication server error"
	case errors.Is(err, errIncompleteTokens):
		return "invalid server response"
	default:
		return "credential exchange failed"
	}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return observability.ResultSuccess
	case errors.Is(err, ErrRateLimitReached):
		return observability.ResultRateLimited
	case errors.Is(err, ErrFailedToLogin):
		return observability.ResultError
	default:
		return observability.ResultRejected
	}
}
