package authenticator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/resilience"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/security"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/middleware"
	"github.com/kbukum/authkit/version"
)

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	fs    afero.Fs
	users UserStore
	jwt   []jwt.Option
}

// WithUsersFs reads the users file from fs instead of the OS filesystem.
func WithUsersFs(fs afero.Fs) AppOption {
	return func(o *appOptions) { o.fs = fs }
}

// WithUserStore replaces the users file.
func WithUserStore(users UserStore) AppOption {
	return func(o *appOptions) { o.users = users }
}

// WithIssuerOptions passes options to the token issuer.
func WithIssuerOptions(opts ...jwt.Option) AppOption {
	return func(o *appOptions) { o.jwt = append(o.jwt, opts...) }
}

// App wires the authenticator: token issuer, user store, revocations,
// metrics and the HTTP server.
type App struct {
	cfg       Config
	log       *logger.Logger
	server    *server.Server
	service   *Service
	redis     *redis.Client
	tlsConfig *tls.Config
	shutdown  []func(context.Context) error
}

// NewApp builds an App from cfg. cfg must already have defaults applied and
// be valid.
func NewApp(ctx context.Context, cfg Config, log *logger.Logger, opts ...AppOption) (_ *App, err error) {
	o := appOptions{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NewDefault(ServiceName)
	}
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	var passphrase *secret.Secret
	if cfg.KeyPassphrase != "" {
		passphrase = secret.NewString(cfg.KeyPassphrase)
		defer passphrase.Destroy()
	}
	kdf, err := encryption.NewKeyDerivation(cfg.KDF, encryption.WithPepperString(cfg.KDFPepper))
	if err != nil {
		return nil, err
	}

	jwtCfg, err := unlockSigningKey(cfg.JWT, passphrase, kdf)
	if err != nil {
		return nil, err
	}
	issuer, err := jwt.NewIssuer(jwtCfg, log, o.jwt...)
	if err != nil {
		return nil, err
	}

	users := o.users
	if users == nil {
		fileUsers, err := NewFileUserStore(o.fs, cfg.Users.File)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded users", logger.Fields("file", cfg.Users.File, "count", fileUsers.Len()))
		users = fileUsers
	}

	var checkers []observability.HealthChecker
	var revocations RevocationStore
	if cfg.Redis.Enabled {
		a.redis, err = redis.New(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		if err := a.redis.Ping(ctx); err != nil {
			return nil, err
		}
		revocations = redis.NewRevocationStore(a.redis)
		checkers = append(checkers, a.redis)
	} else {
		log.Warn("Redis disabled; refresh token revocations are kept in memory")
		revocations = NewMemoryRevocations(nil)
	}

	metrics, err := a.initObservability(ctx)
	if err != nil {
		return nil, err
	}

	svcOpts := []ServiceOption{WithMetrics(metrics)}
	if cfg.AccountLimit.Enabled {
		svcOpts = append(svcOpts, WithAccountLimiter(resilience.RateLimiterConfig{
			Name:           "account",
			Capacity:       cfg.AccountLimit.Capacity,
			RefillInterval: cfg.AccountLimit.RefillInterval,
		}, cfg.AccountLimit.MaxKeys))
	}
	a.service, err = NewService(issuer, users, password.NewHasher(cfg.Password), revocations, log, svcOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.Server.TLSEnabled() {
		a.tlsConfig, err = cfg.Server.TLS.BuildServer(passphrase, kdf)
		if err != nil {
			return nil, err
		}
	}

	a.server = server.New(cfg.Server, log)
	a.server.ApplyMiddleware()
	a.server.RegisterDefaultEndpoints(cfg.Name, checkers...)
	NewHandler(a.service).Register(a.server.GinEngine(), a.rateLimit(metrics))
	return a, nil
}

// unlockSigningKey reads PrivateKeyFile into PrivateKeyPEM, unlocking it
// when the file holds an encrypted key.
func unlockSigningKey(cfg jwt.Config, passphrase *secret.Secret, kdf *encryption.KeyDerivation) (jwt.Config, error) {
	if cfg.PrivateKeyPEM != "" || cfg.PrivateKeyFile == "" {
		return cfg, nil
	}
	key, err := security.ReadPrivateKey(cfg.PrivateKeyFile, passphrase, kdf)
	if err != nil {
		return cfg, fmt.Errorf("jwt signing key: %w", err)
	}
	defer key.Destroy()
	cfg.PrivateKeyPEM = key.Expose()
	cfg.PrivateKeyFile = ""
	return cfg, nil
}

func (a *App) initObservability(ctx context.Context) (*observability.AuthMetrics, error) {
	if !a.cfg.Observability.Enabled {
		return nil, nil
	}
	ver := version.Get().Version
	tp, err := observability.InitTracer(ctx, a.cfg.Observability, a.cfg.Name, ver, a.log)
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)
	mp, err := observability.InitMeter(ctx, a.cfg.Observability, a.cfg.Name, ver, a.log)
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)
	return observability.NewAuthMetrics(observability.Meter(ServiceName))
}

func (a *App) rateLimit(metrics *observability.AuthMetrics) gin.HandlerFunc {
	rl := a.cfg.Server.RateLimit
	if !rl.Enabled {
		return nil
	}
	rl.OnLimit = func(c *gin.Context, key string) {
		a.log.WithContext(c.Request.Context()).Warn("Client rate limited", logger.Fields(
			logger.FieldClientIP, key, logger.FieldPath, c.Request.URL.Path))
		metrics.RecordRateLimited(c.Request.Context(), "http")
	}
	return middleware.RateLimit(rl)
}

// Service returns the wired Service.
func (a *App) Service() *Service { return a.service }

// Handler returns the complete HTTP handler, middleware included.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Addr returns the server's bound address once started.
func (a *App) Addr() string { return a.server.Addr() }

// Start binds the listener and serves in the background.
func (a *App) Start(ctx context.Context) error {
	return a.server.Start(ctx, a.tlsConfig)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.log.Info("Authenticator ready", logger.Fields(
		"addr", a.Addr(), "version", version.Get().Short(), "tls", a.tlsConfig != nil))
	<-ctx.Done()
	return a.Close(context.Background())
}

// Close stops the server and releases Redis and telemetry exporters.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
