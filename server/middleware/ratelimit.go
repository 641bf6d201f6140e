package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/resilience"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Enabled turns the middleware on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Capacity is the number of requests allowed per window and key.
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
	// RefillInterval is the window length.
	RefillInterval time.Duration `yaml:"refill_interval" mapstructure:"refill_interval"`
	// MaxKeys bounds the number of tracked keys before idle ones are evicted.
	MaxKeys int `yaml:"max_keys" mapstructure:"max_keys"`
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
	// Clock overrides time.Now.
	Clock resilience.Clock `yaml:"-" mapstructure:"-"`
	// OnLimit is called with the key of every rejected request.
	OnLimit func(c *gin.Context, key string) `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero-valued fields with the login policy.
func (c *RateLimitConfig) ApplyDefaults() {
	def := resilience.LoginRateLimiterConfig()
	if c.Capacity == 0 {
		c.Capacity = def.Capacity
	}
	if c.RefillInterval == 0 {
		c.RefillInterval = def.RefillInterval
	}
	if c.MaxKeys == 0 {
		c.MaxKeys = 10000
	}
}

// Validate checks the configuration.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxKeys < 0 {
		return fmt.Errorf("rate_limit.max_keys must be non-negative")
	}
	return resilience.RateLimiterConfig{
		Name:           "http",
		Capacity:       c.Capacity,
		RefillInterval: c.RefillInterval,
	}.Validate()
}

// RateLimit returns a Gin middleware that gives every key its own token
// bucket and reports the bucket state in X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cfg.ApplyDefaults()
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	rl := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{
		Name:           "http",
		Capacity:       cfg.Capacity,
		RefillInterval: cfg.RefillInterval,
		Clock:          cfg.Clock,
	}, cfg.MaxKeys)

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)
		allowed, remaining, reset := rl.Take(key)

		c.Header(HeaderRateLimitLimit, strconv.Itoa(cfg.Capacity))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			if cfg.OnLimit != nil {
				cfg.OnLimit(c, key)
			}
			retryAfter := int(reset.Sub(cfg.Clock()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			appErr := apperrors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
