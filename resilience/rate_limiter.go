package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Common rate limiter errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string `mapstructure:"name"`
	// Capacity is the number of permits available per window.
	Capacity int `mapstructure:"capacity"`
	// RefillInterval is the window length after which all permits return.
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	// OnLimit is called when a request is rate limited.
	OnLimit func(name string) `mapstructure:"-"`
	// Clock overrides time.Now.
	Clock Clock `mapstructure:"-"`
}

// DefaultRateLimiterConfig returns 100 permits per hour.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:           name,
		Capacity:       100,
		RefillInterval: time.Hour,
	}
}

// LoginRateLimiterConfig returns the login-path policy: 5 attempts per minute.
func LoginRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:           "login",
		Capacity:       5,
		RefillInterval: time.Minute,
	}
}

// Validate checks the configuration.
func (c RateLimiterConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("rate limiter %q: capacity must be > 0", c.Name)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("rate limiter %q: refill_interval must be > 0", c.Name)
	}
	return nil
}

// TokenBucket is a fixed-window, full-refill limiter.
//
// TryAcquire reads and writes several fields; callers sharing a bucket
// across goroutines must serialize access themselves (see RateLimiter).
type TokenBucket struct {
	capacity   int
	tokens     int
	interval   time.Duration
	lastRefill time.Time
	now        Clock
}

// NewTokenBucket creates a full bucket. Non-positive capacity or interval
// fall back to DefaultRateLimiterConfig values.
func NewTokenBucket(capacity int, interval time.Duration, clock Clock) *TokenBucket {
	def := DefaultRateLimiterConfig("")
	if capacity <= 0 {
		capacity = def.Capacity
	}
	if interval <= 0 {
		interval = def.RefillInterval
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		interval:   interval,
		lastRefill: clock(),
		now:        clock,
	}
}

// TryAcquire takes one permit, refilling first if a full interval has
// passed since the last refill. Returns false when no permit is left.
func (b *TokenBucket) TryAcquire() bool {
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining returns the permits left in the current window.
func (b *TokenBucket) Remaining() int {
	b.refill()
	return b.tokens
}

// Capacity returns the permits granted per window.
func (b *TokenBucket) Capacity() int { return b.capacity }

// RefillInterval returns the window length.
func (b *TokenBucket) RefillInterval() time.Duration { return b.interval }

// ResetAt returns when the current window ends.
func (b *TokenBucket) ResetAt() time.Time { return b.lastRefill.Add(b.interval) }

func (b *TokenBucket) refill() {
	now := b.now()
	if now.Sub(b.lastRefill) >= b.interval {
		b.tokens = b.capacity
		b.lastRefill = now
	}
}

// RateLimiter is a TokenBucket guarded by a mutex.
type RateLimiter struct {
	config RateLimiterConfig

	mu     sync.Mutex
	bucket *TokenBucket
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	bucket := NewTokenBucket(config.Capacity, config.RefillInterval, config.Clock)
	config.Capacity = bucket.capacity
	config.RefillInterval = bucket.interval
	return &RateLimiter{config: config, bucket: bucket}
}

// Allow takes one permit without blocking.
// Returns true if allowed, false if rate limited.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	ok := rl.bucket.TryAcquire()
	rl.mu.Unlock()

	if !ok && rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return ok
}

// Execute runs fn if a permit is available.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// Remaining returns the permits left in the current window.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bucket.Remaining()
}

// ResetAt returns when the current window ends.
func (rl *RateLimiter) ResetAt() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bucket.ResetAt()
}

// Capacity returns the permits granted per window.
func (rl *RateLimiter) Capacity() int { return rl.config.Capacity }

// Name returns the limiter name.
func (rl *RateLimiter) Name() string { return rl.config.Name }
