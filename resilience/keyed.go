package resilience

import (
	"sync"
	"time"
)

// KeyedRateLimiter gives every key its own TokenBucket, e.g. one per client
// IP or per account. It never tracks more than maxKeys buckets: once full,
// buckets whose window has ended are evicted, and if none has, the bucket
// closest to its refill goes.
type KeyedRateLimiter struct {
	config  RateLimiterConfig
	maxKeys int

	mu      sync.Mutex
	buckets map[string]*TokenBucket
}

// NewKeyedRateLimiter creates a KeyedRateLimiter. A non-positive maxKeys
// means no eviction.
func NewKeyedRateLimiter(config RateLimiterConfig, maxKeys int) *KeyedRateLimiter {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &KeyedRateLimiter{
		config:  config,
		maxKeys: maxKeys,
		buckets: make(map[string]*TokenBucket),
	}
}

// Take acquires a permit for key and returns the bucket state after the
// attempt.
func (l *KeyedRateLimiter) Take(key string) (allowed bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if l.maxKeys > 0 && len(l.buckets) >= l.maxKeys {
			l.evict()
		}
		b = NewTokenBucket(l.config.Capacity, l.config.RefillInterval, l.config.Clock)
		l.buckets[key] = b
	}
	allowed = b.TryAcquire()
	if !allowed && l.config.OnLimit != nil {
		l.config.OnLimit(l.config.Name)
	}
	return allowed, b.Remaining(), b.ResetAt()
}

// Allow is Take without the bucket state.
func (l *KeyedRateLimiter) Allow(key string) bool {
	allowed, _, _ := l.Take(key)
	return allowed
}

// Len returns the number of tracked keys.
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Name returns the configured limiter name.
func (l *KeyedRateLimiter) Name() string { return l.config.Name }

func (l *KeyedRateLimiter) evict() {
	now := l.config.Clock()
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, b := range l.buckets {
		reset := b.ResetAt()
		if !now.Before(reset) {
			delete(l.buckets, k)
			continue
		}
		if !found || reset.Before(oldest) {
			oldestKey, oldest, found = k, reset, true
		}
	}
	if found && len(l.buckets) >= l.maxKeys {
		delete(l.buckets, oldestKey)
	}
}
