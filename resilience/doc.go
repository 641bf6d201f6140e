// Package resilience provides request admission control.
//
// TokenBucket is a fixed-window limiter: it holds Capacity permits and
// refills all of them at once when RefillInterval has elapsed since the
// last refill. It is a plain state machine with no internal locking.
//
// RateLimiter guards a TokenBucket with a mutex for shared use:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Name:           "login",
//	    Capacity:       5,
//	    RefillInterval: time.Minute,
//	})
//	if !rl.Allow() {
//	    return resilience.ErrRateLimited
//	}
package resilience
