package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures the per-provider token bucket.
type RateLimiterConfig struct {
	// Rate is the number of live fetches allowed per second.
	// Default: 50
	Rate float64

	// Burst is the bucket capacity.
	// Default: 10
	Burst int
}

// RateLimiter is a token bucket that keeps live fetches inside a provider's
// API budget. It rejects immediately rather than queueing: a rejected fetch
// is reported to the caller as a temporary condition with a retry-after hint.
type RateLimiter struct {
	config RateLimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 50
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}

	return &RateLimiter{
		config: config,
		tokens: float64(config.Burst),
		last:   time.Now(),
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Execute runs op if a token is available, otherwise returns
// ErrRateLimitExceeded without executing it.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// RetryAfter estimates how long until the next token is available.
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		return 0
	}
	missing := 1 - rl.tokens
	return time.Duration(missing / rl.config.Rate * float64(time.Second))
}

// Tokens returns the current token count.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.last)
	rl.last = now

	rl.tokens += elapsed.Seconds() * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}
