package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/provider"
)

// ErrRateLimitExceeded indicates the generation rate limit was hit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimit caps generation calls per sliding window. Provider quotas
// are per-account, so one limiter is shared across all sessions.
func RateLimit(maxRequests int, window time.Duration) Middleware {
	if window <= 0 {
		window = time.Minute
	}
	limiter := &windowLimiter{
		max:    maxRequests,
		window: window,
	}
	return func(next provider.Generator) provider.Generator {
		return provider.GeneratorFunc(func(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
			if !limiter.allow(time.Now()) {
				return nil, ErrRateLimitExceeded
			}
			return next.Generate(ctx, messages, opts)
		})
	}
}

type windowLimiter struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	windowStart time.Time
	counter     int
}

func (l *windowLimiter) allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.counter = 0
	}
	if l.counter >= l.max {
		return false
	}
	l.counter++
	return true
}
