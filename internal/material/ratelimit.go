package material

import (
	"context"
	"sync"
	"time"

	"clipforge/internal/logging"
)

// Limiter spaces API calls to stay under a provider's per-minute quota.
type Limiter struct {
	mu       sync.Mutex
	delay    time.Duration
	lastCall time.Time
}

// NewLimiter allows callsPerMinute requests, evenly spaced.
func NewLimiter(callsPerMinute int) *Limiter {
	if callsPerMinute <= 0 {
		callsPerMinute = 30
	}
	return &Limiter{delay: time.Minute / time.Duration(callsPerMinute)}
}

// Wait blocks until the next call is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	wait := l.delay - now.Sub(l.lastCall)
	if wait < 0 {
		wait = 0
	}
	l.lastCall = now.Add(wait)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}
	logging.Get(logging.CategoryMaterial).Debug("rate limiter: waiting %.2fs", wait.Seconds())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
