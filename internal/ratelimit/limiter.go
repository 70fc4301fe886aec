// Package ratelimit provides a shared minimum-interval gate for outbound
// requests. A single Limiter is injected into every fetch path so the
// interval is enforced across all in-flight callers.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the minimum time between dispatched requests.
const DefaultInterval = 2 * time.Second

// Limiter enforces a minimum interval between request dispatches, measured
// from the last dispatch. The last-dispatch timestamp is owned by the
// limiter and guarded by its mutex; callers never touch it directly.
type Limiter struct {
	mu           sync.Mutex
	interval     time.Duration
	lastDispatch time.Time
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given minimum interval. A non-positive
// interval falls back to DefaultInterval.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire blocks until the minimum interval since the last dispatch has
// elapsed, then records the new dispatch time. Returns the context error if
// the wait is cancelled; a cancelled acquire does not consume a slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		wait := l.interval - now.Sub(l.lastDispatch)
		if wait <= 0 {
			l.lastDispatch = now
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Interval returns the configured minimum interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
