// Package adaptive spaces out checks of slow-moving sources. Sources whose
// content keeps coming back unchanged back off exponentially, so stable
// regulatory pages are not re-fetched on every job run. State lives in
// Redis; when Redis is not configured the orchestrator runs without it and
// every source is always due.
package adaptive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MaxInterval caps the backoff regardless of how long a source has
	// been unchanged.
	MaxInterval = 24 * time.Hour
	// keyPrefix namespaces the per-source state keys in Redis.
	keyPrefix = "regwatch:adaptive:"
	// backoffBase is the exponential backoff multiplier per unchanged check.
	backoffBase = 2.0
)

// CheckState is the per-source scheduling state.
type CheckState struct {
	LastCheckedAt  time.Time     `json:"last_checked_at"`
	LastChangeAt   time.Time     `json:"last_change_at"`
	UnchangedCount int           `json:"unchanged_count"`
	NextInterval   time.Duration `json:"next_interval"`
}

// Tracker persists per-source check state in Redis and answers whether a
// source is due for another fetch.
type Tracker struct {
	client   *redis.Client
	baseline time.Duration

	now func() time.Time
}

// NewTracker creates a tracker. baseline is the interval applied to a
// source whose content just changed.
func NewTracker(client *redis.Client, baseline time.Duration) *Tracker {
	return &Tracker{
		client:   client,
		baseline: baseline,
		now:      time.Now,
	}
}

// NextInterval computes the check interval after a run of unchanged checks:
// baseline doubled per unchanged check, capped at maxInterval.
func NextInterval(baseline, maxInterval time.Duration, unchangedCount int) time.Duration {
	if unchangedCount <= 0 {
		return baseline
	}

	interval := time.Duration(float64(baseline) * math.Pow(backoffBase, float64(unchangedCount)))
	if interval > maxInterval || interval <= 0 {
		return maxInterval
	}

	return interval
}

// Due reports whether a source should be fetched on this run. A source with
// no recorded state is always due. Redis failures fail open: an unreachable
// tracker must not stop a job from checking sources.
func (t *Tracker) Due(ctx context.Context, sourceURL string) bool {
	state, err := t.loadState(ctx, sourceURL)
	if err != nil || state == nil {
		return true
	}

	return !t.now().Before(state.LastCheckedAt.Add(state.NextInterval))
}

// RecordCheck updates the state after a fetch: a content change resets the
// backoff, an unchanged check extends it.
func (t *Tracker) RecordCheck(ctx context.Context, sourceURL string, changed bool) error {
	state, err := t.loadState(ctx, sourceURL)
	if err != nil {
		return err
	}
	if state == nil {
		state = &CheckState{}
	}

	now := t.now()
	state.LastCheckedAt = now

	if changed {
		state.LastChangeAt = now
		state.UnchangedCount = 0
		state.NextInterval = t.baseline
	} else {
		state.UnchangedCount++
		state.NextInterval = NextInterval(t.baseline, MaxInterval, state.UnchangedCount)
	}

	return t.saveState(ctx, sourceURL, state)
}

// State returns the recorded state for a source, or nil when none exists.
func (t *Tracker) State(ctx context.Context, sourceURL string) (*CheckState, error) {
	return t.loadState(ctx, sourceURL)
}

func (t *Tracker) loadState(ctx context.Context, sourceURL string) (*CheckState, error) {
	data, err := t.client.Get(ctx, keyPrefix+sourceURL).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check state: %w", err)
	}

	var state CheckState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal check state: %w", err)
	}

	return &state, nil
}

func (t *Tracker) saveState(ctx context.Context, sourceURL string, state *CheckState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal check state: %w", err)
	}

	if err := t.client.Set(ctx, keyPrefix+sourceURL, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set check state: %w", err)
	}

	return nil
}
