package adaptive

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.gov.au/award"

func newTestTracker(t *testing.T, baseline time.Duration) (*Tracker, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	tracker := NewTracker(client, baseline)
	tracker.now = func() time.Time { return now }

	return tracker, &now
}

func TestNextInterval(t *testing.T) {
	baseline := time.Hour

	tests := []struct {
		name           string
		unchangedCount int
		expected       time.Duration
	}{
		{name: "fresh change uses baseline", unchangedCount: 0, expected: time.Hour},
		{name: "one unchanged doubles", unchangedCount: 1, expected: 2 * time.Hour},
		{name: "three unchanged", unchangedCount: 3, expected: 8 * time.Hour},
		{name: "capped at max", unchangedCount: 10, expected: MaxInterval},
		{name: "negative treated as zero", unchangedCount: -1, expected: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextInterval(baseline, MaxInterval, tt.unchangedCount))
		})
	}
}

func TestDueWithoutState(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Hour)

	assert.True(t, tracker.Due(context.Background(), testURL))
}

func TestRecordCheckUnchangedBacksOff(t *testing.T) {
	tracker, now := newTestTracker(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, tracker.RecordCheck(ctx, testURL, false))

	state, err := tracker.State(ctx, testURL)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.UnchangedCount)
	assert.Equal(t, 2*time.Hour, state.NextInterval)

	// Just checked, so not due again yet.
	assert.False(t, tracker.Due(ctx, testURL))

	*now = now.Add(time.Hour)
	assert.False(t, tracker.Due(ctx, testURL))

	*now = now.Add(time.Hour)
	assert.True(t, tracker.Due(ctx, testURL))
}

func TestRecordCheckChangeResetsBackoff(t *testing.T) {
	tracker, now := newTestTracker(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, tracker.RecordCheck(ctx, testURL, false))
	}

	state, err := tracker.State(ctx, testURL)
	require.NoError(t, err)
	assert.Equal(t, 4, state.UnchangedCount)
	assert.Equal(t, 16*time.Hour, state.NextInterval)

	require.NoError(t, tracker.RecordCheck(ctx, testURL, true))

	state, err = tracker.State(ctx, testURL)
	require.NoError(t, err)
	assert.Equal(t, 0, state.UnchangedCount)
	assert.Equal(t, time.Hour, state.NextInterval)
	assert.Equal(t, *now, state.LastChangeAt)
}

func TestBackoffNeverExceedsMax(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, tracker.RecordCheck(ctx, testURL, false))
	}

	state, err := tracker.State(ctx, testURL)
	require.NoError(t, err)
	assert.Equal(t, MaxInterval, state.NextInterval)
}

func TestDueFailsOpenWhenRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := NewTracker(client, time.Hour)
	require.NoError(t, tracker.RecordCheck(context.Background(), testURL, false))

	mr.Close()

	assert.True(t, tracker.Due(context.Background(), testURL))
}
