package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestResultStoreAppend(t *testing.T) {
	s := newTestStorage(t)
	reg := NewRegistry(s, DefaultIntervalBounds)
	store := NewResultStore(s)
	_, m := seedMonitor(t, reg, "alice")
	ctx := context.Background()

	t.Run("Defaults checked_at to now in UTC", func(t *testing.T) {
		before := time.Now().UTC()
		res, err := store.Append(ctx, m.ID, Outcome{IsUp: true, StatusCode: intPtr(200), LatencyMs: intPtr(12)}, nil)
		require.NoError(t, err)

		assert.NotZero(t, res.ID)
		assert.Equal(t, time.UTC, res.CheckedAt.Location())
		assert.False(t, res.CheckedAt.Before(before))
		assert.Equal(t, 200, *res.StatusCode)
		assert.Nil(t, res.ErrorMessage)
	})

	t.Run("Normalizes supplied time to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*60*60)
		at := time.Date(2024, 5, 1, 15, 0, 0, 0, loc)

		res, err := store.Append(ctx, m.ID, Outcome{IsUp: false}, &at)
		require.NoError(t, err)
		assert.True(t, res.CheckedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
		assert.Equal(t, time.UTC, res.CheckedAt.Location())
	})

	t.Run("Truncates long error messages", func(t *testing.T) {
		long := strings.Repeat("x", 1500)
		res, err := store.Append(ctx, m.ID, Outcome{ErrorMessage: &long}, nil)
		require.NoError(t, err)
		assert.Len(t, *res.ErrorMessage, 1000)
	})
}

func TestResultStoreQueries(t *testing.T) {
	s := newTestStorage(t)
	reg := NewRegistry(s, DefaultIntervalBounds)
	store := NewResultStore(s)
	_, m := seedMonitor(t, reg, "alice")
	_, other := seedMonitor(t, reg, "bob")
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		_, err := store.Append(ctx, m.ID, Outcome{IsUp: true, StatusCode: intPtr(200 + i)}, &at)
		require.NoError(t, err)
	}
	// Same timestamp as the last one; append order must still win.
	tie := base.Add(4 * time.Minute)
	_, err := store.Append(ctx, m.ID, Outcome{IsUp: false, ErrorMessage: strPtr("boom")}, &tie)
	require.NoError(t, err)

	_, err = store.Append(ctx, other.ID, Outcome{IsUp: true}, &base)
	require.NoError(t, err)

	t.Run("Latest returns newest with id tiebreak", func(t *testing.T) {
		latest, err := store.Latest(ctx, m.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.False(t, latest.IsUp)
		assert.Equal(t, "boom", *latest.ErrorMessage)
	})

	t.Run("Latest of never-checked monitor is nil", func(t *testing.T) {
		latest, err := store.Latest(ctx, "never-checked")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("Recent is newest first and limited", func(t *testing.T) {
		recent, err := store.Recent(ctx, m.ID, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.False(t, recent[0].IsUp)
		assert.Equal(t, 204, *recent[1].StatusCode)
		assert.Equal(t, 203, *recent[2].StatusCode)
	})

	t.Run("Recent rejects out of range limits", func(t *testing.T) {
		for _, limit := range []int{0, -1, 1001} {
			_, err := store.Recent(ctx, m.ID, limit)
			assert.True(t, errors.Is(err, ErrInvalidInput), "limit %d", limit)
		}
	})

	t.Run("InRange is inclusive and oldest first", func(t *testing.T) {
		results, err := store.InRange(ctx, m.ID, base.Add(time.Minute), base.Add(4*time.Minute))
		require.NoError(t, err)
		require.Len(t, results, 5)
		assert.Equal(t, 201, *results[0].StatusCode)
		assert.Equal(t, 204, *results[3].StatusCode)
		assert.False(t, results[4].IsUp)
	})

	t.Run("InRange accepts non-UTC bounds", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*60*60)
		results, err := store.InRange(ctx, m.ID, base.In(loc), base.In(loc))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, m.ID, results[0].MonitorID)
	})

	t.Run("InRange with from after to fails", func(t *testing.T) {
		_, err := store.InRange(ctx, m.ID, base.Add(time.Minute), base)
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "from_ts", vErr.Field)
	})

	t.Run("Empty window returns no rows", func(t *testing.T) {
		results, err := store.InRange(ctx, m.ID, base.Add(time.Hour), base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
