// Package stats computes uptime and latency aggregates over check results.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/storage"
)

// ResultReader is the slice of the result store the aggregator reads.
type ResultReader interface {
	InRange(ctx context.Context, monitorID string, from, to time.Time) ([]storage.CheckResult, error)
}

// Snapshot is the derived availability summary for one monitor over a window.
type Snapshot struct {
	MonitorID         string     `json:"monitor_id"`
	FromTS            time.Time  `json:"from_ts"`
	ToTS              time.Time  `json:"to_ts"`
	TotalChecks       int        `json:"total_checks"`
	UpChecks          int        `json:"up_checks"`
	DownChecks        int        `json:"down_checks"`
	UptimePercent     float64    `json:"uptime_percent"`
	AvgResponseTimeMs *float64   `json:"avg_response_time_ms"`
	LastStatusUp      *bool      `json:"last_status_up"`
	LastStatusCode    *int       `json:"last_status_code"`
	LastCheckAt       *time.Time `json:"last_check_at"`
}

// Aggregator computes snapshots and caches the default window.
type Aggregator struct {
	results ResultReader
	cache   cache.Cache
	ttl     time.Duration
	window  time.Duration
	now     func() time.Time
}

// Options configures an Aggregator.
type Options struct {
	// CacheTTL bounds how long a default-window snapshot may be served.
	CacheTTL time.Duration
	// DefaultWindow is the span used when a bound is omitted.
	DefaultWindow time.Duration
}

// NewAggregator creates an aggregator. A nil cache disables caching.
func NewAggregator(results ResultReader, c cache.Cache, opts Options) *Aggregator {
	if c == nil {
		c = cache.Disabled{}
	}
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = 24 * time.Hour
	}
	return &Aggregator{
		results: results,
		cache:   c,
		ttl:     opts.CacheTTL,
		window:  opts.DefaultWindow,
		now:     time.Now,
	}
}

// CacheKey returns the cache key of a monitor's snapshot over the default window.
func CacheKey(monitorID string, window time.Duration) string {
	return "stats:monitor:" + monitorID + ":" + windowLabel(window)
}

// generationKey holds the monitor's invalidation counter.
func generationKey(monitorID string) string {
	return "stats:monitor:" + monitorID + ":gen"
}

// windowLabel renders d in its largest whole unit, e.g. 24h, 90m or 45s.
func windowLabel(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

// cacheEntry is the stored form of a default-window snapshot. Generation is
// the monitor's invalidation counter observed before the results were read.
type cacheEntry struct {
	Generation int64     `json:"generation"`
	Snapshot   *Snapshot `json:"snapshot"`
}

// Compute returns the snapshot for monitorID over [from, to].
//
// Omitted bounds resolve against the current time: to defaults to now and
// from defaults to to minus the default window. Only the fully defaulted
// window is read from and written to the cache.
func (a *Aggregator) Compute(ctx context.Context, monitorID string, from, to *time.Time) (*Snapshot, error) {
	useCache := from == nil && to == nil

	end := a.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-a.window)
	if from != nil {
		start = from.UTC()
	}

	if err := storage.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	// The generation is read before the results so that an Invalidate
	// landing in between leaves the stored entry unreadable.
	var generation int64
	if useCache {
		var ok bool
		if generation, ok = a.generation(ctx, monitorID); !ok {
			useCache = false
		}
	}

	key := CacheKey(monitorID, a.window)
	if useCache {
		if snap, ok := a.cached(ctx, key, generation); ok {
			return snap, nil
		}
	}

	results, err := a.results.InRange(ctx, monitorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for monitor %s: %w", monitorID, err)
	}

	snap := Summarize(monitorID, start, end, results)

	if useCache {
		a.store(ctx, key, cacheEntry{Generation: generation, Snapshot: snap})
	}
	return snap, nil
}

// Invalidate retires the cached default-window snapshot for monitorID.
//
// Bumping the generation also retires entries written later by computations
// that started before this call. Failures are logged and otherwise ignored.
func (a *Aggregator) Invalidate(ctx context.Context, monitorID string) {
	if _, err := a.cache.Incr(ctx, generationKey(monitorID)); err != nil {
		log.Warn().Err(err).Str("monitor_id", monitorID).Msg("Failed to bump stats generation")
	}
	if err := a.cache.Delete(ctx, CacheKey(monitorID, a.window)); err != nil {
		log.Warn().Err(err).Str("monitor_id", monitorID).Msg("Failed to invalidate stats cache")
	}
}

// generation returns the monitor's invalidation counter. ok is false when it
// cannot be read, in which case the cache must not be used.
func (a *Aggregator) generation(ctx context.Context, monitorID string) (int64, bool) {
	key := generationKey(monitorID)
	raw, err := a.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return 0, true
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stats generation read failed")
		return 0, false
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stats generation is not an integer")
		return 0, false
	}
	return n, true
}

func (a *Aggregator) cached(ctx context.Context, key string, generation int64) (*Snapshot, bool) {
	raw, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Stats cache read failed")
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Snapshot == nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable stats cache entry")
		return nil, false
	}
	if entry.Generation != generation {
		return nil, false
	}
	return entry.Snapshot, true
}

func (a *Aggregator) store(ctx context.Context, key string, entry cacheEntry) {
	if a.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode stats snapshot")
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stats cache write failed")
	}
}

// Summarize folds results into a snapshot. results may be in any order.
func Summarize(monitorID string, from, to time.Time, results []storage.CheckResult) *Snapshot {
	snap := &Snapshot{
		MonitorID:   monitorID,
		FromTS:      from,
		ToTS:        to,
		TotalChecks: len(results),
	}

	var latencySum, latencyCount int
	var last *storage.CheckResult

	for i := range results {
		r := &results[i]
		if r.IsUp {
			snap.UpChecks++
		}
		if r.ResponseTimeMs != nil {
			latencySum += *r.ResponseTimeMs
			latencyCount++
		}
		if last == nil || r.CheckedAt.After(last.CheckedAt) ||
			(r.CheckedAt.Equal(last.CheckedAt) && r.ID > last.ID) {
			last = r
		}
	}
	snap.DownChecks = snap.TotalChecks - snap.UpChecks

	if snap.TotalChecks > 0 {
		snap.UptimePercent = float64(snap.UpChecks) / float64(snap.TotalChecks) * 100
	}
	if latencyCount > 0 {
		avg := float64(latencySum) / float64(latencyCount)
		snap.AvgResponseTimeMs = &avg
	}
	if last != nil {
		up := last.IsUp
		at := last.CheckedAt.UTC()
		snap.LastStatusUp = &up
		snap.LastStatusCode = last.StatusCode
		snap.LastCheckAt = &at
	}

	return snap
}
