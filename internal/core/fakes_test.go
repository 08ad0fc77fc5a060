package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/storage"
)

// clock is a settable time source shared by fakes.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// memResults is an in-memory result log implementing LatestReader and ResultAppender.
type memResults struct {
	mu        sync.Mutex
	clock     *clock
	results   []storage.CheckResult
	latestErr map[string]error
	appendErr error
}

func newMemResults(c *clock) *memResults {
	return &memResults{clock: c, latestErr: make(map[string]error)}
}

func (r *memResults) Latest(_ context.Context, monitorID string) (*storage.CheckResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.latestErr[monitorID]; err != nil {
		return nil, err
	}
	var latest *storage.CheckResult
	for i := range r.results {
		res := r.results[i]
		if res.MonitorID == monitorID {
			latest = &res
		}
	}
	return latest, nil
}

func (r *memResults) Append(_ context.Context, monitorID string, outcome storage.Outcome, at *time.Time) (*storage.CheckResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return nil, r.appendErr
	}
	checkedAt := r.clock.Now()
	if at != nil {
		checkedAt = *at
	}
	res := storage.CheckResult{
		ID:             int64(len(r.results) + 1),
		MonitorID:      monitorID,
		CheckedAt:      checkedAt.UTC(),
		IsUp:           outcome.IsUp,
		StatusCode:     outcome.StatusCode,
		ResponseTimeMs: outcome.LatencyMs,
		ErrorMessage:   outcome.ErrorMessage,
	}
	r.results = append(r.results, res)
	return &res, nil
}

func (r *memResults) count(monitorID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.MonitorID == monitorID {
			n++
		}
	}
	return n
}

// staticMonitors is a MonitorSource over a fixed list.
type staticMonitors struct {
	monitors []storage.Monitor
	err      error
}

func (s *staticMonitors) ListActiveMonitors(context.Context) ([]storage.Monitor, error) {
	return s.monitors, s.err
}

// stubProber returns a fixed outcome and counts calls.
type stubProber struct {
	mu      sync.Mutex
	outcome storage.Outcome
	err     error
	calls   []string
}

func (p *stubProber) Probe(_ context.Context, target string) (storage.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, target)
	return p.outcome, p.err
}

// recordingInvalidator remembers which monitors were invalidated.
type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, monitorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, monitorID)
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// scriptedRunner is a CheckRunner whose behavior is chosen per monitor.
type scriptedRunner struct {
	mu      sync.Mutex
	runs    map[string]int
	block   map[string]chan struct{}
	panics  map[string]bool
	fails   map[string]bool
	started chan string
	inner   CheckRunner
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		runs:    make(map[string]int),
		block:   make(map[string]chan struct{}),
		panics:  make(map[string]bool),
		fails:   make(map[string]bool),
		started: make(chan string, 100),
	}
}

func (r *scriptedRunner) RunCheck(ctx context.Context, m *storage.Monitor) (*storage.CheckResult, error) {
	r.mu.Lock()
	r.runs[m.ID]++
	block := r.block[m.ID]
	panics := r.panics[m.ID]
	fails := r.fails[m.ID]
	r.mu.Unlock()

	r.started <- m.ID

	if block != nil {
		<-block
	}
	if panics {
		panic("probe exploded")
	}
	if fails {
		return nil, errors.New("database is locked")
	}
	if r.inner != nil {
		return r.inner.RunCheck(ctx, m)
	}
	return &storage.CheckResult{MonitorID: m.ID, IsUp: true}, nil
}

func (r *scriptedRunner) runCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

// failingCache errors on every operation.
type failingCache struct{ cache.Disabled }

func (failingCache) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingCache) CompareAndDelete(context.Context, string, []byte) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func monitor(id string, intervalSec int) storage.Monitor {
	return storage.Monitor{
		ID:               id,
		ProjectID:        "p1",
		Name:             id,
		TargetURL:        "https://" + id + ".example.com",
		CheckIntervalSec: intervalSec,
		IsActive:         true,
	}
}
