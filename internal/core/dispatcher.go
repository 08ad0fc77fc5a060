package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/config"
	"pulsewatch/internal/storage"
)

// MonitorSource lists the monitors eligible for scheduling.
type MonitorSource interface {
	ListActiveMonitors(ctx context.Context) ([]storage.Monitor, error)
}

// Dispatcher turns scheduler ticks into concurrent checks.
//
// Each tick selects the due monitors and submits one task per monitor onto a
// bounded worker pool. Tasks waiting for a worker queue up; they are never
// dropped, and Tick never waits for them.
type Dispatcher struct {
	config   config.SchedulerConfig
	monitors MonitorSource
	selector *Selector
	runner   CheckRunner
	guard    *inflightGuard

	// Worker pool
	workers chan struct{}

	// Lifecycle management
	running bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewDispatcher creates a dispatcher. locks backs the per-monitor in-flight
// guard; a nil cache disables it.
func NewDispatcher(cfg config.SchedulerConfig, monitors MonitorSource, selector *Selector, runner CheckRunner, locks cache.Cache) *Dispatcher {
	if locks == nil {
		locks = cache.Disabled{}
	}
	return &Dispatcher{
		config:   cfg,
		monitors: monitors,
		selector: selector,
		runner:   runner,
		guard:    &inflightGuard{cache: locks, ttl: cfg.InflightTTL},
		workers:  make(chan struct{}, cfg.WorkerCount),
	}
}

// Start initializes the worker pool.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("dispatcher is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	// Refill so a restarted dispatcher has a full pool.
	for len(d.workers) > 0 {
		<-d.workers
	}
	for i := 0; i < d.config.WorkerCount; i++ {
		d.workers <- struct{}{}
	}

	d.running = true
	log.Info().Int("worker_count", d.config.WorkerCount).Msg("Dispatcher started")

	return nil
}

// Stop cancels queued tasks and waits for running checks to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	log.Info().Msg("Stopping dispatcher")
	d.cancel()
	d.running = false
	d.mu.Unlock()

	d.wg.Wait()
	log.Info().Msg("Dispatcher stopped")
}

// Wait blocks until every submitted task has finished. Ticks arriving
// meanwhile block until it returns.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wg.Wait()
}

// IsRunning returns whether the dispatcher accepts ticks.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Tick selects the monitors due at now and submits a check for each.
//
// It returns the number of tasks submitted. A listing failure aborts the
// tick. Per-monitor selection failures are returned alongside a partial
// dispatch.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return 0, fmt.Errorf("dispatcher is not running")
	}

	monitors, err := d.monitors.ListActiveMonitors(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active monitors: %w", err)
	}

	due, selErr := d.selector.SelectDue(ctx, monitors, now)
	for i := range due {
		d.submit(due[i], now)
	}

	log.Debug().Int("active", len(monitors)).Int("due", len(due)).Msg("Scheduler tick")

	if selErr != nil {
		return len(due), fmt.Errorf("failed to evaluate some monitors: %w", selErr)
	}
	return len(due), nil
}

// submit queues a check of m selected at now. Caller holds d.mu for reading.
func (d *Dispatcher) submit(m storage.Monitor, now time.Time) {
	ctx := d.ctx

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case <-d.workers:
		case <-ctx.Done():
			log.Debug().Str("monitor_id", m.ID).Msg("Dispatcher stopped before check started")
			return
		}
		defer func() { d.workers <- struct{}{} }()

		d.execute(ctx, &m, now)
	}()
}

// execute runs one check under the in-flight guard. Failures and panics are
// logged and never reach sibling tasks.
func (d *Dispatcher) execute(ctx context.Context, m *storage.Monitor, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("monitor_id", m.ID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Check panicked")
		}
	}()

	// Checks that already started run to completion on shutdown so no
	// spurious down result is recorded.
	runCtx := context.WithoutCancel(ctx)

	release, ok := d.guard.acquire(runCtx, m.ID)
	if !ok {
		log.Debug().Str("monitor_id", m.ID).Msg("Check already in flight, skipping")
		return
	}
	defer release()

	// A task queued by an earlier tick may have checked m while this one waited.
	if due, err := d.selector.Due(runCtx, m, now); err == nil && !due {
		log.Debug().Str("monitor_id", m.ID).Msg("Monitor checked since selection, skipping")
		return
	}

	if _, err := d.runner.RunCheck(runCtx, m); err != nil {
		log.Error().Str("monitor_id", m.ID).Err(err).Msg("Check failed")
	}
}
