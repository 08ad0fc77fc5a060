// Package core provides the scheduling and aggregation engine for Pulsewatch.
//
// The engine is responsible for:
//   - Driving scheduler ticks at a fixed cadence
//   - Selecting due monitors and dispatching checks onto a worker pool
//   - Persisting check results and invalidating derived stats
//   - Serving on-demand checks and stats to the API
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/checks"
	"pulsewatch/internal/config"
	"pulsewatch/internal/stats"
	"pulsewatch/internal/storage"
)

// Engine wires the monitoring pipeline and runs the cadence loop.
type Engine struct {
	config       *config.Config
	registry     *storage.Registry
	results      *storage.ResultStore
	aggregator   *stats.Aggregator
	orchestrator *Orchestrator
	dispatcher   *Dispatcher

	now func() time.Time

	// Internal state
	running bool
	mu      sync.RWMutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates an engine over store. c backs both the stats cache and
// the in-flight locks.
func NewEngine(cfg *config.Config, store *storage.Storage, c cache.Cache) *Engine {
	registry := storage.NewRegistry(store, storage.IntervalBounds{
		Min: cfg.Monitors.MinInterval,
		Max: cfg.Monitors.MaxInterval,
	})
	results := storage.NewResultStore(store)

	aggregator := stats.NewAggregator(results, c, stats.Options{
		CacheTTL:      cfg.Stats.CacheTTL,
		DefaultWindow: cfg.Stats.DefaultWindow,
	})

	orchestrator := NewOrchestrator(checks.NewManager(cfg.Checks), results, aggregator)
	dispatcher := NewDispatcher(cfg.Scheduler, registry, NewSelector(results), orchestrator, c)

	return &Engine{
		config:       cfg,
		registry:     registry,
		results:      results,
		aggregator:   aggregator,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		now:          time.Now,
	}
}

// Start starts the dispatcher, runs a first tick immediately and then ticks
// every scheduler.tick_interval until Stop is called or ctx is done.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}

	engineCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	log.Info().Dur("tick_interval", e.config.Scheduler.TickInterval).Msg("Starting monitoring engine")

	if err := e.dispatcher.Start(engineCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	e.wg.Add(1)
	go e.run(engineCtx)

	e.running = true
	log.Info().Msg("Monitoring engine started successfully")

	return nil
}

// run is the cadence loop.
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.Scheduler.TickInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	n, err := e.dispatcher.Tick(ctx, e.now())
	if err != nil {
		log.Error().Err(err).Int("dispatched", n).Msg("Scheduler tick failed")
	}
}

// IsRunning returns whether the engine is currently running.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Stop stops the cadence loop and the dispatcher, waiting for running checks.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	log.Info().Msg("Stopping monitoring engine")

	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	e.dispatcher.Stop()

	e.running = false
	log.Info().Msg("Monitoring engine stopped")
}

// RunCheck checks m immediately, outside the schedule.
func (e *Engine) RunCheck(ctx context.Context, m *storage.Monitor) (*storage.CheckResult, error) {
	return e.orchestrator.RunCheck(ctx, m)
}

// Stats computes the availability snapshot of monitorID.
func (e *Engine) Stats(ctx context.Context, monitorID string, from, to *time.Time) (*stats.Snapshot, error) {
	return e.aggregator.Compute(ctx, monitorID, from, to)
}

// Registry returns the project and monitor registry.
func (e *Engine) Registry() *storage.Registry {
	return e.registry
}

// Results returns the check result store.
func (e *Engine) Results() *storage.ResultStore {
	return e.results
}
