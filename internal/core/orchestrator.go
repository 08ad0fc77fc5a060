package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/storage"
)

// Prober runs one probe against a target using the default timeout.
type Prober interface {
	Probe(ctx context.Context, target string) (storage.Outcome, error)
}

// ResultAppender persists check outcomes.
type ResultAppender interface {
	Append(ctx context.Context, monitorID string, outcome storage.Outcome, at *time.Time) (*storage.CheckResult, error)
}

// StatsInvalidator drops derived stats for a monitor once new data is recorded.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, monitorID string)
}

// CheckRunner executes one check of a monitor.
type CheckRunner interface {
	RunCheck(ctx context.Context, m *storage.Monitor) (*storage.CheckResult, error)
}

// Orchestrator runs a single check end to end: probe, persist, invalidate.
type Orchestrator struct {
	prober  Prober
	results ResultAppender
	stats   StatsInvalidator
}

// NewOrchestrator wires the check pipeline.
func NewOrchestrator(prober Prober, results ResultAppender, stats StatsInvalidator) *Orchestrator {
	return &Orchestrator{
		prober:  prober,
		results: results,
		stats:   stats,
	}
}

// RunCheck probes m, records the outcome and invalidates m's cached stats.
//
// A target that is down is a normal recorded result. RunCheck fails only when
// the target URL is malformed or the result cannot be persisted.
func (o *Orchestrator) RunCheck(ctx context.Context, m *storage.Monitor) (*storage.CheckResult, error) {
	log.Debug().Str("monitor_id", m.ID).Str("target_url", m.TargetURL).Msg("Executing check")

	outcome, err := o.prober.Probe(ctx, m.TargetURL)
	if err != nil {
		return nil, err
	}

	result, err := o.results.Append(ctx, m.ID, outcome, nil)
	if err != nil {
		log.Error().Str("monitor_id", m.ID).Err(err).Msg("Failed to save check result")
		return nil, fmt.Errorf("failed to persist check result: %w", err)
	}

	o.stats.Invalidate(ctx, m.ID)

	event := log.Debug()
	if !result.IsUp {
		event = log.Info()
	}
	event.Str("monitor_id", m.ID).Bool("is_up", result.IsUp).Int64("result_id", result.ID).Msg("Check completed")

	return result, nil
}
