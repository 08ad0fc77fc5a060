// Package checks executes outbound probes against monitor targets.
//
// A probe is a single request whose outcome is classified as up or down.
// Target failures are never errors: they are data recorded in the outcome.
//
// Example usage:
//
//	manager := checks.NewManager(cfg.Checks)
//	outcome, err := manager.Probe(ctx, monitor.TargetURL)
package checks

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/config"
	"pulsewatch/internal/storage"
)

// Prober performs one probe of target bounded by timeout.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration) (storage.Outcome, error)
}

// Manager routes probes to the prober registered for the target's scheme
// and applies the configured default timeout.
type Manager struct {
	probers map[string]Prober
	timeout time.Duration
}

// NewManager creates a manager with the HTTP prober registered for http and https.
func NewManager(cfg config.ChecksConfig) *Manager {
	m := &Manager{
		probers: make(map[string]Prober),
		timeout: cfg.HTTP.Timeout,
	}

	httpProber := NewHTTPProber(cfg.HTTP)
	m.register("http", httpProber)
	m.register("https", httpProber)

	return m
}

func (m *Manager) register(scheme string, p Prober) {
	m.probers[scheme] = p
	log.Debug().Str("scheme", scheme).Msg("Prober registered")
}

// Timeout returns the default probe timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Probe checks target once with the default timeout.
func (m *Manager) Probe(ctx context.Context, target string) (storage.Outcome, error) {
	if err := storage.ValidateTargetURL(target); err != nil {
		return storage.Outcome{}, err
	}

	u, _ := url.Parse(target)
	p, ok := m.probers[strings.ToLower(u.Scheme)]
	if !ok {
		return storage.Outcome{}, storage.NewValidationError("target_url", "unsupported scheme %q", u.Scheme)
	}

	outcome, err := p.Probe(ctx, target, m.timeout)
	if err != nil {
		return outcome, err
	}

	event := log.Debug().Str("target", target).Bool("is_up", outcome.IsUp)
	if outcome.StatusCode != nil {
		event = event.Int("status_code", *outcome.StatusCode)
	}
	if outcome.LatencyMs != nil {
		event = event.Int("latency_ms", *outcome.LatencyMs)
	}
	if outcome.ErrorMessage != nil {
		event = event.Str("error", *outcome.ErrorMessage)
	}
	event.Msg("Probe completed")

	return outcome, nil
}
