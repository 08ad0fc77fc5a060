package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulsewatch/internal/storage"
)

// LatestReader returns the most recent result of a monitor, or nil if it was never checked.
type LatestReader interface {
	Latest(ctx context.Context, monitorID string) (*storage.CheckResult, error)
}

// Selector decides which monitors are due for a check.
type Selector struct {
	results LatestReader
}

// NewSelector creates a selector reading last-check times from results.
func NewSelector(results LatestReader) *Selector {
	return &Selector{results: results}
}

// IsDue reports whether a monitor last checked at latest is due at now.
// A monitor without any result is always due.
func IsDue(interval time.Duration, latest *storage.CheckResult, now time.Time) bool {
	if latest == nil {
		return true
	}
	elapsed := now.UTC().Sub(latest.CheckedAt.UTC())
	return elapsed >= interval
}

// SelectDue returns the active monitors in monitors that are due at now.
//
// A failure reading one monitor's latest result excludes only that monitor;
// all such failures are joined into the returned error alongside the due set.
func (s *Selector) SelectDue(ctx context.Context, monitors []storage.Monitor, now time.Time) ([]storage.Monitor, error) {
	due := make([]storage.Monitor, 0, len(monitors))
	var errs []error

	for _, m := range monitors {
		if !m.IsActive {
			continue
		}

		ok, err := s.Due(ctx, &m, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("monitor %s: %w", m.ID, err))
			continue
		}
		if ok {
			due = append(due, m)
		}
	}

	return due, errors.Join(errs...)
}

// Due reports whether m is due at now according to its latest stored result.
func (s *Selector) Due(ctx context.Context, m *storage.Monitor, now time.Time) (bool, error) {
	latest, err := s.results.Latest(ctx, m.ID)
	if err != nil {
		return false, err
	}
	return IsDue(m.Interval(), latest, now), nil
}
