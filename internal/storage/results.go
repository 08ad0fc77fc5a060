package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ResultStore is the append-only log of check outcomes.
//
// It exposes no update or delete operations. Within one monitor, rows are
// ordered by (checked_at, id) so append order survives equal timestamps.
type ResultStore struct {
	db *gorm.DB
}

// NewResultStore creates a result store backed by s.
func NewResultStore(s *Storage) *ResultStore {
	return &ResultStore{db: s.DB()}
}

// Append persists one immutable result for monitorID.
//
// When at is nil the current UTC time is used. The stored timestamp is
// always normalized to UTC.
func (r *ResultStore) Append(ctx context.Context, monitorID string, outcome Outcome, at *time.Time) (*CheckResult, error) {
	checkedAt := time.Now().UTC()
	if at != nil {
		checkedAt = at.UTC()
	}

	result := &CheckResult{
		MonitorID:      monitorID,
		CheckedAt:      checkedAt,
		IsUp:           outcome.IsUp,
		StatusCode:     outcome.StatusCode,
		ResponseTimeMs: outcome.LatencyMs,
	}
	if outcome.ErrorMessage != nil {
		msg := truncateMessage(*outcome.ErrorMessage)
		result.ErrorMessage = &msg
	}

	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return nil, fmt.Errorf("failed to append check result for monitor %s: %w", monitorID, err)
	}

	return result, nil
}

// Recent returns up to limit results for monitorID, newest first.
func (r *ResultStore) Recent(ctx context.Context, monitorID string, limit int) ([]CheckResult, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}

	var results []CheckResult
	if err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent results for monitor %s: %w", monitorID, err)
	}

	return results, nil
}

// InRange returns results for monitorID with from <= checked_at <= to, oldest first.
func (r *ResultStore) InRange(ctx context.Context, monitorID string, from, to time.Time) ([]CheckResult, error) {
	if err := ValidateWindow(from, to); err != nil {
		return nil, err
	}

	var results []CheckResult
	if err := r.db.WithContext(ctx).
		Where("monitor_id = ? AND checked_at >= ? AND checked_at <= ?", monitorID, from.UTC(), to.UTC()).
		Order("checked_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to load results in range for monitor %s: %w", monitorID, err)
	}

	return results, nil
}

// Latest returns the most recent result for monitorID, or nil if it was never checked.
func (r *ResultStore) Latest(ctx context.Context, monitorID string) (*CheckResult, error) {
	var results []CheckResult
	if err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to load latest result for monitor %s: %w", monitorID, err)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}
