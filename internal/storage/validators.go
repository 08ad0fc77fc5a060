// Package storage provides validation functions for database entities.
package storage

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinRecentLimit and MaxRecentLimit bound ResultStore.Recent.
	MinRecentLimit = 1
	MaxRecentLimit = 1000

	maxProjectName  = 100
	maxMonitorName  = 200
	maxTargetURL    = 500
	maxErrorMessage = 1000
)

// IntervalBounds limits the check interval a monitor may be configured with.
type IntervalBounds struct {
	Min time.Duration
	Max time.Duration
}

// DefaultIntervalBounds allows intervals between 10 seconds and one day.
var DefaultIntervalBounds = IntervalBounds{Min: 10 * time.Second, Max: 24 * time.Hour}

// ValidateProject validates a Project entity before database operations.
func ValidateProject(p *Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if utf8.RuneCountInString(p.Name) > maxProjectName {
		return NewValidationError("name", "too long (max %d chars)", maxProjectName)
	}
	if p.OwnerID == "" {
		return NewValidationError("owner_id", "cannot be empty")
	}
	return nil
}

// ValidateMonitor validates a Monitor entity before database operations.
func ValidateMonitor(m *Monitor, bounds IntervalBounds) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if utf8.RuneCountInString(m.Name) > maxMonitorName {
		return NewValidationError("name", "too long (max %d chars)", maxMonitorName)
	}

	if err := ValidateTargetURL(m.TargetURL); err != nil {
		return err
	}

	minSec := int(bounds.Min / time.Second)
	maxSec := int(bounds.Max / time.Second)
	if m.CheckIntervalSec < minSec || m.CheckIntervalSec > maxSec {
		return NewValidationError("check_interval_sec", "must be between %d and %d", minSec, maxSec)
	}

	return nil
}

// ValidateTargetURL checks that raw is an absolute http or https URL with a host.
func ValidateTargetURL(raw string) error {
	if raw == "" {
		return NewValidationError("target_url", "cannot be empty")
	}
	if len(raw) > maxTargetURL {
		return NewValidationError("target_url", "too long (max %d chars)", maxTargetURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return NewValidationError("target_url", "malformed: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("target_url", "scheme must be http or https")
	}
	if u.Host == "" || u.Hostname() == "" {
		return NewValidationError("target_url", "host cannot be empty")
	}

	return nil
}

// ValidateLimit checks a history page size.
func ValidateLimit(limit int) error {
	if limit < MinRecentLimit || limit > MaxRecentLimit {
		return NewValidationError("limit", "must be between %d and %d", MinRecentLimit, MaxRecentLimit)
	}
	return nil
}

// ValidateWindow rejects windows whose start is after their end.
func ValidateWindow(from, to time.Time) error {
	if from.After(to) {
		return NewValidationError("from_ts", "must not be after to_ts")
	}
	return nil
}

// truncateMessage caps an error message at the column width, on a rune boundary.
func truncateMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= maxErrorMessage {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:maxErrorMessage])
}
