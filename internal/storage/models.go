// Package storage defines the data models for the Pulsewatch service.
//
// Struct tags describe the GORM column mapping; AutoMigrate creates the
// tables, foreign keys and indexes from them.
package storage

import (
	"time"
)

// Project groups monitors under a single owner.
//
// A project's active flag dominates its monitors: monitors of an inactive
// project are never scheduled.
type Project struct {
	// ID is a UUID assigned on creation
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// Name is a human-readable label (1-100 chars)
	Name string `gorm:"size:100;not null" json:"name"`

	Description *string `gorm:"type:text" json:"description,omitempty"`

	// OwnerID is the opaque caller identity issued by the identity service
	OwnerID string `gorm:"size:128;not null;index" json:"owner_id"`

	IsActive bool `gorm:"not null" json:"is_active"`

	// IsPublic exposes an active project and its active monitors read-only
	// without authentication
	IsPublic bool `gorm:"not null;default:false;index" json:"is_public"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Monitors []Monitor `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Monitor represents an HTTP target checked on a recurring interval.
type Monitor struct {
	// ID is a UUID assigned on creation
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// ProjectID references the owning project
	ProjectID string `gorm:"type:varchar(36);not null;index" json:"project_id"`

	Name string `gorm:"size:200;not null" json:"name"`

	// TargetURL is an absolute http or https URL
	TargetURL string `gorm:"size:500;not null" json:"target_url"`

	// CheckIntervalSec is how often the monitor is due, in seconds
	CheckIntervalSec int `gorm:"not null" json:"check_interval_sec"`

	IsActive bool `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	CheckResults []CheckResult `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Interval returns the configured check interval as a duration.
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.CheckIntervalSec) * time.Second
}

// CheckResult is one immutable entry of the check event log.
//
// Rows are only ever inserted; they disappear solely through cascading
// monitor deletion. The (monitor_id, checked_at) index serves latest and
// range lookups.
type CheckResult struct {
	// ID is auto-incremented and breaks ties between equal timestamps
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	MonitorID string `gorm:"type:varchar(36);not null;index:idx_check_results_monitor_checked,priority:1" json:"monitor_id"`

	// CheckedAt is stored in UTC
	CheckedAt time.Time `gorm:"not null;index:idx_check_results_monitor_checked,priority:2" json:"checked_at"`

	IsUp bool `gorm:"not null" json:"is_up"`

	// StatusCode is nil when no HTTP response was received
	StatusCode *int `json:"status_code"`

	// ResponseTimeMs is the elapsed wall-clock time of the probe
	ResponseTimeMs *int `json:"response_time_ms"`

	ErrorMessage *string `gorm:"size:1000" json:"error_message"`
}

// Outcome is the classified result of a single probe, before persistence.
type Outcome struct {
	IsUp         bool
	StatusCode   *int
	LatencyMs    *int
	ErrorMessage *string
}

// TableName returns the database table name for Project.
func (*Project) TableName() string {
	return "projects"
}

// TableName returns the database table name for Monitor.
func (*Monitor) TableName() string {
	return "monitors"
}

// TableName returns the database table name for CheckResult.
func (*CheckResult) TableName() string {
	return "check_results"
}
