// Package monitors defines API request/response types for monitor endpoints.
package monitors

import (
	"time"

	"pulsewatch/internal/storage"
)

// CreateRequest is the payload of POST /api/v1/projects/:id/monitors.
type CreateRequest struct {
	Name             string `json:"name" binding:"required,max=200"`
	TargetURL        string `json:"target_url" binding:"required,max=500"`
	CheckIntervalSec int    `json:"check_interval_sec" binding:"required"`
	IsActive         *bool  `json:"is_active,omitempty"`
}

// UpdateRequest is the payload of PATCH /api/v1/monitors/:id.
// Omitted fields keep their current value.
type UpdateRequest struct {
	Name             *string `json:"name,omitempty" binding:"omitempty,max=200"`
	TargetURL        *string `json:"target_url,omitempty" binding:"omitempty,max=500"`
	CheckIntervalSec *int    `json:"check_interval_sec,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// BulkStatusRequest is the payload of PUT /api/v1/monitors/bulk-set-status.
type BulkStatusRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1,max=1000,dive,required"`
	IsActive *bool    `json:"is_active" binding:"required"`
}

// BulkStatusResponse reports how many monitors changed.
type BulkStatusResponse struct {
	Updated int64 `json:"updated"`
}

// MonitorResponse represents a monitor in API responses.
type MonitorResponse struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	Name             string    `json:"name"`
	TargetURL        string    `json:"target_url"`
	CheckIntervalSec int       `json:"check_interval_sec"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CheckResultResponse represents one entry of a monitor's check history.
type CheckResultResponse struct {
	ID             int64     `json:"id"`
	MonitorID      string    `json:"monitor_id"`
	CheckedAt      time.Time `json:"checked_at"`
	IsUp           bool      `json:"is_up"`
	StatusCode     *int      `json:"status_code"`
	ResponseTimeMs *int      `json:"response_time_ms"`
	ErrorMessage   *string   `json:"error_message"`
}

// ToMonitorResponse converts a stored monitor.
func ToMonitorResponse(m *storage.Monitor) MonitorResponse {
	return MonitorResponse{
		ID:               m.ID,
		ProjectID:        m.ProjectID,
		Name:             m.Name,
		TargetURL:        m.TargetURL,
		CheckIntervalSec: m.CheckIntervalSec,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ToResultResponse converts a stored check result.
func ToResultResponse(r *storage.CheckResult) CheckResultResponse {
	return CheckResultResponse{
		ID:             r.ID,
		MonitorID:      r.MonitorID,
		CheckedAt:      r.CheckedAt.UTC(),
		IsUp:           r.IsUp,
		StatusCode:     r.StatusCode,
		ResponseTimeMs: r.ResponseTimeMs,
		ErrorMessage:   r.ErrorMessage,
	}
}

// ToResultResponses converts a list of stored check results.
func ToResultResponses(results []storage.CheckResult) []CheckResultResponse {
	out := make([]CheckResultResponse, 0, len(results))
	for i := range results {
		out = append(out, ToResultResponse(&results[i]))
	}
	return out
}
