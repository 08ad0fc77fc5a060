package public

import (
	"time"

	"pulsewatch/internal/storage"
)

// ProjectResponse is the unauthenticated view of a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MonitorResponse is the unauthenticated view of a monitor.
type MonitorResponse struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	Name             string    `json:"name"`
	TargetURL        string    `json:"target_url"`
	CheckIntervalSec int       `json:"check_interval_sec"`
	IsActive         bool      `json:"is_active"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toProjectResponse(p *storage.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toMonitorResponse(m *storage.Monitor) MonitorResponse {
	return MonitorResponse{
		ID:               m.ID,
		ProjectID:        m.ProjectID,
		Name:             m.Name,
		TargetURL:        m.TargetURL,
		CheckIntervalSec: m.CheckIntervalSec,
		IsActive:         m.IsActive,
		UpdatedAt:        m.UpdatedAt,
	}
}
