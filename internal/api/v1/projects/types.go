package projects

import (
	"time"

	"pulsewatch/internal/storage"
)

// ProjectRequest is the payload of POST /api/v1/projects.
type ProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// UpdateRequest is the payload of PATCH /api/v1/projects/:id.
// Omitted fields keep their current value; at least one must be given.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.Description == nil && r.IsActive == nil && r.IsPublic == nil
}

// BulkStatusRequest is the payload of PUT /api/v1/projects/bulk-set-status.
type BulkStatusRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1,max=1000,dive,required"`
	IsActive *bool    `json:"is_active" binding:"required"`
}

// BulkStatusResponse reports how many projects changed.
type BulkStatusResponse struct {
	Updated int64 `json:"updated"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(p *storage.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		IsActive:    p.IsActive,
		IsPublic:    p.IsPublic,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
