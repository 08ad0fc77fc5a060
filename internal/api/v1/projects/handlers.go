// Package projects implements HTTP handlers for project management.
//
// Every handler is scoped to the caller identity: projects owned by someone
// else are reported as not found.
package projects

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/auth"
	"pulsewatch/internal/api/types"
	"pulsewatch/internal/storage"
)

// Handler manages project endpoints.
type Handler struct {
	registry *storage.Registry
}

// NewHandler creates a project handler over registry.
func NewHandler(registry *storage.Registry) *Handler {
	return &Handler{registry: registry}
}

// Create handles POST /api/v1/projects
//
// The caller becomes the owner. Projects are active unless is_active=false.
//
// Returns:
//   - 201 Created with the project
//   - 400 Bad Request for invalid input
func (h *Handler) Create(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	project := &storage.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     auth.OwnerID(c),
		IsActive:    true,
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}

	if err := h.registry.CreateProject(c.Request.Context(), project); err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	c.JSON(http.StatusCreated, types.SuccessResponse(toResponse(project)))
}

// Get handles GET /api/v1/projects/:id
func (h *Handler) Get(c *gin.Context) {
	project, err := h.registry.GetOwnedProject(c.Request.Context(), auth.OwnerID(c), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(toResponse(project)))
}

// List handles GET /api/v1/projects
//
// Query parameters:
//   - page (default: 1)
//   - page_size (default: 50, max: 1000)
func (h *Handler) List(c *gin.Context) {
	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	owner := auth.OwnerID(c)

	total, err := h.registry.CountOwnedProjects(ctx, owner)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	projects, err := h.registry.ListOwnedProjects(ctx, owner, pagination.Offset(), pagination.PageSize)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, toResponse(&projects[i]))
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(responses, types.NewPagination(pagination, total)))
}

// Update handles PATCH /api/v1/projects/:id
//
// Edits name, description, and the active and public flags. Deactivating a
// project deactivates all of its monitors.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}
	if req.empty() {
		types.AbortWithError(c, types.ValidationError("no fields to update"))
		return
	}

	ctx := c.Request.Context()
	project, err := h.registry.GetOwnedProject(ctx, auth.OwnerID(c), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	project, err = h.registry.UpdateProject(ctx, project.ID, storage.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(toResponse(project)))
}

// BulkSetStatus handles PUT /api/v1/projects/bulk-set-status
//
// Either every listed project belongs to the caller and all are updated, or
// nothing changes and 404 is returned.
func (h *Handler) BulkSetStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	n, err := h.registry.SetProjectsActive(c.Request.Context(), auth.OwnerID(c), req.IDs, *req.IsActive)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(BulkStatusResponse{Updated: n}))
}
