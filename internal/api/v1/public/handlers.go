// Package public implements the unauthenticated, read-only status endpoints.
//
// Only active projects flagged public are visible, together with their active
// monitors. Anything else is reported as not found.
package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/types"
	"pulsewatch/internal/api/v1/monitors"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

// Handler serves the public status endpoints.
type Handler struct {
	engine *core.Engine
}

// NewHandler creates a public handler backed by engine.
func NewHandler(engine *core.Engine) *Handler {
	return &Handler{engine: engine}
}

// ListProjects handles GET /api/v1/public/projects
func (h *Handler) ListProjects(c *gin.Context) {
	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	registry := h.engine.Registry()

	total, err := registry.CountPublicProjects(ctx)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	projects, err := registry.ListPublicProjects(ctx, pagination.Offset(), pagination.PageSize)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, toProjectResponse(&projects[i]))
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(responses, types.NewPagination(pagination, total)))
}

// GetProject handles GET /api/v1/public/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.engine.Registry().GetPublicProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(toProjectResponse(project)))
}

// ProjectMonitors handles GET /api/v1/public/projects/:id/monitors
func (h *Handler) ProjectMonitors(c *gin.Context) {
	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	registry := h.engine.Registry()

	project, err := registry.GetPublicProject(ctx, c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	total, err := registry.CountPublicMonitors(ctx, project.ID)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	list, err := registry.ListPublicMonitors(ctx, project.ID, pagination.Offset(), pagination.PageSize)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	responses := make([]MonitorResponse, 0, len(list))
	for i := range list {
		responses = append(responses, toMonitorResponse(&list[i]))
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(responses, types.NewPagination(pagination, total)))
}

// GetMonitor handles GET /api/v1/public/monitors/:id
func (h *Handler) GetMonitor(c *gin.Context) {
	monitor, ok := h.publicMonitor(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(toMonitorResponse(monitor)))
}

// Stats handles GET /api/v1/public/monitors/:id/stats
//
// Same window rules as the authenticated stats endpoint.
func (h *Handler) Stats(c *gin.Context) {
	from, err := types.OptionalTimestamp(c, "from_ts")
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}
	to, err := types.OptionalTimestamp(c, "to_ts")
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	monitor, ok := h.publicMonitor(c)
	if !ok {
		return
	}

	snapshot, err := h.engine.Stats(c.Request.Context(), monitor.ID, from, to)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(snapshot))
}

// Checks handles GET /api/v1/public/monitors/:id/checks
func (h *Handler) Checks(c *gin.Context) {
	limit, err := types.QueryLimit(c, monitors.DefaultRecentLimit)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	monitor, ok := h.publicMonitor(c)
	if !ok {
		return
	}

	results, err := h.engine.Results().Recent(c.Request.Context(), monitor.ID, limit)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(monitors.ToResultResponses(results)))
}

// ChecksHistory handles GET /api/v1/public/monitors/:id/checks-history
func (h *Handler) ChecksHistory(c *gin.Context) {
	from, err := types.RequiredTimestamp(c, "from_ts")
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}
	to, err := types.RequiredTimestamp(c, "to_ts")
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	monitor, ok := h.publicMonitor(c)
	if !ok {
		return
	}

	results, err := h.engine.Results().InRange(c.Request.Context(), monitor.ID, from, to)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(monitors.ToResultResponses(results)))
}

func (h *Handler) publicMonitor(c *gin.Context) (*storage.Monitor, bool) {
	monitor, err := h.engine.Registry().GetPublicMonitor(c.Request.Context(), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return nil, false
	}
	return monitor, true
}
