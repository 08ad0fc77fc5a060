// Package monitors implements HTTP handlers for monitor management, on-demand
// checks, check history and availability stats.
//
// Monitors are reached through their project's owner: a monitor whose project
// belongs to another caller is reported as not found.
package monitors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/auth"
	"pulsewatch/internal/api/types"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

// DefaultRecentLimit is the number of checks returned when no limit is given.
const DefaultRecentLimit = 20

// Handler manages monitor endpoints.
type Handler struct {
	engine *core.Engine
}

// NewHandler creates a monitor handler backed by engine.
func NewHandler(engine *core.Engine) *Handler {
	return &Handler{engine: engine}
}

// Create handles POST /api/v1/projects/:id/monitors
//
// Returns:
//   - 201 Created with the monitor
//   - 400 Bad Request for an invalid name, target or interval
//   - 404 Not Found if the project is missing or not owned
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	project, err := h.engine.Registry().GetOwnedProject(ctx, auth.OwnerID(c), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	monitor := &storage.Monitor{
		ProjectID:        project.ID,
		Name:             req.Name,
		TargetURL:        req.TargetURL,
		CheckIntervalSec: req.CheckIntervalSec,
		IsActive:         true,
	}
	if req.IsActive != nil {
		monitor.IsActive = *req.IsActive
	}

	if err := h.engine.Registry().CreateMonitor(ctx, monitor); err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusCreated, types.SuccessResponse(ToMonitorResponse(monitor)))
}

// ListByProject handles GET /api/v1/projects/:id/monitors
//
// Query parameters:
//   - page (default: 1)
//   - page_size (default: 50, max: 1000)
func (h *Handler) ListByProject(c *gin.Context) {
	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	registry := h.engine.Registry()

	project, err := registry.GetOwnedProject(ctx, auth.OwnerID(c), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	total, err := registry.CountProjectMonitors(ctx, project.ID)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "project"))
		return
	}

	monitors, err := registry.ListProjectMonitors(ctx, project.ID, pagination.Offset(), pagination.PageSize)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	responses := make([]MonitorResponse, 0, len(monitors))
	for i := range monitors {
		responses = append(responses, ToMonitorResponse(&monitors[i]))
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(responses, types.NewPagination(pagination, total)))
}

// Get handles GET /api/v1/monitors/:id
func (h *Handler) Get(c *gin.Context) {
	monitor, ok := h.ownedMonitor(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(ToMonitorResponse(monitor)))
}

// Update handles PATCH /api/v1/monitors/:id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	monitor, ok := h.ownedMonitor(c)
	if !ok {
		return
	}

	updated, err := h.engine.Registry().UpdateMonitor(c.Request.Context(), monitor.ID, storage.MonitorUpdate{
		Name:             req.Name,
		TargetURL:        req.TargetURL,
		CheckIntervalSec: req.CheckIntervalSec,
		IsActive:         req.IsActive,
	})
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(ToMonitorResponse(updated)))
}

// BulkSetStatus handles PUT /api/v1/monitors/bulk-set-status
//
// Either every listed monitor belongs to the caller and all are updated, or
// nothing changes and 404 is returned.
func (h *Handler) BulkSetStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	n, err := h.engine.Registry().SetMonitorsActive(c.Request.Context(), auth.OwnerID(c), req.IDs, *req.IsActive)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(BulkStatusResponse{Updated: n}))
}

// RunCheck handles POST /api/v1/monitors/:id/check
//
// Probes the target immediately and records the outcome. A down target is a
// successful request whose result has is_up=false.
func (h *Handler) RunCheck(c *gin.Context) {
	monitor, ok := h.ownedMonitor(c)
	if !ok {
		return
	}

	result, err := h.engine.RunCheck(c.Request.Context(), monitor)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusCreated, types.SuccessResponse(ToResultResponse(result)))
}

// Checks handles GET /api/v1/monitors/:id/checks
//
// Query parameters:
//   - limit (default: 20, range: 1-1000)
func (h *Handler) Checks(c *gin.Context) {
	limit, err := types.QueryLimit(c, DefaultRecentLimit)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	monitor, ok := h.ownedMonitor(c)
	if !ok {
		return
	}

	results, err := h.engine.Results().Recent(c.Request.Context(), monitor.ID, limit)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(ToResultResponses(results)))
}

// ChecksHistory handles GET /api/v1/monitors/:id/checks-history
//
// Both from_ts and to_ts are required RFC3339 timestamps; the window is
// inclusive and results are returned oldest first.
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

	monitor, ok := h.ownedMonitor(c)
	if !ok {
		return
	}

	results, err := h.engine.Results().InRange(c.Request.Context(), monitor.ID, from, to)
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(ToResultResponses(results)))
}

// Stats handles GET /api/v1/monitors/:id/stats
//
// from_ts and to_ts are optional; the default window is the last 24 hours.
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

	monitor, ok := h.ownedMonitor(c)
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

// ownedMonitor loads the :id monitor if the caller owns its project, writing
// the error response otherwise.
func (h *Handler) ownedMonitor(c *gin.Context) (*storage.Monitor, bool) {
	monitor, err := h.engine.Registry().GetOwnedMonitor(c.Request.Context(), auth.OwnerID(c), c.Param("id"))
	if err != nil {
		types.AbortWithError(c, types.FromError(err, "monitor"))
		return nil, false
	}
	return monitor, true
}
