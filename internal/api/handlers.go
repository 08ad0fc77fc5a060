// Package api provides public endpoints for system health and connectivity.
//
// These endpoints are designed to be lightweight, fast, and reliable for external monitoring
// systems (e.g., load balancers, uptime monitors, observability tools).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

// Handler manages public endpoints.
type Handler struct {
	engine    *core.Engine
	storage   *storage.Storage
	cache     cache.Cache
	startTime time.Time
}

// NewHandler initializes a new public API handler.
//
// Parameters:
//   - engine: Core monitoring engine (maybe nil in test environments)
//   - storage: Database storage layer (maybe nil in test environments)
//   - c: Cache backing stats and in-flight locks (maybe nil)
func NewHandler(engine *core.Engine, storage *storage.Storage, c cache.Cache) *Handler {
	return &Handler{
		engine:    engine,
		storage:   storage,
		cache:     c,
		startTime: time.Now(),
	}
}

// Ping handles GET /ping
//
// A lightweight endpoint for basic connectivity verification.
//
// Response:
//   - 200 OK with {"message": "pong"}
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Health handles GET /health
//
// Reports the state of the database, the cache and the scheduling engine.
// Overall status is "healthy" only if database and engine are healthy; a
// failing cache degrades nothing but latency, so it is reported without
// affecting the overall status.
//
// Response:
//   - 200 OK with a healthy report
//   - 503 Service Unavailable when degraded
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus, dbResponseTime := h.checkDatabaseHealth(ctx)
	cacheStatus := h.checkCacheHealth(ctx)
	engineStatus := h.checkEngineHealth()

	overallStatus := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" || engineStatus != "healthy" {
		overallStatus = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
		"components": gin.H{
			"database": gin.H{
				"status":           dbStatus,
				"response_time_ms": dbResponseTime,
			},
			"cache": gin.H{
				"status": cacheStatus,
			},
			"engine": gin.H{
				"status": engineStatus,
			},
		},
	})
}

// checkDatabaseHealth pings the database and measures the round trip.
func (h *Handler) checkDatabaseHealth(ctx context.Context) (string, int64) {
	if h.storage == nil {
		return "unhealthy", 0
	}

	start := time.Now()
	err := h.storage.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()
	if err != nil {
		return "unhealthy", responseTime
	}

	return "healthy", responseTime
}

func (h *Handler) checkCacheHealth(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	if _, ok := h.cache.(cache.Disabled); ok {
		return "disabled"
	}
	if err := h.cache.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (h *Handler) checkEngineHealth() string {
	if h.engine == nil || !h.engine.IsRunning() {
		return "unhealthy"
	}
	return "healthy"
}
