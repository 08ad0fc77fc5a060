package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/auth"
	"pulsewatch/internal/api/types"
	v1 "pulsewatch/internal/api/v1"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Initialize handlers
	baseHandler := NewHandler(s.engine, s.storage, s.cache)

	// Base api router group
	apiGroup := s.router.Group("/api")

	// Base endpoints (no authentication required)
	apiGroup.GET("/ping", baseHandler.Ping)
	apiGroup.GET("/health", baseHandler.Health)

	// Public status pages (no authentication required)
	v1.SetupPublicRoutes(apiGroup.Group("/v1/public"), s.engine)

	// API v1 routes (protected with authentication)
	v1Group := apiGroup.Group("/v1")
	v1Group.Use(auth.Middleware(s.config.JWT))

	v1.SetupRoutes(v1Group, s.engine)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.NotFoundErrorResponse("route"))
	})
}
