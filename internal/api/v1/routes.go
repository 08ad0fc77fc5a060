package v1

import (
	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/auth"
	"pulsewatch/internal/api/v1/monitors"
	"pulsewatch/internal/api/v1/projects"
	"pulsewatch/internal/api/v1/public"
	"pulsewatch/internal/core"
)

// SetupRoutes configures API routes.
func SetupRoutes(routerGroup *gin.RouterGroup, engine *core.Engine) {
	// Initialize handlers
	projectsHandler := projects.NewHandler(engine.Registry())
	monitorsHandler := monitors.NewHandler(engine)

	routerGroup.GET("/auth/me", auth.Me)

	// Projects management
	projectsGroup := routerGroup.Group("/projects")
	{
		projectsGroup.POST("", projectsHandler.Create)
		projectsGroup.GET("", projectsHandler.List)
		projectsGroup.PUT("/bulk-set-status", projectsHandler.BulkSetStatus)
		projectsGroup.GET("/:id", projectsHandler.Get)
		projectsGroup.PATCH("/:id", projectsHandler.Update)
		projectsGroup.POST("/:id/monitors", monitorsHandler.Create)
		projectsGroup.GET("/:id/monitors", monitorsHandler.ListByProject)
	}

	// Monitors management
	monitorsGroup := routerGroup.Group("/monitors")
	{
		monitorsGroup.PUT("/bulk-set-status", monitorsHandler.BulkSetStatus)
		monitorsGroup.GET("/:id", monitorsHandler.Get)
		monitorsGroup.PATCH("/:id", monitorsHandler.Update)
		monitorsGroup.POST("/:id/check", monitorsHandler.RunCheck)
		monitorsGroup.GET("/:id/checks", monitorsHandler.Checks)
		monitorsGroup.GET("/:id/checks-history", monitorsHandler.ChecksHistory)
		monitorsGroup.GET("/:id/stats", monitorsHandler.Stats)
	}
}

// SetupPublicRoutes configures the read-only routes served without authentication.
func SetupPublicRoutes(routerGroup *gin.RouterGroup, engine *core.Engine) {
	publicHandler := public.NewHandler(engine)

	routerGroup.GET("/projects", publicHandler.ListProjects)
	routerGroup.GET("/projects/:id", publicHandler.GetProject)
	routerGroup.GET("/projects/:id/monitors", publicHandler.ProjectMonitors)
	routerGroup.GET("/monitors/:id", publicHandler.GetMonitor)
	routerGroup.GET("/monitors/:id/stats", publicHandler.Stats)
	routerGroup.GET("/monitors/:id/checks", publicHandler.Checks)
	routerGroup.GET("/monitors/:id/checks-history", publicHandler.ChecksHistory)
}
