// Package api provides HTTP API functionality for the Pulsewatch service.
// This package implements a RESTful API using Gin framework
//
// Example usage:
//
//	server := api.NewServer(cfg.Server, engine, store, c)
//	err := server.Start()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/config"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

// Server represents the HTTP API server.
type Server struct {
	config  config.ServerConfig
	engine  *core.Engine
	storage *storage.Storage
	cache   cache.Cache
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP API server instance.
//
// Parameters:
//   - cfg: Server configuration containing address, timeouts and JWT settings
//   - engine: Core monitoring engine instance
//   - storage: Storage instance used by health checks
//   - c: Cache instance used by health checks
func NewServer(cfg config.ServerConfig, engine *core.Engine, storage *storage.Storage, c cache.Cache) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:  cfg,
		engine:  engine,
		storage: storage,
		cache:   c,
		router:  gin.New(),
	}

	// Setup middleware and routes
	server.setupMiddleware()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// setupMiddleware configures middleware for the Gin router.
func (s *Server) setupMiddleware() {
	// Request ID middleware (should be first)
	s.router.Use(RequestID())

	s.router.Use(PanicRecovery())

	s.router.Use(LoggerMiddleware())
}
