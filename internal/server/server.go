// Package server coordinates the startup and shutdown of all Pulsewatch components:
//   - Storage initialization and migration
//   - Cache connection
//   - Monitoring engine startup
//   - HTTP API server management
//   - Graceful shutdown handling
//
// The server follows a structured lifecycle:
//  1. Storage initialization
//  2. Cache initialization
//  3. Core engine startup
//  4. HTTP API server launch
//  5. Graceful shutdown in reverse order
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/api"
	"pulsewatch/internal/cache"
	"pulsewatch/internal/config"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

// shutdownTimeout bounds the graceful shutdown sequence.
const shutdownTimeout = 30 * time.Second

// Server represents the main Pulsewatch server orchestrator.
type Server struct {
	// cfg holds the application configuration
	cfg *config.Config
}

// New creates a new server instance with the provided configuration.
//
// The server is not started until Start() is called.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start initializes and starts all server components in the correct order.
//
// This method blocks until:
//   - A fatal error occurs during startup
//   - The provided context is cancelled (shutdown signal)
//   - The HTTP server encounters an unrecoverable error
//
// Returns an error if any component fails to start or stop gracefully.
func (s *Server) Start(ctx context.Context) error {
	// Phase 1: storage, everything else depends on it
	store, err := storage.New(s.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()
	log.Info().Str("driver", s.cfg.Storage.Driver).Msg("Storage initialized")

	// Phase 2: cache for stats snapshots and in-flight locks
	c, err := cache.New(s.cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close cache")
		}
	}()
	log.Info().Str("driver", s.cfg.Cache.Driver).Msg("Cache initialized")

	// Phase 3: monitoring engine
	engine := core.NewEngine(s.cfg, store, c)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	// Phase 4: HTTP API
	apiServer := api.NewServer(s.cfg.Server, engine, store, c)

	// Buffered so the goroutine never leaks if nobody reads
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests first, then drain running checks
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
		if runErr == nil {
			runErr = fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
	}
	engine.Stop()

	if runErr != nil {
		return runErr
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}
