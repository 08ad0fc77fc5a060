// Package main provides the entry point for the Pulsewatch uptime monitoring service.
//
// Pulsewatch periodically probes HTTP targets, records every outcome and
// serves availability statistics over a JSON API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"pulsewatch/internal/config"
	"pulsewatch/internal/logger"
	"pulsewatch/internal/server"
)

// Version information set during build time
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// main is the entry point of the Pulsewatch service.
//
// The startup sequence is as follows:
//  1. Load configuration
//  2. Initialize logger
//  3. Setup graceful shutdown handling
//  4. Start the main server
func main() {
	// Load application configuration (fails fast on error)
	cfg := loadConfig()

	logger.Setup(cfg.Log)
	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("build_time", BuildTime).
		Msg("Starting Pulsewatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Start(ctx); err != nil {
		log.Error().Err(err).Msg("Pulsewatch stopped with error")
		stop()
		os.Exit(1)
	}
}

// loadConfig loads application configuration and terminates the program
// immediately if configuration cannot be loaded.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().
			Err(err).
			Msg("Failed to load configuration")
	}
	return cfg
}
