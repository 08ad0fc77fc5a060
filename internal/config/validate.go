package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validStorageDrivers = []string{"sqlite", "postgres"}
	validCacheDrivers   = []string{"memory", "redis", "none"}
)

// validateConfig validates the configuration and returns an error if invalid.
func validateConfig(c *Config) error {
	for _, validate := range []func() error{
		func() error { return validateServerConfig(c.Server) },
		func() error { return validateStorageConfig(c.Storage) },
		func() error { return validateCacheConfig(c.Cache) },
		func() error { return validateMonitorsConfig(c.Monitors) },
		func() error { return validateChecksConfig(c.Checks) },
		func() error { return validateSchedulerConfig(c.Scheduler, c.Monitors, c.Checks) },
		func() error { return validateStatsConfig(c.Stats, c.Monitors) },
		func() error { return validateLogConfig(c.Log) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServerConfig validates server configuration.
func validateServerConfig(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	_, portStr, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return fmt.Errorf("server.addr invalid format: %w", err)
	}
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("server.addr invalid port: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.addr port out of range (1-65535)")
		}
	}

	if s.ReadTimeout < time.Second || s.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("server.read_timeout must be between 1s and 5m")
	}
	if s.WriteTimeout < time.Second || s.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("server.write_timeout must be between 1s and 5m")
	}
	if s.IdleTimeout <= 0 || s.IdleTimeout > 30*time.Minute {
		return fmt.Errorf("server.idle_timeout must be between 0 and 30m")
	}

	if err := validateJWTConfig(s.JWT); err != nil {
		return fmt.Errorf("server.jwt: %w", err)
	}

	return nil
}

// validateJWTConfig validates JWT configuration.
func validateJWTConfig(j JWTConfig) error {
	if j.Secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}
	if len(j.Secret) < 32 {
		return fmt.Errorf("secret too short (minimum 32 characters for security)")
	}
	return nil
}

// validateStorageConfig validates storage configuration.
func validateStorageConfig(s StorageConfig) error {
	if !slices.Contains(validStorageDrivers, s.Driver) {
		return fmt.Errorf("storage.driver must be one of: %s", strings.Join(validStorageDrivers, ", "))
	}
	if s.DSN == "" {
		return fmt.Errorf("storage.dsn cannot be empty")
	}
	if s.Driver == "sqlite" && strings.Contains(s.DSN, "..") {
		return fmt.Errorf("storage.dsn cannot contain '..' for security")
	}

	if s.MaxOpenConns <= 0 {
		return fmt.Errorf("storage.max_open_conns must be greater than 0")
	}
	if s.MaxOpenConns > 1000 {
		return fmt.Errorf("storage.max_open_conns too large (max 1000)")
	}
	if s.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns cannot be negative")
	}
	if s.MaxIdleConns > s.MaxOpenConns {
		return fmt.Errorf("storage.max_idle_conns cannot be greater than max_open_conns")
	}
	if s.ConnMaxLifetime < time.Minute || s.ConnMaxLifetime > 24*time.Hour {
		return fmt.Errorf("storage.conn_max_lifetime must be between 1m and 24h")
	}

	return nil
}

// validateCacheConfig validates cache configuration.
func validateCacheConfig(c CacheConfig) error {
	if !slices.Contains(validCacheDrivers, c.Driver) {
		return fmt.Errorf("cache.driver must be one of: %s", strings.Join(validCacheDrivers, ", "))
	}
	if c.Driver != "redis" {
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when cache.driver is redis")
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		return fmt.Errorf("cache.redis.db must be between 0 and 15")
	}
	if c.Redis.DialTimeout <= 0 {
		return fmt.Errorf("cache.redis.dial_timeout must be greater than 0")
	}
	return nil
}

// validateMonitorsConfig validates the allowed monitor interval bounds.
func validateMonitorsConfig(m MonitorsConfig) error {
	if m.MinInterval < time.Second {
		return fmt.Errorf("monitors.min_interval too small (min 1s)")
	}
	if m.MaxInterval < m.MinInterval {
		return fmt.Errorf("monitors.max_interval cannot be smaller than min_interval")
	}
	if m.MaxInterval > 7*24*time.Hour {
		return fmt.Errorf("monitors.max_interval too large (max 168h)")
	}
	return nil
}

// validateChecksConfig validates probe defaults.
func validateChecksConfig(c ChecksConfig) error {
	if c.HTTP.Timeout < 100*time.Millisecond {
		return fmt.Errorf("checks.http.timeout too small (min 100ms)")
	}
	if c.HTTP.Timeout > 2*time.Minute {
		return fmt.Errorf("checks.http.timeout too large (max 2m)")
	}
	if c.HTTP.MaxRedirects < 0 || c.HTTP.MaxRedirects > 30 {
		return fmt.Errorf("checks.http.max_redirects must be between 0 and 30")
	}
	return nil
}

// validateSchedulerConfig validates scheduler configuration.
//
// The tick cadence must be at most half the minimum monitor interval to keep
// scheduling jitter bounded, and the in-flight marker must outlive a probe.
func validateSchedulerConfig(s SchedulerConfig, m MonitorsConfig, c ChecksConfig) error {
	if s.WorkerCount <= 0 {
		return fmt.Errorf("scheduler.worker_count must be greater than 0")
	}
	if s.WorkerCount > 1000 {
		return fmt.Errorf("scheduler.worker_count too large (max 1000)")
	}

	if s.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be greater than 0")
	}
	if s.TickInterval > m.MinInterval/2 {
		return fmt.Errorf("scheduler.tick_interval must be at most half of monitors.min_interval (%s)", m.MinInterval/2)
	}

	if s.InflightTTL <= c.HTTP.Timeout {
		return fmt.Errorf("scheduler.inflight_ttl must be greater than checks.http.timeout")
	}

	return nil
}

// validateStatsConfig validates stats aggregation configuration.
func validateStatsConfig(s StatsConfig, m MonitorsConfig) error {
	if s.CacheTTL <= 0 {
		return fmt.Errorf("stats.cache_ttl must be greater than 0")
	}
	if s.CacheTTL >= m.MinInterval {
		return fmt.Errorf("stats.cache_ttl must be shorter than monitors.min_interval")
	}
	if s.DefaultWindow < time.Minute {
		return fmt.Errorf("stats.default_window too small (min 1m)")
	}
	return nil
}

// validateLogConfig validates log configuration.
func validateLogConfig(l LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(l.Level)) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, fatal, panic")
	}
	return nil
}
