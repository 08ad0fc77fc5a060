package config

import "github.com/spf13/viper"

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.jwt.issuer", "")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "pulsewatch.db")
	v.SetDefault("storage.max_open_conns", 32)
	v.SetDefault("storage.max_idle_conns", 8)
	v.SetDefault("storage.conn_max_lifetime", "1h")

	// Cache defaults
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.dial_timeout", "5s")

	// Scheduler defaults
	v.SetDefault("scheduler.worker_count", 8)
	v.SetDefault("scheduler.tick_interval", "5s")
	v.SetDefault("scheduler.inflight_ttl", "30s")

	// Check defaults
	v.SetDefault("checks.http.timeout", "10s")
	v.SetDefault("checks.http.user_agent", "Pulsewatch-Monitor/1.0")
	v.SetDefault("checks.http.max_redirects", 10)

	// Monitor bounds
	v.SetDefault("monitors.min_interval", "10s")
	v.SetDefault("monitors.max_interval", "24h")

	// Stats defaults
	v.SetDefault("stats.cache_ttl", "5s")
	v.SetDefault("stats.default_window", "24h")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
