package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-jwt-secret-with-at-least-32-characters"

// isolate runs Load against an empty working directory and home.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  time.Minute,
			JWT:          JWTConfig{Secret: testSecret},
		},
		Storage: StorageConfig{
			Driver:          "sqlite",
			DSN:             "pulsewatch.db",
			MaxOpenConns:    32,
			MaxIdleConns:    8,
			ConnMaxLifetime: time.Hour,
		},
		Cache:     CacheConfig{Driver: "memory"},
		Scheduler: SchedulerConfig{WorkerCount: 8, TickInterval: 5 * time.Second, InflightTTL: 30 * time.Second},
		Checks:    ChecksConfig{HTTP: HTTPDefaultsConfig{Timeout: 10 * time.Second, UserAgent: "ua", MaxRedirects: 10}},
		Monitors:  MonitorsConfig{MinInterval: 10 * time.Second, MaxInterval: 24 * time.Hour},
		Stats:     StatsConfig{CacheTTL: 5 * time.Second, DefaultWindow: 24 * time.Hour},
		Log:       LogConfig{Level: "info"},
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	t.Run("Missing JWT secret fails fast", func(t *testing.T) {
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.jwt")
	})

	t.Run("Defaults are applied", func(t *testing.T) {
		t.Setenv("PULSEWATCH_SERVER_JWT_SECRET", testSecret)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "sqlite", cfg.Storage.Driver)
		assert.Equal(t, "pulsewatch.db", cfg.Storage.DSN)
		assert.Equal(t, "memory", cfg.Cache.Driver)
		assert.Equal(t, 8, cfg.Scheduler.WorkerCount)
		assert.Equal(t, 5*time.Second, cfg.Scheduler.TickInterval)
		assert.Equal(t, 30*time.Second, cfg.Scheduler.InflightTTL)
		assert.Equal(t, 10*time.Second, cfg.Checks.HTTP.Timeout)
		assert.Equal(t, 10, cfg.Checks.HTTP.MaxRedirects)
		assert.Equal(t, 10*time.Second, cfg.Monitors.MinInterval)
		assert.Equal(t, 24*time.Hour, cfg.Monitors.MaxInterval)
		assert.Equal(t, 5*time.Second, cfg.Stats.CacheTTL)
		assert.Equal(t, 24*time.Hour, cfg.Stats.DefaultWindow)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Pretty)
	})
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PULSEWATCH_SERVER_JWT_SECRET", testSecret)

	t.Run("Environment variables override defaults", func(t *testing.T) {
		t.Setenv("PULSEWATCH_SERVER_ADDR", ":9090")
		t.Setenv("PULSEWATCH_SCHEDULER_WORKER_COUNT", "16")
		t.Setenv("PULSEWATCH_CHECKS_HTTP_TIMEOUT", "3s")
		t.Setenv("PULSEWATCH_STATS_CACHE_TTL", "2s")
		t.Setenv("PULSEWATCH_LOG_PRETTY", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 16, cfg.Scheduler.WorkerCount)
		assert.Equal(t, 3*time.Second, cfg.Checks.HTTP.Timeout)
		assert.Equal(t, 2*time.Second, cfg.Stats.CacheTTL)
		assert.True(t, cfg.Log.Pretty)
	})

	t.Run("Drivers and levels are normalized", func(t *testing.T) {
		t.Setenv("PULSEWATCH_LOG_LEVEL", "  DEBUG ")
		t.Setenv("PULSEWATCH_CACHE_DRIVER", "None")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "none", cfg.Cache.Driver)
	})

	t.Run("Secrets without defaults are read from the environment", func(t *testing.T) {
		t.Setenv("PULSEWATCH_CACHE_REDIS_PASSWORD", "hunter2")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, testSecret, cfg.Server.JWT.Secret)
		assert.Equal(t, "hunter2", cfg.Cache.Redis.Password)
	})

	t.Run("Invalid environment value fails validation", func(t *testing.T) {
		t.Setenv("PULSEWATCH_SCHEDULER_WORKER_COUNT", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.worker_count")
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)

	t.Run("Config file overrides defaults", func(t *testing.T) {
		content := `
server:
  addr: ":7070"
  jwt:
    secret: "` + testSecret + `"
    issuer: "identity.example.com"
storage:
  driver: postgres
  dsn: "host=localhost user=pulse dbname=pulse"
cache:
  driver: redis
  redis:
    addr: "redis:6379"
    db: 2
scheduler:
  tick_interval: 2s
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
		t.Cleanup(func() { _ = os.Remove(filepath.Join(dir, "config.yaml")) })

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, "identity.example.com", cfg.Server.JWT.Issuer)
		assert.Equal(t, "postgres", cfg.Storage.Driver)
		assert.Equal(t, "redis", cfg.Cache.Driver)
		assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
		assert.Equal(t, 2, cfg.Cache.Redis.DB)
		assert.Equal(t, 2*time.Second, cfg.Scheduler.TickInterval)

		t.Run("Environment wins over the file", func(t *testing.T) {
			t.Setenv("PULSEWATCH_SERVER_ADDR", ":6060")
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, ":6060", cfg.Server.Addr)
		})
	})

	t.Run("Malformed config file is reported", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))
		t.Cleanup(func() { _ = os.Remove(filepath.Join(dir, "config.yaml")) })

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file error")
	})
}

func TestValidateConfig(t *testing.T) {
	t.Run("Valid configuration passes", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, validateConfig(&cfg))
	})

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Empty address", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"Port out of range", func(c *Config) { c.Server.Addr = ":70000" }, "port out of range"},
		{"Short JWT secret", func(c *Config) { c.Server.JWT.Secret = "short" }, "secret too short"},
		{"Unknown storage driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"Path traversal in sqlite DSN", func(c *Config) { c.Storage.DSN = "../etc/db" }, "'..'"},
		{"Idle conns above open conns", func(c *Config) { c.Storage.MaxIdleConns = 64 }, "max_idle_conns"},
		{"Unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"Redis without address", func(c *Config) {
			c.Cache.Driver = "redis"
			c.Cache.Redis.DialTimeout = time.Second
		}, "cache.redis.addr"},
		{"Max interval below min interval", func(c *Config) { c.Monitors.MaxInterval = 5 * time.Second }, "monitors.max_interval"},
		{"Probe timeout too small", func(c *Config) { c.Checks.HTTP.Timeout = time.Millisecond }, "checks.http.timeout"},
		{"Negative redirects", func(c *Config) { c.Checks.HTTP.MaxRedirects = -1 }, "max_redirects"},
		{"Tick slower than half the min interval", func(c *Config) { c.Scheduler.TickInterval = 6 * time.Second }, "scheduler.tick_interval"},
		{"In-flight TTL shorter than the probe timeout", func(c *Config) { c.Scheduler.InflightTTL = 5 * time.Second }, "scheduler.inflight_ttl"},
		{"Stats TTL not shorter than min interval", func(c *Config) { c.Stats.CacheTTL = 10 * time.Second }, "stats.cache_ttl"},
		{"Unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := validateConfig(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
