package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete configuration schema for the Pulsewatch service.
//
// Configuration sources (in order of precedence):
//  1. Defaults
//  2. Configuration file (optional)
//  3. Environment variables
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Checks    ChecksConfig    `mapstructure:"checks" yaml:"checks"`
	Monitors  MonitorsConfig  `mapstructure:"monitors" yaml:"monitors"`
	Stats     StatsConfig     `mapstructure:"stats" yaml:"stats"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	JWT          JWTConfig     `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig holds the shared secret used to verify caller identity tokens.
// Tokens are issued by the external identity service.
type JWTConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
	Issuer string `mapstructure:"issuer" yaml:"issuer"`
}

type StorageConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

type CacheConfig struct {
	Driver string      `mapstructure:"driver" yaml:"driver"` // memory, redis, none
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr" yaml:"addr"`
	Password    string        `mapstructure:"password" yaml:"password"`
	DB          int           `mapstructure:"db" yaml:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

type SchedulerConfig struct {
	WorkerCount  int           `mapstructure:"worker_count" yaml:"worker_count"`
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	InflightTTL  time.Duration `mapstructure:"inflight_ttl" yaml:"inflight_ttl"`
}

type ChecksConfig struct {
	HTTP HTTPDefaultsConfig `mapstructure:"http" yaml:"http"`
}

type HTTPDefaultsConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRedirects int           `mapstructure:"max_redirects" yaml:"max_redirects"`
}

// MonitorsConfig bounds the check interval a monitor may be configured with.
type MonitorsConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	MaxInterval time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
}

type StatsConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	DefaultWindow time.Duration `mapstructure:"default_window" yaml:"default_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error, fatal, panic
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"` // human-readable console output
}

// Load loads configuration from defaults, configuration file,
// and environment variables, then validates the result.
//
// The function fails fast on:
//   - Invalid configuration file
//   - Invalid or missing required configuration values
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PULSEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir := getConfigDir(); configDir != "" {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	// Secrets have no default, so AutomaticEnv never sees their keys during Unmarshal.
	for _, key := range []string{"server.jwt.secret", "cache.redis.password"} {
		env := "PULSEWATCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, exists := os.LookupEnv(env); exists {
			_ = v.BindEnv(key, env)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalizeConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getConfigDir returns the appropriate config directory for the current OS
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pulsewatch")
		}
		return ""
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".pulsewatch")
	}
	return ""
}
