package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/r6lens/r6lens/internal/core/engine"
)

// Config represents the complete application configuration. Values are layered
// in this order, later layers winning:
// Layer 1: built-in defaults (setDefaults)
// Layer 2: YAML config file (--config, or $XDG_CONFIG_HOME/r6lens/config.yaml)
// Layer 3: R6LENS_* environment variables and runtime overrides
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Workers   int             `mapstructure:"workers"`
}

// APIConfig points the client at the stats API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RateLimitConfig shapes the client-side request governor.
type RateLimitConfig struct {
	// Limit is the number of requests admitted per window. Zero disables the
	// governor.
	Limit int `mapstructure:"limit"`

	// Interval is the window length.
	Interval time.Duration `mapstructure:"interval"`

	// Policy is "blocking" (wait for the next window) or "fail_fast" (return a
	// rate limited error).
	Policy string `mapstructure:"policy"`
}

// Apply copies the settings onto b. It has the shape expected by
// client.NewWithRateLimit.
func (r RateLimitConfig) Apply(b *engine.RateLimitBuilder) *engine.RateLimitBuilder {
	b = b.Limit(r.Limit).Interval(r.Interval)
	if policy, err := engine.ParsePolicy(r.Policy); err == nil {
		b = b.Policy(policy)
	}
	return b
}

// CacheConfig controls the response payload cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.RateLimit.Limit < 0 {
		return fmt.Errorf("rate_limit.limit must be >= 0, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Interval <= 0 {
		return fmt.Errorf("rate_limit.interval must be positive, got %s", c.RateLimit.Interval)
	}
	if _, err := engine.ParsePolicy(c.RateLimit.Policy); err != nil {
		return fmt.Errorf("rate_limit.policy: %w", err)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled, got %s", c.Cache.TTL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0, got %s", c.API.Timeout)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "", "libsql":
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	return nil
}
