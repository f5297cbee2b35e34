// Package config loads the citadel CLI's server configuration from a YAML
// file with environment overrides. The runtime itself never reads files;
// it takes an immutable server.Config built from these values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the metrics endpoint.
	// Default: ":9090".
	Address string `yaml:"address"`
}

// Config is the citadel CLI configuration.
type Config struct {
	// Address is the bind target for the server.
	// Default: ":8080".
	Address string `yaml:"address"`

	// Workers is the number of accept-loop workers.
	// Default: number of logical CPUs.
	Workers int `yaml:"workers"`

	// LogLevel is one of debug, info, warn, error.
	// Default: "info".
	LogLevel string `yaml:"log_level"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Address:  ":8080",
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

// Load reads the configuration from path (optional), applies CITADEL_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with CITADEL_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CITADEL_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("CITADEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("CITADEL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CITADEL_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
		cfg.Metrics.Enabled = true
	}
}

// Validate checks the configuration for values the runtime would reject.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("config: address must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("config: metrics.address must not be empty when metrics are enabled")
	}
	return nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
}
