// Package config loads bracketorder settings from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Config is the top-level configuration struct for bracketorder.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Output        OutputConfig        `mapstructure:"output"`
	Reconstruct   ReconstructConfig   `mapstructure:"reconstruct"`
	Input         InputConfig         `mapstructure:"input"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// ReconstructConfig tunes the reconstruction pass.
type ReconstructConfig struct {
	SortMatches bool `mapstructure:"sort_matches"`
	// CacheSize is the number of reconstructions the mcp and serve commands
	// keep for reuse. Zero disables the cache.
	CacheSize int `mapstructure:"cache_size"`
	// HibernationThreshold is the arena size from which a cached order is
	// compressed while idle.
	HibernationThreshold int `mapstructure:"hibernation_threshold"`
}

// InputConfig controls round file decoding.
type InputConfig struct {
	ValidateSchema bool `mapstructure:"validate_schema"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ObservabilityConfig holds logging and telemetry settings.
type ObservabilityConfig struct {
	LogLevel     string  `mapstructure:"log_level"`
	LogJSON      bool    `mapstructure:"log_json"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of text, json, yaml, plot")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observability.log_level must be one of debug, info, warn, error")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
	// ErrInvalidServerAddr indicates an empty listen address.
	ErrInvalidServerAddr = errors.New("server.addr must not be empty")
	// ErrInvalidMaxBodyBytes indicates the body limit is not positive.
	ErrInvalidMaxBodyBytes = errors.New("server.max_body_bytes must be positive")
	// ErrInvalidCacheSize indicates a negative cache size.
	ErrInvalidCacheSize = errors.New("reconstruct.cache_size must be non-negative")
	// ErrInvalidHibernationThreshold indicates a negative threshold.
	ErrInvalidHibernationThreshold = errors.New("reconstruct.hibernation_threshold must be non-negative")
)

var (
	validFormats   = []string{"text", "json", "yaml", "plot"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.Reconstruct.CacheSize < 0 {
		return ErrInvalidCacheSize
	}

	if c.Reconstruct.HibernationThreshold < 0 {
		return ErrInvalidHibernationThreshold
	}

	if c.Server.Addr == "" {
		return ErrInvalidServerAddr
	}

	if c.Server.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}

	return c.validateObservability()
}

func (c *Config) validateObservability() error {
	if !slices.Contains(validLogLevels, c.Observability.LogLevel) {
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Observability.LogLevel)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}
