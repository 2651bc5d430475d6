// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONSTRUCT_"

// Config is the root configuration structure.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
	Compiler CompilerConfig `yaml:"compiler"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// OutputConfig configures how artifacts are written.
type OutputConfig struct {
	Format  string `yaml:"format"`  // "json", "yaml" or "table"
	Compact bool   `yaml:"compact"` // Single-line JSON
	Dir     string `yaml:"dir"`     // Write one file per artifact instead of stdout
}

// CompilerConfig configures runtime assembly.
type CompilerConfig struct {
	Parallelism    int    `yaml:"parallelism"`     // Concurrent generator passes
	FingerprintKey string `yaml:"fingerprint_key"` // Optional BLAKE2b key
}

// StorageConfig configures the build history store.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"` // SQLite path or ":memory:"
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	OpenAPI      bool          `yaml:"openapi"` // Serve the API document and Swagger UI
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONSTRUCT_LOG_LEVEL              - Log level: debug, info, warn, error (default: info)
//	CONSTRUCT_LOG_FORMAT             - Log format: json or console (default: console)
//	CONSTRUCT_OUTPUT_FORMAT          - Artifact format: json, yaml or table (default: table)
//	CONSTRUCT_OUTPUT_COMPACT         - Single-line JSON output
//	CONSTRUCT_OUTPUT_DIR             - Directory for per-artifact files
//	CONSTRUCT_COMPILER_PARALLELISM   - Concurrent generator passes (default: 4)
//	CONSTRUCT_COMPILER_FINGERPRINT_KEY - Key for build fingerprints
//	CONSTRUCT_STORAGE_ENABLED        - Record builds in SQLite (default: false)
//	CONSTRUCT_STORAGE_DSN            - Database path (default: construct.db)
//	CONSTRUCT_SERVER_HOST            - Server host (default: 127.0.0.1)
//	CONSTRUCT_SERVER_PORT            - Server port (default: 8420)
//	CONSTRUCT_SERVER_OPENAPI         - Serve /.well-known/openapi.json and /swagger/
//	CONSTRUCT_METRICS_ENABLED        - Enable /metrics endpoint
//	CONSTRUCT_METRICS_PATH           - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to environment
// variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONSTRUCT_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Logging configuration
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)

	// Output configuration
	envString("OUTPUT_FORMAT", &cfg.Output.Format)
	envBool("OUTPUT_COMPACT", &cfg.Output.Compact)
	envString("OUTPUT_DIR", &cfg.Output.Dir)

	// Compiler configuration
	envInt("COMPILER_PARALLELISM", &cfg.Compiler.Parallelism)
	envString("COMPILER_FINGERPRINT_KEY", &cfg.Compiler.FingerprintKey)

	// Storage configuration
	envBool("STORAGE_ENABLED", &cfg.Storage.Enabled)
	envString("STORAGE_DSN", &cfg.Storage.DSN)

	// Server configuration
	envString("SERVER_HOST", &cfg.Server.Host)
	envInt("SERVER_PORT", &cfg.Server.Port)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	if v := os.Getenv(EnvPrefix + "SERVER_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}
	envBool("SERVER_OPENAPI", &cfg.Server.OpenAPI)

	// Metrics configuration
	envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("METRICS_PATH", &cfg.Metrics.Path)
}

func envString(name string, dst *string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = parseBool(v)
	}
}

// envInt ignores values that are not integers.
func envInt(name string, dst *int) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// envDuration ignores values that are not durations.
func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "table"
	}

	if cfg.Compiler.Parallelism == 0 {
		cfg.Compiler.Parallelism = 4
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "construct.db"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		errs = append(errs, fmt.Sprintf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format))
	}

	validFormats := map[string]bool{"json": true, "yaml": true, "table": true}
	if !validFormats[cfg.Output.Format] {
		errs = append(errs, fmt.Sprintf("output.format must be one of: json, yaml, table, got %q", cfg.Output.Format))
	}

	if cfg.Compiler.Parallelism < 0 {
		errs = append(errs, "compiler.parallelism must not be negative")
	}

	if cfg.Storage.Enabled && cfg.Storage.DSN == "" {
		errs = append(errs, "storage.dsn is required when storage is enabled")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, "server.max_body_bytes must not be negative")
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path must start with '/', got %q", cfg.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
