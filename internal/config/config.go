// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package config loads client configuration with Koanf v2 from layered
// sources, highest priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (CONFIG_PATH or the default search paths)
//  3. Environment variables with the NEXENT_ prefix
//     (NEXENT_BACKEND_URL -> backend.url, NEXENT_CACHE_HEALTH_TTL -> cache.health_ttl)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nexent/config.yaml",
	"/etc/nexent/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "NEXENT_"

// Config is the complete client configuration.
type Config struct {
	Backend BackendConfig `koanf:"backend"`
	Cache   CacheConfig   `koanf:"cache"`
	Polling PollingConfig `koanf:"polling"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// BackendConfig points the client at the Nexent ingest API.
type BackendConfig struct {
	// URL is the base URL of the backend, e.g. http://localhost:5010/api.
	URL string `koanf:"url" validate:"required,url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimit caps outgoing requests per second; RateBurst is the
	// token bucket size. Zero RateLimit disables client-side limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`
}

// CacheConfig sets the TTL windows for the two directory caches.
type CacheConfig struct {
	HealthTTL    time.Duration `koanf:"health_ttl" validate:"gt=0"`
	EmptyListTTL time.Duration `koanf:"empty_list_ttl" validate:"gt=0"`
}

// PollingConfig tunes the per-knowledge-base polling loop.
type PollingConfig struct {
	// Interval between document list fetches. A tuning parameter, not a
	// correctness requirement; convergence alone terminates a session.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// MetricsConfig configures the optional local metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics and /healthz.
	// Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// Default returns the built-in defaults. TTL windows match the backend's
// convergence characteristics: health stays cached for a minute, an
// observed-empty listing for thirty seconds.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:       "http://localhost:5010/api",
			Timeout:   30 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
		},
		Cache: CacheConfig{
			HealthTTL:    60 * time.Second,
			EmptyListTTL: 30 * time.Second,
		},
		Polling: PollingConfig{
			Interval: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Load builds the configuration from defaults, config file and environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration with struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// envTransform maps NEXENT_BACKEND_URL to backend.url: the first segment
// becomes the section, the rest keep their underscores as the field name.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
