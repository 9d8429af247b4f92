// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()

	if cfg.Cache.HealthTTL != 60*time.Second {
		t.Errorf("HealthTTL = %v, want 60s", cfg.Cache.HealthTTL)
	}
	if cfg.Cache.EmptyListTTL != 30*time.Second {
		t.Errorf("EmptyListTTL = %v, want 30s", cfg.Cache.EmptyListTTL)
	}
	if cfg.Polling.Interval != 3*time.Second {
		t.Errorf("Polling.Interval = %v, want 3s", cfg.Polling.Interval)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Backend.Timeout = %v, want 30s", cfg.Backend.Timeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"NEXENT_BACKEND_URL", "backend.url"},
		{"NEXENT_BACKEND_RATE_LIMIT", "backend.rate_limit"},
		{"NEXENT_CACHE_HEALTH_TTL", "cache.health_ttl"},
		{"NEXENT_POLLING_INTERVAL", "polling.interval"},
		{"NEXENT_METRICS_ADDR", "metrics.addr"},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("NEXENT_BACKEND_URL", "http://backend:5010/api")
	t.Setenv("NEXENT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.URL != "http://backend:5010/api" {
		t.Errorf("Backend.URL = %q, env override lost", cfg.Backend.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched fields keep defaults.
	if cfg.Cache.HealthTTL != 60*time.Second {
		t.Errorf("HealthTTL = %v, want default 60s", cfg.Cache.HealthTTL)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `backend:
  url: http://filehost:5010/api
cache:
  health_ttl: 90s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.URL != "http://filehost:5010/api" {
		t.Errorf("Backend.URL = %q, file value lost", cfg.Backend.URL)
	}
	if cfg.Cache.HealthTTL != 90*time.Second {
		t.Errorf("HealthTTL = %v, want 90s from file", cfg.Cache.HealthTTL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  url: http://filehost:5010/api\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("NEXENT_BACKEND_URL", "http://envhost:5010/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.URL != "http://envhost:5010/api" {
		t.Errorf("Backend.URL = %q, want env to win over file", cfg.Backend.URL)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.Backend.URL = "" }},
		{"malformed url", func(c *Config) { c.Backend.URL = "not a url" }},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }},
		{"zero health ttl", func(c *Config) { c.Cache.HealthTTL = 0 }},
		{"zero poll interval", func(c *Config) { c.Polling.Interval = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
