package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Port:               "8081",
		DataBackend:        "file",
		DataDir:            t.TempDir(),
		SQLiteDBPath:       filepath.Join(t.TempDir(), "despesas.db"),
		CacheTTL:           5 * time.Minute,
		CacheMaxEntries:    100,
		RateLimitPerMinute: 60,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.DataBackend != "file" {
		t.Fatalf("backend = %q", cfg.DataBackend)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("cache ttl = %v", cfg.CacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "sqlite" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("cache ttl = %v", cfg.CacheTTL)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Fatalf("rate limit = %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("CACHE_MAX_ENTRIES", "many")

	cfg := Load()
	if cfg.CacheTTL != 5*time.Minute || cfg.CacheMaxEntries != 100 {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.DataBackend = "sqlite"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate sqlite backend: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		phrase string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.DataBackend = "redis" }, "invalid data backend"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"empty sqlite path", func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" }, "SQLite database path"},
		{"tiny cache ttl", func(c *Config) { c.CacheTTL = time.Millisecond }, "cache TTL"},
		{"zero cache size", func(c *Config) { c.CacheMaxEntries = 0 }, "cache size"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "rate limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.phrase) {
				t.Fatalf("err = %v, want mention of %q", err, tc.phrase)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "abc"
	cfg.DataBackend = "redis"
	cfg.RateLimitPerMinute = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, phrase := range []string{"invalid port", "invalid data backend", "rate limit"} {
		if !strings.Contains(err.Error(), phrase) {
			t.Fatalf("combined error missing %q: %v", phrase, err)
		}
	}
}
