package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8010" {
		t.Errorf("Server.Port = %q, want 8010", cfg.Server.Port)
	}
	if cfg.Audit.BufferSize != 10000 {
		t.Errorf("Audit.BufferSize = %d, want 10000", cfg.Audit.BufferSize)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	data := []byte("server:\n  port: \"9000\"\naudit:\n  batch_size: 25\nevaluator:\n  timeout: 2s\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %q, want 9000", cfg.Server.Port)
	}
	if cfg.Audit.BatchSize != 25 {
		t.Errorf("Audit.BatchSize = %d, want 25", cfg.Audit.BatchSize)
	}
	if cfg.Evaluator.Timeout != 2*time.Second {
		t.Errorf("Evaluator.Timeout = %v, want 2s", cfg.Evaluator.Timeout)
	}
	// Untouched sections keep defaults.
	if cfg.Cache.DefinitionTTL != 30*time.Second {
		t.Errorf("Cache.DefinitionTTL = %v, want 30s", cfg.Cache.DefinitionTTL)
	}
}

func TestLoadFromEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WARDEN_PORT", "9100")
	t.Setenv("WARDEN_EVALUATOR_URL", "http://opa.internal:8181")
	t.Setenv("WARDEN_AUDIT_FLUSH_INTERVAL", "250ms")
	t.Setenv("WARDEN_LOG_ASYNC", "true")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("Server.Port = %q, want 9100", cfg.Server.Port)
	}
	if cfg.Evaluator.URL != "http://opa.internal:8181" {
		t.Errorf("Evaluator.URL = %q", cfg.Evaluator.URL)
	}
	if cfg.Audit.FlushInterval != 250*time.Millisecond {
		t.Errorf("Audit.FlushInterval = %v, want 250ms", cfg.Audit.FlushInterval)
	}
	if !cfg.Logging.Async {
		t.Error("Logging.Async = false, want true")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty dsn", func(c *Config) { c.Postgres.DSN = "" }},
		{"zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
		{"zero batch", func(c *Config) { c.Audit.BatchSize = 0 }},
		{"zero breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Error("validate() = nil, want error")
			}
		})
	}
}

func TestSetDurationIgnoresInvalid(t *testing.T) {
	t.Setenv("WARDEN_EVALUATOR_TIMEOUT", "not-a-duration")
	cfg := Defaults()
	loadEnv(&cfg)
	if cfg.Evaluator.Timeout != 5*time.Second {
		t.Errorf("Evaluator.Timeout = %v, want default 5s", cfg.Evaluator.Timeout)
	}
}
