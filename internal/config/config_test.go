package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if cfg.Poll.Interval != 1500*time.Millisecond {
		t.Fatalf("expected 1500ms poll interval, got %s", cfg.Poll.Interval)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"base url", func(c *Config) { c.API.BaseURL = "not a url" }, "base url"},
		{"push scheme", func(c *Config) { c.API.PushURL = "http://example.com/ws" }, "push url"},
		{"timeout", func(c *Config) { c.API.RequestTimeout = 0 }, "timeout"},
		{"interval", func(c *Config) { c.Poll.Interval = 0 }, "interval"},
		{"backoff", func(c *Config) { c.Poll.MaxBackoff = time.Millisecond }, "max backoff"},
		{"status port", func(c *Config) { c.Status.Enabled = true; c.Status.Port = 0 }, "status port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAPIBase(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "http://host:8000/"
	cfg.API.Root = "api/"
	if got := cfg.APIBase(); got != "http://host:8000/api" {
		t.Fatalf("unexpected api base %q", got)
	}

	cfg.API.Root = ""
	if got := cfg.APIBase(); got != "http://host:8000" {
		t.Fatalf("unexpected api base without root %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WEREWOLF_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("WEREWOLF_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("WEREWOLF_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected variable to be loaded, got %q", got)
	}
}
