package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Client.BaseURL != "https://localhost:8443" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}
	if cfg.Poller.Interval != time.Second {
		t.Errorf("Poller.Interval = %v, want 1s", cfg.Poller.Interval)
	}
	if cfg.Stream.Path != "/sse" {
		t.Errorf("Stream.Path = %q, want /sse", cfg.Stream.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SAFEVISION_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client.BaseURL != DefaultConfig().Client.BaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Client.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
client:
  base_url: https://site.example.com:8443
  insecure_skip_verify_host: site.example.com
poller:
  interval: 2s
stream:
  path: /events
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAFEVISION_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client.BaseURL != "https://site.example.com:8443" {
		t.Errorf("BaseURL = %q", cfg.Client.BaseURL)
	}
	if cfg.Client.InsecureSkipVerifyHost != "site.example.com" {
		t.Errorf("InsecureSkipVerifyHost = %q", cfg.Client.InsecureSkipVerifyHost)
	}
	if cfg.Poller.Interval != 2*time.Second {
		t.Errorf("Interval = %v", cfg.Poller.Interval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if got := cfg.StreamURL(); got != "https://site.example.com:8443/events" {
		t.Errorf("StreamURL() = %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SAFEVISION_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("SAFEVISION_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("SAFEVISION_LOG_LEVEL", "warn")
	t.Setenv("SAFEVISION_STREAM_URL", "http://10.0.0.5:8080/sse")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client.BaseURL != "http://10.0.0.5:8080" {
		t.Errorf("BaseURL = %q, env override lost", cfg.Client.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if got := cfg.StreamURL(); got != "http://10.0.0.5:8080/sse" {
		t.Errorf("StreamURL() = %q, explicit URL must win", got)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("client: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAFEVISION_CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Client.BaseURL = "" }},
		{"negative interval", func(c *Config) { c.Poller.Interval = -time.Second }},
		{"negative buffer", func(c *Config) { c.Stream.BufferSize = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
