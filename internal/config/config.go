// Package config handles configuration loading for the SafeVision console.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"safevision-console/internal/api"
	"safevision-console/internal/stream"
)

// Config holds the complete application configuration.
type Config struct {
	Client  api.ClientConfig `yaml:"client"`
	Poller  PollerConfig     `yaml:"poller"`
	Stream  StreamConfig     `yaml:"stream"`
	Upload  UploadConfig     `yaml:"upload"`
	Logging LoggingConfig    `yaml:"logging"`
}

// PollerConfig holds alert polling settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval" env:"SAFEVISION_POLL_INTERVAL"`
}

// StreamConfig holds event stream settings.
type StreamConfig struct {
	// URL is the full SSE endpoint. When empty it is derived from the client
	// base URL plus Path.
	URL        string `yaml:"url" env:"SAFEVISION_STREAM_URL"`
	Path       string `yaml:"path" env:"SAFEVISION_STREAM_PATH"`
	BufferSize int    `yaml:"buffer_size" env:"SAFEVISION_STREAM_BUFFER"`
}

// UploadConfig holds video upload settings. Uploads can be much larger than
// API calls, so they carry their own timeout.
type UploadConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"SAFEVISION_UPLOAD_TIMEOUT"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SAFEVISION_LOG_LEVEL"`
	Format string `yaml:"format" env:"SAFEVISION_LOG_FORMAT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Client: api.DefaultClientConfig(),
		Poller: PollerConfig{Interval: time.Second},
		Stream: StreamConfig{
			Path:       "/sse",
			BufferSize: stream.DefaultConfig().BufferSize,
		},
		Upload: UploadConfig{Timeout: 2 * time.Minute},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the YAML file named by SAFEVISION_CONFIG_PATH
// (default configs/config.yaml), falling back to defaults when the file does
// not exist, then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := os.Getenv("SAFEVISION_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults.
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides onto the loaded
// configuration via the struct env tags.
func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// StreamURL returns the effective SSE endpoint.
func (c *Config) StreamURL() string {
	if c.Stream.URL != "" {
		return c.Stream.URL
	}
	return c.Client.BaseURL + c.Stream.Path
}

// StreamConsumerConfig builds the stream consumer configuration, carrying
// over the client's TLS verification exception.
func (c *Config) StreamConsumerConfig() stream.Config {
	return stream.Config{
		BufferSize:             c.Stream.BufferSize,
		InsecureSkipVerifyHost: c.Client.InsecureSkipVerifyHost,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}
	if c.Poller.Interval < 0 {
		return fmt.Errorf("poller.interval must not be negative")
	}
	if c.Stream.BufferSize < 0 {
		return fmt.Errorf("stream.buffer_size must not be negative")
	}
	if c.Upload.Timeout < 0 {
		return fmt.Errorf("upload.timeout must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	return nil
}
