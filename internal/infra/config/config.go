// Package config loads and validates the server configuration from a
// YAML file, falling back to defaults and PARALLEL_MCP_* environment
// overrides when no file is present.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Search SearchConfig `yaml:"search"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// ServerConfig holds the hosting HTTP shell settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8000"
	Path string `yaml:"path"` // MCP mount path, e.g. "/mcp"
}

// SearchConfig holds Parallel Search API client settings.
type SearchConfig struct {
	BaseURL   string `yaml:"base_url"`  // API base URL
	Timeout   string `yaml:"timeout"`   // duration string (default: "60s")
	Processor string `yaml:"processor"` // default processor tier: "base" or "pro"
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
			Path: "/mcp",
		},
		Search: SearchConfig{
			BaseURL:   "https://api.parallel.ai",
			Timeout:   "60s",
			Processor: "base",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads configuration from path. A missing file is not an error:
// defaults plus environment overrides are used instead.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps PARALLEL_MCP_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"PARALLEL_MCP_ADDR":       &cfg.Server.Addr,
		"PARALLEL_MCP_PATH":       &cfg.Server.Path,
		"PARALLEL_MCP_BASE_URL":   &cfg.Search.BaseURL,
		"PARALLEL_MCP_TIMEOUT":    &cfg.Search.Timeout,
		"PARALLEL_MCP_PROCESSOR":  &cfg.Search.Processor,
		"PARALLEL_MCP_LOG_LEVEL":  &cfg.Logger.Level,
		"PARALLEL_MCP_LOG_FORMAT": &cfg.Logger.Format,
		"PARALLEL_MCP_LOG_OUTPUT": &cfg.Logger.Output,
	}
	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

// Validate checks the configuration for inconsistencies.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Server.Path == "" || cfg.Server.Path[0] != '/' {
		return fmt.Errorf("server.path must start with '/'")
	}
	if cfg.Search.Processor != "base" && cfg.Search.Processor != "pro" {
		return fmt.Errorf("search.processor must be 'base' or 'pro', got %q", cfg.Search.Processor)
	}
	if _, err := cfg.Search.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses the configured timeout duration.
func (s SearchConfig) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("search.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("search.timeout must be positive, got %s", s.Timeout)
	}
	return d, nil
}
