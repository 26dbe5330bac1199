// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	grfnotes "grf-analyzer"
)

// Config is the top-level grf-serve configuration.
type Config struct {
	// ListenAddr serves the websocket ingest endpoint.
	ListenAddr string `yaml:"listen_addr"`
	// MetricsAddr serves Prometheus scrapes. Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`

	// DefaultTestType applies when a session start frame omits the type.
	DefaultTestType string `yaml:"default_test_type"`

	// Parameters overrides the built-in defaults per test type, keyed by
	// the test type's wire name.
	Parameters map[string]grfnotes.TestParameters `yaml:"parameters"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
	// OutDir receives per-session artifact bundles. Empty disables bundles.
	OutDir string `yaml:"out_dir"`
}

// Load reads, parses, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8077",
		MetricsAddr:     ":9077",
		LogLevel:        "info",
		Storage:         StorageConfig{DBPath: "grf-sessions.db"},
		DefaultTestType: "cmj",
	}
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path cannot be empty")
	}
	if _, err := grfnotes.ParseTestType(c.DefaultTestType); err != nil {
		return fmt.Errorf("default_test_type: %w", err)
	}
	for name, params := range c.Parameters {
		if _, err := grfnotes.ParseTestType(name); err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
		if err := params.Validate(); err != nil {
			return fmt.Errorf("parameters.%s: %w", name, err)
		}
	}
	return nil
}

// ParametersFor resolves the effective parameters for one test type: the
// config override when present, otherwise the built-in defaults.
func (c *Config) ParametersFor(t grfnotes.TestType) grfnotes.TestParameters {
	if p, ok := c.Parameters[t.String()]; ok {
		return p
	}
	return grfnotes.DefaultParameters(t)
}
