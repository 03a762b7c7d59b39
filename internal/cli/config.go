package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file. Every field has a usable
// default; the file and all fields are optional.
type Config struct {
	// Format is the default output format (text|json).
	Format string `yaml:"format,omitempty"`

	// Verbosity is the default explanation verbosity.
	Verbosity string `yaml:"verbosity,omitempty"`

	// Catalog points at a CUE rule catalog applied to every command.
	Catalog string `yaml:"catalog,omitempty"`

	// Database is the history database path. Empty disables history.
	Database string `yaml:"database,omitempty"`

	// MaxIterations overrides the engine iteration budget when
	// positive. A catalog's max_iterations takes precedence.
	MaxIterations int `yaml:"max_iterations,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:    "text",
		Verbosity: "concise",
	}
}

// LoadConfig reads a YAML config file and fills unset fields with
// defaults. An empty path returns the defaults; a missing explicit
// path is an error, not a silent fallback.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse config %s", path), err)
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Verbosity == "" {
		cfg.Verbosity = "concise"
	}
	return cfg, nil
}
