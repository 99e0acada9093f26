// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the dashboard configuration. Loaded from a single YAML
// file; there is no automatic discovery and environment variables do
// not override file values, so a given file always produces the same
// running configuration.
type Config struct {
	// Backend configures the snapshot backend connection.
	Backend BackendConfig `yaml:"backend"`

	// Poll configures the synchronization cadence.
	Poll PollConfig `yaml:"poll"`

	// Log configures background logging.
	Log LogConfig `yaml:"log"`
}

// BackendConfig configures the snapshot backend connection.
type BackendConfig struct {
	// SocketPath is the Unix socket the backend agent listens on.
	SocketPath string `yaml:"socket_path"`

	// SessionsFile is the JSONC file listing the panes to display.
	SessionsFile string `yaml:"sessions_file"`
}

// PollConfig configures the synchronization cadence.
type PollConfig struct {
	// TextInterval is the poll interval in text mode.
	TextInterval time.Duration `yaml:"text_interval"`

	// ImageInterval is the poll interval in image mode.
	ImageInterval time.Duration `yaml:"image_interval"`
}

// LogConfig configures background logging.
type LogConfig struct {
	// Output is a file path receiving JSON log records. Empty disables
	// file logging; warnings still surface in the TUI status bar.
	Output string `yaml:"output"`
}

// Default returns the default configuration. The defaults make the
// dashboard usable with a local mock agent and no config file.
func Default() *Config {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	return &Config{
		Backend: BackendConfig{
			SocketPath: filepath.Join(runtimeDir, "panescope", "agent.sock"),
		},
		Poll: PollConfig{
			TextInterval:  1 * time.Second,
			ImageInterval: 3 * time.Second,
		},
	}
}

// LoadFile loads configuration from path, merging over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.SocketPath == "" {
		errs = append(errs, fmt.Errorf("backend.socket_path is required"))
	}
	if c.Poll.TextInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll.text_interval must be positive"))
	}
	if c.Poll.ImageInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll.image_interval must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
