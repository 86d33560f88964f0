// Package config loads the TOML configuration file and supplies defaults.
// Command-line flags override anything read here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file for user preferences.
const FileName = "config.toml"

// Config represents user-facing configuration in TOML format.
type Config struct {
	Bridge BridgeSettings `toml:"bridge"`
	Logs   LogSettings    `toml:"logs"`
}

// BridgeSettings controls the poll loop and the output tree.
type BridgeSettings struct {
	// Dir is the output root directory for the mirrored tree.
	Dir string `toml:"dir"`

	// Scrollback is how many lines of history each snapshot captures.
	Scrollback int `toml:"scrollback"`

	// IntervalMS is the poll interval in milliseconds.
	IntervalMS int `toml:"interval_ms"`

	// InputPolicy selects the input submission protocol:
	// "blank-line" (default) — a blank line submits, single newlines are
	// soft breaks; "line" — every completed line submits.
	InputPolicy string `toml:"input_policy"`

	// WatchInput enables the fsnotify wake-up that drains input files
	// without waiting for the next poll tick.
	WatchInput bool `toml:"watch_input"`
}

// LogSettings controls the rotated log file.
type LogSettings struct {
	Dir        string `toml:"dir"`
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bridge: BridgeSettings{
			Dir:         "tmux",
			Scrollback:  500,
			IntervalMS:  500,
			InputPolicy: "blank-line",
			WatchInput:  true,
		},
		Logs: LogSettings{
			Level:    "info",
			Format:   "json",
			Compress: true,
		},
	}
}

// DefaultDir returns the per-user config directory (~/.tmuxbridge).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	return filepath.Join(home, ".tmuxbridge")
}

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error; a malformed file is, so a typo does not silently
// revert the user to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyFloors()
	return cfg, nil
}

// applyFloors clamps values a config file could zero out.
func (c *Config) applyFloors() {
	if c.Bridge.Scrollback <= 0 {
		c.Bridge.Scrollback = Default().Bridge.Scrollback
	}
	if c.Bridge.IntervalMS <= 0 {
		c.Bridge.IntervalMS = Default().Bridge.IntervalMS
	}
	if c.Bridge.Dir == "" {
		c.Bridge.Dir = Default().Bridge.Dir
	}
	if c.Bridge.InputPolicy == "" {
		c.Bridge.InputPolicy = Default().Bridge.InputPolicy
	}
}
