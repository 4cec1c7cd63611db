// Package config loads and saves the probeacc configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents ~/.probeacc/config.yaml.
type Config struct {
	MoonrakerURL string `yaml:"moonraker_url"`
	DataDir      string `yaml:"data_dir"` // database and CSV exports; empty means ~/.probeacc

	LogLookback          int     `yaml:"log_lookback"`          // gcode store entries read after each burst
	RandomMargin         float64 `yaml:"random_margin"`         // keep-out from axis limits for perturbation moves
	RepeatabilitySamples int     `yaml:"repeatability_samples"` // samples per repeatability trial
	MoveFeedrate         int     `yaml:"move_feedrate"`

	MeasurementPrefix string `yaml:"measurement_prefix"`
	ErrorPrefix       string `yaml:"error_prefix"`

	Defaults Defaults `yaml:"defaults"`

	LockGcode   string `yaml:"lock_gcode"`
	UnlockGcode string `yaml:"unlock_gcode"`
	SafeZObject string `yaml:"safe_z_object"`
	SafeZKey    string `yaml:"safe_z_key"`
}

// Defaults are the sample counts used when a test flag is given without a value.
type Defaults struct {
	Corner        int `yaml:"corner"`
	Repeatability int `yaml:"repeatability"`
	Drift         int `yaml:"drift"`
}

// Default returns the configuration of a stock Klipper/Moonraker printer
// with a dockable probe.
func Default() *Config {
	return &Config{
		MoonrakerURL:         "http://localhost:7125",
		LogLookback:          1000,
		RandomMargin:         50,
		RepeatabilitySamples: 10,
		MoveFeedrate:         99999,
		MeasurementPrefix:    "probe at",
		ErrorPrefix:          "!!",
		Defaults: Defaults{
			Corner:        30,
			Repeatability: 20,
			Drift:         100,
		},
		LockGcode:   "ATTACH_PROBE_LOCK",
		UnlockGcode: "DOCK_PROBE_UNLOCK",
		SafeZObject: "gcode_macro _User_Variables",
		SafeZKey:    "safe_z",
	}
}

// DefaultPath returns ~/.probeacc/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".probeacc", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values the test procedures cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.MoonrakerURL) == "" {
		problems = append(problems, "moonraker_url must be set")
	}
	if c.LogLookback <= 0 {
		problems = append(problems, "log_lookback must be positive")
	}
	if c.RandomMargin < 0 {
		problems = append(problems, "random_margin must not be negative")
	}
	if c.RepeatabilitySamples < 2 {
		problems = append(problems, "repeatability_samples must be at least 2")
	}
	if c.MeasurementPrefix == "" {
		problems = append(problems, "measurement_prefix must be set")
	}
	if c.Defaults.Corner < 0 || c.Defaults.Repeatability < 0 || c.Defaults.Drift < 0 {
		problems = append(problems, "defaults must not be negative")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ResolveDataDir returns DataDir, defaulting to the directory of ~/.probeacc.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".probeacc"), nil
}
