package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"f1telemetry/models"
)

const maxFileSize = 1 * 1024 * 1024

// Config holds plotter settings. Command-line flags override whatever a file sets.
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	Laps         []int    `yaml:"laps"`
	Channels     []string `yaml:"channels"`
	Combine      bool     `yaml:"combine"`
	GridPoints   int      `yaml:"grid_points"`
	Pairing      string   `yaml:"pairing"`
	Sectors      int      `yaml:"sectors"`
	SmoothWindow int      `yaml:"smooth_window"`
	PNGPath      string   `yaml:"png"`
	HTMLPath     string   `yaml:"html"`
	HistoryDB    string   `yaml:"history_db"`
	Width        float64  `yaml:"width_in"`
	Height       float64  `yaml:"height_in"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		DataDir:    ".",
		Channels:   []string{models.DeltaChannel, "Speed"},
		GridPoints: 1000,
		Pairing:    "grid",
		Sectors:    3,
		Width:      16,
		Height:     9,
	}
}

// Load reads a YAML config file over the defaults. Fields the file omits keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, errors.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "stat config file")
	}
	if info.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.GridPoints < 2 {
		return errors.Errorf("grid_points must be at least 2, got %d", c.GridPoints)
	}
	if c.Pairing != "grid" && c.Pairing != "emission" {
		return errors.Errorf("pairing must be grid or emission, got %q", c.Pairing)
	}
	if c.Sectors < 0 {
		return errors.Errorf("sectors must be non-negative, got %d", c.Sectors)
	}
	if c.SmoothWindow < 0 {
		return errors.Errorf("smooth_window must be non-negative, got %d", c.SmoothWindow)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("plot size must be positive, got %vx%v", c.Width, c.Height)
	}
	for _, l := range c.Laps {
		if l < 0 {
			return errors.Errorf("lap numbers must be non-negative, got %d", l)
		}
	}
	return nil
}

// WantsDelta reports whether the reserved delta channel is selected.
func (c *Config) WantsDelta() bool {
	for _, ch := range c.Channels {
		if ch == models.DeltaChannel {
			return true
		}
	}
	return false
}
