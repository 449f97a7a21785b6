// Package config provides configuration loading and management for gridmask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"gridmask/pkg/mask"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Sampling parameters
	Sampling struct {
		// SubSamples is the per-axis sample count for partial-volume
		// refinement; 0 produces binary masks
		SubSamples int `yaml:"subSamples"`

		// Workers is the number of goroutines scanning grid columns
		Workers int `yaml:"workers"`

		// VerifyCopies re-reads every marshaled buffer and compares it
		VerifyCopies bool `yaml:"verifyCopies"`
	} `yaml:"sampling"`

	// Mask validation parameters
	Validation struct {
		// Margin is the number of voxels around the mask that are point-tested
		Margin int `yaml:"margin"`

		// MaxErrorPercent is the accepted share of disagreeing voxels
		MaxErrorPercent float64 `yaml:"maxErrorPercent"`
	} `yaml:"validation"`

	// Output parameters
	Output struct {
		// Dir receives volume files and slice images
		Dir string `yaml:"dir"`

		// Codec compresses volume files: raw, lz4 or zstd
		Codec string `yaml:"codec"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveSlices writes JPEG slices next to every volume file
		SaveSlices bool `yaml:"saveSlices"`
	} `yaml:"output"`

	// Phantom describes the synthetic planning data the command operates on
	Phantom struct {
		Size       [3]int     `yaml:"size"`
		Resolution [3]float64 `yaml:"resolution"`
		Origin     [3]float64 `yaml:"origin"`

		// Structure is the solid that is masked: sphere or box
		Structure string     `yaml:"structure"`
		Center    [3]float64 `yaml:"center"`
		Radius    float64    `yaml:"radius"`

		// Dose field parameters
		Dose struct {
			Peak   float64 `yaml:"peak"`
			Radius float64 `yaml:"radius"`
			Base   float64 `yaml:"base"`
			Step   float64 `yaml:"step"`
		} `yaml:"dose"`

		// DoseScale is the dose grid resolution relative to the image grid
		DoseScale int `yaml:"doseScale"`
	} `yaml:"phantom"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Sampling.SubSamples = 0
	cfg.Sampling.Workers = runtime.NumCPU()
	cfg.Sampling.VerifyCopies = false

	cfg.Validation.Margin = mask.DefaultMargin
	cfg.Validation.MaxErrorPercent = mask.DefaultMaxErrorPercent

	cfg.Output.Dir = "output"
	cfg.Output.Codec = "zstd"
	cfg.Output.Verbose = false
	cfg.Output.SaveSlices = false

	cfg.Phantom.Size = [3]int{64, 64, 48}
	cfg.Phantom.Resolution = [3]float64{2, 2, 2.5}
	cfg.Phantom.Origin = [3]float64{-63, -63, -58.75}
	cfg.Phantom.Structure = "sphere"
	cfg.Phantom.Center = [3]float64{0, 0, 0}
	cfg.Phantom.Radius = 30
	cfg.Phantom.Dose.Peak = 60
	cfg.Phantom.Dose.Radius = 50
	cfg.Phantom.Dose.Base = 0
	cfg.Phantom.Dose.Step = 0.001
	cfg.Phantom.DoseScale = 2

	return cfg
}

// Validate rejects configurations that cannot produce a result.
func (c *Config) Validate() error {
	var errs []error
	if c.Sampling.SubSamples < 0 || c.Sampling.SubSamples == 1 {
		errs = append(errs, fmt.Errorf("sampling.subSamples must be 0 or greater than 1, got %d", c.Sampling.SubSamples))
	}
	if c.Sampling.Workers < 0 {
		errs = append(errs, fmt.Errorf("sampling.workers must not be negative, got %d", c.Sampling.Workers))
	}
	if c.Validation.Margin < 0 {
		errs = append(errs, fmt.Errorf("validation.margin must not be negative, got %d", c.Validation.Margin))
	}
	if c.Validation.MaxErrorPercent < 0 || c.Validation.MaxErrorPercent > 100 {
		errs = append(errs, fmt.Errorf("validation.maxErrorPercent must be within [0, 100], got %v", c.Validation.MaxErrorPercent))
	}
	switch strings.ToLower(c.Output.Codec) {
	case "", "raw", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("output.codec must be raw, lz4 or zstd, got %q", c.Output.Codec))
	}
	for i, n := range c.Phantom.Size {
		if n < 1 {
			errs = append(errs, fmt.Errorf("phantom.size[%d] must be positive, got %d", i, n))
		}
	}
	for i, r := range c.Phantom.Resolution {
		if !(r > 0) {
			errs = append(errs, fmt.Errorf("phantom.resolution[%d] must be positive, got %v", i, r))
		}
	}
	switch c.Phantom.Structure {
	case "sphere", "box":
	default:
		errs = append(errs, fmt.Errorf("phantom.structure must be sphere or box, got %q", c.Phantom.Structure))
	}
	if c.Phantom.Dose.Step == 0 {
		errs = append(errs, errors.New("phantom.dose.step must not be zero"))
	}
	if c.Phantom.DoseScale < 1 {
		errs = append(errs, fmt.Errorf("phantom.doseScale must be positive, got %d", c.Phantom.DoseScale))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
