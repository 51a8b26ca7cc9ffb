// Package config handles loading and saving the YAML configuration used by
// the bayerbg command line tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tool defaults. Command line flags override any value set
// here.
type Config struct {
	Background BackgroundConfig `yaml:"background"`
	Camera     CameraConfig     `yaml:"camera"`
	Output     OutputConfig     `yaml:"output"`
}

// BackgroundConfig mirrors the background estimation knobs. Sizes are
// (rows, cols) pairs.
type BackgroundConfig struct {
	BoxSize           [2]int  `yaml:"boxSize"`
	FilterSize        [2]int  `yaml:"filterSize"`
	Estimator         string  `yaml:"estimator"`
	Interpolator      string  `yaml:"interpolator"`
	Sigma             float64 `yaml:"sigma"`
	Iters             int     `yaml:"iters"`
	ExcludePercentile float64 `yaml:"excludePercentile"`
}

// CameraConfig describes the sensor the raw frames come from.
type CameraConfig struct {
	// Bias is the fixed offset the camera adds to every pixel, subtracted
	// before background estimation.
	Bias float64 `yaml:"bias"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Preview bool   `yaml:"preview"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the settings for a stock PANOPTES unit: a Canon DSLR
// with a bias of 2048 ADU and the background mesh tuned to its sensor.
func Default() *Config {
	return &Config{
		Background: BackgroundConfig{
			BoxSize:           [2]int{79, 84},
			FilterSize:        [2]int{11, 12},
			Estimator:         "mmm",
			Interpolator:      "zoom",
			Sigma:             5,
			Iters:             10,
			ExcludePercentile: 100,
		},
		Camera: CameraConfig{Bias: 2048},
		Output: OutputConfig{Dir: "."},
	}
}

// Load reads a YAML config file. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
