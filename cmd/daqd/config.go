package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CameraSimConfig describes the simulated camera daqd wires into the
// Frame Acquisition Engine via fae.MockVendorSDK.
type CameraSimConfig struct {
	Enabled    bool `yaml:"enabled"`
	Resolution struct {
		Width  uint32 `yaml:"width"`
		Height uint32 `yaml:"height"`
	} `yaml:"resolution"`
	ExposureMs uint32 `yaml:"exposure_ms"`
}

// StageSimConfig describes a simulated single-axis mover.
type StageSimConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ID          string  `yaml:"id"`
	TravelMin   float64 `yaml:"travel_min"`
	TravelMax   float64 `yaml:"travel_max"`
	SettleMs    int     `yaml:"settle_ms"`
}

// SensorSimConfig describes a simulated scalar detector.
type SensorSimConfig struct {
	Enabled bool    `yaml:"enabled"`
	ID      string  `yaml:"id"`
	Base    float64 `yaml:"base"`
	Jitter  float64 `yaml:"jitter"`
}

// Config is daqd's minimal bootstrap configuration: this is demo
// simulation wiring, not the layered device-discovery configuration a
// production deployment would use.
type Config struct {
	Camera CameraSimConfig   `yaml:"camera"`
	Stage  StageSimConfig    `yaml:"stage"`
	Sensor SensorSimConfig   `yaml:"sensor"`
}

// DefaultConfig returns the configuration daqd runs with if no
// -config flag is given: a camera, a stage and a sensor, so the demo plan
// built in main.go has something to move and read.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Camera.Enabled = true
	cfg.Camera.Resolution.Width = 64
	cfg.Camera.Resolution.Height = 64
	cfg.Camera.ExposureMs = 20

	cfg.Stage.Enabled = true
	cfg.Stage.ID = "stage1"
	cfg.Stage.TravelMin = 0
	cfg.Stage.TravelMax = 100
	cfg.Stage.SettleMs = 5

	cfg.Sensor.Enabled = true
	cfg.Sensor.ID = "diode1"
	cfg.Sensor.Base = 1.0
	cfg.Sensor.Jitter = 0.05

	return cfg
}

// LoadConfig reads and parses a daqd YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *StageSimConfig) settleDelay() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}
