// Package config handles reshape tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/multires/internal/ccg"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Reshape ReshapeConfig `yaml:"reshape"`
	Undo    UndoConfig    `yaml:"undo"`
	Demo    DemoConfig    `yaml:"demo"`
	Logging LoggingConfig `yaml:"logging"`
}

// ReshapeConfig holds grid synchronization settings.
type ReshapeConfig struct {
	Workers int `yaml:"workers"` // goroutines per sync pass, 1 = serial
}

// UndoConfig holds undo history settings.
type UndoConfig struct {
	MaxSteps    int    `yaml:"max_steps"`
	Compression string `yaml:"compression"` // fastest, default, better, best
}

// DemoConfig describes the synthetic mesh the demo command sculpts.
type DemoConfig struct {
	Level     int   `yaml:"level"`
	FaceSizes []int `yaml:"face_sizes"`
	WithMask  bool  `yaml:"with_mask"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Reshape: ReshapeConfig{
			Workers: 1,
		},
		Undo: UndoConfig{
			MaxSteps:    32,
			Compression: "default",
		},
		Demo: DemoConfig{
			Level:     2,
			FaceSizes: []int{4, 4, 4, 4, 4, 4},
			WithMask:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	switch {
	case c.Reshape.Workers < 1:
		return fmt.Errorf("%w: reshape.workers %d < 1", ErrInvalidConfig, c.Reshape.Workers)
	case c.Undo.MaxSteps < 1:
		return fmt.Errorf("%w: undo.max_steps %d < 1", ErrInvalidConfig, c.Undo.MaxSteps)
	case c.Demo.Level < 0 || c.Demo.Level > ccg.MaxLevel:
		return fmt.Errorf("%w: demo.level %d outside [0, %d]", ErrInvalidConfig, c.Demo.Level, ccg.MaxLevel)
	case len(c.Demo.FaceSizes) == 0:
		return fmt.Errorf("%w: demo.face_sizes is empty", ErrInvalidConfig)
	}
	switch c.Undo.Compression {
	case "fastest", "default", "better", "best":
	default:
		return fmt.Errorf("%w: undo.compression %q", ErrInvalidConfig, c.Undo.Compression)
	}
	return nil
}
