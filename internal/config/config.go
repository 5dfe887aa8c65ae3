package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
)

const (
	DefaultMode     = "pid"
	DefaultDuration = 20.0
	DefaultFPS      = 60
	DefaultHistory  = 240
	DefaultKickGap  = 1.0
)

type Config struct {
	Mode     string        `yaml:"mode"`
	Duration float64       `yaml:"duration"`
	Seed     int64         `yaml:"seed"`
	Physics  PhysicsConfig `yaml:"physics"`
	Gains    GainsConfig   `yaml:"gains"`
	Kicks    KicksConfig   `yaml:"kicks"`
	Live     LiveConfig    `yaml:"live"`
}

type PhysicsConfig struct {
	Gravity           float64 `yaml:"gravity"`
	RodLength         float64 `yaml:"rod_length"`
	CartWidth         float64 `yaml:"cart_width"`
	TrackWidth        float64 `yaml:"track_width"`
	Damping           float64 `yaml:"damping"`
	Dt                float64 `yaml:"dt"`
	EdgeTimeThreshold float64 `yaml:"edge_time_threshold"`
}

// GainsConfig holds effective gains, already scaled.
type GainsConfig struct {
	Kp              float64 `yaml:"kp"`
	Ki              float64 `yaml:"ki"`
	Kd              float64 `yaml:"kd"`
	ConvergenceRate float64 `yaml:"convergence_rate"`
}

// KicksConfig schedules random manual deflections for headless runs.
// MinGap is in seconds.
type KicksConfig struct {
	Count     int     `yaml:"count"`
	Magnitude float64 `yaml:"magnitude"`
	MinGap    float64 `yaml:"min_gap"`
}

type LiveConfig struct {
	FPS     int `yaml:"fps"`
	History int `yaml:"history"`
}

func DefaultConfig() *Config {
	c := dynamo.DefaultConstants()
	g := control.DefaultGains()
	return &Config{
		Mode:     DefaultMode,
		Duration: DefaultDuration,
		Physics: PhysicsConfig{
			Gravity:           c.Gravity,
			RodLength:         c.RodLength,
			CartWidth:         c.CartWidth,
			TrackWidth:        c.TrackWidth,
			Damping:           c.Damping,
			Dt:                c.Dt,
			EdgeTimeThreshold: c.EdgeTimeThreshold,
		},
		Gains: GainsConfig{
			Kp:              g.Kp,
			Ki:              g.Ki,
			Kd:              g.Kd,
			ConvergenceRate: g.ConvergenceRate,
		},
		Kicks: KicksConfig{
			Magnitude: control.DeviationStep,
			MinGap:    DefaultKickGap,
		},
		Live: LiveConfig{
			FPS:     DefaultFPS,
			History: DefaultHistory,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Constants().Validate(); err != nil {
		return err
	}
	if err := c.Gains.toGains().Validate(); err != nil {
		return err
	}
	if _, err := c.ParsedMode(); err != nil {
		return err
	}
	if c.Duration <= 0 || math.IsInf(c.Duration, 0) || math.IsNaN(c.Duration) {
		return &dynamo.ConfigurationError{Field: "duration", Value: c.Duration, Reason: "must be positive"}
	}
	if c.Kicks.Count < 0 {
		return &dynamo.ConfigurationError{Field: "kicks.count", Value: float64(c.Kicks.Count), Reason: "must be non-negative"}
	}
	if c.Kicks.MinGap < 0 {
		return &dynamo.ConfigurationError{Field: "kicks.min_gap", Value: c.Kicks.MinGap, Reason: "must be non-negative"}
	}
	if c.Live.FPS <= 0 {
		return &dynamo.ConfigurationError{Field: "live.fps", Value: float64(c.Live.FPS), Reason: "must be positive"}
	}
	if c.Live.History <= 0 {
		return &dynamo.ConfigurationError{Field: "live.history", Value: float64(c.Live.History), Reason: "must be positive"}
	}
	return nil
}

func (c *Config) Constants() dynamo.Constants {
	return dynamo.Constants{
		Gravity:           c.Physics.Gravity,
		RodLength:         c.Physics.RodLength,
		CartWidth:         c.Physics.CartWidth,
		TrackWidth:        c.Physics.TrackWidth,
		Damping:           c.Physics.Damping,
		Dt:                c.Physics.Dt,
		EdgeTimeThreshold: c.Physics.EdgeTimeThreshold,
	}
}

func (c *Config) Gain() control.Gains {
	return c.Gains.toGains()
}

func (g GainsConfig) toGains() control.Gains {
	return control.Gains{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd, ConvergenceRate: g.ConvergenceRate}
}

func (c *Config) ParsedMode() (dynamo.Mode, error) {
	return dynamo.ParseMode(c.Mode)
}

// Ticks is the number of whole ticks that fit in Duration.
func (c *Config) Ticks() int {
	if c.Physics.Dt <= 0 {
		return 0
	}
	return int(math.Round(c.Duration / c.Physics.Dt))
}

// KickGapTicks converts MinGap to ticks, at least one.
func (c *Config) KickGapTicks() int {
	if c.Physics.Dt <= 0 {
		return 1
	}
	n := int(math.Ceil(c.Kicks.MinGap / c.Physics.Dt))
	if n < 1 {
		n = 1
	}
	return n
}
