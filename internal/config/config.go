// Package config provides YAML-based simulation and game configuration
// loading for stratometer.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/stratometer/internal/match"
)

// SimConfig contains the engine and batch settings shared by every game.
type SimConfig struct {
	Match  match.Timing `yaml:"match"`
	Engine EngineConfig `yaml:"engine"`
	Batch  BatchConfig  `yaml:"batch"`
}

// EngineConfig tunes the match simulator.
type EngineConfig struct {
	// MaxZeroSteps is how many zero-duration actions may run back to back
	// before a match is declared non-progressing.
	MaxZeroSteps int `yaml:"max_zero_steps"`
}

// BatchConfig holds batch defaults; CLI flags override them.
type BatchConfig struct {
	Runs    int    `yaml:"runs"`
	Workers int    `yaml:"workers"`
	Seed    int64  `yaml:"seed"`
	OnError string `yaml:"on_error"` // "skip" or "halt"
}

// Validate checks the configuration for values the simulator cannot use.
func (c SimConfig) Validate() error {
	if err := c.Match.Validate(); err != nil {
		return fmt.Errorf("config: sim.match: %w", err)
	}
	if c.Engine.MaxZeroSteps < 1 {
		return fmt.Errorf("config: sim.engine.max_zero_steps must be at least 1, got %d", c.Engine.MaxZeroSteps)
	}
	if c.Batch.Runs < 1 {
		return fmt.Errorf("config: sim.batch.runs must be at least 1, got %d", c.Batch.Runs)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("config: sim.batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	switch c.Batch.OnError {
	case "skip", "halt":
	default:
		return fmt.Errorf("config: sim.batch.on_error must be skip or halt, got %q", c.Batch.OnError)
	}
	return nil
}

// ReefscapeConfig contains all configuration for the 2025 Reefscape game.
type ReefscapeConfig struct {
	Field     ReefscapeField          `yaml:"field"`
	Points    ReefscapePoints         `yaml:"points"`
	Durations map[string]DurationSpec `yaml:"durations"`
}

// ReefscapeField defines the starting game-piece counts and reef capacity.
type ReefscapeField struct {
	PreloadedCoral int `yaml:"preloaded_coral"`
	TotalCoral     int `yaml:"total_coral"`
	FloorCoral     int `yaml:"floor_coral"`
	ReefAlgae      int `yaml:"reef_algae"`
	TroughCapacity int `yaml:"trough_capacity"`
	BranchCapacity int `yaml:"branch_capacity"`
}

// ReefscapePoints defines the score of each scoring action.
type ReefscapePoints struct {
	Leave        float64     `yaml:"leave"`
	AutonCoral   CoralPoints `yaml:"auton_coral"`
	TeleopCoral  CoralPoints `yaml:"teleop_coral"`
	Processor    float64     `yaml:"processor"`
	Net          float64     `yaml:"net"`
	Park         float64     `yaml:"park"`
	ShallowClimb float64     `yaml:"shallow_climb"`
	DeepClimb    float64     `yaml:"deep_climb"`
}

// CoralPoints holds per-level coral values for one period.
type CoralPoints struct {
	L1 float64 `yaml:"l1"`
	L2 float64 `yaml:"l2"`
	L3 float64 `yaml:"l3"`
	L4 float64 `yaml:"l4"`
}

// Level returns the points for reef level 1-4, or 0 for anything else.
func (c CoralPoints) Level(n int) float64 {
	switch n {
	case 1:
		return c.L1
	case 2:
		return c.L2
	case 3:
		return c.L3
	case 4:
		return c.L4
	}
	return 0
}

// Validate checks the configuration for values the game cannot use.
func (c ReefscapeConfig) Validate() error {
	f := c.Field
	if f.PreloadedCoral < 0 || f.FloorCoral < 0 || f.ReefAlgae < 0 {
		return errors.New("config: reefscape.field counts must not be negative")
	}
	if f.TotalCoral < f.PreloadedCoral {
		return fmt.Errorf("config: reefscape.field.total_coral (%d) is less than preloaded_coral (%d)",
			f.TotalCoral, f.PreloadedCoral)
	}
	if f.TroughCapacity < 1 || f.BranchCapacity < 1 {
		return errors.New("config: reefscape.field capacities must be at least 1")
	}
	for name, d := range c.Durations {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("config: reefscape.durations.%s: %w", name, err)
		}
	}
	return nil
}

// Duration returns the sampler for an action, falling back to def when
// the action has no entry.
func (c ReefscapeConfig) Duration(action string, def match.Sampler) match.Sampler {
	spec, ok := c.Durations[action]
	if !ok {
		return def
	}
	s, err := spec.Sampler()
	if err != nil {
		return def
	}
	return s
}

// DurationSpec describes how long an action takes.
//
//	kind: fixed    uses Value
//	kind: uniform  draws from [Min, Max)
//	kind: normal   draws from N(Mean, StdDev) clamped below at Min
type DurationSpec struct {
	Kind   string  `yaml:"kind"`
	Value  float64 `yaml:"value,omitempty"`
	Mean   float64 `yaml:"mean,omitempty"`
	StdDev float64 `yaml:"stddev,omitempty"`
	Min    float64 `yaml:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty"`
}

// Validate checks that the spec describes a non-negative distribution.
func (d DurationSpec) Validate() error {
	for _, v := range []float64{d.Value, d.Mean, d.StdDev, d.Min, d.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("duration values must be finite")
		}
	}
	switch d.Kind {
	case "fixed":
		if d.Value < 0 {
			return fmt.Errorf("fixed duration must not be negative, got %v", d.Value)
		}
	case "uniform":
		if d.Min < 0 || d.Max < d.Min {
			return fmt.Errorf("uniform duration needs 0 <= min <= max, got [%v, %v]", d.Min, d.Max)
		}
	case "normal":
		if d.StdDev < 0 {
			return fmt.Errorf("normal duration stddev must not be negative, got %v", d.StdDev)
		}
		if d.Min < 0 {
			return fmt.Errorf("normal duration min must not be negative, got %v", d.Min)
		}
	default:
		return fmt.Errorf("unknown duration kind %q", d.Kind)
	}
	return nil
}

// Sampler builds the match sampler described by the spec.
func (d DurationSpec) Sampler() (match.Sampler, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch d.Kind {
	case "uniform":
		return match.Uniform{Min: d.Min, Max: d.Max}, nil
	case "normal":
		return match.Normal{Mean: d.Mean, StdDev: d.StdDev, Min: d.Min}, nil
	}
	return match.Fixed(d.Value), nil
}
