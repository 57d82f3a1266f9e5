package config

import (
	_ "embed"

	"github.com/vovakirdan/stratometer/internal/match"
)

//go:embed defaults/sim.yaml
var defaultSimYAML []byte

//go:embed defaults/reefscape.yaml
var defaultReefscapeYAML []byte

// DefaultSimConfig returns the default simulation configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Match: match.DefaultTiming(),
		Engine: EngineConfig{
			MaxZeroSteps: match.DefaultMaxZeroSteps,
		},
		Batch: BatchConfig{
			Runs:    100,
			Workers: 0, // one per CPU
			Seed:    0, // time based
			OnError: "skip",
		},
	}
}

// DefaultReefscapeConfig returns the default Reefscape configuration.
// Point values follow the 2025 game manual.
func DefaultReefscapeConfig() ReefscapeConfig {
	return ReefscapeConfig{
		Field: ReefscapeField{
			PreloadedCoral: 3,
			TotalCoral:     60,
			FloorCoral:     3,
			ReefAlgae:      6,
			TroughCapacity: 24,
			BranchCapacity: 12,
		},
		Points: ReefscapePoints{
			Leave:        3,
			AutonCoral:   CoralPoints{L1: 3, L2: 4, L3: 6, L4: 7},
			TeleopCoral:  CoralPoints{L1: 2, L2: 3, L3: 4, L4: 5},
			Processor:    6,
			Net:          4,
			Park:         2,
			ShallowClimb: 6,
			DeepClimb:    12,
		},
		Durations: map[string]DurationSpec{
			"leave":           {Kind: "fixed", Value: 2},
			"simple_auton":    {Kind: "fixed", Value: 10},
			"intake_station":  {Kind: "normal", Mean: 4, StdDev: 1, Min: 1.5},
			"intake_floor":    {Kind: "normal", Mean: 3, StdDev: 1, Min: 1},
			"score_l1":        {Kind: "normal", Mean: 2.5, StdDev: 0.5, Min: 1},
			"score_l2":        {Kind: "normal", Mean: 3, StdDev: 0.7, Min: 1.2},
			"score_l3":        {Kind: "normal", Mean: 3.5, StdDev: 0.8, Min: 1.5},
			"score_l4":        {Kind: "normal", Mean: 4.5, StdDev: 1, Min: 2},
			"remove_algae":    {Kind: "normal", Mean: 3, StdDev: 0.8, Min: 1},
			"score_processor": {Kind: "normal", Mean: 4, StdDev: 1, Min: 1.5},
			"score_net":       {Kind: "normal", Mean: 5, StdDev: 1.2, Min: 2},
			"park":            {Kind: "uniform", Min: 2, Max: 4},
			"shallow_climb":   {Kind: "normal", Mean: 8, StdDev: 2, Min: 4},
			"deep_climb":      {Kind: "normal", Mean: 12, StdDev: 3, Min: 6},
			"sleep":           {Kind: "fixed", Value: 60},
		},
	}
}
