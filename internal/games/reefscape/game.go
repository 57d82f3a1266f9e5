// Package reefscape implements the 2025 FRC game Reefscape.
// A single robot cycles coral onto the four reef levels, clears algae into
// the processor or net, and climbs a cage during the endgame.
package reefscape

import (
	"fmt"

	"github.com/vovakirdan/stratometer/internal/config"
	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/registry"
)

// ID is the registry identifier of this game.
const ID = "reefscape"

// Field state flags
const (
	FlagHasCoral      = "has_coral"
	FlagHasAlgae      = "has_algae"
	FlagLeft          = "left_start"
	FlagAutonComplete = "auton_complete"
	FlagCoralFloor    = "coral_floor"
	FlagCoralStation  = "coral_station"
	FlagAlgaeReef     = "algae_reef"
	FlagProcessor     = "algae_processor"
	FlagNet           = "algae_net"
	FlagParked        = "parked"
	FlagCage          = "cage" // 0 none, 1 shallow, 2 deep
)

// Cage levels stored in FlagCage.
const (
	CageShallow = 1
	CageDeep    = 2
)

// LevelFlag returns the counter flag for reef level n (1-4).
func LevelFlag(n int) string {
	return fmt.Sprintf("coral_l%d", n)
}

// ScoreAction returns the action that places coral on reef level n (1-4).
func ScoreAction(n int) string {
	return fmt.Sprintf("score_l%d", n)
}

// configPath stores the custom config path set via CLI
var configPath string

// SetConfigPath sets the custom config path for loading.
func SetConfigPath(path string) {
	configPath = path
}

// Game implements registry.Game for Reefscape.
type Game struct {
	cfg     config.ReefscapeConfig
	actions match.Actions
}

// New creates a game from an explicit configuration.
func New(cfg config.ReefscapeConfig) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	actions, err := match.NewActions(buildActions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("reefscape: %w", err)
	}
	return &Game{cfg: cfg, actions: actions}, nil
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return ID
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Reefscape (FRC 2025)"
}

// Timing returns the standard FRC match clock.
func (g *Game) Timing() match.Timing {
	return match.DefaultTiming()
}

// Actions returns the Reefscape action set.
func (g *Game) Actions() match.Actions {
	return g.actions
}

// Config returns the configuration the game was built from.
func (g *Game) Config() config.ReefscapeConfig {
	return g.cfg
}

// Setup places the game pieces for a fresh match. The robot starts
// holding a coral when the alliance has any preloaded.
func (g *Game) Setup(f match.Flags) {
	field := g.cfg.Field
	for n := 1; n <= 4; n++ {
		f.Set(LevelFlag(n), 0)
	}
	f.Set(FlagCoralFloor, field.FloorCoral)
	f.Set(FlagCoralStation, field.TotalCoral-field.PreloadedCoral)
	f.Set(FlagAlgaeReef, field.ReefAlgae)
	f.SetBool(FlagHasCoral, field.PreloadedCoral > 0)
	f.SetBool(FlagHasAlgae, false)
	f.SetBool(FlagAutonComplete, false)
}

func buildActions(cfg config.ReefscapeConfig) []match.Action {
	pts := cfg.Points
	dur := func(name string, def float64) match.Sampler {
		return cfg.Duration(name, match.Fixed(def))
	}
	capacity := func(n int) int {
		if n == 1 {
			return cfg.Field.TroughCapacity
		}
		return cfg.Field.BranchCapacity
	}

	actions := []match.Action{
		{
			Name:     "leave",
			Duration: dur("leave", 2),
			Requires: []match.Precondition{
				match.RequirePhase(match.PhaseAuton),
				match.RequireNoFlag(FlagLeft),
			},
			Effect: func(m *match.Mutation) {
				if m.Clipped {
					return
				}
				m.Flags().SetBool(FlagLeft, true)
				m.AddScore(pts.Leave)
			},
		},
		{
			Name:     "simple_auton",
			Duration: dur("simple_auton", 10),
			Requires: []match.Precondition{
				match.RequirePhase(match.PhaseAuton),
				match.RequireNoFlag(FlagAutonComplete),
			},
			Effect: func(m *match.Mutation) {
				if m.Clipped {
					return
				}
				f := m.Flags()
				if f.Bool(FlagHasCoral) && f.Int(LevelFlag(1)) < capacity(1) {
					f.Add(LevelFlag(1), 1)
					f.SetBool(FlagHasCoral, false)
					m.AddScore(pts.AutonCoral.L1)
				}
				if !f.Bool(FlagLeft) {
					f.SetBool(FlagLeft, true)
					m.AddScore(pts.Leave)
				}
				f.SetBool(FlagAutonComplete, true)
			},
		},
		intake("intake_station", FlagCoralStation, dur("intake_station", 4)),
		intake("intake_floor", FlagCoralFloor, dur("intake_floor", 3)),
	}

	for n := 1; n <= 4; n++ {
		actions = append(actions, placeCoral(n, capacity(n), pts, dur(ScoreAction(n), 3)))
	}

	actions = append(actions,
		match.Action{
			Name:     "remove_algae",
			Duration: dur("remove_algae", 3),
			Requires: []match.Precondition{
				match.RequireNoFlag(FlagHasAlgae),
				match.RequireAtLeast(FlagAlgaeReef, 1),
			},
			Effect: func(m *match.Mutation) {
				if m.Clipped {
					return
				}
				m.Flags().Add(FlagAlgaeReef, -1)
				m.Flags().SetBool(FlagHasAlgae, true)
			},
		},
		scoreAlgae("score_processor", FlagProcessor, pts.Processor, dur("score_processor", 4)),
		scoreAlgae("score_net", FlagNet, pts.Net, dur("score_net", 5)),
		match.Action{
			Name:     "park",
			Duration: dur("park", 3),
			Requires: []match.Precondition{
				match.RequirePhase(match.PhaseEndgame),
				match.RequireNoFlag(FlagParked),
				match.RequireBelow(FlagCage, CageShallow),
			},
			Effect: func(m *match.Mutation) {
				if m.Clipped {
					return
				}
				m.Flags().SetBool(FlagParked, true)
				m.AddScore(pts.Park)
			},
		},
		climb("shallow_climb", CageShallow, pts.ShallowClimb, dur("shallow_climb", 8)),
		climb("deep_climb", CageDeep, pts.DeepClimb, dur("deep_climb", 12)),
		match.Action{
			Name:     "sleep",
			Duration: dur("sleep", 60),
		},
	)
	return actions
}

func intake(name, source string, d match.Sampler) match.Action {
	return match.Action{
		Name:     name,
		Duration: d,
		Requires: []match.Precondition{
			match.RequireNoFlag(FlagHasCoral),
			match.RequireAtLeast(source, 1),
		},
		Effect: func(m *match.Mutation) {
			if m.Clipped {
				return
			}
			m.Flags().Add(source, -1)
			m.Flags().SetBool(FlagHasCoral, true)
		},
	}
}

// placeCoral scores auton points for coral placed before the autonomous
// period ends and teleop points afterwards.
func placeCoral(level, capacity int, pts config.ReefscapePoints, d match.Sampler) match.Action {
	flag := LevelFlag(level)
	return match.Action{
		Name:     ScoreAction(level),
		Duration: d,
		Requires: []match.Precondition{
			match.RequireFlag(FlagHasCoral),
			match.RequireBelow(flag, capacity),
		},
		Effect: func(m *match.Mutation) {
			if m.Clipped {
				return
			}
			m.Flags().Add(flag, 1)
			m.Flags().SetBool(FlagHasCoral, false)
			if m.Phase == match.PhaseAuton {
				m.AddScore(pts.AutonCoral.Level(level))
			} else {
				m.AddScore(pts.TeleopCoral.Level(level))
			}
		},
	}
}

func scoreAlgae(name, target string, points float64, d match.Sampler) match.Action {
	return match.Action{
		Name:     name,
		Duration: d,
		Requires: []match.Precondition{match.RequireFlag(FlagHasAlgae)},
		Effect: func(m *match.Mutation) {
			if m.Clipped {
				return
			}
			m.Flags().Add(target, 1)
			m.Flags().SetBool(FlagHasAlgae, false)
			m.AddScore(points)
		},
	}
}

// climb hangs from a cage. A climb cut off by the buzzer scores nothing.
func climb(name string, cage int, points float64, d match.Sampler) match.Action {
	return match.Action{
		Name:     name,
		Duration: d,
		Requires: []match.Precondition{
			match.RequirePhase(match.PhaseEndgame),
			match.RequireNoFlag(FlagParked),
			match.RequireBelow(FlagCage, CageShallow),
		},
		Effect: func(m *match.Mutation) {
			if m.Clipped {
				return
			}
			m.Flags().Set(FlagCage, cage)
			m.AddScore(points)
		},
	}
}

// Register the game with the registry
func init() {
	registry.RegisterGame(ID, func() registry.Game {
		return load()
	})
	registerStrategies()
}

// load builds the game from the configured path, falling back to the
// built-in configuration when the file cannot be used. Callers that need
// to surface config errors load the config themselves and call New.
func load() *Game {
	cfg, err := config.LoadReefscape(configPath)
	if err != nil {
		cfg = config.DefaultReefscapeConfig()
	}
	g, err := New(cfg)
	if err != nil {
		panic(fmt.Sprintf("reefscape: default config rejected: %v", err))
	}
	return g
}
