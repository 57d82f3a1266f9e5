package reefscape

import (
	"errors"
	"testing"

	"github.com/vovakirdan/stratometer/internal/config"
	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/registry"
)

// fixedConfig returns the default configuration with every action
// duration pinned to its mean so matches are fully predictable.
func fixedConfig() config.ReefscapeConfig {
	cfg := config.DefaultReefscapeConfig()
	for name, d := range cfg.Durations {
		switch d.Kind {
		case "normal":
			cfg.Durations[name] = config.DurationSpec{Kind: "fixed", Value: d.Mean}
		case "uniform":
			cfg.Durations[name] = config.DurationSpec{Kind: "fixed", Value: (d.Min + d.Max) / 2}
		}
	}
	return cfg
}

func newGame(t *testing.T, cfg config.ReefscapeConfig) *Game {
	t.Helper()
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return g
}

func play(t *testing.T, g *Game, s match.Strategy, seed int64) match.Result {
	t.Helper()
	sim, err := match.New(match.Config{Timing: g.Timing(), Setup: g.Setup}, g.Actions(), s)
	if err != nil {
		t.Fatalf("match.New() failed: %v", err)
	}
	res, err := sim.Run(match.NewRand(seed))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return res
}

func TestSetup(t *testing.T) {
	g := newGame(t, config.DefaultReefscapeConfig())
	f := make(match.Flags)
	g.Setup(f)

	for n := 1; n <= 4; n++ {
		if f.Int(LevelFlag(n)) != 0 {
			t.Errorf("Expected empty %s, got %d", LevelFlag(n), f.Int(LevelFlag(n)))
		}
	}
	if f.Int(FlagCoralFloor) != 3 {
		t.Errorf("Expected 3 floor coral, got %d", f.Int(FlagCoralFloor))
	}
	if f.Int(FlagCoralStation) != 57 {
		t.Errorf("Expected 57 station coral, got %d", f.Int(FlagCoralStation))
	}
	if !f.Bool(FlagHasCoral) || f.Bool(FlagHasAlgae) || f.Bool(FlagAutonComplete) {
		t.Errorf("Unexpected robot state: %v", f)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultReefscapeConfig()
	cfg.Field.BranchCapacity = 0
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for zero branch capacity")
	}
}

func TestSimpleCoralMatchesOriginalRoutine(t *testing.T) {
	g := newGame(t, config.DefaultReefscapeConfig())
	res := play(t, g, SimpleCoral(), 1)

	if res.FinalScore() != 6 {
		t.Errorf("Expected 6 points (L1 + leave), got %v", res.FinalScore())
	}
	if res.PhasePoints(match.PhaseAuton) != 6 {
		t.Errorf("Expected all points in auton, got %v", res.PhasePoints(match.PhaseAuton))
	}

	want := []string{"simple_auton", "sleep", "sleep", "sleep"}
	history := res.History()
	if len(history) != len(want) {
		t.Fatalf("Expected %d steps, got %d: %+v", len(want), len(history), history)
	}
	for i, name := range want {
		if history[i].Action != name {
			t.Errorf("step %d: expected %s, got %s", i, name, history[i].Action)
		}
	}
	if !history[1].Clipped || history[1].Taken != 20 {
		t.Errorf("Auton sleep should be clipped to 20s, got %+v", history[1])
	}
	if res.TimeRemaining() != 0 {
		t.Errorf("Expected 0 remaining, got %v", res.TimeRemaining())
	}
}

func TestCoralCyclerScoresAutonPointsAndClimbs(t *testing.T) {
	g := newGame(t, fixedConfig())
	res := play(t, g, CoralCycler(g.Actions()), 1)
	history := res.History()

	if history[0].Action != "leave" || history[0].Points != 3 {
		t.Errorf("Expected leave for 3 points first, got %+v", history[0])
	}
	if history[1].Action != "score_l4" || history[1].Points != 7 {
		t.Errorf("Expected preload on L4 for 7 auton points, got %+v", history[1])
	}
	if res.Count("deep_climb") != 1 {
		t.Errorf("Expected exactly one deep climb, got %d", res.Count("deep_climb"))
	}
	last := history[len(history)-1]
	if last.Action != match.PassAction {
		t.Errorf("Expected the robot to idle after climbing, got %s", last.Action)
	}
	if res.PhasePoints(match.PhaseEndgame) < 12 {
		t.Errorf("Expected the deep climb in endgame points, got %v", res.PhasePoints(match.PhaseEndgame))
	}

	// Every teleop placement uses teleop values
	for _, st := range history {
		if st.Phase == match.PhaseTeleop && st.Action == "score_l4" && st.Points != 5 {
			t.Errorf("Teleop L4 should score 5, got %+v", st)
		}
	}
}

func TestRegisteredStrategiesFinishMatches(t *testing.T) {
	g, err := registry.CreateGame(ID)
	if err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	list := registry.Strategies(ID)
	if len(list) != 5 {
		t.Fatalf("Expected 5 strategies, got %d", len(list))
	}

	for _, info := range list {
		t.Run(info.ID, func(t *testing.T) {
			for seed := int64(1); seed <= 20; seed++ {
				r := match.NewRand(seed)
				s, err := registry.CreateStrategy(g, info.ID, r)
				if err != nil {
					t.Fatalf("CreateStrategy() failed: %v", err)
				}
				sim, err := match.New(match.Config{Timing: g.Timing(), Setup: g.Setup}, g.Actions(), s)
				if err != nil {
					t.Fatalf("match.New() failed: %v", err)
				}
				res, err := sim.Run(r)
				if err != nil {
					t.Fatalf("seed %d: Run() failed: %v", seed, err)
				}
				if res.TimeRemaining() != 0 {
					t.Errorf("seed %d: expected 0 remaining, got %v", seed, res.TimeRemaining())
				}
				if res.FinalScore() < 0 {
					t.Errorf("seed %d: negative score %v", seed, res.FinalScore())
				}
			}
		})
	}
}

func TestLevelCapacity(t *testing.T) {
	g := newGame(t, config.DefaultReefscapeConfig())
	s := match.NewStatus(g.Timing(), func(f match.Flags) {
		g.Setup(f)
		f.Set(LevelFlag(4), 12)
	})

	l4, _ := g.Actions().Lookup(ScoreAction(4))
	if l4.Allowed(s.View()) {
		t.Error("score_l4 should be blocked on a full level")
	}
	l1, _ := g.Actions().Lookup(ScoreAction(1))
	if !l1.Allowed(s.View()) {
		t.Error("score_l1 should be allowed while holding coral")
	}
}

func TestClippedClimbScoresNothing(t *testing.T) {
	g := newGame(t, config.DefaultReefscapeConfig())
	cfg := match.Config{Timing: g.Timing(), Setup: g.Setup}
	history := []match.Step{
		{Action: "sleep", Nominal: 30},      // end of auton
		{Action: "sleep", Nominal: 115},     // 145s elapsed
		{Action: "deep_climb", Nominal: 12}, // cut off by the buzzer
	}

	res, err := match.Replay(cfg, g.Actions(), "climber", history)
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	steps := res.History()
	climb := steps[len(steps)-1]
	if !climb.Clipped || climb.Points != 0 || climb.Phase != match.PhaseEndgame {
		t.Errorf("Expected clipped endgame climb with no points, got %+v", climb)
	}
	if res.Flag(FlagCage) != 0 {
		t.Error("Clipped climb should not occupy the cage")
	}
}

func TestAutonOnlyActions(t *testing.T) {
	g := newGame(t, config.DefaultReefscapeConfig())
	cfg := match.Config{Timing: g.Timing(), Setup: g.Setup}

	tests := []struct {
		name   string
		second string
	}{
		{"simple_auton runs once", "simple_auton"},
		{"leave after leaving", "leave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := match.New(cfg, g.Actions(), scripted("simple_auton", tt.second))
			if err != nil {
				t.Fatalf("match.New() failed: %v", err)
			}
			res, err := sim.Run(match.NewRand(1))
			if !errors.Is(err, match.ErrInvalidActionChoice) {
				t.Fatalf("Expected InvalidActionChoice for %s, got %v", tt.second, err)
			}
			if res.Len() != 1 {
				t.Errorf("Expected only the auton routine in history, got %d steps", res.Len())
			}
			if res.Flag(LevelFlag(1)) != 1 || res.Flag(FlagHasCoral) != 0 {
				t.Error("simple_auton should deliver the preload to L1")
			}
		})
	}
}

// scripted plays the given actions in order, then passes.
func scripted(names ...string) match.Strategy {
	i := 0
	return match.NewStrategy("scripted", func(match.View) (string, bool) {
		if i >= len(names) {
			return "", false
		}
		i++
		return names[i-1], true
	})
}

func TestAlgaeFirstUsesBothTargets(t *testing.T) {
	g := newGame(t, fixedConfig())
	res := play(t, g, AlgaeFirst(g.Actions()), 1)

	if res.Count("remove_algae") != 6 {
		t.Errorf("Expected all 6 algae removed, got %d", res.Count("remove_algae"))
	}
	if res.Count("score_processor") != 3 || res.Count("score_net") != 3 {
		t.Errorf("Expected algae split 3/3, got processor=%d net=%d",
			res.Count("score_processor"), res.Count("score_net"))
	}
	if res.Count("park") != 1 {
		t.Errorf("Expected a park at endgame, got %d", res.Count("park"))
	}
}
