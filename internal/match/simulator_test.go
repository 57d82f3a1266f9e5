package match

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func scoreOnce() Action {
	return Action{
		Name:     "score_once",
		Duration: Fixed(10),
		Effect:   func(m *Mutation) { m.AddScore(5) },
	}
}

func newTestSim(t *testing.T, cfg Config, strategy Strategy, actions ...Action) *Simulator {
	t.Helper()
	sim, err := New(cfg, MustActions(actions...), strategy)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return sim
}

// scripted plays the given action names in order, then passes.
func scripted(names ...string) Strategy {
	i := 0
	return NewStrategy("scripted", func(View) (string, bool) {
		if i >= len(names) {
			return "", false
		}
		i++
		return names[i-1], true
	})
}

func TestScoreOnceScenario(t *testing.T) {
	cfg := Config{Timing: Timing{Duration: 120}}
	sim := newTestSim(t, cfg, Always("always_score", "score_once"), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.FinalScore() != 60 {
		t.Errorf("Expected final score 60, got %v", res.FinalScore())
	}
	if res.Len() != 12 {
		t.Errorf("Expected 12 history entries, got %d", res.Len())
	}
	if res.TimeRemaining() != 0 {
		t.Errorf("Expected 0 time remaining, got %v", res.TimeRemaining())
	}
	if res.StrategyID() != "always_score" {
		t.Errorf("Expected strategy id always_score, got %q", res.StrategyID())
	}
	if sim.State() != StateEnded {
		t.Errorf("Expected state ended, got %s", sim.State())
	}

	// Score after each step climbs by 5
	for i, st := range res.History() {
		if st.ScoreAfter != float64(5*(i+1)) {
			t.Errorf("Step %d: expected score_after %d, got %v", i, 5*(i+1), st.ScoreAfter)
		}
		if st.Taken != 10 {
			t.Errorf("Step %d: expected 10s taken, got %v", i, st.Taken)
		}
	}
}

func TestUnregisteredActionFails(t *testing.T) {
	cfg := Config{Timing: Timing{Duration: 120}}
	sim := newTestSim(t, cfg, scripted("score_once", "score_once", "score_once", "fly"), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if !errors.Is(err, ErrInvalidActionChoice) {
		t.Fatalf("Expected InvalidActionChoice, got %v", err)
	}
	if KindOf(err) != KindInvalidActionChoice {
		t.Errorf("Expected kind InvalidActionChoice, got %s", KindOf(err))
	}

	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if me.Action != "fly" || me.Step != 3 {
		t.Errorf("Expected action fly at step 3, got %q at %d", me.Action, me.Step)
	}

	// Partial history is preserved
	if !res.Failed() {
		t.Error("Result should be marked failed")
	}
	if res.Len() != 3 {
		t.Errorf("Expected 3 history entries before failure, got %d", res.Len())
	}
	if res.FinalScore() != 15 {
		t.Errorf("Expected partial score 15, got %v", res.FinalScore())
	}
	if res.TimeRemaining() != 90 {
		t.Errorf("Expected 90s remaining at failure, got %v", res.TimeRemaining())
	}
	if !errors.Is(res.Err(), ErrInvalidActionChoice) {
		t.Errorf("Result error should be InvalidActionChoice, got %v", res.Err())
	}
}

func TestPreconditionFailureIsFatal(t *testing.T) {
	place := Action{
		Name:     "place",
		Duration: Fixed(5),
		Effect: func(m *Mutation) {
			m.Flags().SetBool("has_piece", false)
			m.AddScore(3)
		},
		Requires: []Precondition{RequireFlag("has_piece")},
	}
	cfg := Config{
		Timing: Timing{Duration: 60},
		Setup:  func(f Flags) { f.SetBool("has_piece", true) },
	}
	sim := newTestSim(t, cfg, Always("greedy", "place"), place)

	res, err := sim.Run(NewRand(1))
	if !errors.Is(err, ErrInvalidActionChoice) {
		t.Fatalf("Expected InvalidActionChoice, got %v", err)
	}
	if res.Len() != 1 {
		t.Errorf("Expected one successful placement before failure, got %d", res.Len())
	}
	if res.FinalScore() != 3 {
		t.Errorf("Expected score 3, got %v", res.FinalScore())
	}
}

func TestZeroDurationGuard(t *testing.T) {
	noop := Action{Name: "noop", Duration: Fixed(0)}
	cfg := Config{Timing: Timing{Duration: 60}, MaxZeroSteps: 5}
	sim := newTestSim(t, cfg, Always("stuck", "noop"), noop)

	res, err := sim.Run(NewRand(1))
	if !errors.Is(err, ErrNonProgressing) {
		t.Fatalf("Expected NonProgressingSimulation, got %v", err)
	}

	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if me.Action != "noop" {
		t.Errorf("Expected offending action noop, got %q", me.Action)
	}
	if me.Count != 6 {
		t.Errorf("Expected guard to trip after 6 zero steps, got %d", me.Count)
	}
	if res.Len() != 6 {
		t.Errorf("Expected 6 history entries, got %d", res.Len())
	}
}

func TestZeroDurationGuardCatchesSubResolutionSteps(t *testing.T) {
	wait := Action{Name: "wait", Duration: Fixed(10)}
	// 1e-20 is positive but too small to move a clock reading 10s
	tiny := Action{Name: "tiny", Duration: Fixed(1e-20)}

	played := false
	stuck := NewStrategy("stuck", func(View) (string, bool) {
		if !played {
			played = true
			return "wait", true
		}
		return "tiny", true
	})

	cfg := Config{Timing: Timing{Duration: 120}, MaxZeroSteps: 5}
	sim := newTestSim(t, cfg, stuck, wait, tiny)

	res, err := sim.Run(NewRand(1))
	if !errors.Is(err, ErrNonProgressing) {
		t.Fatalf("Expected NonProgressingSimulation, got %v", err)
	}
	if res.Len() != 7 {
		t.Errorf("Expected 1 wait plus 6 tiny steps, got %d", res.Len())
	}

	hist := res.History()
	last := hist[len(hist)-1]
	if last.Taken != 0 || last.Nominal != 1e-20 {
		t.Errorf("Expected Taken 0 with Nominal 1e-20, got %+v", last)
	}
	if res.Elapsed() != 10 || res.TimeRemaining() != 110 {
		t.Errorf("Taken should match the clock: elapsed %v, remaining %v", res.Elapsed(), res.TimeRemaining())
	}
}

func TestZeroDurationGuardResetsOnProgress(t *testing.T) {
	noop := Action{Name: "noop", Duration: Fixed(0)}
	tick := Action{Name: "tick", Duration: Fixed(1)}

	n := 0
	alternate := NewStrategy("alternate", func(View) (string, bool) {
		n++
		if n%4 == 0 {
			return "tick", true
		}
		return "noop", true
	})

	cfg := Config{Timing: Timing{Duration: 20}, MaxZeroSteps: 3}
	sim := newTestSim(t, cfg, alternate, noop, tick)

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Guard tripped despite progress: %v", err)
	}
	if res.Count("tick") != 20 {
		t.Errorf("Expected 20 ticks, got %d", res.Count("tick"))
	}
}

func TestMalformedDuration(t *testing.T) {
	tests := []struct {
		name    string
		sampler Sampler
	}{
		{"negative", Fixed(-1)},
		{"nan", SamplerFunc(func(*rand.Rand) float64 { return math.NaN() })},
		{"inf", SamplerFunc(func(*rand.Rand) float64 { return math.Inf(1) })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := Action{Name: "bad", Duration: tt.sampler}
			sim := newTestSim(t, Config{Timing: Timing{Duration: 10}}, Always("s", "bad"), bad)

			res, err := sim.Run(NewRand(1))
			if !errors.Is(err, ErrMalformedDuration) {
				t.Fatalf("Expected MalformedDuration, got %v", err)
			}
			if res.Len() != 0 {
				t.Errorf("Malformed action should not be recorded, got %d entries", res.Len())
			}
		})
	}
}

func TestOverrunIsClipped(t *testing.T) {
	cfg := Config{Timing: Timing{Duration: 25}}
	sim := newTestSim(t, cfg, Always("s", "score_once"), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	hist := res.History()
	if len(hist) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(hist))
	}
	last := hist[2]
	if !last.Clipped {
		t.Error("Last step should be clipped")
	}
	if last.Nominal != 10 || last.Taken != 5 {
		t.Errorf("Expected nominal 10 / taken 5, got %v / %v", last.Nominal, last.Taken)
	}
	if res.TimeRemaining() != 0 {
		t.Errorf("Expected 0 remaining, got %v", res.TimeRemaining())
	}
}

func TestHistorySumsToDuration(t *testing.T) {
	move := Action{
		Name:     "move",
		Duration: Uniform{Min: 0.5, Max: 9},
		Effect:   func(m *Mutation) { m.AddScore(1) },
	}
	cfg := Config{Timing: DefaultTiming()}

	for seed := int64(1); seed <= 50; seed++ {
		sim := newTestSim(t, cfg, Always("s", "move"), move)
		res, err := sim.Run(NewRand(seed))
		if err != nil {
			t.Fatalf("seed %d: Run() failed: %v", seed, err)
		}
		if res.TimeRemaining() != 0 {
			t.Errorf("seed %d: expected 0 remaining, got %v", seed, res.TimeRemaining())
		}
		if math.Abs(res.Elapsed()-cfg.Timing.Duration) > 1e-9 {
			t.Errorf("seed %d: durations sum to %v, want %v", seed, res.Elapsed(), cfg.Timing.Duration)
		}
		for i, st := range res.History() {
			if st.Taken < 0 || st.Taken > st.Nominal+1e-9 {
				t.Errorf("seed %d step %d: taken %v outside [0, %v]", seed, i, st.Taken, st.Nominal)
			}
		}
	}
}

func TestPassIdlesOutClock(t *testing.T) {
	cfg := Config{Timing: Timing{Duration: 120}}
	sim := newTestSim(t, cfg, scripted("score_once", "score_once"), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	hist := res.History()
	if len(hist) != 3 {
		t.Fatalf("Expected 2 actions plus a pass, got %d entries", len(hist))
	}
	if hist[2].Action != PassAction {
		t.Errorf("Expected final entry to be a pass, got %q", hist[2].Action)
	}
	if hist[2].Taken != 100 {
		t.Errorf("Pass should consume the remaining 100s, took %v", hist[2].Taken)
	}
	if res.FinalScore() != 10 || res.TimeRemaining() != 0 {
		t.Errorf("Expected score 10 / remaining 0, got %v / %v", res.FinalScore(), res.TimeRemaining())
	}
}

func TestPassDuringAutonEndsMatch(t *testing.T) {
	cfg := Config{Timing: DefaultTiming()}
	sim := newTestSim(t, cfg, scripted(), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if res.Len() != 1 || res.TimeRemaining() != 0 {
		t.Errorf("Expected a single pass to end the match, got %d entries and %v remaining",
			res.Len(), res.TimeRemaining())
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	drive := Action{
		Name:     "drive",
		Duration: Normal{Mean: 4, StdDev: 1.5, Min: 0.5},
		Effect:   func(m *Mutation) { m.AddScore(2) },
	}
	cfg := Config{Timing: DefaultTiming()}

	run := func(seed int64) Result {
		sim := newTestSim(t, cfg, Always("s", "drive"), drive)
		res, err := sim.Run(NewRand(seed))
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		return res
	}

	a, b := run(42), run(42)
	if diff := cmp.Diff(a.History(), b.History()); diff != "" {
		t.Errorf("Same seed produced different histories (-a +b):\n%s", diff)
	}

	c := run(43)
	if cmp.Equal(a.History(), c.History()) {
		t.Error("Different seeds should produce different histories")
	}
}

func TestReplayReproducesScore(t *testing.T) {
	pick := Action{
		Name:     "pick",
		Duration: Uniform{Min: 1, Max: 4},
		Effect: func(m *Mutation) {
			if !m.Clipped {
				m.Flags().SetBool("holding", true)
			}
		},
		Requires: []Precondition{RequireNoFlag("holding")},
	}
	place := Action{
		Name:     "place",
		Duration: Normal{Mean: 3, StdDev: 1, Min: 0.2},
		Effect: func(m *Mutation) {
			if m.Clipped {
				return
			}
			m.Flags().SetBool("holding", false)
			m.AddScore(float64(2 + m.Flags().Add("placed", 1)%3))
		},
		Requires: []Precondition{RequireFlag("holding")},
	}
	cycle := NewStrategy("cycle", func(v View) (string, bool) {
		if v.Has("holding") {
			return "place", true
		}
		return "pick", true
	})
	cfg := Config{Timing: DefaultTiming()}
	actions := MustActions(pick, place)

	sim, err := New(cfg, actions, cycle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	orig, err := sim.Run(NewRand(7))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	replayed, err := Replay(cfg, actions, "cycle", orig.History())
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if replayed.FinalScore() != orig.FinalScore() {
		t.Errorf("Replay score %v, original %v", replayed.FinalScore(), orig.FinalScore())
	}
	if diff := cmp.Diff(orig.History(), replayed.History()); diff != "" {
		t.Errorf("Replay history differs (-orig +replay):\n%s", diff)
	}
}

func TestAutonBoundaryClipsAction(t *testing.T) {
	cfg := Config{Timing: Timing{Duration: 30, Auton: 15}}
	sim := newTestSim(t, cfg, Always("s", "score_once"), scoreOnce())

	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	hist := res.History()
	if len(hist) != 4 {
		t.Fatalf("Expected 4 steps, got %d", len(hist))
	}

	// Second step runs into the end of auton
	if !hist[1].Clipped || hist[1].Taken != 5 || hist[1].Phase != PhaseAuton {
		t.Errorf("Expected clipped auton step of 5s, got %+v", hist[1])
	}
	// First teleop step starts exactly at the boundary
	if hist[2].Phase != PhaseTeleop || hist[2].Taken != 10 {
		t.Errorf("Expected full teleop step, got %+v", hist[2])
	}

	if res.PhasePoints(PhaseAuton) != 10 {
		t.Errorf("Expected 10 auton points, got %v", res.PhasePoints(PhaseAuton))
	}
	if res.PhasePoints(PhaseTeleop) != 10 {
		t.Errorf("Expected 10 teleop points, got %v", res.PhasePoints(PhaseTeleop))
	}
}

func TestSimulatorRunsOnce(t *testing.T) {
	sim := newTestSim(t, Config{Timing: Timing{Duration: 20}}, Always("s", "score_once"), scoreOnce())

	if _, err := sim.Run(NewRand(1)); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	if _, err := sim.Run(NewRand(1)); !errors.Is(err, ErrSimulatorEnded) {
		t.Errorf("Expected ErrSimulatorEnded on second run, got %v", err)
	}

	sim.Reset()
	if sim.State() != StateNotStarted {
		t.Fatalf("Expected not_started after reset, got %s", sim.State())
	}
	if sim.View().TimeRemaining() != 20 {
		t.Errorf("Reset should restore the clock, got %v", sim.View().TimeRemaining())
	}
	res, err := sim.Run(NewRand(1))
	if err != nil {
		t.Fatalf("Run() after reset failed: %v", err)
	}
	if res.FinalScore() != 10 {
		t.Errorf("Expected score 10 after reset, got %v", res.FinalScore())
	}
}

func TestRunRequiresRand(t *testing.T) {
	sim := newTestSim(t, Config{Timing: Timing{Duration: 20}}, Always("s", "score_once"), scoreOnce())
	if _, err := sim.Run(nil); !errors.Is(err, ErrNilRand) {
		t.Errorf("Expected ErrNilRand, got %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	actions := MustActions(scoreOnce())
	if _, err := New(Config{Timing: Timing{Duration: 0}}, actions, Always("s", "score_once")); err == nil {
		t.Error("Expected error for zero duration")
	}
	if _, err := New(Config{Timing: Timing{Duration: 10, Auton: 20}}, actions, Always("s", "score_once")); err == nil {
		t.Error("Expected error for auton longer than match")
	}
	if _, err := New(Config{Timing: Timing{Duration: 10}}, actions, nil); err == nil {
		t.Error("Expected error for nil strategy")
	}
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateNotStarted, StateRunning, true},
		{StateRunning, StateEnded, true},
		{StateEnded, StateNotStarted, true},
		{StateNotStarted, StateEnded, false},
		{StateEnded, StateRunning, false},
		{StateRunning, StateNotStarted, false},
	}
	for _, tt := range tests {
		if got := IsValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
