package reefscape

import (
	"math/rand/v2"

	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/registry"
)

// Seconds of match left at which a strategy still attempts an endgame move.
const (
	deepClimbWindow    = 18.0
	shallowClimbWindow = 12.0
	parkWindow         = 4.0
)

// planner picks the first allowed action from a preference list.
type planner struct {
	actions match.Actions
}

func (p planner) first(v match.View, names ...string) (string, bool) {
	for _, name := range names {
		if a, ok := p.actions.Lookup(name); ok && a.Allowed(v) {
			return name, true
		}
	}
	return "", false
}

// finish chooses an endgame move: the climb while there is time for it,
// a park when there is not.
func (p planner) finish(v match.View, climb string, window float64) (string, bool) {
	if v.Phase() != match.PhaseEndgame {
		return "", false
	}
	left := v.TimeRemaining()
	if climb != "" && left >= window {
		if name, ok := p.first(v, climb); ok {
			return name, true
		}
	}
	if left >= parkWindow {
		return p.first(v, "park")
	}
	return "", false
}

// done reports whether the robot has finished its endgame and should idle.
func done(v match.View) bool {
	return v.Flag(FlagCage) > 0 || v.Has(FlagParked)
}

// SimpleCoral runs a one-shot autonomous routine and then sleeps.
func SimpleCoral() match.Strategy {
	return match.NewStrategy("simple_coral", func(v match.View) (string, bool) {
		if v.Phase() == match.PhaseAuton && !v.Has(FlagAutonComplete) {
			return "simple_auton", true
		}
		return "sleep", true
	})
}

// CoralCycler leaves the starting line, then repeatedly intakes coral and
// places it on the highest level with room, and deep climbs at endgame.
func CoralCycler(actions match.Actions) match.Strategy {
	p := planner{actions: actions}
	return match.NewStrategy("coral_cycler", func(v match.View) (string, bool) {
		if done(v) {
			return "", false
		}
		if name, ok := p.finish(v, "deep_climb", deepClimbWindow); ok {
			return name, true
		}
		return p.first(v, "leave",
			ScoreAction(4), ScoreAction(3), ScoreAction(2), ScoreAction(1),
			"intake_floor", "intake_station")
	})
}

// L4Focus only scores on the top two levels and finishes with a shallow climb.
func L4Focus(actions match.Actions) match.Strategy {
	p := planner{actions: actions}
	return match.NewStrategy("l4_focus", func(v match.View) (string, bool) {
		if done(v) {
			return "", false
		}
		if name, ok := p.finish(v, "shallow_climb", shallowClimbWindow); ok {
			return name, true
		}
		return p.first(v, "leave", ScoreAction(4), ScoreAction(3), "intake_station", "intake_floor")
	})
}

// AlgaeFirst clears the reef of algae before cycling coral, alternating
// between the processor and the net, and parks at the end.
func AlgaeFirst(actions match.Actions) match.Strategy {
	p := planner{actions: actions}
	return match.NewStrategy("algae_first", func(v match.View) (string, bool) {
		if done(v) {
			return "", false
		}
		if name, ok := p.finish(v, "", 0); ok {
			return name, true
		}
		algae := []string{"score_processor", "score_net"}
		if v.Flag(FlagProcessor) > v.Flag(FlagNet) {
			algae = []string{"score_net", "score_processor"}
		}
		prefs := append([]string{"leave"}, algae...)
		prefs = append(prefs, "remove_algae",
			ScoreAction(2), ScoreAction(3), ScoreAction(4), ScoreAction(1),
			"intake_station", "intake_floor")
		return p.first(v, prefs...)
	})
}

// Random picks uniformly among the allowed actions. It draws from the
// match's random source, so runs stay reproducible.
func Random(actions match.Actions, r *rand.Rand) match.Strategy {
	names := actions.Names()
	return match.NewStrategy("random", func(v match.View) (string, bool) {
		var allowed []string
		for _, name := range names {
			if a, _ := actions.Lookup(name); a.Allowed(v) {
				allowed = append(allowed, name)
			}
		}
		if len(allowed) == 0 {
			return "", false
		}
		return allowed[r.IntN(len(allowed))], true
	})
}

func registerStrategies() {
	registry.RegisterStrategy(ID, "simple_coral", "Auton routine, then sleep",
		func(registry.Game, *rand.Rand) match.Strategy { return SimpleCoral() })
	registry.RegisterStrategy(ID, "coral_cycler", "Cycle coral to the highest open level, deep climb",
		func(g registry.Game, _ *rand.Rand) match.Strategy { return CoralCycler(g.Actions()) })
	registry.RegisterStrategy(ID, "l4_focus", "Score L4 and L3 only, shallow climb",
		func(g registry.Game, _ *rand.Rand) match.Strategy { return L4Focus(g.Actions()) })
	registry.RegisterStrategy(ID, "algae_first", "Clear reef algae, then cycle coral, park",
		func(g registry.Game, _ *rand.Rand) match.Strategy { return AlgaeFirst(g.Actions()) })
	registry.RegisterStrategy(ID, "random", "Uniformly random allowed action",
		func(g registry.Game, r *rand.Rand) match.Strategy { return Random(g.Actions(), r) })
}
