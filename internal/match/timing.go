package match

import (
	"fmt"
	"math"
)

// Phase identifies the period of a match an action started in.
type Phase int

const (
	PhaseAuton   Phase = iota // Autonomous period, robots run pre-programmed routines
	PhaseTeleop               // Driver-controlled period
	PhaseEndgame              // Final seconds of teleop where climbs score

	numPhases = 3
)

// Phases lists all phases in match order.
var Phases = []Phase{PhaseAuton, PhaseTeleop, PhaseEndgame}

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseAuton:
		return "auton"
	case PhaseTeleop:
		return "teleop"
	case PhaseEndgame:
		return "endgame"
	default:
		return "unknown"
	}
}

// ParsePhase converts a phase name back into a Phase.
func ParsePhase(s string) (Phase, error) {
	for _, p := range Phases {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("match: unknown phase %q", s)
}

// Timing describes the match clock. All values are seconds from match start.
//
// Auton is a hard boundary: an action started during autonomous is cut off
// when the autonomous period ends. EndgameStart only changes the reported
// phase. A zero Auton or EndgameStart disables that period.
type Timing struct {
	Duration     float64 `yaml:"duration"`
	Auton        float64 `yaml:"auton"`
	EndgameStart float64 `yaml:"endgame_start"`
}

// DefaultTiming returns the standard FRC match clock: 150s total,
// 30s of autonomous, endgame from 120s.
func DefaultTiming() Timing {
	return Timing{
		Duration:     150,
		Auton:        30,
		EndgameStart: 120,
	}
}

// Validate checks that the periods fit inside the match.
func (t Timing) Validate() error {
	for _, v := range []float64{t.Duration, t.Auton, t.EndgameStart} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("match: timing values must be finite")
		}
	}
	if t.Duration <= 0 {
		return fmt.Errorf("match: duration must be positive, got %g", t.Duration)
	}
	if t.Auton < 0 || t.Auton > t.Duration {
		return fmt.Errorf("match: auton %g outside [0, %g]", t.Auton, t.Duration)
	}
	if t.EndgameStart != 0 && (t.EndgameStart < t.Auton || t.EndgameStart > t.Duration) {
		return fmt.Errorf("match: endgame start %g outside [%g, %g]", t.EndgameStart, t.Auton, t.Duration)
	}
	return nil
}

// PhaseAt returns the phase in effect at the given elapsed time.
func (t Timing) PhaseAt(elapsed float64) Phase {
	if elapsed < t.Auton {
		return PhaseAuton
	}
	if t.EndgameStart > 0 && elapsed >= t.EndgameStart {
		return PhaseEndgame
	}
	return PhaseTeleop
}

// periodEnd returns the elapsed time at which the period containing
// elapsed ends. Actions are clipped to this boundary.
func (t Timing) periodEnd(elapsed float64) float64 {
	if elapsed < t.Auton {
		return t.Auton
	}
	return t.Duration
}
