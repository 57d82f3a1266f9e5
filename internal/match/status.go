package match

import (
	"math"
	"math/rand/v2"
)

// PassAction is the history entry recorded when a strategy has no action
// to offer. It consumes the rest of the clock.
const PassAction = "(pass)"

// Step is one entry of a match history.
type Step struct {
	Action     string  // action name
	Nominal    float64 // sampled duration before clipping
	Taken      float64 // clock time actually consumed
	Clipped    bool    // true if the action ran into a period boundary
	Phase      Phase   // phase the action started in
	Points     float64 // score change caused by the action
	ScoreAfter float64 // cumulative score after the action
}

// Status is the mutable state of one in-progress match. It is owned by a
// single simulator; the only mutation path is apply.
type Status struct {
	timing  Timing
	elapsed float64
	score   float64
	flags   Flags
	history []Step
}

// NewStatus creates the state for a fresh match: full clock, zero score,
// and flags seeded by setup (which may be nil). Outside this package a
// Status is read-only; only the Simulator and Replay apply actions to it.
func NewStatus(timing Timing, setup func(Flags)) *Status {
	s := &Status{
		timing: timing,
		flags:  make(Flags),
	}
	if setup != nil {
		setup(s.flags)
	}
	return s
}

// View returns a read-only view of the status.
func (s *Status) View() View {
	return View{s: s}
}

// TimeRemaining returns the seconds left on the match clock.
func (s *Status) TimeRemaining() float64 {
	return math.Max(0, s.timing.Duration-s.elapsed)
}

// Ended reports whether the clock has run out.
func (s *Status) Ended() bool {
	return s.elapsed >= s.timing.Duration
}

// Len returns the number of history entries.
func (s *Status) Len() int {
	return len(s.history)
}

// apply samples the action's duration and applies it. It is the only
// mutation path of a Status and is reached through the Simulator and Replay.
func (s *Status) apply(a Action, r *rand.Rand) (Step, error) {
	return s.applySampled(a, a.Duration.Sample(r))
}

// applySampled applies an action with an already sampled duration:
// the duration is clipped to the end of the current period, the effect is
// invoked, the clock advances and a history entry is appended.
// Preconditions are not checked here; that is the simulator's job.
func (s *Status) applySampled(a Action, d float64) (Step, error) {
	if s.Ended() {
		return Step{}, ErrClockExpired
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return Step{}, &Error{
			Kind:   KindMalformedDuration,
			Action: a.Name,
			Step:   len(s.history),
			Value:  d,
		}
	}

	start := s.elapsed
	end := s.timing.periodEnd(start)
	// Taken is the real clock advance: a duration too small to move a
	// float64 clock counts as zero for the zero-duration guard.
	next := start + d
	taken := next - start
	clipped := false
	if next >= end {
		// Land exactly on the boundary so the clock never drifts past it
		taken, next = end-start, end
		clipped = start+d > end
	}

	m := &Mutation{
		Nominal: d,
		Taken:   taken,
		Clipped: clipped,
		Phase:   s.timing.PhaseAt(start),
		status:  s,
	}
	before := s.score
	if a.Effect != nil {
		a.Effect(m)
	}

	s.elapsed = next

	step := Step{
		Action:     a.Name,
		Nominal:    d,
		Taken:      taken,
		Clipped:    clipped,
		Phase:      m.Phase,
		Points:     s.score - before,
		ScoreAfter: s.score,
	}
	s.history = append(s.history, step)
	return step, nil
}

// pass consumes the rest of the match clock without effect.
func (s *Status) pass() Step {
	left := s.TimeRemaining()
	step := Step{
		Action:     PassAction,
		Nominal:    left,
		Taken:      left,
		Phase:      s.timing.PhaseAt(s.elapsed),
		ScoreAfter: s.score,
	}
	s.elapsed = s.timing.Duration
	s.history = append(s.history, step)
	return step
}

// Mutation is handed to an action's effect. It allows score and flag
// changes but no access to the clock.
type Mutation struct {
	Nominal float64 // sampled duration
	Taken   float64 // duration after clipping
	Clipped bool    // the action was cut off by a period boundary
	Phase   Phase   // phase the action started in

	status *Status
}

// AddScore adds points to the match score. Negative values model penalties.
func (m *Mutation) AddScore(points float64) {
	m.status.score += points
}

// Flags returns the mutable match flags.
func (m *Mutation) Flags() Flags {
	return m.status.flags
}

// View returns a live view of the match state. Score and flag changes made
// earlier in the same effect are visible; the clock still reads the
// action's start time.
func (m *Mutation) View() View {
	return m.status.View()
}

// View is a read-only window onto a Status, handed to strategies and
// preconditions.
type View struct {
	s *Status
}

// TimeRemaining returns the seconds left on the clock.
func (v View) TimeRemaining() float64 { return v.s.TimeRemaining() }

// Elapsed returns the seconds since match start.
func (v View) Elapsed() float64 { return v.s.elapsed }

// Duration returns the total match length.
func (v View) Duration() float64 { return v.s.timing.Duration }

// Timing returns the match clock configuration.
func (v View) Timing() Timing { return v.s.timing }

// Score returns the current score.
func (v View) Score() float64 { return v.s.score }

// Phase returns the current match phase.
func (v View) Phase() Phase { return v.s.timing.PhaseAt(v.s.elapsed) }

// PeriodRemaining returns the time left before the next hard boundary
// (end of auton, or end of match).
func (v View) PeriodRemaining() float64 {
	return v.s.timing.periodEnd(v.s.elapsed) - v.s.elapsed
}

// Flag returns a counter flag.
func (v View) Flag(name string) int { return v.s.flags.Int(name) }

// Has reports whether a boolean flag is set.
func (v View) Has(name string) bool { return v.s.flags.Bool(name) }

// Flags returns a copy of all flags.
func (v View) Flags() Flags { return v.s.flags.Clone() }

// Steps returns the number of actions taken so far.
func (v View) Steps() int { return len(v.s.history) }

// Last returns the most recent history entry.
func (v View) Last() (Step, bool) {
	if len(v.s.history) == 0 {
		return Step{}, false
	}
	return v.s.history[len(v.s.history)-1], true
}
