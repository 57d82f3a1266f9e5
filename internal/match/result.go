package match

import "slices"

// Result is the immutable record of one completed (or aborted) match.
type Result struct {
	matchID     string
	strategyID  string
	timing      Timing
	score       float64
	remaining   float64
	history     []Step
	flags       Flags
	phasePoints [numPhases]float64
	err         error
}

func newResult(matchID, strategyID string, s *Status, err error) Result {
	r := Result{
		matchID:    matchID,
		strategyID: strategyID,
		timing:     s.timing,
		score:      s.score,
		remaining:  s.TimeRemaining(),
		history:    slices.Clone(s.history),
		flags:      s.flags.Clone(),
		err:        err,
	}
	for _, st := range s.history {
		if st.Phase >= 0 && int(st.Phase) < numPhases {
			r.phasePoints[st.Phase] += st.Points
		}
	}
	return r
}

// MatchID returns the identifier assigned to the match, if any.
func (r Result) MatchID() string { return r.matchID }

// StrategyID returns the name of the strategy that played the match.
func (r Result) StrategyID() string { return r.strategyID }

// Timing returns the clock the match ran under.
func (r Result) Timing() Timing { return r.timing }

// FinalScore returns the score at match end (or at the point of failure).
func (r Result) FinalScore() float64 { return r.score }

// TimeRemaining returns the clock value at match end. It is 0 for every
// match that did not fail.
func (r Result) TimeRemaining() float64 { return r.remaining }

// History returns a copy of the ordered action history.
func (r Result) History() []Step { return slices.Clone(r.history) }

// Len returns the number of history entries.
func (r Result) Len() int { return len(r.history) }

// PhasePoints returns the points scored by actions started in phase p.
func (r Result) PhasePoints(p Phase) float64 {
	if p < 0 || int(p) >= numPhases {
		return 0
	}
	return r.phasePoints[p]
}

// Flag returns the value of a field flag at match end.
func (r Result) Flag(name string) int { return r.flags.Int(name) }

// Failed reports whether the match was aborted by an error.
func (r Result) Failed() bool { return r.err != nil }

// Err returns the error that aborted the match, or nil.
func (r Result) Err() error { return r.err }

// Elapsed returns the total clock time consumed by the history.
func (r Result) Elapsed() float64 {
	total := 0.0
	for _, st := range r.history {
		total += st.Taken
	}
	return total
}

// Count returns how many times the named action appears in the history.
func (r Result) Count(action string) int {
	n := 0
	for _, st := range r.history {
		if st.Action == action {
			n++
		}
	}
	return n
}
