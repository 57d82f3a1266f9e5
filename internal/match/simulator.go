package match

import (
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// DefaultMaxZeroSteps bounds how many consecutive zero-duration actions a
// match tolerates before it is aborted as non-progressing.
const DefaultMaxZeroSteps = 25

// State is the lifecycle state of a Simulator.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// validTransitions defines the legal simulator state transitions.
// Ended -> NotStarted is Reset.
var validTransitions = map[State]map[State]bool{
	StateNotStarted: {StateRunning: true},
	StateRunning:    {StateEnded: true},
	StateEnded:      {StateNotStarted: true},
}

// IsValidTransition checks if a simulator state transition is legal.
func IsValidTransition(from, to State) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Config holds everything a simulator needs besides the action set and
// the strategy. It is passed explicitly; nothing is read from globals.
type Config struct {
	Timing       Timing
	MaxZeroSteps int         // 0 means DefaultMaxZeroSteps
	Setup        func(Flags) // seeds the default flags of a fresh match
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger enables per-step debug logging.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// WithMatchID tags the produced Result with an identifier.
func WithMatchID(id string) Option {
	return func(s *Simulator) {
		s.matchID = id
	}
}

// Simulator plays one match: it repeatedly asks the strategy for an action,
// validates it, applies it to the status and stops when the clock runs out.
// A Simulator runs once; call Reset to play again with fresh state.
type Simulator struct {
	cfg      Config
	actions  Actions
	strategy Strategy
	logger   *log.Logger
	matchID  string

	state  State
	status *Status
}

// New creates a simulator for one match.
func New(cfg Config, actions Actions, strategy Strategy, opts ...Option) (*Simulator, error) {
	if err := cfg.Timing.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("match: strategy cannot be nil")
	}
	if cfg.MaxZeroSteps <= 0 {
		cfg.MaxZeroSteps = DefaultMaxZeroSteps
	}

	s := &Simulator{
		cfg:      cfg,
		actions:  actions,
		strategy: strategy,
		state:    StateNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status = NewStatus(cfg.Timing, cfg.Setup)
	return s, nil
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	return s.state
}

// View returns a read-only view of the current match status.
func (s *Simulator) View() View {
	return s.status.View()
}

// Reset discards the current status and returns the simulator to
// NotStarted. The strategy is kept; stateful strategies should be replaced
// by creating a new Simulator instead.
func (s *Simulator) Reset() {
	s.status = NewStatus(s.cfg.Timing, s.cfg.Setup)
	s.state = StateNotStarted
}

func (s *Simulator) transition(to State) {
	if !IsValidTransition(s.state, to) {
		panic(fmt.Sprintf("match: invalid transition %s -> %s", s.state, to))
	}
	s.state = to
}

// Run plays the match to completion using r for every random draw.
//
// On success the returned Result has TimeRemaining() == 0. If the match is
// aborted, the Result carries the partial history and the same error is
// returned.
func (s *Simulator) Run(r *rand.Rand) (Result, error) {
	if s.state != StateNotStarted {
		return Result{}, ErrSimulatorEnded
	}
	if r == nil {
		return Result{}, ErrNilRand
	}
	s.transition(StateRunning)

	zeroRun := 0
	for !s.status.Ended() {
		step := s.status.Len()
		view := s.status.View()

		name, ok := s.strategy.Choose(view)
		if !ok {
			st := s.status.pass()
			s.logStep(st)
			break
		}

		action, found := s.actions.Lookup(name)
		if !found {
			return s.fail(&Error{
				Kind:   KindInvalidActionChoice,
				Action: name,
				Step:   step,
				Reason: "not registered",
			})
		}
		if p, unmet := action.unmet(view); unmet {
			return s.fail(&Error{
				Kind:   KindInvalidActionChoice,
				Action: name,
				Step:   step,
				Reason: fmt.Sprintf("precondition %q not met", p.Desc),
			})
		}

		st, err := s.status.apply(action, r)
		if err != nil {
			return s.fail(err)
		}
		s.logStep(st)

		// Zero-duration guard
		if st.Taken == 0 {
			zeroRun++
			if zeroRun > s.cfg.MaxZeroSteps {
				return s.fail(&Error{
					Kind:   KindNonProgressing,
					Action: name,
					Step:   step,
					Count:  zeroRun,
				})
			}
		} else {
			zeroRun = 0
		}
	}

	s.transition(StateEnded)
	return newResult(s.matchID, s.strategy.Name(), s.status, nil), nil
}

// fail ends the match and returns a Result carrying the partial history.
func (s *Simulator) fail(err error) (Result, error) {
	s.transition(StateEnded)
	if s.logger != nil {
		s.logger.Debug("match aborted", "match", s.matchID, "strategy", s.strategy.Name(), "error", err)
	}
	return newResult(s.matchID, s.strategy.Name(), s.status, err), err
}

func (s *Simulator) logStep(st Step) {
	if s.logger == nil {
		return
	}
	s.logger.Debug("step",
		"match", s.matchID,
		"strategy", s.strategy.Name(),
		"action", st.Action,
		"phase", st.Phase,
		"taken", st.Taken,
		"clipped", st.Clipped,
		"score", st.ScoreAfter,
	)
}
