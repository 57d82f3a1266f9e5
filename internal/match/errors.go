package match

import (
	"errors"
	"fmt"
)

// Kind classifies errors that abort a single match.
type Kind int

const (
	KindInvalidActionChoice Kind = iota + 1
	KindNonProgressing
	KindMalformedDuration
)

// String returns the error kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidActionChoice:
		return "InvalidActionChoice"
	case KindNonProgressing:
		return "NonProgressingSimulation"
	case KindMalformedDuration:
		return "MalformedDuration"
	default:
		return "Unknown"
	}
}

// Error is a fatal match error. The match that produced it is aborted;
// other matches in a batch are unaffected.
type Error struct {
	Kind   Kind
	Action string  // action involved, if any
	Step   int     // index of the decision step that failed
	Count  int     // consecutive zero-duration steps (NonProgressing)
	Value  float64 // offending duration sample (MalformedDuration)
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidActionChoice:
		return fmt.Sprintf("match: invalid action choice %q at step %d: %s", e.Action, e.Step, e.Reason)
	case KindNonProgressing:
		return fmt.Sprintf("match: simulation not progressing: action %q took zero time for %d consecutive steps (step %d)",
			e.Action, e.Count, e.Step)
	case KindMalformedDuration:
		return fmt.Sprintf("match: malformed duration %g from action %q at step %d", e.Value, e.Action, e.Step)
	default:
		return fmt.Sprintf("match: %s", e.Reason)
	}
}

// Is matches any *Error of the same kind, so callers can use the sentinels
// below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidActionChoice = &Error{Kind: KindInvalidActionChoice, Reason: "invalid action choice"}
	ErrNonProgressing      = &Error{Kind: KindNonProgressing, Reason: "simulation not progressing"}
	ErrMalformedDuration   = &Error{Kind: KindMalformedDuration, Reason: "malformed duration"}
)

var (
	// ErrSimulatorEnded is returned when Run is called on a simulator that
	// already finished a match without an intervening Reset.
	ErrSimulatorEnded = errors.New("match: simulator already ran; call Reset")

	// ErrClockExpired is returned when an action is applied after time ran out.
	ErrClockExpired = errors.New("match: clock already expired")

	// ErrNilRand is returned when Run is called without a random source.
	ErrNilRand = errors.New("match: nil random source")
)

// KindOf returns the Kind of err, or 0 if err is not a match error.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}
