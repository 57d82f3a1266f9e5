package match

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Sampler produces the duration of one action invocation.
// It is called on every invocation; values are never cached.
type Sampler interface {
	Sample(r *rand.Rand) float64
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(r *rand.Rand) float64

// Sample calls f(r).
func (f SamplerFunc) Sample(r *rand.Rand) float64 {
	return f(r)
}

// Fixed is a constant duration.
type Fixed float64

// Sample returns the fixed duration. The random source is not consumed.
func (f Fixed) Sample(*rand.Rand) float64 {
	return float64(f)
}

// Uniform draws durations uniformly from [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

// Sample draws one duration.
func (u Uniform) Sample(r *rand.Rand) float64 {
	return u.Min + r.Float64()*(u.Max-u.Min)
}

// Normal draws normally distributed durations, clamped below at Min.
type Normal struct {
	Mean   float64
	StdDev float64
	Min    float64
}

// Sample draws one duration.
func (n Normal) Sample(r *rand.Rand) float64 {
	v := n.Mean + n.StdDev*r.NormFloat64()
	if v < n.Min {
		v = n.Min
	}
	return v
}

// Effect applies the score and flag changes of a completed action.
// It must be deterministic given the mutation it receives.
type Effect func(m *Mutation)

// Precondition is a named predicate over the match state that must hold
// when a strategy selects an action.
type Precondition struct {
	Desc  string
	Check func(v View) bool
}

// RequireFlag requires a boolean flag to be set.
func RequireFlag(name string) Precondition {
	return Precondition{
		Desc:  name,
		Check: func(v View) bool { return v.Has(name) },
	}
}

// RequireNoFlag requires a boolean flag to be clear.
func RequireNoFlag(name string) Precondition {
	return Precondition{
		Desc:  "!" + name,
		Check: func(v View) bool { return !v.Has(name) },
	}
}

// RequireAtLeast requires a counter flag to be at least n.
func RequireAtLeast(name string, n int) Precondition {
	return Precondition{
		Desc:  fmt.Sprintf("%s >= %d", name, n),
		Check: func(v View) bool { return v.Flag(name) >= n },
	}
}

// RequireBelow requires a counter flag to be strictly below n.
func RequireBelow(name string, n int) Precondition {
	return Precondition{
		Desc:  fmt.Sprintf("%s < %d", name, n),
		Check: func(v View) bool { return v.Flag(name) < n },
	}
}

// RequirePhase requires the match to be in one of the given phases.
func RequirePhase(phases ...Phase) Precondition {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.String()
	}
	return Precondition{
		Desc:  "phase in [" + strings.Join(names, ",") + "]",
		Check: func(v View) bool { return slices.Contains(phases, v.Phase()) },
	}
}

// Action is an atomic, named robot operation with a time cost and an effect
// on the match state. Actions are stateless and shared across matches.
type Action struct {
	Name     string
	Duration Sampler
	Effect   Effect
	Requires []Precondition
}

// Allowed reports whether every precondition holds for v.
func (a Action) Allowed(v View) bool {
	_, ok := a.unmet(v)
	return !ok
}

// unmet returns the first precondition that does not hold.
func (a Action) unmet(v View) (Precondition, bool) {
	for _, p := range a.Requires {
		if p.Check != nil && !p.Check(v) {
			return p, true
		}
	}
	return Precondition{}, false
}

// Actions is the immutable set of actions available in a match, keyed by name.
type Actions struct {
	byName map[string]Action
	names  []string
}

// NewActions builds an action set. Names must be non-empty and unique,
// and every action needs a duration sampler.
func NewActions(list ...Action) (Actions, error) {
	set := Actions{
		byName: make(map[string]Action, len(list)),
		names:  make([]string, 0, len(list)),
	}
	for _, a := range list {
		if a.Name == "" {
			return Actions{}, fmt.Errorf("match: action with empty name")
		}
		if a.Name == PassAction {
			return Actions{}, fmt.Errorf("match: action name %q is reserved", a.Name)
		}
		if a.Duration == nil {
			return Actions{}, fmt.Errorf("match: action %q has no duration sampler", a.Name)
		}
		if _, exists := set.byName[a.Name]; exists {
			return Actions{}, fmt.Errorf("match: action %q registered twice", a.Name)
		}
		set.byName[a.Name] = a
		set.names = append(set.names, a.Name)
	}
	return set, nil
}

// MustActions is like NewActions but panics on error.
// Intended for statically defined action tables.
func MustActions(list ...Action) Actions {
	set, err := NewActions(list...)
	if err != nil {
		panic(err)
	}
	return set
}

// Lookup returns the action registered under name.
func (a Actions) Lookup(name string) (Action, bool) {
	act, ok := a.byName[name]
	return act, ok
}

// Names returns action names in registration order.
func (a Actions) Names() []string {
	return slices.Clone(a.names)
}

// Len returns the number of registered actions.
func (a Actions) Len() int {
	return len(a.names)
}
