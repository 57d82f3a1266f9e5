package match

// Strategy decides which action the robot attempts next.
//
// Choose receives a read-only view of the match and returns the name of a
// registered action. Returning ok == false means the strategy has nothing
// left to do; the simulator then idles out the rest of the match.
//
// A Strategy may keep state between calls within one match. It must not
// be reused across matches; create a fresh instance per match.
type Strategy interface {
	Name() string
	Choose(v View) (action string, ok bool)
}

// ChooseFunc is the decision function wrapped by NewStrategy.
type ChooseFunc func(v View) (string, bool)

type funcStrategy struct {
	name   string
	choose ChooseFunc
}

func (s funcStrategy) Name() string                 { return s.name }
func (s funcStrategy) Choose(v View) (string, bool) { return s.choose(v) }

// NewStrategy wraps a stateless decision function as a Strategy.
func NewStrategy(name string, fn ChooseFunc) Strategy {
	return funcStrategy{name: name, choose: fn}
}

// Always returns a strategy that picks the same action every step.
func Always(name, action string) Strategy {
	return NewStrategy(name, func(View) (string, bool) { return action, true })
}
