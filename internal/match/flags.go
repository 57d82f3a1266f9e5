package match

import "sort"

// Flags holds the game-specific state of one match: piece counts, robot
// possession, field element states. Booleans are stored as 0/1 so a single
// map covers both counters and switches.
type Flags map[string]int

// Int returns the value of a counter flag (0 if unset).
func (f Flags) Int(name string) int {
	return f[name]
}

// Bool reports whether a flag is set to a non-zero value.
func (f Flags) Bool(name string) bool {
	return f[name] != 0
}

// Set assigns a counter flag.
func (f Flags) Set(name string, v int) {
	f[name] = v
}

// SetBool assigns a boolean flag.
func (f Flags) SetBool(name string, v bool) {
	if v {
		f[name] = 1
		return
	}
	f[name] = 0
}

// Add increments a counter flag by delta and returns the new value.
func (f Flags) Add(name string, delta int) int {
	f[name] += delta
	return f[name]
}

// Clone returns an independent copy of the flags.
func (f Flags) Clone() Flags {
	clone := make(Flags, len(f))
	for k, v := range f {
		clone[k] = v
	}
	return clone
}

// Names returns all flag names, sorted.
func (f Flags) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
