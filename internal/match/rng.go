package match

import "math/rand/v2"

// NewRand returns a deterministic random source for the given seed.
// Every match should own its source; sources must not be shared between
// goroutines.
func NewRand(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(u, u^0x9e3779b97f4a7c15))
}
