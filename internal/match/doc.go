// Package match implements the match simulation engine.
//
// A match is a time-stepped loop: the Simulator asks a Strategy for the
// next action given a read-only View of the Status, validates the choice
// against the Actions registry and the action's preconditions, and applies
// it. Applying an action samples its duration, clips it to the current
// period boundary, runs its effect and advances the clock. The loop stops
// when the clock reaches zero, producing an immutable Result.
//
// The engine owns no random source and no global state. Callers inject a
// *rand.Rand per match (see NewRand) and pass all configuration to New, so
// independent matches can run in parallel and be reproduced exactly.
package match
