// Package batch runs many independent matches per strategy and aggregates
// their scores.
package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/stratometer/internal/match"
)

// OnError selects what a batch does when a match fails.
type OnError int

const (
	Skip OnError = iota // record the failed match and keep going
	Halt                // cancel the remaining matches and return the error
)

// String returns the config spelling of the policy.
func (o OnError) String() string {
	if o == Halt {
		return "halt"
	}
	return "skip"
}

// ParseOnError converts "skip" or "halt" into an OnError.
func ParseOnError(s string) (OnError, error) {
	switch s {
	case "skip", "":
		return Skip, nil
	case "halt":
		return Halt, nil
	}
	return Skip, fmt.Errorf("batch: unknown error policy %q", s)
}

// Plan describes a batch: which strategies to compare and how often.
type Plan struct {
	Game         string
	Strategies   []string
	Runs         int          // matches per strategy
	Seed         int64        // base seed every match seed is derived from
	Workers      int          // parallel matches, 0 means one per CPU
	OnError      OnError
	Timing       match.Timing // zero value means the game's own timing
	MaxZeroSteps int
}

func (p Plan) validate() error {
	if len(p.Strategies) == 0 {
		return errors.New("batch: plan has no strategies")
	}
	if p.Runs < 1 {
		return fmt.Errorf("batch: runs must be at least 1, got %d", p.Runs)
	}
	if p.Workers < 0 {
		return fmt.Errorf("batch: workers must not be negative, got %d", p.Workers)
	}
	seen := make(map[string]bool, len(p.Strategies))
	for _, s := range p.Strategies {
		if seen[s] {
			return fmt.Errorf("batch: strategy %q listed twice", s)
		}
		seen[s] = true
	}
	return nil
}

// Match is one played match of a batch.
type Match struct {
	ID       string
	Strategy string
	Run      int   // run index within the strategy
	Seed     int64 // seed of the match's random source
	Result   match.Result
}

// Report is the outcome of a batch. Matches are ordered by strategy, then
// run index, independent of the order they finished in.
type Report struct {
	ID         string
	Game       string
	Strategies []string
	Runs       int
	Seed       int64
	Timing     match.Timing
	CreatedAt  time.Time
	Elapsed    time.Duration
	Matches    []Match
}

// ByStrategy returns the results of one strategy in run order.
func (r *Report) ByStrategy(strategy string) []match.Result {
	var out []match.Result
	for _, m := range r.Matches {
		if m.Strategy == strategy {
			out = append(out, m.Result)
		}
	}
	return out
}

// Failures returns the matches that ended with an error.
func (r *Report) Failures() []Match {
	var out []Match
	for _, m := range r.Matches {
		if m.Result.Failed() {
			out = append(out, m)
		}
	}
	return out
}

// StrategySummary pairs a strategy with its score statistics.
type StrategySummary struct {
	Strategy string
	Summary
}

// Summaries returns per-strategy statistics in plan order.
func (r *Report) Summaries() []StrategySummary {
	out := make([]StrategySummary, 0, len(r.Strategies))
	for _, s := range r.Strategies {
		out = append(out, StrategySummary{Strategy: s, Summary: Summarize(r.ByStrategy(s))})
	}
	return out
}
