package batch

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/registry"
)

// Runner plays batches.
type Runner struct {
	logger   *log.Logger
	now      func() time.Time
	progress func(done, total int)
}

// NewRunner creates a runner. A nil logger discards all output.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{logger: logger, now: time.Now}
}

// OnProgress registers fn to be called after every finished match with the
// number of matches done so far. fn is called from worker goroutines.
func (r *Runner) OnProgress(fn func(done, total int)) *Runner {
	r.progress = fn
	return r
}

// Run plays plan.Runs matches for every strategy in the plan. Each match
// gets its own random source derived from the plan seed, the strategy
// index and the run index, so a report does not depend on Workers.
//
// Under Skip, failed matches are kept in the report with their partial
// history and the batch succeeds. Under Halt, the first failure cancels
// the remaining matches and is returned along with the partial report.
// Cancelling ctx stops scheduling; the report then holds the matches that
// completed and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, plan Plan, game registry.Game) (*Report, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	for _, s := range plan.Strategies {
		if !registry.StrategyExists(game.ID(), s) {
			return nil, fmt.Errorf("batch: unknown strategy %q for game %q", s, game.ID())
		}
	}

	timing := plan.Timing
	if timing == (match.Timing{}) {
		timing = game.Timing()
	}
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	workers := plan.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	report := &Report{
		ID:         uuid.NewString(),
		Game:       game.ID(),
		Strategies: append([]string(nil), plan.Strategies...),
		Runs:       plan.Runs,
		Seed:       plan.Seed,
		Timing:     timing,
		CreatedAt:  r.now(),
	}
	logger := r.logger.With("batch", report.ID[:8])
	logger.Info("Batch started", "game", game.ID(), "strategies", len(plan.Strategies),
		"runs", plan.Runs, "workers", workers, "seed", plan.Seed)

	cfg := match.Config{
		Timing:       timing,
		MaxZeroSteps: plan.MaxZeroSteps,
		Setup:        game.Setup,
	}
	slots := make([]Match, len(plan.Strategies)*plan.Runs)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

schedule:
	for si, strategy := range plan.Strategies {
		for run := 0; run < plan.Runs; run++ {
			if gctx.Err() != nil {
				break schedule
			}
			idx := si*plan.Runs + run
			seed := MatchSeed(plan.Seed, si, run)
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				m, err := r.play(cfg, game, strategy, run, seed)
				if err != nil && !m.Result.Failed() {
					// the match never started
					return fmt.Errorf("batch: %s run %d: %w", strategy, run, err)
				}
				slots[idx] = m
				if r.progress != nil {
					r.progress(int(done.Add(1)), len(slots))
				}
				if err == nil {
					return nil
				}
				logger.Warn("Match failed", "strategy", strategy, "run", run, "seed", seed, "err", err)
				if plan.OnError == Halt {
					return fmt.Errorf("batch: %s run %d: %w", strategy, run, err)
				}
				return nil
			})
		}
	}

	err := g.Wait()
	for _, m := range slots {
		if m.ID != "" {
			report.Matches = append(report.Matches, m)
		}
	}
	report.Elapsed = r.now().Sub(report.CreatedAt)

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		logger.Warn("Batch stopped", "played", len(report.Matches), "err", err)
		return report, err
	}
	logger.Info("Batch finished", "matches", len(report.Matches),
		"failed", len(report.Failures()), "elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (r *Runner) play(cfg match.Config, game registry.Game, strategy string, run int, seed int64) (Match, error) {
	m := Match{
		ID:       uuid.NewString(),
		Strategy: strategy,
		Run:      run,
		Seed:     seed,
	}
	rng := match.NewRand(seed)
	s, err := registry.CreateStrategy(game, strategy, rng)
	if err != nil {
		return m, err
	}
	sim, err := match.New(cfg, game.Actions(), s,
		match.WithMatchID(m.ID),
		match.WithLogger(r.logger),
	)
	if err != nil {
		return m, err
	}
	m.Result, err = sim.Run(rng)
	return m, err
}

// MatchSeed derives the seed of one match from the batch seed.
// It is a splitmix64 step over the batch seed and the match coordinates.
func MatchSeed(seed int64, strategy, run int) int64 {
	x := uint64(seed) ^ (uint64(strategy)<<32 | uint64(uint32(run)))
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return int64(x ^ (x >> 31))
}
