package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stratometer/internal/batch"
	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/platform/tui"
	"github.com/vovakirdan/stratometer/internal/registry"
	"github.com/vovakirdan/stratometer/internal/storage"
)

var (
	flagRuns        int
	flagWorkers     int
	flagSave        bool
	flagHaltOnError bool
	flagHistBins    int
	flagDuration    float64
	flagProgress    bool
)

var runCmd = &cobra.Command{
	Use:   "run <game> [strategy...]",
	Short: "Simulate a batch of matches",
	Long: `Play every listed strategy for --runs matches and print score statistics.
Without strategies, every strategy registered for the game is played.

Defaults for runs, workers, seed and error handling come from sim.yaml.

Examples:
  stratometer run reefscape
  stratometer run reefscape coral_cycler l4_focus --runs 1000
  stratometer run reefscape --seed 42 --save
  stratometer run reefscape algae_first --hist 15`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().IntVarP(&flagRuns, "runs", "n", 0, "Matches per strategy (default from sim.yaml)")
	runCmd.Flags().IntVarP(&flagWorkers, "workers", "w", -1, "Parallel matches, 0 = one per CPU (default from sim.yaml)")
	runCmd.Flags().BoolVar(&flagSave, "save", false, "Store the batch in the results database")
	runCmd.Flags().BoolVar(&flagHaltOnError, "halt-on-error", false, "Stop the batch at the first failed match")
	runCmd.Flags().IntVar(&flagHistBins, "hist", 0, "Print a score histogram with this many bins per strategy")
	runCmd.Flags().BoolVar(&flagProgress, "progress", false, "Show a progress bar while the batch runs")
	runCmd.Flags().Float64Var(&flagDuration, "duration", 0, "Override the match length in seconds")
}

func runRun(cmd *cobra.Command, args []string) {
	gameID := args[0]

	if !registry.GameExists(gameID) {
		fmt.Fprintf(os.Stderr, "Error: unknown game %q\n", gameID)
		fmt.Fprintln(os.Stderr, "Run 'stratometer list' to see available games.")
		os.Exit(1)
	}

	game, err := registry.CreateGame(gameID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating game: %v\n", err)
		os.Exit(1)
	}

	strategies := args[1:]
	if len(strategies) == 0 {
		for _, s := range registry.Strategies(gameID) {
			strategies = append(strategies, s.ID)
		}
	}

	plan, err := buildPlan(cmd, gameID, strategies, game.Timing())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger("batch")
	runner := batch.NewRunner(logger)
	var report *batch.Report
	if flagProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		// warnings would tear the bar; failures are listed afterwards
		if logger.GetLevel() > log.DebugLevel {
			logger.SetLevel(log.ErrorLevel)
		}
		report, err = runWithProgress(ctx, runner, plan, game)
	} else {
		report, err = runner.Run(ctx, plan, game)
	}
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tui.RenderSummary(report))

	if flagHistBins > 0 {
		for _, s := range report.Strategies {
			fmt.Printf("\n%s\n", s)
			fmt.Println(tui.RenderHistogram(batch.Histogram(report.ByStrategy(s), flagHistBins), 40))
		}
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Printf("\n%d failed matches:\n", len(failures))
		for _, m := range failures {
			fmt.Printf("  %-14s run %-5d seed %-20d %v\n", m.Strategy, m.Run, m.Seed, m.Result.Err())
		}
	}

	if flagSave {
		if len(report.Matches) == 0 {
			fmt.Println("\nNothing to save.")
		} else if saveErr := saveReport(report); saveErr != nil {
			fmt.Fprintf(os.Stderr, "Error saving batch: %v\n", saveErr)
			os.Exit(1)
		} else {
			fmt.Printf("\nSaved batch %s\n", report.ID[:8])
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Batch interrupted.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runWithProgress plays the batch under a progress bar. Quitting the bar
// cancels the batch.
func runWithProgress(ctx context.Context, runner *batch.Runner, plan batch.Plan, game registry.Game) (*batch.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	counter := &tui.Progress{}
	runner.OnProgress(counter.Report)
	p := tea.NewProgram(tui.NewProgressModel(plan.Game, counter), tea.WithOutput(os.Stderr))

	type outcome struct {
		report *batch.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := runner.Run(ctx, plan, game)
		done <- outcome{report, err}
		p.Send(tui.BatchDoneMsg{})
	}()

	final, err := p.Run()
	if m, ok := final.(tui.ProgressModel); err != nil || !ok || m.Interrupted() {
		cancel()
	}
	out := <-done
	return out.report, out.err
}

// buildPlan merges sim.yaml with the command line flags. Flags win.
func buildPlan(cmd *cobra.Command, gameID string, strategies []string, gameTiming match.Timing) (batch.Plan, error) {
	cfg := loadSimConfig()

	plan := batch.Plan{
		Game:         gameID,
		Strategies:   strategies,
		Runs:         cfg.Batch.Runs,
		Seed:         cfg.Batch.Seed,
		Workers:      cfg.Batch.Workers,
		MaxZeroSteps: cfg.Engine.MaxZeroSteps,
	}

	onError, err := batch.ParseOnError(cfg.Batch.OnError)
	if err != nil {
		return plan, err
	}
	plan.OnError = onError

	// sim.yaml timing only applies when it differs from the game's clock;
	// an explicit --duration always wins
	if cfg.Match != match.DefaultTiming() {
		plan.Timing = cfg.Match
	}
	if flagDuration > 0 {
		t := gameTiming
		if plan.Timing != (match.Timing{}) {
			t = plan.Timing
		}
		plan.Timing = rescale(t, flagDuration)
	}

	if flagRuns > 0 {
		plan.Runs = flagRuns
	}
	if flagWorkers >= 0 {
		plan.Workers = flagWorkers
	}
	if flagHaltOnError {
		plan.OnError = batch.Halt
	}
	if cmd.Flags().Changed("seed") {
		plan.Seed = flagSeed
	}
	if plan.Seed == 0 {
		plan.Seed = time.Now().UnixNano()
	}
	return plan, nil
}

// rescale changes the match length while keeping the endgame as long as
// before. Auton is cut to fit a shorter match.
func rescale(t match.Timing, duration float64) match.Timing {
	out := match.Timing{Duration: duration, Auton: min(t.Auton, duration)}
	if t.EndgameStart > 0 {
		out.EndgameStart = max(duration-(t.Duration-t.EndgameStart), out.Auton)
	}
	return out
}

func saveReport(report *batch.Report) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveBatch(report)
}
