package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/platform/tui"
	"github.com/vovakirdan/stratometer/internal/registry"
	"github.com/vovakirdan/stratometer/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Print and verify one stored match",
	Long: `Print the step history of a stored match, then replay it against the
current game definition and check that it reproduces the stored score.
A mismatch means the game configuration changed since the match was played.

Examples:
  stratometer show 5b1e0f7a-0c3d-4a59-9d11-2f3e4c5d6a7b`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func runShow(cmd *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rec, steps, b, err := loadMatch(store, args[0])
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Match %s  %s  run %d  seed %d\n", rec.ID, rec.Strategy, rec.Run, rec.Seed)
	fmt.Println()
	fmt.Println(tui.RenderSteps(steps))
	fmt.Println()
	fmt.Printf("Score: %.1f  (auton %.1f, teleop %.1f, endgame %.1f)\n",
		rec.Score, rec.AutonPoints, rec.TeleopPoints, rec.EndgamePoints)
	if rec.Failed() {
		fmt.Printf("Failed: %s\n", rec.Error)
	}

	if err := verifyReplay(rec, steps, b); err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Replay mismatch: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Replay: ok")
}

func loadMatch(store *storage.Store, id string) (*storage.MatchRecord, []match.Step, *storage.BatchRecord, error) {
	rec, err := store.MatchByID(id)
	if err != nil {
		return nil, nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil, fmt.Errorf("no match with id %q", id)
	}
	steps, err := store.MatchSteps(rec.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := store.BatchByID(rec.BatchID)
	if err != nil {
		return nil, nil, nil, err
	}
	if b == nil {
		return nil, nil, nil, fmt.Errorf("batch %q of match is missing", rec.BatchID)
	}
	return rec, steps, b, nil
}

// verifyReplay re-applies the stored history and compares the outcome.
func verifyReplay(rec *storage.MatchRecord, steps []match.Step, b *storage.BatchRecord) error {
	game, err := registry.CreateGame(rec.Game)
	if err != nil {
		return err
	}
	cfg := match.Config{Timing: b.Timing, Setup: game.Setup}

	result, err := match.Replay(cfg, game.Actions(), rec.Strategy, steps)
	if err != nil {
		return err
	}
	if result.FinalScore() != rec.Score {
		return fmt.Errorf("replayed score %.1f, stored %.1f", result.FinalScore(), rec.Score)
	}
	replayed := result.History()
	if !slices.EqualFunc(replayed, steps, sameStep) {
		return fmt.Errorf("replayed history differs from the stored one")
	}
	return nil
}

func sameStep(a, b match.Step) bool {
	return a.Action == b.Action && a.Clipped == b.Clipped && a.Phase == b.Phase && a.Points == b.Points
}
