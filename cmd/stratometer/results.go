package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stratometer/internal/platform/tui"
	"github.com/vovakirdan/stratometer/internal/registry"
	"github.com/vovakirdan/stratometer/internal/storage"
)

var flagResultsLimit int

var resultsCmd = &cobra.Command{
	Use:   "results [batch-id]",
	Short: "Show stored batches",
	Long: `Without an argument, list the most recent stored batches and the
all-time strategy standings of every game. With a batch id (or a unique
prefix of one), print that batch's summary.

Examples:
  stratometer results
  stratometer results 3f2a9c1d`,
	Args: cobra.MaximumNArgs(1),
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().IntVar(&flagResultsLimit, "limit", 10, "Number of recent batches to list")
}

func runResults(cmd *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 1 {
		if err := printBatch(store, args[0]); err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	batches, err := store.RecentBatches(flagResultsLimit)
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error retrieving batches: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Recent batches")
	fmt.Println()
	fmt.Println(tui.RenderBatches(batches))

	if len(batches) == 0 {
		fmt.Println()
		fmt.Println("Run 'stratometer run <game> --save' to store a batch.")
		return
	}

	for _, g := range registry.Games() {
		stats, err := store.StrategyStats(g.ID)
		if err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error retrieving standings: %v\n", err)
			os.Exit(1)
		}
		if len(stats) == 0 {
			continue
		}
		fmt.Println()
		fmt.Println(tui.RenderStrategyStats(g.Title, stats))
	}
}

func printBatch(store *storage.Store, id string) error {
	b, err := store.BatchByID(id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("no batch matches %q", id)
	}
	matches, err := store.MatchesForBatch(b.ID, "")
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderStoredSummary(*b, matches))
	return nil
}
