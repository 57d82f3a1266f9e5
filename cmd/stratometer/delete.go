package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stratometer/internal/storage"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete a stored batch",
	Long: `Remove a batch and all of its matches from the results database.
The id may be a unique prefix.

Examples:
  stratometer delete 3f2a9c1d`,
	Args: cobra.ExactArgs(1),
	Run:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	b, err := store.BatchByID(args[0])
	if err == nil && b == nil {
		err = fmt.Errorf("no batch matches %q", args[0])
	}
	if err == nil {
		err = store.DeleteBatch(b.ID)
	}
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted batch %s (%d matches)\n", b.ID[:8], b.Matches)
}
