package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stratometer/internal/platform/tui"
	"github.com/vovakirdan/stratometer/internal/storage"
)

var browseCmd = &cobra.Command{
	Use:   "browse [batch-id]",
	Short: "Browse stored results interactively",
	Long: `Open the interactive results browser. It starts at the newest batch,
or at the given batch id (or unique prefix).

Controls:
  Up/Down     - Select match
  Tab/Left    - Switch strategy
  [ / ]       - Previous/next batch
  Enter       - Show match steps
  Esc         - Back
  Q           - Quit`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) {
	batchID := ""
	if len(args) == 1 {
		batchID = args[0]
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := tui.RunResults(store, batchID, width, height); err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
