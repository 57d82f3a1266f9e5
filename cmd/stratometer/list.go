package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stratometer/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List games and their strategies",
	Long:  `Shows every registered game together with the strategies that can play it.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	games := registry.Games()

	if len(games) == 0 {
		fmt.Println("No games available.")
		return
	}

	for _, g := range games {
		fmt.Printf("%s - %s\n", g.ID, g.Title)
		fmt.Println()

		strategies := registry.Strategies(g.ID)
		if len(strategies) == 0 {
			fmt.Println("  (no strategies)")
			fmt.Println()
			continue
		}

		// Calculate column widths
		maxIDLen := 8 // "Strategy" header
		for _, s := range strategies {
			if len(s.ID) > maxIDLen {
				maxIDLen = len(s.ID)
			}
		}

		fmt.Printf("  %-*s  %s\n", maxIDLen, "Strategy", "Description")
		fmt.Printf("  %-*s  %s\n", maxIDLen, "--------", "-----------")
		for _, s := range strategies {
			fmt.Printf("  %-*s  %s\n", maxIDLen, s.ID, s.Title)
		}
		fmt.Println()
	}

	fmt.Println("Run 'stratometer run <game> [strategy...]' to simulate a batch.")
}
