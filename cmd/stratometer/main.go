// stratometer simulates FRC matches to compare robot strategies.
//
// Usage:
//
//	stratometer list                      - List games and their strategies
//	stratometer run <game> [strategy...]  - Simulate a batch of matches
//	stratometer results [batch-id]        - Show stored batches or one batch
//	stratometer show <match-id>           - Replay and print one stored match
//	stratometer browse [batch-id]         - Browse stored results interactively
//	stratometer delete <batch-id>         - Delete a stored batch
//	stratometer serve                     - Serve the results browser over SSH
//
// Global flags:
//
//	--seed <value>       - Base seed for reproducible batches (0 = time based)
//	--db <path>          - Results database (default: ~/.stratometer/results.db)
//	--config-dir <path>  - Directory holding sim.yaml and game configs
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stratometer/internal/config"
	"github.com/vovakirdan/stratometer/internal/games/reefscape"
)

var (
	// Global flags
	flagSeed      int64
	flagDBPath    string
	flagConfigDir string
	flagLogLevel  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stratometer",
	Short: "Stratometer - compare FRC robot strategies by simulation",
	Long: `Stratometer plays thousands of simulated FRC matches per strategy and
reports how their scores are distributed.

Available commands:
  list     - Show games and their strategies
  run      - Simulate a batch of matches
  results  - Show stored batches
  show     - Replay one stored match step by step
  browse   - Interactive results browser
  delete   - Delete a stored batch
  serve    - Start SSH server for the results browser

Examples:
  stratometer list
  stratometer run reefscape --runs 500
  stratometer run reefscape coral_cycler l4_focus --save --hist 12
  stratometer results
  stratometer browse`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A broken game config is reported here instead of silently
		// falling back to the built-in defaults.
		path := configFile("reefscape.yaml")
		if _, err := config.LoadReefscape(path); err != nil {
			return err
		}
		reefscape.SetConfigPath(path)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Base RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.stratometer/results.db", "Path to results database")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Directory with sim.yaml and game configs")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger builds the process logger from --log-level.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// configFile returns the named file inside --config-dir, or "" when the
// directory is unset or lacks the file so the regular search order applies.
func configFile(name string) string {
	path := config.PathIn(flagConfigDir, name)
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// loadSimConfig loads sim.yaml or exits with an error.
func loadSimConfig() config.SimConfig {
	cfg, err := config.LoadSim(configFile("sim.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
