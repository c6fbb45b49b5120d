package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llp-go/llp/pkg/telemetry"
	"github.com/llp-go/llp/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logger     utils.Logger

	// telemetryShutdown is set by PersistentPreRunE and drained by
	// PersistentPostRunE so every command flushes its spans before exit.
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "llp",
	Short: "Layered label propagation over large graphs",
	Long: `llp runs layered label propagation (LLP) clustering over a graph to
derive a vertex permutation that improves locality, and hence
compressibility, of the graph's adjacency representation.

It runs the LLP core across a schedule of resolution values (gamma),
combines the resulting labellings into a single refined result, and can
persist per-gamma run history and intermediate labels for later inspection.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("telemetry disabled: %v", err)
			shutdown = nil
		}
		telemetryShutdown = shutdown

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			return telemetryShutdown(cmd.Context())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	binName := BinName()
	rootCmd.Example = `  # Run LLP over a synthetic demonstration graph
  ` + binName + ` run --synthetic 100000 --workers 8

  # Run with a custom gamma schedule and seed
  ` + binName + ` run --synthetic 100000 --gammas 1,0.5,0.25 --seed 42

  # Run with config-file-driven settings and verbose logging
  ` + binName + ` run --config ./llp.yaml -v`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
