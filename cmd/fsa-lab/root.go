package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fsa-anomaly-lab/internal/logging"
)

var (
	logFormat string
	logLevel  string
	logOutput string
)

var rootCmd = &cobra.Command{
	Use:          "fsa-lab",
	Short:        "FSA network-node anomaly simulator",
	Long:         "fsa-lab simulates network nodes as finite-state automata, classifies anomalous transitions and replays recorded runs.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "", "Write application logs to this file (default STDERR, discarded in tui mode)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// newLogger builds the application logger. Logs are kept off the terminal
// while the TUI owns it. The returned func closes any opened file.
func newLogger(output string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}
	switch {
	case logOutput != "":
		f, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log output: %w", err)
		}
		w = f
		cleanup = func() { f.Close() }
	case output == outputTUI:
		w = io.Discard
	}
	log := logging.NewWithOptions(w, logFormat, logLevel)
	slog.SetDefault(log)
	return log, cleanup, nil
}
