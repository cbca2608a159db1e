package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/logging"
	"fsa-anomaly-lab/internal/sim"
)

var (
	replayInput    string
	replaySpeed    float64
	replayOutput   string
	replayGreptime string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded event log",
	Long:  "replay feeds node events from a JSONL log back through a display writer and optional sinks, honoring recorded timestamps.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		log, closeLog, err := newLogger(replayOutput)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		ws, cleanup, err := newWriters(ctx, config.Default(), replayOutput, "", replayGreptime)
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := sim.ReplayLogFile(ctx, replayInput, ws.sink, replaySpeed)
		if err != nil && ctx.Err() == nil {
			return err
		}
		log.Info("replay finished", "input", replayInput, "events", n)
		if ws.tui != nil && ctx.Err() == nil {
			<-ctx.Done()
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to JSONL event log")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (<= 0 replays without delay)")
	replayCmd.Flags().StringVar(&replayOutput, "output", defaultOutput(), "Display writer: tui, color or json")
	replayCmd.Flags().StringVar(&replayGreptime, "greptime", "", "Also write replayed events to this GreptimeDB endpoint")
	replayCmd.MarkFlagRequired("input")
}
