package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/sim"
)

const (
	outputTUI   = "tui"
	outputColor = "color"
	outputJSON  = "json"
)

// The GreptimeDB sink is enabled when the endpoint is set.
const (
	envGreptimeEndpoint = "GREPTIMEDB_ENDPOINT"
	envGreptimeDatabase = "GREPTIMEDB_DATABASE"
)

// defaultOutput picks the TUI on an interactive terminal and JSON lines otherwise.
func defaultOutput() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return outputTUI
	}
	return outputJSON
}

// writers is the sink set of one run.
type writers struct {
	sink sim.EventWriter
	tui  *sim.TUIWriter
}

// newWriters sets up the display writer plus optional file and GreptimeDB
// sinks. It returns the writers and a cleanup function to close any resources.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, output, logFile, greptimeEndpoint string) (writers, func(), error) {
	var ws writers
	display, err := displayWriter(ctx, cfg, output)
	if err != nil {
		return ws, nil, err
	}
	if tw, ok := display.(*sim.TUIWriter); ok {
		ws.tui = tw
	}

	sinks := []sim.EventWriter{display}
	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".trend", logFile+".summary")
		if err != nil {
			closeAll(sinks)
			return ws, nil, err
		}
		sinks = append(sinks, fw)
	}
	if greptimeEndpoint != "" {
		db := os.Getenv(envGreptimeDatabase)
		if db == "" {
			db = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(greptimeEndpoint, db)
		if err != nil {
			closeAll(sinks)
			return ws, nil, err
		}
		sinks = append(sinks, gw)
	}

	if len(sinks) == 1 {
		ws.sink = display
		return ws, func() { closeAll(sinks) }, nil
	}
	mw := sim.NewMultiWriter(sinks...)
	ws.sink = mw
	return ws, func() { mw.Close() }, nil
}

// displayWriter returns the terminal-facing writer for output.
func displayWriter(ctx context.Context, cfg *config.SimulationConfig, output string) (sim.EventWriter, error) {
	switch output {
	case outputTUI:
		return sim.NewTUIWriter(ctx, cfg), nil
	case outputColor:
		return sim.NewColorStdoutWriter(cfg), nil
	case outputJSON:
		return sim.NewJSONStdoutWriter(), nil
	default:
		return nil, fmt.Errorf("unknown output %q (want tui, color or json)", output)
	}
}

func closeAll(ws []sim.EventWriter) {
	for _, w := range ws {
		if c, ok := w.(interface{ Close() error }); ok {
			c.Close()
		}
	}
}
