// ColorStdoutWriter prints human-friendly, colorized node events to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints log entries using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
	mu   sync.Mutex
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func stateColor(s fsa.State) string {
	switch s {
	case fsa.StateOK:
		return colorGreen
	case fsa.StateWarn:
		return colorYellow
	case fsa.StateError:
		return colorRed
	}
	return colorGray
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	interval, _ := w.cfg.Interval()
	policy := w.cfg.HealthPolicy()

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Nodes:\t%d\n", w.cfg.Nodes())
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", interval)
	if w.cfg.Seed != nil {
		fmt.Fprintf(tw, "Seed:\t%d\n", *w.cfg.Seed)
	}
	if w.cfg.Scenario != "" {
		fmt.Fprintf(tw, "Scenario:\t%s\n", w.cfg.Scenario)
	}
	fmt.Fprintf(tw, "Health Penalty:\t%d\n", policy.Penalty)
	fmt.Fprintf(tw, "Health Regen:\t%d\n", policy.Regen)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteEvent outputs a single log entry in colorized format.
func (w *ColorStdoutWriter) WriteEvent(e telemetry.LogEntry) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, e.Timestamp.Format("15:04:05"), colorReset)
	fmt.Fprintf(w.out, "%s#%d%s ", colorBlue, e.Tick, colorReset)
	fmt.Fprintf(w.out, "%s%s%s: %s%s%s ", colorCyan, e.NodeID, colorReset, colorMagenta, e.Event, colorReset)
	fmt.Fprintf(w.out, "(%s%s%s → %s%s%s) ",
		stateColor(e.PrevState), e.PrevState, colorReset,
		stateColor(e.NewState), e.NewState, colorReset)
	fmt.Fprintf(w.out, "health=%d", e.Health)
	if len(e.Anomalies) > 0 {
		fmt.Fprintf(w.out, " %s⚠️ %s%s", colorRed, e.AnomalyText(), colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteEvents outputs multiple log entries.
func (w *ColorStdoutWriter) WriteEvents(entries []telemetry.LogEntry) error {
	for _, e := range entries {
		_ = w.WriteEvent(e)
	}
	return nil
}

// WriteSummary prints the per-tick counters.
func (w *ColorStdoutWriter) WriteSummary(row telemetry.TickSummaryRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	anomalyColor := colorGreen
	if row.Anomalies > 0 {
		anomalyColor = colorRed
	}
	fmt.Fprintf(w.out, "%sTICK %d%s events=%d %sanomalies=%d%s total_events=%d total_anomalies=%d ",
		colorBlue, row.Tick, colorReset, row.Events, anomalyColor, row.Anomalies, colorReset,
		row.TotalEvents, row.TotalAnomalies)
	fmt.Fprintf(w.out, "%sOK=%d%s %sWARN=%d%s %sERROR=%d%s avg_health=%.1f\n",
		colorGreen, row.NodesOK, colorReset,
		colorYellow, row.NodesWarn, colorReset,
		colorRed, row.NodesError, colorReset, row.AvgHealth)
	return nil
}
