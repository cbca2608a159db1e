package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"fsa-anomaly-lab/internal/telemetry"
)

// JSONStdoutWriter prints log entries and tick summaries as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteEvent outputs a log entry in JSON format.
func (w *JSONStdoutWriter) WriteEvent(e telemetry.LogEntry) error {
	return w.emit(e)
}

// WriteEvents outputs multiple log entries in JSON format.
func (w *JSONStdoutWriter) WriteEvents(entries []telemetry.LogEntry) error {
	for _, e := range entries {
		if err := w.WriteEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary outputs a tick summary in JSON format.
func (w *JSONStdoutWriter) WriteSummary(row telemetry.TickSummaryRow) error {
	return w.emit(row)
}
