package sim

import (
	"errors"

	"fsa-anomaly-lab/internal/telemetry"
)

// MultiWriter fans tick output out to multiple writers.
type MultiWriter struct {
	writers []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...EventWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteEvent sends a log entry to all writers.
func (mw *MultiWriter) WriteEvent(e telemetry.LogEntry) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteEvent(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvents sends multiple log entries to all writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(entries []telemetry.LogEntry) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(entries); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, e := range entries {
			if err := w.WriteEvent(e); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteTrend forwards the trend point to writers that accept it.
func (mw *MultiWriter) WriteTrend(p telemetry.TrendPoint) error {
	var errs []error
	for _, w := range mw.writers {
		if tw, ok := w.(TrendWriter); ok {
			if err := tw.WriteTrend(p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteSummary forwards the summary row to writers that accept it.
func (mw *MultiWriter) WriteSummary(row telemetry.TickSummaryRow) error {
	var errs []error
	for _, w := range mw.writers {
		if sw, ok := w.(SummaryWriter); ok {
			if err := sw.WriteSummary(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteSnapshot forwards the snapshot to writers that accept it.
func (mw *MultiWriter) WriteSnapshot(snap Snapshot) error {
	var errs []error
	for _, w := range mw.writers {
		if sw, ok := w.(SnapshotWriter); ok {
			if err := sw.WriteSnapshot(snap); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetController forwards the controller to writers that drive the simulator.
func (mw *MultiWriter) SetController(c Controller) {
	for _, w := range mw.writers {
		if cs, ok := w.(ControllerSetter); ok {
			cs.SetController(c)
		}
	}
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
