package sim

import (
	"context"
	"time"

	"fsa-anomaly-lab/internal/logging"
	"fsa-anomaly-lab/internal/telemetry"
)

// EventWriter is an interface to support different output writers.
type EventWriter interface {
	WriteEvent(telemetry.LogEntry) error
}

// Optional: Writers can also support batch mode
type batchEventWriter interface {
	WriteEvents([]telemetry.LogEntry) error
}

// TrendWriter receives the per-tick anomaly trend point.
type TrendWriter interface {
	WriteTrend(telemetry.TrendPoint) error
}

// SummaryWriter receives the per-tick summary row.
type SummaryWriter interface {
	WriteSummary(telemetry.TickSummaryRow) error
}

// SnapshotWriter receives a full snapshot after every committed tick and reset.
type SnapshotWriter interface {
	WriteSnapshot(Snapshot) error
}

// ControllerSetter is implemented by writers that drive the simulator (TUI).
type ControllerSetter interface {
	SetController(Controller)
}

// Recorder observes ticks for metrics.
type Recorder interface {
	RecordTick(row telemetry.TickSummaryRow, entries []telemetry.LogEntry, elapsed time.Duration)
}

// writeTick fans a tick result out to w, using the optional interfaces it implements.
func writeTick(ctx context.Context, w EventWriter, res TickResult, snap Snapshot) {
	if w == nil {
		return
	}
	log := logging.FromContext(ctx)

	// Batch support if writer implements WriteEvents
	if bw, ok := w.(batchEventWriter); ok {
		if err := bw.WriteEvents(res.Entries); err != nil {
			log.Error("batch write failed", "tick", res.Tick, "err", err)
		}
	} else {
		for _, e := range res.Entries {
			if err := w.WriteEvent(e); err != nil {
				log.Error("write failed", "node_id", e.NodeID, "err", err)
			}
		}
	}
	if tw, ok := w.(TrendWriter); ok {
		if err := tw.WriteTrend(res.Trend); err != nil {
			log.Error("trend write failed", "tick", res.Tick, "err", err)
		}
	}
	if sw, ok := w.(SummaryWriter); ok {
		if err := sw.WriteSummary(res.Summary); err != nil {
			log.Error("summary write failed", "tick", res.Tick, "err", err)
		}
	}
	writeSnapshot(ctx, w, snap)
}

func writeSnapshot(ctx context.Context, w EventWriter, snap Snapshot) {
	if sw, ok := w.(SnapshotWriter); ok {
		if err := sw.WriteSnapshot(snap); err != nil {
			logging.FromContext(ctx).Error("snapshot write failed", "tick", snap.Tick, "err", err)
		}
	}
}
