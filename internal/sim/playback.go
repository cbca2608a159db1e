package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fsa-anomaly-lab/internal/telemetry"
)

// ReplayLog replays log entries from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted. Lines that are not log
// entries (tick summaries share the stream) are skipped.
func ReplayLog(ctx context.Context, r io.Reader, writer EventWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	replayed := 0
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return replayed, nil
			}
			return replayed, err
		}
		var head struct {
			NodeID string `json:"node_id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.NodeID == "" {
			continue
		}
		var e telemetry.LogEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return replayed, fmt.Errorf("log entry %d: %w", replayed+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := e.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-ctx.Done():
					return replayed, ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		if err := writer.WriteEvent(e); err != nil {
			return replayed, err
		}
		replayed++
		prev = e.Timestamp
	}
}

// ReplayLogFile opens a file and replays its log entries.
func ReplayLogFile(ctx context.Context, path string, writer EventWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
