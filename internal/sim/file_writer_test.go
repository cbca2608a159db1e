package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	return out
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	entry := telemetry.LogEntry{RunID: "r1", NodeID: "node-1", Tick: 1, Event: fsa.EventPingTimeout,
		PrevState: fsa.StateOK, NewState: fsa.StateOK,
		Anomalies: []fsa.AnomalyLabel{fsa.AnomalyForbiddenTransition, fsa.AnomalyExcessiveTimeouts}, Health: 98, Timestamp: ts}
	point := telemetry.TrendPoint{RunID: "r1", Tick: 1, Count: 2, Timestamp: ts}
	row := telemetry.TickSummaryRow{RunID: "r1", Tick: 1, Nodes: 1, Events: 1, Anomalies: 2, NodesOK: 1, AvgHealth: 98, Timestamp: ts}

	cases := []struct {
		name   string
		write  func(*FileWriter) error
		decode func([]byte)
	}{
		{
			name:  "events",
			write: func(fw *FileWriter) error { return fw.WriteEvents([]telemetry.LogEntry{entry}) },
			decode: func(b []byte) {
				var got telemetry.LogEntry
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode event: %v", err)
				}
				if got.NodeID != entry.NodeID || len(got.Anomalies) != 2 || got.Anomalies[0] != fsa.AnomalyForbiddenTransition {
					t.Fatalf("unexpected event: %#v", got)
				}
			},
		},
		{
			name:  "trend",
			write: func(fw *FileWriter) error { return fw.WriteTrend(point) },
			decode: func(b []byte) {
				var got telemetry.TrendPoint
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode trend: %v", err)
				}
				if got.Tick != point.Tick || got.Count != point.Count || !got.Timestamp.Equal(point.Timestamp) {
					t.Fatalf("unexpected trend: %#v", got)
				}
			},
		},
		{
			name:  "summary",
			write: func(fw *FileWriter) error { return fw.WriteSummary(row) },
			decode: func(b []byte) {
				var got telemetry.TickSummaryRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode summary: %v", err)
				}
				if got.Anomalies != 2 || got.AvgHealth != 98 || got.NodesOK != 1 {
					t.Fatalf("unexpected summary: %#v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paths := map[string]string{
				"events":  filepath.Join(dir, tc.name+"_events.jsonl"),
				"trend":   filepath.Join(dir, tc.name+"_trend.jsonl"),
				"summary": filepath.Join(dir, tc.name+"_summary.jsonl"),
			}
			fw, err := NewFileWriter(paths["events"], paths["trend"], paths["summary"])
			if err != nil {
				t.Fatalf("NewFileWriter: %v", err)
			}
			if err := tc.write(fw); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := fw.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			lines := readLines(t, paths[tc.name])
			if len(lines) != 1 {
				t.Fatalf("expected 1 line, got %d", len(lines))
			}
			tc.decode(lines[0])
		})
	}
}

func TestFileWriterOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "events.jsonl"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteTrend(telemetry.TrendPoint{}); err != nil {
		t.Fatalf("disabled trend should be a no-op: %v", err)
	}
	if err := fw.WriteSummary(telemetry.TickSummaryRow{}); err != nil {
		t.Fatalf("disabled summary should be a no-op: %v", err)
	}
}

func TestFileWriterBadPath(t *testing.T) {
	if _, err := NewFileWriter(filepath.Join(t.TempDir(), "missing", "events.jsonl"), "", ""); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
