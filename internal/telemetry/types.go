// Simulation rows with greptime tags
package telemetry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fsa-anomaly-lab/internal/fsa"
)

// LogEntry records one node mutation within a tick.
type LogEntry struct {
	RunID     string             `json:"run_id"`    // TAG
	NodeID    string             `json:"node_id"`   // TAG
	Tick      int                `json:"tick"`      // FIELD
	Event     fsa.Event          `json:"event"`     // FIELD
	PrevState fsa.State          `json:"prev"`      // FIELD
	NewState  fsa.State          `json:"next"`      // FIELD
	Anomalies []fsa.AnomalyLabel `json:"anomalies"` // FIELD
	Health    int                `json:"health"`    // FIELD
	Timestamp time.Time          `json:"ts"`        // TIME INDEX
}

// Line renders the entry the way the event stream shows it.
func (e LogEntry) Line() string {
	line := fmt.Sprintf("[%s] %s: %s (%s → %s)", e.Timestamp.Format("15:04:05"), e.NodeID, e.Event, e.PrevState, e.NewState)
	if len(e.Anomalies) > 0 {
		line += " ⚠️"
	}
	return line
}

// AnomalyText joins the display names of the entry's labels.
func (e LogEntry) AnomalyText() string {
	names := make([]string, len(e.Anomalies))
	for i, a := range e.Anomalies {
		names[i] = a.Display()
	}
	return strings.Join(names, ", ")
}

// TrendPoint is the total anomaly count of one tick across all nodes.
type TrendPoint struct {
	RunID     string    `json:"run_id"` // TAG
	Tick      int       `json:"tick"`   // FIELD
	Count     int       `json:"count"`  // FIELD
	Timestamp time.Time `json:"ts"`     // TIME INDEX
}

// TickSummaryRow captures per-tick counters and node state distribution.
type TickSummaryRow struct {
	RunID          string    `json:"run_id"`
	Tick           int       `json:"tick"`
	Nodes          int       `json:"nodes"`
	Events         int       `json:"events"`
	Anomalies      int       `json:"tick_anomalies"`
	TotalEvents    int       `json:"total_events"`
	TotalAnomalies int       `json:"total_anomalies"`
	NodesOK        int       `json:"nodes_ok"`
	NodesWarn      int       `json:"nodes_warn"`
	NodesError     int       `json:"nodes_error"`
	AvgHealth      float64   `json:"avg_health"`
	Timestamp      time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB. Each can be overridden by env var.
var (
	EventTableName   = tableName("GREPTIMEDB_EVENT_TABLE", "node_events")
	TrendTableName   = tableName("GREPTIMEDB_TREND_TABLE", "anomaly_trend")
	SummaryTableName = tableName("GREPTIMEDB_SUMMARY_TABLE", "tick_summary")
)
