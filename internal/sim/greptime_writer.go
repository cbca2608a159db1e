package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"fsa-anomaly-lab/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes node events, anomaly trend and tick summaries to GreptimeDB.
type GreptimeDBWriter struct {
	client       greptimeClient
	eventTable   string
	trendTable   string
	summaryTable string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") using database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	slog.Info("greptimedb writer ready", "host", host, "port", port, "database", database)
	return &GreptimeDBWriter{
		client:       client,
		eventTable:   telemetry.EventTableName,
		trendTable:   telemetry.TrendTableName,
		summaryTable: telemetry.SummaryTableName,
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptimedb endpoint is empty")
	}
	if !strings.Contains(endpoint, ":") {
		return endpoint, defaultGreptimePort, nil
	}
	host, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "", 0, fmt.Errorf("greptimedb endpoint %q: %w", endpoint, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("greptimedb endpoint %q: bad port: %w", endpoint, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table, name string, rows int) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		slog.Error("greptimedb write failed", "table", name, "err", err)
		return fmt.Errorf("write %s: %w", name, err)
	}
	slog.Debug("greptimedb rows written", "table", name, "rows", rows)
	return nil
}

// WriteEvent inserts a single log entry.
func (w *GreptimeDBWriter) WriteEvent(e telemetry.LogEntry) error {
	return w.WriteEvents([]telemetry.LogEntry{e})
}

// WriteEvents inserts multiple log entries into the event table.
func (w *GreptimeDBWriter) WriteEvents(entries []telemetry.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("node_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("event", types.STRING)
	tbl.AddFieldColumn("prev_state", types.STRING)
	tbl.AddFieldColumn("new_state", types.STRING)
	tbl.AddFieldColumn("anomalies", types.STRING)
	tbl.AddFieldColumn("anomaly_count", types.INT64)
	tbl.AddFieldColumn("health", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, e := range entries {
		labels := make([]string, len(e.Anomalies))
		for i, a := range e.Anomalies {
			labels[i] = string(a)
		}
		if err := tbl.AddRow(
			e.RunID,
			e.NodeID,
			int64(e.Tick),
			string(e.Event),
			string(e.PrevState),
			string(e.NewState),
			strings.Join(labels, ","),
			int64(len(e.Anomalies)),
			int64(e.Health),
			e.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(tbl, w.eventTable, len(entries))
}

// WriteTrend inserts a trend point.
func (w *GreptimeDBWriter) WriteTrend(p telemetry.TrendPoint) error {
	tbl, err := table.New(w.trendTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("count", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	if err := tbl.AddRow(p.RunID, int64(p.Tick), int64(p.Count), p.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, w.trendTable, 1)
}

// WriteSummary inserts a tick summary row.
func (w *GreptimeDBWriter) WriteSummary(row telemetry.TickSummaryRow) error {
	tbl, err := table.New(w.summaryTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("nodes", types.INT64)
	tbl.AddFieldColumn("events", types.INT64)
	tbl.AddFieldColumn("anomalies", types.INT64)
	tbl.AddFieldColumn("total_events", types.INT64)
	tbl.AddFieldColumn("total_anomalies", types.INT64)
	tbl.AddFieldColumn("nodes_ok", types.INT64)
	tbl.AddFieldColumn("nodes_warn", types.INT64)
	tbl.AddFieldColumn("nodes_error", types.INT64)
	tbl.AddFieldColumn("avg_health", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	if err := tbl.AddRow(
		row.RunID,
		int64(row.Tick),
		int64(row.Nodes),
		int64(row.Events),
		int64(row.Anomalies),
		int64(row.TotalEvents),
		int64(row.TotalAnomalies),
		int64(row.NodesOK),
		int64(row.NodesWarn),
		int64(row.NodesError),
		row.AvgHealth,
		row.Timestamp,
	); err != nil {
		return err
	}
	return w.write(tbl, w.summaryTable, 1)
}
