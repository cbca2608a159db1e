package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

func TestRecordTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	entries := []telemetry.LogEntry{
		{NodeID: "node-1", Event: fsa.EventPingTimeout, Anomalies: []fsa.AnomalyLabel{fsa.AnomalyForbiddenTransition, fsa.AnomalyExcessiveTimeouts}},
		{NodeID: "node-2", Event: fsa.EventPingOK},
		{NodeID: "node-3", Event: fsa.EventPingTimeout, Anomalies: []fsa.AnomalyLabel{fsa.AnomalyExcessiveTimeouts}},
	}
	row := telemetry.TickSummaryRow{Tick: 1, NodesOK: 2, NodesError: 1, AvgHealth: 98.5}
	c.RecordTick(row, entries, 3*time.Millisecond)

	if got := testutil.ToFloat64(c.Ticks); got != 1 {
		t.Fatalf("fsa_ticks_total = %v", got)
	}
	if got := testutil.ToFloat64(c.Events.WithLabelValues("ping_timeout")); got != 2 {
		t.Fatalf("ping_timeout events = %v", got)
	}
	if got := testutil.ToFloat64(c.Anomalies.WithLabelValues("excessive_timeouts")); got != 2 {
		t.Fatalf("excessive_timeouts = %v", got)
	}
	if got := testutil.ToFloat64(c.Nodes.WithLabelValues("OK")); got != 2 {
		t.Fatalf("nodes OK = %v", got)
	}
	if got := testutil.ToFloat64(c.AvgHealth); got != 98.5 {
		t.Fatalf("avg health = %v", got)
	}
	if count := histogramSampleCount(t, reg, "fsa_tick_duration_seconds"); count != 1 {
		t.Fatalf("tick duration samples = %d", count)
	}
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	a.Ticks.Inc()
	if got := testutil.ToFloat64(b.Ticks); got != 1 {
		t.Fatalf("collectors not shared: %v", got)
	}
}

func TestNewCollectorIncompatible(t *testing.T) {
	tests := []struct {
		name string
		col  prometheus.Collector
	}{
		{"gauge as ticks counter", prometheus.NewGauge(prometheus.GaugeOpts{Name: "fsa_ticks_total", Help: "Committed simulation ticks."})},
		{"counter vec as nodes gauge vec", prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fsa_nodes", Help: "Current number of nodes per FSA state."}, []string{"state"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			reg.MustRegister(tt.col)
			if _, err := NewCollector(reg); err == nil {
				t.Fatalf("expected incompatible type error")
			}
		})
	}
}

func TestNewCollectorReusesSameTypeGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	existing := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fsa_avg_health", Help: "Mean node health score after the last tick."})
	reg.MustRegister(existing)
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.AvgHealth.Set(42)
	if got := testutil.ToFloat64(existing); got != 42 {
		t.Fatalf("existing gauge not reused: %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.RecordTick(telemetry.TickSummaryRow{NodesWarn: 4}, []telemetry.LogEntry{{Event: fsa.EventLatencyHigh}}, time.Millisecond)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{`fsa_nodes{state="WARN"} 4`, `fsa_events_total{event="latency_high"} 1`, "fsa_ticks_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestSeriesExposedBeforeFirstTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, label := range fsa.Labels() {
		want := `fsa_anomalies_total{label="` + string(label) + `"} 0`
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if !strings.Contains(body, `fsa_events_total{event="suspicious_traffic"} 0`) {
		t.Errorf("event series not initialised")
	}
}

func TestRecordTickNilCollector(t *testing.T) {
	var c *Collector
	c.RecordTick(telemetry.TickSummaryRow{}, nil, 0)
}

func histogramSampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total uint64
		for _, m := range mf.GetMetric() {
			total += histogram(m).GetSampleCount()
		}
		return total
	}
	return 0
}

func histogram(m *dto.Metric) *dto.Histogram { return m.GetHistogram() }
