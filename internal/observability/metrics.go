package observability

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

// Collector bundles Prometheus metrics for the simulation loop.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	Events       *prometheus.CounterVec
	Anomalies    *prometheus.CounterVec
	Nodes        *prometheus.GaugeVec
	AvgHealth    prometheus.Gauge
	TickDuration prometheus.Histogram
}

// NewCollector registers simulation metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fsa_ticks_total",
		Help: "Committed simulation ticks.",
	}), "fsa_ticks_total")
	if err != nil {
		return nil, err
	}
	events, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsa_events_total",
		Help: "Telemetry events sampled, labeled by event.",
	}, []string{"event"}), "fsa_events_total")
	if err != nil {
		return nil, err
	}
	anomalies, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsa_anomalies_total",
		Help: "Anomaly labels emitted, labeled by anomaly.",
	}, []string{"label"}), "fsa_anomalies_total")
	if err != nil {
		return nil, err
	}
	nodes, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsa_nodes",
		Help: "Current number of nodes per FSA state.",
	}, []string{"state"}), "fsa_nodes")
	if err != nil {
		return nil, err
	}
	health, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fsa_avg_health",
		Help: "Mean node health score after the last tick.",
	}), "fsa_avg_health")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fsa_tick_duration_seconds",
		Help:    "Time spent computing a tick, excluding writer fan-out.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "fsa_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	// expose every series at zero before the first tick
	for _, ev := range fsa.Events() {
		events.WithLabelValues(string(ev))
	}
	for _, label := range fsa.Labels() {
		anomalies.WithLabelValues(string(label))
	}
	for _, st := range fsa.States() {
		nodes.WithLabelValues(string(st))
	}

	return &Collector{
		gatherer:     gatherer,
		Ticks:        ticks,
		Events:       events,
		Anomalies:    anomalies,
		Nodes:        nodes,
		AvgHealth:    health,
		TickDuration: duration,
	}, nil
}

// RecordTick folds one committed tick into the metrics.
func (c *Collector) RecordTick(row telemetry.TickSummaryRow, entries []telemetry.LogEntry, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	for _, e := range entries {
		c.Events.WithLabelValues(string(e.Event)).Inc()
		for _, a := range e.Anomalies {
			c.Anomalies.WithLabelValues(string(a)).Inc()
		}
	}
	c.Nodes.WithLabelValues(string(fsa.StateOK)).Set(float64(row.NodesOK))
	c.Nodes.WithLabelValues(string(fsa.StateWarn)).Set(float64(row.NodesWarn))
	c.Nodes.WithLabelValues(string(fsa.StateError)).Set(float64(row.NodesError))
	c.AvgHealth.Set(row.AvgHealth)
	c.TickDuration.Observe(elapsed.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds col to reg, reusing an identical collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			// Counter and Gauge share Inc/Add, so the interface assertion alone is not enough.
			existing, ok := are.ExistingCollector.(T)
			if ok && reflect.TypeOf(are.ExistingCollector) == reflect.TypeOf(col) {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
