package sim

import (
	"errors"
	"fmt"
	"time"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

const (
	// LogCapacity bounds the event log.
	LogCapacity = 100
	// TrendCapacity bounds the anomaly trend.
	TrendCapacity = 30
)

// State is the whole mutable simulation state of one run.
type State struct {
	RunID          string
	Nodes          Registry
	Log            *Ring[telemetry.LogEntry]
	Trend          *Ring[telemetry.TrendPoint]
	TotalAnomalies int
	TotalEvents    int
	Tick           int
}

// NewState builds a fresh run with nodeCount nodes and empty buffers.
func NewState(runID string, nodeCount int) State {
	return State{
		RunID: runID,
		Nodes: NewRegistry(nodeCount),
		Log:   NewRing[telemetry.LogEntry](LogCapacity),
		Trend: NewRing[telemetry.TrendPoint](TrendCapacity),
	}
}

// Clone returns a deep copy that shares nothing with st.
func (st State) Clone() State {
	cp := st
	cp.Nodes = st.Nodes.Clone()
	if st.Log != nil {
		cp.Log = st.Log.Clone()
	} else {
		cp.Log = NewRing[telemetry.LogEntry](LogCapacity)
	}
	if st.Trend != nil {
		cp.Trend = st.Trend.Clone()
	} else {
		cp.Trend = NewRing[telemetry.TrendPoint](TrendCapacity)
	}
	return cp
}

// Validate reports every broken invariant of st.
func (st State) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(st.Nodes))
	for _, n := range st.Nodes {
		if _, dup := seen[n.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		seen[n.ID] = struct{}{}
		if n.Health < 0 || n.Health > anomaly.MaxHealth {
			errs = append(errs, fmt.Errorf("node %s health %d out of range", n.ID, n.Health))
		}
		if !n.State.Valid() {
			errs = append(errs, fmt.Errorf("node %s has unknown state %q", n.ID, n.State))
		}
	}
	if st.Log != nil && st.Log.Len() > LogCapacity {
		errs = append(errs, fmt.Errorf("log holds %d entries, cap %d", st.Log.Len(), LogCapacity))
	}
	if st.Trend != nil && st.Trend.Len() > TrendCapacity {
		errs = append(errs, fmt.Errorf("trend holds %d points, cap %d", st.Trend.Len(), TrendCapacity))
	}
	if st.TotalAnomalies < 0 || st.TotalEvents < 0 {
		errs = append(errs, errors.New("negative counters"))
	}
	return errors.Join(errs...)
}

// Snapshot is an immutable copy of the simulation handed to renderers.
type Snapshot struct {
	RunID          string                 `json:"run_id"`
	Nodes          []Node                 `json:"nodes"`
	Log            []telemetry.LogEntry   `json:"log"`   // newest first
	Trend          []telemetry.TrendPoint `json:"trend"` // oldest first
	TotalAnomalies int                    `json:"total_anomalies"`
	TotalEvents    int                    `json:"total_events"`
	Tick           int                    `json:"tick"`
	Running        bool                   `json:"running"`
	TickInterval   time.Duration          `json:"tick_interval"`
}

// Snapshot copies st for rendering.
func (st State) Snapshot(running bool, interval time.Duration) Snapshot {
	snap := Snapshot{
		RunID:          st.RunID,
		Nodes:          st.Nodes.Clone(),
		TotalAnomalies: st.TotalAnomalies,
		TotalEvents:    st.TotalEvents,
		Tick:           st.Tick,
		Running:        running,
		TickInterval:   interval,
	}
	if st.Log != nil {
		snap.Log = st.Log.Newest()
	}
	if st.Trend != nil {
		snap.Trend = st.Trend.Oldest()
	}
	return snap
}

// Stats is the headline counter block of a snapshot.
type Stats struct {
	RunID          string         `json:"run_id"`
	Nodes          int            `json:"nodes"`
	Tick           int            `json:"tick"`
	TotalAnomalies int            `json:"total_anomalies"`
	TotalEvents    int            `json:"total_events"`
	ByState        map[string]int `json:"by_state"`
	AvgHealth      float64        `json:"avg_health"`
	Running        bool           `json:"running"`
	TickInterval   string         `json:"tick_interval"`
}

// Stats summarizes the snapshot.
func (s Snapshot) Stats() Stats {
	reg := Registry(s.Nodes)
	byState := make(map[string]int, 3)
	for _, st := range fsa.States() {
		byState[string(st)] = 0
	}
	for st, n := range reg.CountByState() {
		byState[string(st)] = n
	}
	return Stats{
		RunID:          s.RunID,
		Nodes:          len(s.Nodes),
		Tick:           s.Tick,
		TotalAnomalies: s.TotalAnomalies,
		TotalEvents:    s.TotalEvents,
		ByState:        byState,
		AvgHealth:      reg.AvgHealth(),
		Running:        s.Running,
		TickInterval:   s.TickInterval.String(),
	}
}
