package sim

import (
	"time"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

// NodeUpdate is the computed effect of one tick on one node.
type NodeUpdate struct {
	NodeID    string
	Event     fsa.Event
	Prev      fsa.State
	Next      fsa.State
	Defined   bool
	Anomalies []fsa.AnomalyLabel
	Health    int
}

// TickResult carries everything a tick produced, in the order sinks should see it.
type TickResult struct {
	Tick    int
	Updates []NodeUpdate
	Entries []telemetry.LogEntry
	Trend   telemetry.TrendPoint
	Summary telemetry.TickSummaryRow
}

// Tick advances st by one step. Every node update is computed from the
// pre-tick nodes, then the aggregate effect is folded in once. st is not mutated.
func Tick(st State, src telemetry.EventSource, rng telemetry.Rand, policy anomaly.HealthPolicy, now time.Time) (State, TickResult) {
	next := st.Clone()
	next.Tick = st.Tick + 1

	targeted, _ := src.(telemetry.TargetedSource)
	updates := make([]NodeUpdate, len(st.Nodes))
	for i, n := range st.Nodes {
		var ev fsa.Event
		if targeted != nil {
			ev = targeted.SampleNode(next.Tick, n.ID, n.State, rng)
		} else {
			ev = src.Sample(n.State, rng)
		}
		to, defined := fsa.Resolve(n.State, ev)
		labels := anomaly.Classify(n.State, to, ev, defined)
		updates[i] = NodeUpdate{
			NodeID:    n.ID,
			Event:     ev,
			Prev:      n.State,
			Next:      to,
			Defined:   defined,
			Anomalies: labels,
			Health:    policy.Next(n.Health, len(labels)),
		}
	}

	res := TickResult{Tick: next.Tick, Updates: updates}
	tickAnomalies := 0
	for i, u := range updates {
		ev := u.Event
		next.Nodes[i].State = u.Next
		next.Nodes[i].LastEvent = &ev
		next.Nodes[i].Anomalies = u.Anomalies
		next.Nodes[i].Health = u.Health

		entry := telemetry.LogEntry{
			RunID:     st.RunID,
			NodeID:    u.NodeID,
			Tick:      next.Tick,
			Event:     u.Event,
			PrevState: u.Prev,
			NewState:  u.Next,
			Anomalies: u.Anomalies,
			Health:    u.Health,
			Timestamp: now,
		}
		next.Log.Push(entry)
		res.Entries = append(res.Entries, entry)
		tickAnomalies += len(u.Anomalies)
	}

	next.TotalEvents += len(updates)
	next.TotalAnomalies += tickAnomalies
	res.Trend = telemetry.TrendPoint{RunID: st.RunID, Tick: next.Tick, Count: tickAnomalies, Timestamp: now}
	next.Trend.Push(res.Trend)

	counts := next.Nodes.CountByState()
	res.Summary = telemetry.TickSummaryRow{
		RunID:          st.RunID,
		Tick:           next.Tick,
		Nodes:          len(next.Nodes),
		Events:         len(updates),
		Anomalies:      tickAnomalies,
		TotalEvents:    next.TotalEvents,
		TotalAnomalies: next.TotalAnomalies,
		NodesOK:        counts[fsa.StateOK],
		NodesWarn:      counts[fsa.StateWarn],
		NodesError:     counts[fsa.StateError],
		AvgHealth:      next.Nodes.AvgHealth(),
		Timestamp:      now,
	}
	return next, res
}
