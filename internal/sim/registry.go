package sim

import (
	"fmt"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/fsa"
)

// Node is the current snapshot of one simulated node.
type Node struct {
	ID        string             `json:"id"`
	State     fsa.State          `json:"state"`
	LastEvent *fsa.Event         `json:"last_event"`
	Anomalies []fsa.AnomalyLabel `json:"anomalies"`
	Health    int                `json:"health"`
}

func (n Node) clone() Node {
	cp := n
	if n.LastEvent != nil {
		ev := *n.LastEvent
		cp.LastEvent = &ev
	}
	if n.Anomalies != nil {
		cp.Anomalies = append([]fsa.AnomalyLabel(nil), n.Anomalies...)
	}
	return cp
}

// Registry is the ordered set of nodes of one run.
type Registry []Node

// NewRegistry creates count fresh nodes (node-1..node-N), all OK at full health.
// Non-positive counts are clamped to 1.
func NewRegistry(count int) Registry {
	count = config.ClampNodeCount(count)
	r := make(Registry, count)
	for i := range r {
		r[i] = Node{
			ID:     nodeID(i),
			State:  fsa.StateOK,
			Health: anomaly.MaxHealth,
		}
	}
	return r
}

func nodeID(index int) string {
	return fmt.Sprintf("node-%d", index+1)
}

// Clone returns a deep copy.
func (r Registry) Clone() Registry {
	cp := make(Registry, len(r))
	for i, n := range r {
		cp[i] = n.clone()
	}
	return cp
}

// Lookup returns the node with the given id.
func (r Registry) Lookup(id string) (Node, bool) {
	for _, n := range r {
		if n.ID == id {
			return n.clone(), true
		}
	}
	return Node{}, false
}

// CountByState tallies nodes per state.
func (r Registry) CountByState() map[fsa.State]int {
	counts := make(map[fsa.State]int, 3)
	for _, n := range r {
		counts[n.State]++
	}
	return counts
}

// AvgHealth returns the mean health score, or 0 for an empty registry.
func (r Registry) AvgHealth() float64 {
	if len(r) == 0 {
		return 0
	}
	sum := 0
	for _, n := range r {
		sum += n.Health
	}
	return float64(sum) / float64(len(r))
}
