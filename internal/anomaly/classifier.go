// Heuristic anomaly classification and node health scoring.
package anomaly

import "fsa-anomaly-lab/internal/fsa"

// Classify labels a proposed transition. Every rule is evaluated on its own and
// labels are emitted in rule order, so identical inputs give identical output.
func Classify(prev, next fsa.State, ev fsa.Event, defined bool) []fsa.AnomalyLabel {
	var labels []fsa.AnomalyLabel
	if !defined {
		labels = append(labels, fsa.AnomalyForbiddenTransition)
	}
	switch ev {
	case fsa.EventPingTimeout:
		labels = append(labels, fsa.AnomalyExcessiveTimeouts)
	case fsa.EventPacketLossHigh:
		labels = append(labels, fsa.AnomalyPacketLossStorm)
	case fsa.EventSuspiciousTraffic:
		labels = append(labels, fsa.AnomalyDDoSSuspicion)
	}
	if prev == fsa.StateError && next == fsa.StateError {
		labels = append(labels, fsa.AnomalyIsolationRisk)
	}
	return labels
}
