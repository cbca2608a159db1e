// Node health automaton: states, telemetry events and anomaly labels.
package fsa

import "fmt"

// State is the health state of a simulated node.
type State string

// Node states. Severity ordering is for display only.
const (
	StateOK    State = "OK"
	StateWarn  State = "WARN"
	StateError State = "ERROR"
)

// States returns all node states in severity order.
func States() []State {
	return []State{StateOK, StateWarn, StateError}
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateOK, StateWarn, StateError:
		return true
	}
	return false
}

// Severity returns 0 for OK, 1 for WARN and 2 for ERROR. Unknown states rank -1.
func (s State) Severity() int {
	switch s {
	case StateOK:
		return 0
	case StateWarn:
		return 1
	case StateError:
		return 2
	}
	return -1
}

// ParseState converts a string into a State.
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown state %q", v)
	}
	return s, nil
}

// Event is a telemetry observation sampled for a node on each tick.
type Event string

// Telemetry events.
const (
	EventPingOK            Event = "ping_ok"
	EventLatencyHigh       Event = "latency_high"
	EventPacketLossHigh    Event = "packet_loss_high"
	EventPingTimeout       Event = "ping_timeout"
	EventSuspiciousTraffic Event = "suspicious_traffic"
)

// Events returns all telemetry events in declaration order.
func Events() []Event {
	return []Event{EventPingOK, EventLatencyHigh, EventPacketLossHigh, EventPingTimeout, EventSuspiciousTraffic}
}

// Valid reports whether e is one of the known events.
func (e Event) Valid() bool {
	switch e {
	case EventPingOK, EventLatencyHigh, EventPacketLossHigh, EventPingTimeout, EventSuspiciousTraffic:
		return true
	}
	return false
}

// ParseEvent converts a string into an Event.
func ParseEvent(v string) (Event, error) {
	e := Event(v)
	if !e.Valid() {
		return "", fmt.Errorf("unknown event %q", v)
	}
	return e, nil
}

// AnomalyLabel tags an unusual or risky transition.
type AnomalyLabel string

// Anomaly labels, in classifier rule order.
const (
	AnomalyForbiddenTransition AnomalyLabel = "forbidden_transition"
	AnomalyExcessiveTimeouts   AnomalyLabel = "excessive_timeouts"
	AnomalyPacketLossStorm     AnomalyLabel = "packet_loss_storm"
	AnomalyDDoSSuspicion       AnomalyLabel = "ddos_suspicion"
	AnomalyIsolationRisk       AnomalyLabel = "isolation_risk"
)

var anomalyDisplay = map[AnomalyLabel]string{
	AnomalyForbiddenTransition: "Forbidden transition",
	AnomalyExcessiveTimeouts:   "Excessive timeouts",
	AnomalyPacketLossStorm:     "Packet loss storm",
	AnomalyDDoSSuspicion:       "DDoS suspicion",
	AnomalyIsolationRisk:       "Isolation risk",
}

// Labels returns all anomaly labels in classifier rule order.
func Labels() []AnomalyLabel {
	return []AnomalyLabel{
		AnomalyForbiddenTransition,
		AnomalyExcessiveTimeouts,
		AnomalyPacketLossStorm,
		AnomalyDDoSSuspicion,
		AnomalyIsolationRisk,
	}
}

// Display returns the human readable badge text for the label.
func (a AnomalyLabel) Display() string {
	if d, ok := anomalyDisplay[a]; ok {
		return d
	}
	return string(a)
}
