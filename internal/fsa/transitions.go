package fsa

// transitions is the hand-authored node policy. OK has no ping_timeout entry:
// that cell is the one forbidden transition and must stay undefined.
var transitions = map[State]map[Event]State{
	StateOK: {
		EventPingOK:            StateOK,
		EventLatencyHigh:       StateWarn,
		EventPacketLossHigh:    StateWarn,
		EventSuspiciousTraffic: StateError,
	},
	StateWarn: {
		EventPingOK:            StateOK,
		EventLatencyHigh:       StateWarn,
		EventPacketLossHigh:    StateWarn,
		EventPingTimeout:       StateError,
		EventSuspiciousTraffic: StateError,
	},
	StateError: {
		EventPingOK:            StateWarn,
		EventLatencyHigh:       StateError,
		EventPacketLossHigh:    StateError,
		EventPingTimeout:       StateError,
		EventSuspiciousTraffic: StateError,
	},
}

// Resolve returns the state reached from s on event e. When the table has no
// entry for the pair the node stays where it is and defined is false.
func Resolve(s State, e Event) (next State, defined bool) {
	row, ok := transitions[s]
	if !ok {
		return s, false
	}
	next, ok = row[e]
	if !ok {
		return s, false
	}
	return next, true
}
