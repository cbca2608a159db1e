package scenario

// BuiltIn returns predefined anomaly arcs, addressable by name from the CLI and config.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"ddos-wave": {
			Name:        "ddos-wave",
			Description: "A quiet fleet is flooded with suspicious traffic until anomalies pile up, then pings recover it.",
			Phases: []Phase{
				{
					Name:        "calm",
					Description: "Normal traffic mix.",
					Triggers:    []Trigger{{Event: TriggerPhaseTicks, Value: 5, Next: "attack"}},
				},
				{
					Name:        "attack",
					Description: "Every node sees suspicious traffic.",
					Forced:      []Forced{{Event: "suspicious_traffic"}},
					Triggers:    []Trigger{{Event: TriggerPhaseAnomalies, Value: 40, Next: "recovery"}},
				},
				{
					Name:        "recovery",
					Description: "Pings succeed everywhere and nodes climb back through WARN.",
					Forced:      []Forced{{Event: "ping_ok"}},
					Triggers:    []Trigger{{Event: TriggerPhaseTicks, Value: 3, Next: "calm"}},
				},
			},
		},
		"timeout-storm": {
			Name:        "timeout-storm",
			Description: "Half of all pings time out for a while, including on healthy nodes.",
			Phases: []Phase{
				{
					Name:        "warmup",
					Description: "Normal traffic mix.",
					Triggers:    []Trigger{{Event: TriggerPhaseTicks, Value: 3, Next: "storm"}},
				},
				{
					Name:        "storm",
					Description: "Every other draw is a ping timeout.",
					Forced:      []Forced{{Event: "ping_timeout", P: 0.5}},
					Triggers:    []Trigger{{Event: TriggerPhaseTicks, Value: 10, Next: "recovery"}},
				},
				{
					Name:        "recovery",
					Description: "Pings succeed everywhere.",
					Forced:      []Forced{{Event: "ping_ok"}},
					Triggers:    []Trigger{{Event: TriggerPhaseTicks, Value: 4, Next: "warmup"}},
				},
			},
		},
		"flapping-link": {
			Name:        "flapping-link",
			Description: "node-1 alternates between packet loss and recovery every tick while the rest run normally.",
			Phases: []Phase{
				{
					Name:     "up",
					Forced:   []Forced{{Event: "ping_ok", Node: "node-1"}},
					Triggers: []Trigger{{Event: TriggerPhaseTicks, Value: 1, Next: "down"}},
				},
				{
					Name:     "down",
					Forced:   []Forced{{Event: "packet_loss_high", Node: "node-1"}},
					Triggers: []Trigger{{Event: TriggerPhaseTicks, Value: 1, Next: "up"}},
				},
			},
		},
	}
}
