package scenario

import (
	"log/slog"
	"sync"

	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

// Source plays a Scenario on top of a base event source. Nodes without a
// forced event in the active phase sample from the base source.
type Source struct {
	mu             sync.Mutex
	sc             *Scenario
	base           telemetry.EventSource
	phase          int
	phaseTicks     int
	phaseAnomalies int
	transitions    int
}

// NewSource starts sc at its first phase.
func NewSource(sc *Scenario, base telemetry.EventSource) *Source {
	return &Source{sc: sc, base: base}
}

// Sample implements telemetry.EventSource without per-node scripting.
func (s *Source) Sample(state fsa.State, rng telemetry.Rand) fsa.Event {
	return s.base.Sample(state, rng)
}

// SampleNode implements telemetry.TargetedSource.
func (s *Source) SampleNode(_ int, nodeID string, state fsa.State, rng telemetry.Rand) fsa.Event {
	s.mu.Lock()
	forced := s.sc.Phases[s.phase].Forced
	s.mu.Unlock()

	for _, f := range forced {
		if f.Node != "" && f.Node != nodeID {
			continue
		}
		if f.P > 0 && f.P < 1 && rng.Float64() >= f.P {
			continue
		}
		return fsa.Event(f.Event)
	}
	return s.base.Sample(state, rng)
}

// ObserveTick advances phase counters and fires the first matching trigger.
func (s *Source) ObserveTick(row telemetry.TickSummaryRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phaseTicks++
	s.phaseAnomalies += row.Anomalies

	current := s.sc.Phases[s.phase].Name
	for _, ev := range []Event{
		{Type: TriggerPhaseTicks, Value: s.phaseTicks},
		{Type: TriggerPhaseAnomalies, Value: s.phaseAnomalies},
	} {
		next, ok := s.sc.NextPhase(current, ev)
		if !ok {
			continue
		}
		idx := s.sc.phaseIndex(next)
		if idx < 0 {
			return
		}
		slog.Info("scenario phase change", "scenario", s.sc.Name, "from", current, "to", next, "tick", row.Tick, "trigger", ev.Type)
		s.phase = idx
		s.phaseTicks = 0
		s.phaseAnomalies = 0
		s.transitions++
		return
	}
}

// Reset rewinds to the first phase.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = 0
	s.phaseTicks = 0
	s.phaseAnomalies = 0
	s.transitions = 0
}

// Phase returns the active phase name.
func (s *Source) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc.Phases[s.phase].Name
}

// Name returns the scenario name.
func (s *Source) Name() string { return s.sc.Name }

// Transitions returns how many phase changes happened since the last reset.
func (s *Source) Transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions
}
