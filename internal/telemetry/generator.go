package telemetry

import "fsa-anomaly-lab/internal/fsa"

// Rand is the randomness the generator draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// EventSource samples the next telemetry event for a node in the given state.
type EventSource interface {
	Sample(state fsa.State, rng Rand) fsa.Event
}

// TargetedSource is implemented by sources that script events per node and tick.
// When available it is preferred over Sample.
type TargetedSource interface {
	SampleNode(tick int, nodeID string, state fsa.State, rng Rand) fsa.Event
}

// Weight is one entry of a discrete event distribution.
type Weight struct {
	Event fsa.Event `json:"event" yaml:"event"`
	P     float64   `json:"p" yaml:"p"`
}

// Distribution is an ordered list of event weights. Order matters: the
// cumulative walk follows it and the first entry is the rounding fallback.
type Distribution []Weight

// DefaultDistributions returns the per-state event mix used by the simulator.
// ERROR deliberately leaves residual mass; draws landing there fall back to ping_timeout.
func DefaultDistributions() map[fsa.State]Distribution {
	return map[fsa.State]Distribution{
		fsa.StateOK: {
			{fsa.EventPingOK, 0.83},
			{fsa.EventLatencyHigh, 0.1},
			{fsa.EventPacketLossHigh, 0.05},
			{fsa.EventSuspiciousTraffic, 0.05},
		},
		fsa.StateWarn: {
			{fsa.EventPingOK, 0.7},
			{fsa.EventLatencyHigh, 0.2},
			{fsa.EventPacketLossHigh, 0.2},
			{fsa.EventPingTimeout, 0.1},
			{fsa.EventSuspiciousTraffic, 0.0},
		},
		fsa.StateError: {
			{fsa.EventPingTimeout, 0.4},
			{fsa.EventPacketLossHigh, 0.2},
			{fsa.EventSuspiciousTraffic, 0.1},
			{fsa.EventLatencyHigh, 0.1},
		},
	}
}

// Generator samples telemetry events from per-state distributions.
type Generator struct {
	dists map[fsa.State]Distribution
}

// NewGenerator creates a generator using the default distributions, with any
// non-empty overrides replacing the entry for their state.
func NewGenerator(overrides map[fsa.State]Distribution) *Generator {
	dists := DefaultDistributions()
	for s, d := range overrides {
		if len(d) == 0 {
			continue
		}
		cp := make(Distribution, len(d))
		copy(cp, d)
		dists[s] = cp
	}
	return &Generator{dists: dists}
}

// Distribution returns a copy of the distribution used for state s.
// Unknown states use the OK distribution.
func (g *Generator) Distribution(s fsa.State) Distribution {
	d := g.lookup(s)
	cp := make(Distribution, len(d))
	copy(cp, d)
	return cp
}

func (g *Generator) lookup(s fsa.State) Distribution {
	if d, ok := g.dists[s]; ok {
		return d
	}
	return g.dists[fsa.StateOK]
}

// Sample draws an event for a node in state s.
func (g *Generator) Sample(s fsa.State, rng Rand) fsa.Event {
	return g.lookup(s).Pick(rng.Float64())
}

// Pick walks the cumulative distribution and returns the first event whose
// cumulative weight reaches r. Residual mass returns the first declared event.
func (d Distribution) Pick(r float64) fsa.Event {
	if len(d) == 0 {
		return fsa.EventPingOK
	}
	acc := 0.0
	for _, w := range d {
		acc += w.P
		if r <= acc {
			return w.Event
		}
	}
	return d[0].Event
}
