package telemetry

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"fsa-anomaly-lab/internal/fsa"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestPickCumulative(t *testing.T) {
	d := DefaultDistributions()[fsa.StateOK]
	cases := []struct {
		r    float64
		want fsa.Event
	}{
		{0, fsa.EventPingOK},
		{0.83, fsa.EventPingOK},
		{0.84, fsa.EventLatencyHigh},
		{0.9, fsa.EventLatencyHigh},
		{0.95, fsa.EventPacketLossHigh},
		{0.99, fsa.EventSuspiciousTraffic},
	}
	for _, tc := range cases {
		if got := d.Pick(tc.r); got != tc.want {
			t.Errorf("Pick(%v) = %s, want %s", tc.r, got, tc.want)
		}
	}
}

func TestPickResidualFallsBackToFirst(t *testing.T) {
	gen := NewGenerator(nil)
	// ERROR sums to 0.8; anything above falls back to the first declared event.
	if got := gen.Sample(fsa.StateError, fixedRand(0.95)); got != fsa.EventPingTimeout {
		t.Fatalf("expected ping_timeout fallback, got %s", got)
	}
	if got := (Distribution{{fsa.EventLatencyHigh, 0.3}}).Pick(0.9); got != fsa.EventLatencyHigh {
		t.Fatalf("expected first event fallback, got %s", got)
	}
	if got := (Distribution{}).Pick(0.5); !got.Valid() {
		t.Fatalf("empty distribution returned out-of-domain event %q", got)
	}
}

func TestWarnNeverSamplesZeroWeight(t *testing.T) {
	gen := NewGenerator(nil)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		if ev := gen.Sample(fsa.StateWarn, rng); ev == fsa.EventSuspiciousTraffic {
			t.Fatalf("suspicious_traffic has zero weight in WARN")
		}
	}
}

func TestSampleAlwaysInDomain(t *testing.T) {
	gen := NewGenerator(nil)
	rng := rand.New(rand.NewSource(1))
	for _, s := range append(fsa.States(), fsa.State("UNKNOWN")) {
		for i := 0; i < 1000; i++ {
			if ev := gen.Sample(s, rng); !ev.Valid() {
				t.Fatalf("Sample(%s) returned %q", s, ev)
			}
		}
	}
}

func TestSampleReproducibleWithSeed(t *testing.T) {
	gen := NewGenerator(nil)
	states := []fsa.State{fsa.StateOK, fsa.StateWarn, fsa.StateError, fsa.StateOK, fsa.StateError}
	run := func() []fsa.Event {
		rng := rand.New(rand.NewSource(42))
		var out []fsa.Event
		for i := 0; i < 50; i++ {
			out = append(out, gen.Sample(states[i%len(states)], rng))
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sequence diverged at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestGeneratorOverrides(t *testing.T) {
	gen := NewGenerator(map[fsa.State]Distribution{
		fsa.StateOK:   {{fsa.EventSuspiciousTraffic, 1}},
		fsa.StateWarn: {},
	})
	if got := gen.Sample(fsa.StateOK, fixedRand(0.5)); got != fsa.EventSuspiciousTraffic {
		t.Fatalf("override not applied, got %s", got)
	}
	if d := gen.Distribution(fsa.StateWarn); len(d) != 5 {
		t.Fatalf("empty override should keep default WARN distribution, got %v", d)
	}
}

func TestLogEntryLine(t *testing.T) {
	ts := time.Date(2024, 1, 1, 13, 4, 5, 0, time.UTC)
	e := LogEntry{NodeID: "node-1", Event: fsa.EventPingOK, PrevState: fsa.StateOK, NewState: fsa.StateOK, Timestamp: ts}
	if got := e.Line(); got != "[13:04:05] node-1: ping_ok (OK → OK)" {
		t.Fatalf("Line = %q", got)
	}
	e.Anomalies = []fsa.AnomalyLabel{fsa.AnomalyExcessiveTimeouts, fsa.AnomalyIsolationRisk}
	if !strings.HasSuffix(e.Line(), "⚠️") {
		t.Fatalf("expected warning marker, got %q", e.Line())
	}
	if got := e.AnomalyText(); got != "Excessive timeouts, Isolation risk" {
		t.Fatalf("AnomalyText = %q", got)
	}
}
