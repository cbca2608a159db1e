package anomaly

import (
	"reflect"
	"testing"

	"fsa-anomaly-lab/internal/fsa"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		prev    fsa.State
		ev      fsa.Event
		want    []fsa.AnomalyLabel
		defined bool
	}{
		{
			name:    "clean ping",
			prev:    fsa.StateOK,
			ev:      fsa.EventPingOK,
			defined: true,
		},
		{
			name:    "latency is not an anomaly",
			prev:    fsa.StateWarn,
			ev:      fsa.EventLatencyHigh,
			defined: true,
		},
		{
			name:    "ddos from OK",
			prev:    fsa.StateOK,
			ev:      fsa.EventSuspiciousTraffic,
			defined: true,
			want:    []fsa.AnomalyLabel{fsa.AnomalyDDoSSuspicion},
		},
		{
			name:    "packet loss from WARN",
			prev:    fsa.StateWarn,
			ev:      fsa.EventPacketLossHigh,
			defined: true,
			want:    []fsa.AnomalyLabel{fsa.AnomalyPacketLossStorm},
		},
		{
			name:    "timeout while in ERROR",
			prev:    fsa.StateError,
			ev:      fsa.EventPingTimeout,
			defined: true,
			want:    []fsa.AnomalyLabel{fsa.AnomalyExcessiveTimeouts, fsa.AnomalyIsolationRisk},
		},
		{
			name:    "forced timeout while OK",
			prev:    fsa.StateOK,
			ev:      fsa.EventPingTimeout,
			defined: false,
			want:    []fsa.AnomalyLabel{fsa.AnomalyForbiddenTransition, fsa.AnomalyExcessiveTimeouts},
		},
		{
			name:    "stuck in ERROR on latency",
			prev:    fsa.StateError,
			ev:      fsa.EventLatencyHigh,
			defined: true,
			want:    []fsa.AnomalyLabel{fsa.AnomalyIsolationRisk},
		},
		{
			name:    "recovery from ERROR",
			prev:    fsa.StateError,
			ev:      fsa.EventPingOK,
			defined: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, defined := fsa.Resolve(tc.prev, tc.ev)
			if defined != tc.defined {
				t.Fatalf("Resolve defined = %v, want %v", defined, tc.defined)
			}
			got := Classify(tc.prev, next, tc.ev, defined)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyIsStable(t *testing.T) {
	for _, s := range fsa.States() {
		for _, e := range fsa.Events() {
			next, ok := fsa.Resolve(s, e)
			first := Classify(s, next, e, ok)
			for i := 0; i < 10; i++ {
				if got := Classify(s, next, e, ok); !reflect.DeepEqual(got, first) {
					t.Fatalf("Classify(%s, %s) not stable: %v vs %v", s, e, got, first)
				}
			}
		}
	}
}

func TestClassifyAllRulesAtOnce(t *testing.T) {
	got := Classify(fsa.StateError, fsa.StateError, fsa.EventSuspiciousTraffic, false)
	want := []fsa.AnomalyLabel{fsa.AnomalyForbiddenTransition, fsa.AnomalyDDoSSuspicion, fsa.AnomalyIsolationRisk}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Classify = %v, want %v", got, want)
	}
}
