// Simulator orchestrating node ticks and writer fan-out
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/logging"
	"fsa-anomaly-lab/internal/telemetry"
)

const tracerName = "fsa-anomaly-lab/sim"

// Controller is the lifecycle surface used by interactive collaborators.
type Controller interface {
	Start(ctx context.Context) bool
	Stop() bool
	Step(ctx context.Context) TickResult
	Reset(nodeCount int)
	SetSpeed(multiplier float64)
	Snapshot() Snapshot
}

// tickObserver is implemented by event sources that react to committed ticks.
type tickObserver interface {
	ObserveTick(telemetry.TickSummaryRow)
}

// resetter is implemented by event sources with per-run state.
type resetter interface {
	Reset()
}

// Simulator owns the simulation state and serializes every mutation of it.
type Simulator struct {
	mu       sync.Mutex
	state    State
	source   telemetry.EventSource
	rand     *rand.Rand
	now      func() time.Time
	health   anomaly.HealthPolicy
	interval time.Duration
	writer   EventWriter
	recorder Recorder
	tracer   trace.Tracer

	running bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSimulator builds a stopped simulator from cfg. A nil rng is seeded from
// cfg.Seed when set and from the clock otherwise; a nil now uses time.Now.
func NewSimulator(cfg *config.SimulationConfig, writer EventWriter, rng *rand.Rand, now func() time.Time) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	interval, err := cfg.Interval()
	if err != nil {
		return nil, err
	}
	dists, err := cfg.EventDistributions()
	if err != nil {
		return nil, err
	}
	if rng == nil {
		seed := time.Now().UnixNano()
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		rng = rand.New(rand.NewSource(seed))
	}
	if now == nil {
		now = time.Now
	}
	s := &Simulator{
		state:    NewState(newRunID(), cfg.Nodes()),
		source:   telemetry.NewGenerator(dists),
		rand:     rng,
		now:      now,
		health:   cfg.HealthPolicy(),
		interval: interval,
		writer:   writer,
		tracer:   otel.Tracer(tracerName),
	}
	if cs, ok := writer.(ControllerSetter); ok {
		cs.SetController(s)
	}
	return s, nil
}

func newRunID() string {
	return uuid.New().String()
}

// SetEventSource replaces the event source used by subsequent ticks.
func (s *Simulator) SetEventSource(src telemetry.EventSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

// SetRecorder installs a metrics recorder.
func (s *Simulator) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Step runs exactly one tick synchronously and returns what it produced.
func (s *Simulator) Step(ctx context.Context) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(ctx)
}

// step commits one tick. Callers hold s.mu.
func (s *Simulator) step(ctx context.Context) TickResult {
	log := logging.FromContext(ctx)
	ctx, span := s.tracer.Start(ctx, "sim.tick")
	defer span.End()

	started := time.Now()
	next, res := Tick(s.state, s.source, s.rand, s.health, s.now().UTC())
	s.state = next
	elapsed := time.Since(started)

	span.SetAttributes(
		attribute.String("run_id", next.RunID),
		attribute.Int("tick", res.Tick),
		attribute.Int("nodes", len(next.Nodes)),
		attribute.Int("anomalies", res.Trend.Count),
	)

	if err := next.Validate(); err != nil {
		log.Error("state invariant violated", "tick", res.Tick, "err", err)
	}
	if obs, ok := s.source.(tickObserver); ok {
		obs.ObserveTick(res.Summary)
	}
	if s.recorder != nil {
		s.recorder.RecordTick(res.Summary, res.Entries, elapsed)
	}
	log.Debug("tick committed", "tick", res.Tick, "events", len(res.Entries), "anomalies", res.Trend.Count)

	writeTick(ctx, s.writer, res, s.state.Snapshot(s.running, s.interval))
	return res
}

// Reset stops the clock and replaces the run with nodeCount fresh nodes in
// one critical section. Non-positive counts are clamped to 1.
func (s *Simulator) Reset(nodeCount int) {
	s.mu.Lock()
	wait := s.haltLocked()
	s.state = NewState(newRunID(), nodeCount)
	if r, ok := s.source.(resetter); ok {
		r.Reset()
	}
	writeSnapshot(context.Background(), s.writer, s.state.Snapshot(false, s.interval))
	s.mu.Unlock()
	wait()
}

// Snapshot returns a deep copy of the current state for rendering.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot(s.running, s.interval)
}

// String implements fmt.Stringer for log lines.
func (s *Simulator) String() string {
	snap := s.Snapshot()
	return fmt.Sprintf("run=%s nodes=%d tick=%d running=%t", snap.RunID, len(snap.Nodes), snap.Tick, snap.Running)
}
