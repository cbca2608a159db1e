package sim

import (
	"context"
	"time"

	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/logging"
)

// Start launches the tick loop. It returns false when already running.
// The loop ends on Stop, Reset, or when ctx is done.
func (s *Simulator) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.gen++
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.gen, s.done, s.interval)
	return true
}

// Stop halts the loop and waits for it to exit. A tick already committing
// finishes first. It returns false when the simulator was not running.
func (s *Simulator) Stop() bool {
	s.mu.Lock()
	wait := s.haltLocked()
	s.mu.Unlock()
	return wait()
}

// haltLocked marks the clock stopped and retires the current loop. Callers
// hold s.mu and must call the returned func after releasing it; it waits for
// the loop to exit and reports whether one was running.
func (s *Simulator) haltLocked() func() bool {
	if !s.running {
		return func() bool { return false }
	}
	s.running = false
	s.gen++
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	return func() bool {
		cancel()
		<-done
		return true
	}
}

// Running reports whether the loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run starts the loop and blocks until ctx is done, then stops it.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.Interval(), "nodes", len(s.Snapshot().Nodes))
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	log.Info("stopping simulator")
}

// SetInterval changes the cadence. It applies from the next scheduled tick.
func (s *Simulator) SetInterval(d time.Duration) {
	if d <= 0 {
		d = config.BaseInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// SetSpeed maps a speed multiplier onto the base interval (1x = 1s).
func (s *Simulator) SetSpeed(multiplier float64) {
	s.SetInterval(config.IntervalForSpeed(multiplier))
}

// Interval returns the current tick interval.
func (s *Simulator) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Simulator) run(ctx context.Context, gen uint64, done chan struct{}, first time.Duration) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen && s.running {
			s.running = false
			s.cancel()
			s.cancel, s.done = nil, nil
		}
	}()

	timer := time.NewTimer(first)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if !s.tickIfCurrent(ctx, gen) {
				return
			}
			timer.Reset(s.Interval())
		}
	}
}

// tickIfCurrent commits a tick unless the loop was stopped or superseded
// while it waited for the lock.
func (s *Simulator) tickIfCurrent(ctx context.Context, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.gen != gen || ctx.Err() != nil {
		return false
	}
	s.step(ctx)
	return true
}
