// Package generator runs the demand generation loop: at each tick it
// computes the effective rate, asks the scheduler how many trips fire,
// and emits each synthesized request to the sink.
package generator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"demandgen.transitlab.org/internal/logging"
	"demandgen.transitlab.org/internal/schedule"
	"demandgen.transitlab.org/internal/temporal"
	"demandgen.transitlab.org/internal/trips"
)

// State is the orchestrator lifecycle. Stopped is terminal for a run
// instance; there is no pause.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of a run, readable while the loop is
// ticking.
type Stats struct {
	State     State     `json:"-"`
	Emitted   uint64    `json:"emitted"`
	LastRate  float64   `json:"last_rate_per_min"`
	StartedAt time.Time `json:"started_at"`
}

// Orchestrator owns one generation run. All sampling state is touched
// only by the Run goroutine; the stats snapshot is mutex-guarded for
// concurrent readers such as the control API.
type Orchestrator struct {
	engine    *temporal.Engine
	scheduler *schedule.Scheduler
	factory   *trips.Factory
	sink      Sink
	logger    *slog.Logger

	tick     time.Duration
	duration time.Duration // 0 means run until stopped

	stopChan chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	stats Stats

	// now is swappable for tests.
	now func() time.Time
}

// NewOrchestrator wires the run loop. A zero duration runs until Stop or
// context cancellation.
func NewOrchestrator(
	engine *temporal.Engine,
	scheduler *schedule.Scheduler,
	factory *trips.Factory,
	sink Sink,
	logger *slog.Logger,
	tick time.Duration,
	duration time.Duration,
) *Orchestrator {
	return &Orchestrator{
		engine:    engine,
		scheduler: scheduler,
		factory:   factory,
		sink:      sink,
		logger:    logger,
		tick:      tick,
		duration:  duration,
		stopChan:  make(chan struct{}),
		stats:     Stats{State: StateIdle},
		now:       time.Now,
	}
}

// Run executes the tick loop until the context is canceled, Stop is
// called, or the configured duration elapses. Sampling errors are fatal
// for the run: each tick is independent, so a failure indicates a
// configuration problem rather than a transient fault.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := o.now()
	o.setRunning(start)

	o.logger.Info("demand generation started",
		slog.Duration("tick", o.tick),
		slog.Duration("duration", o.duration))

	var deadline <-chan time.Time
	if o.duration > 0 {
		timer := time.NewTimer(o.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()
	defer o.setStopped()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("demand generation canceled")
			return ctx.Err()
		case <-o.stopChan:
			o.logger.Info("demand generation stopped")
			return nil
		case <-deadline:
			o.logger.Info("demand generation duration elapsed")
			return nil
		case tickTime := <-ticker.C:
			if err := o.emitForTick(tickTime); err != nil {
				logging.LogError(o.logger, "demand generation failed", err)
				return err
			}
		}
	}
}

// emitForTick performs one tick: rate, firing decision, trip synthesis,
// emission. An in-flight trip always completes; stop signals are only
// observed between ticks.
func (o *Orchestrator) emitForTick(tickTime time.Time) error {
	rate := o.engine.EffectiveRate(tickTime)
	count := o.scheduler.Fire(rate, tickTime)

	for i := 0; i < count; i++ {
		request, err := o.factory.Create(tickTime)
		if err != nil {
			return err
		}
		if err := o.sink.Emit(request); err != nil {
			return err
		}
		o.recordEmission(rate)
	}

	if count == 0 {
		o.recordRate(rate)
	}

	return nil
}

// Stop signals the loop to exit at the next tick boundary. Safe to call
// more than once and from any goroutine.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.stopChan)
	})
}

// Stats returns a snapshot of the run.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats.State
}

func (o *Orchestrator) setRunning(start time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.State = StateRunning
	o.stats.StartedAt = start
}

func (o *Orchestrator) setStopped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.State = StateStopped
}

func (o *Orchestrator) recordEmission(rate float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Emitted++
	o.stats.LastRate = rate
}

func (o *Orchestrator) recordRate(rate float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.LastRate = rate
}
