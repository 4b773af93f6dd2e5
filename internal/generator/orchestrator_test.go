package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"demandgen.transitlab.org/internal/config"
	"demandgen.transitlab.org/internal/geo"
	"demandgen.transitlab.org/internal/schedule"
	"demandgen.transitlab.org/internal/temporal"
	"demandgen.transitlab.org/internal/trips"
)

// memorySink records emitted trips; the mutex lets tests read while the
// run goroutine writes.
type memorySink struct {
	mu       sync.Mutex
	requests []trips.TripRequest
	fail     error
}

func (s *memorySink) Emit(request trips.TripRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.requests = append(s.requests, request)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testOrchestrator(t *testing.T, sink Sink, ratePerMin float64, duration time.Duration) *Orchestrator {
	t.Helper()

	registry := geo.NewRegistry()
	require.NoError(t, registry.AddZone(geo.Zone{ID: "downtown", RadiusKm: 2, Weight: 1}))
	require.NoError(t, registry.AddStop(geo.Stop{ID: "stop_001", ZoneID: "downtown"}))
	require.NoError(t, registry.AddStop(geo.Stop{ID: "stop_002", ZoneID: "downtown"}))

	weighting, err := geo.NewWeighting(registry, rand.NewSource(1))
	require.NoError(t, err)

	engine, err := temporal.NewEngine(config.TemporalConfig{BaseRate: ratePerMin})
	require.NoError(t, err)

	tick := 5 * time.Millisecond
	scheduler := schedule.NewScheduler(tick, false, 100, rand.NewSource(2))

	factory, err := trips.NewFactory(config.TripRequestConfig{
		IDPrefix:      "trip",
		MinPassengers: 1,
		MaxPassengers: 4,
		PriorityMin:   1,
		PriorityMax:   3,
		PurposeWeights: map[string]float64{
			"work": 1.0,
		},
		RequestTypeWeights: map[string]float64{
			"immediate": 1.0,
		},
	}, weighting, rand.NewSource(3))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(engine, scheduler, factory, sink, logger, tick, duration)
}

func TestRun(t *testing.T) {
	t.Run("emits trips until the duration elapses", func(t *testing.T) {
		sink := &memorySink{}
		// 60000 req/min over 5ms ticks is an expectation of 5 per tick.
		o := testOrchestrator(t, sink, 60000, 100*time.Millisecond)

		err := o.Run(context.Background())
		require.NoError(t, err)

		assert.Greater(t, sink.count(), 0)
		assert.Equal(t, StateStopped, o.State())

		stats := o.Stats()
		assert.Equal(t, uint64(sink.count()), stats.Emitted)
		assert.Greater(t, stats.LastRate, 0.0)
		assert.False(t, stats.StartedAt.IsZero())
	})

	t.Run("stop is observed at the next tick and is terminal", func(t *testing.T) {
		sink := &memorySink{}
		o := testOrchestrator(t, sink, 60000, 0)

		done := make(chan error, 1)
		go func() { done <- o.Run(context.Background()) }()

		require.Eventually(t, func() bool { return sink.count() > 0 }, time.Second, time.Millisecond)
		o.Stop()

		require.NoError(t, <-done)
		assert.Equal(t, StateStopped, o.State())

		// No further emissions after the loop exits.
		emitted := sink.count()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, emitted, sink.count())

		// A second Stop is a no-op, not a panic.
		o.Stop()
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		sink := &memorySink{}
		o := testOrchestrator(t, sink, 60000, 0)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- o.Run(ctx) }()

		require.Eventually(t, func() bool { return o.State() == StateRunning }, time.Second, time.Millisecond)
		cancel()

		err := <-done
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateStopped, o.State())
	})

	t.Run("sink failures are fatal for the run", func(t *testing.T) {
		sinkErr := errors.New("pipe closed")
		sink := &memorySink{fail: sinkErr}
		o := testOrchestrator(t, sink, 60000, 0)

		err := o.Run(context.Background())
		assert.ErrorIs(t, err, sinkErr)
		assert.Equal(t, StateStopped, o.State())
	})

	t.Run("zero rate emits nothing", func(t *testing.T) {
		sink := &memorySink{}
		o := testOrchestrator(t, sink, 0, 50*time.Millisecond)

		require.NoError(t, o.Run(context.Background()))
		assert.Equal(t, 0, sink.count())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
