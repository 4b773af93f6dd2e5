// Package schedule converts an effective demand rate into per-tick firing
// decisions, either uniformly spaced or clustered into Poisson-like bursts.
package schedule

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scheduler decides how many trips fire at each tick. It is touched only
// by the orchestrating goroutine; the burst watermark needs no locking.
type Scheduler struct {
	tick       time.Duration
	burst      bool
	maxPerTick int
	src        rand.Source
	rng        *rand.Rand

	// nextFire is the burst-mode watermark. Zero means unset: the next
	// positive rate re-seeds it.
	nextFire time.Time
}

// NewScheduler builds a scheduler for the given tick granularity.
// maxPerTick caps emission under pathological rates in both modes.
func NewScheduler(tick time.Duration, burst bool, maxPerTick int, src rand.Source) *Scheduler {
	return &Scheduler{
		tick:       tick,
		burst:      burst,
		maxPerTick: maxPerTick,
		src:        src,
		rng:        rand.New(src),
	}
}

// Fire returns the number of trips to emit for the tick ending at now,
// given the current effective rate in requests per minute. A zero rate
// always yields zero firings.
func (s *Scheduler) Fire(ratePerMin float64, now time.Time) int {
	if ratePerMin <= 0 {
		// Clear the watermark so a stale far-future draw from a high
		// rate does not suppress demand once the curve recovers.
		s.nextFire = time.Time{}
		return 0
	}

	if s.burst {
		return s.fireBurst(ratePerMin, now)
	}
	return s.fireUniform(ratePerMin)
}

// fireUniform fires floor(expectation) trips plus a Bernoulli trial on the
// fractional remainder, which degrades to a plain Bernoulli draw for
// sub-1 expectations.
func (s *Scheduler) fireUniform(ratePerMin float64) int {
	expected := ratePerMin * s.tick.Seconds() / 60.0

	count := int(expected)
	if s.rng.Float64() < expected-float64(count) {
		count++
	}
	return s.cap(count)
}

// fireBurst advances the inter-arrival watermark past now, counting one
// firing per crossing. The gap is redrawn from the rate current at each
// firing, so the arrival process tracks a time-varying demand curve.
func (s *Scheduler) fireBurst(ratePerMin float64, now time.Time) int {
	if s.nextFire.IsZero() {
		s.nextFire = now.Add(s.drawGap(ratePerMin))
	}

	count := 0
	for count < s.maxPerTick && !s.nextFire.After(now) {
		count++
		s.nextFire = s.nextFire.Add(s.drawGap(ratePerMin))
	}

	// Cap reached with the watermark still in the past: drop the backlog
	// rather than carry it into later ticks.
	if count == s.maxPerTick && !s.nextFire.After(now) {
		s.nextFire = now.Add(s.drawGap(ratePerMin))
	}

	return count
}

// drawGap samples an exponential inter-arrival gap for the given rate.
func (s *Scheduler) drawGap(ratePerMin float64) time.Duration {
	exp := distuv.Exponential{
		Rate: ratePerMin / 60.0, // arrivals per second
		Src:  s.src,
	}
	return time.Duration(exp.Rand() * float64(time.Second))
}

func (s *Scheduler) cap(count int) int {
	if count > s.maxPerTick {
		return s.maxPerTick
	}
	return count
}
