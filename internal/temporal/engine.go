// Package temporal computes the effective demand rate for a timestamp by
// composing independent multiplicative patterns over a base rate.
package temporal

import (
	"time"

	"demandgen.transitlab.org/internal/config"
)

// Engine holds the base rate and the active patterns. Tables are loaded
// once at construction and read-only afterwards.
type Engine struct {
	baseRate float64 // requests per minute
	patterns []Pattern
}

// NewEngine builds an engine from the temporal configuration section.
// Only configured sections contribute a pattern; an empty section means
// the base rate passes through unchanged.
func NewEngine(cfg config.TemporalConfig) (*Engine, error) {
	if cfg.BaseRate < 0 {
		return nil, &config.ConfigError{
			Field:  "temporal_patterns.base_rate",
			Reason: "must be non-negative",
		}
	}

	engine := &Engine{baseRate: cfg.BaseRate}

	if len(cfg.HourlyPattern) > 0 {
		p, err := NewHourlyPattern(cfg.HourlyPattern)
		if err != nil {
			return nil, err
		}
		engine.patterns = append(engine.patterns, p)
	}
	if len(cfg.WeekdayPattern) > 0 {
		p, err := NewWeekdayPattern(cfg.WeekdayPattern)
		if err != nil {
			return nil, err
		}
		engine.patterns = append(engine.patterns, p)
	}
	if cfg.RushHour != nil {
		p, err := NewRushHourPattern(*cfg.RushHour)
		if err != nil {
			return nil, err
		}
		engine.patterns = append(engine.patterns, p)
	}

	return engine, nil
}

// EffectiveRate returns the demand rate in requests per minute at t: the
// base rate times the product of every pattern's multiplier. Always
// non-negative.
func (e *Engine) EffectiveRate(t time.Time) float64 {
	rate := e.baseRate
	for _, pattern := range e.patterns {
		rate *= pattern.multiplier(t)
	}
	return rate
}

// BaseRate returns the configured base rate in requests per minute.
func (e *Engine) BaseRate() float64 {
	return e.baseRate
}
