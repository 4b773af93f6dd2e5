package temporal

import (
	"fmt"
	"time"

	"demandgen.transitlab.org/internal/config"
)

// Pattern is a pure timestamp → multiplier function. The set of variants
// is closed: the unexported method keeps composition inside this package,
// so new demand shapes are added here as new variant types rather than by
// open-ended subclassing elsewhere.
type Pattern interface {
	multiplier(t time.Time) float64
}

// HourlyPattern scales demand by hour of day. Unconfigured hours yield
// 1.0, never an error.
type HourlyPattern struct {
	multipliers map[int]float64
}

func NewHourlyPattern(multipliers map[int]float64) (HourlyPattern, error) {
	for hour, mult := range multipliers {
		if hour < 0 || hour > 23 {
			return HourlyPattern{}, &config.ConfigError{
				Field:  "hourly_pattern",
				Reason: fmt.Sprintf("hour key %d outside 0-23", hour),
			}
		}
		if mult < 0 {
			return HourlyPattern{}, &config.ConfigError{
				Field:  "hourly_pattern",
				Reason: fmt.Sprintf("multiplier for hour %d is negative", hour),
			}
		}
	}
	return HourlyPattern{multipliers: multipliers}, nil
}

func (p HourlyPattern) multiplier(t time.Time) float64 {
	if mult, ok := p.multipliers[t.Hour()]; ok {
		return mult
	}
	return 1.0
}

// WeekdayPattern scales demand by day of week. Keys follow the
// configuration convention 0=Monday through 6=Sunday. Unconfigured days
// yield 1.0.
type WeekdayPattern struct {
	multipliers map[int]float64
}

func NewWeekdayPattern(multipliers map[int]float64) (WeekdayPattern, error) {
	for day, mult := range multipliers {
		if day < 0 || day > 6 {
			return WeekdayPattern{}, &config.ConfigError{
				Field:  "weekday_pattern",
				Reason: fmt.Sprintf("weekday key %d outside 0-6", day),
			}
		}
		if mult < 0 {
			return WeekdayPattern{}, &config.ConfigError{
				Field:  "weekday_pattern",
				Reason: fmt.Sprintf("multiplier for weekday %d is negative", day),
			}
		}
	}
	return WeekdayPattern{multipliers: multipliers}, nil
}

func (p WeekdayPattern) multiplier(t time.Time) float64 {
	// time.Weekday counts 0=Sunday; config keys count 0=Monday.
	day := (int(t.Weekday()) + 6) % 7
	if mult, ok := p.multipliers[day]; ok {
		return mult
	}
	return 1.0
}

// RushHourPattern applies a peak multiplier when the hour falls inside
// either half-open window. The contribution is a single factor: when the
// windows overlap, first match wins and nothing is multiplied twice.
type RushHourPattern struct {
	morningStart, morningEnd int
	eveningStart, eveningEnd int
	peakMultiplier           float64
}

func NewRushHourPattern(cfg config.RushHourConfig) (RushHourPattern, error) {
	if cfg.MorningStart > cfg.MorningEnd {
		return RushHourPattern{}, &config.ConfigError{
			Field:  "rush_hour_pattern",
			Reason: "morning window is inverted",
		}
	}
	if cfg.EveningStart > cfg.EveningEnd {
		return RushHourPattern{}, &config.ConfigError{
			Field:  "rush_hour_pattern",
			Reason: "evening window is inverted",
		}
	}
	if cfg.PeakMultiplier < 0 {
		return RushHourPattern{}, &config.ConfigError{
			Field:  "rush_hour_pattern.peak_multiplier",
			Reason: "must be non-negative",
		}
	}
	return RushHourPattern{
		morningStart:   cfg.MorningStart,
		morningEnd:     cfg.MorningEnd,
		eveningStart:   cfg.EveningStart,
		eveningEnd:     cfg.EveningEnd,
		peakMultiplier: cfg.PeakMultiplier,
	}, nil
}

func (p RushHourPattern) multiplier(t time.Time) float64 {
	hour := t.Hour()

	if p.morningStart <= hour && hour < p.morningEnd {
		return p.peakMultiplier
	}
	if p.eveningStart <= hour && hour < p.eveningEnd {
		return p.peakMultiplier
	}
	return 1.0
}
