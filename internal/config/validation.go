package config

import (
	"fmt"
	"math"
	"regexp"
)

// Allow alphanumeric, underscore, hyphen, dot - common in transit IDs
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ConfigError reports a semantic configuration problem detected at
// construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks the semantic constraints the sampling components rely on.
// Syntactic concerns (YAML shape, types) are handled by the parser; this
// covers weights, probability sums, bounds ordering, and table keys.
func (cfg *Config) Validate() error {
	if err := cfg.Streaming.validate(); err != nil {
		return err
	}
	if err := cfg.Temporal.validate(); err != nil {
		return err
	}
	if err := cfg.Geographic.validate(); err != nil {
		return err
	}
	return cfg.TripRequest.validate()
}

func (sc *StreamingConfig) validate() error {
	if sc.TickSeconds <= 0 {
		return &ConfigError{Field: "streaming.tick_seconds", Reason: "must be positive"}
	}
	if sc.MaxPerTick <= 0 {
		return &ConfigError{Field: "streaming.max_per_tick", Reason: "must be positive"}
	}
	if sc.OutputFormat != "json" && sc.OutputFormat != "text" {
		return &ConfigError{Field: "streaming.output_format", Reason: "must be json or text"}
	}
	return nil
}

func (tc *TemporalConfig) validate() error {
	if tc.BaseRate < 0 {
		return &ConfigError{Field: "temporal_patterns.base_rate", Reason: "must be non-negative"}
	}
	for hour, mult := range tc.HourlyPattern {
		if hour < 0 || hour > 23 {
			return &ConfigError{
				Field:  "temporal_patterns.hourly_pattern",
				Reason: fmt.Sprintf("hour key %d outside 0-23", hour),
			}
		}
		if mult < 0 {
			return &ConfigError{
				Field:  "temporal_patterns.hourly_pattern",
				Reason: fmt.Sprintf("multiplier for hour %d is negative", hour),
			}
		}
	}
	for day, mult := range tc.WeekdayPattern {
		if day < 0 || day > 6 {
			return &ConfigError{
				Field:  "temporal_patterns.weekday_pattern",
				Reason: fmt.Sprintf("weekday key %d outside 0-6", day),
			}
		}
		if mult < 0 {
			return &ConfigError{
				Field:  "temporal_patterns.weekday_pattern",
				Reason: fmt.Sprintf("multiplier for weekday %d is negative", day),
			}
		}
	}
	if rh := tc.RushHour; rh != nil {
		for _, bound := range []struct {
			name  string
			value int
		}{
			{"morning_start", rh.MorningStart},
			{"morning_end", rh.MorningEnd},
			{"evening_start", rh.EveningStart},
			{"evening_end", rh.EveningEnd},
		} {
			if bound.value < 0 || bound.value > 24 {
				return &ConfigError{
					Field:  "temporal_patterns.rush_hour_pattern." + bound.name,
					Reason: "hour bound outside 0-24",
				}
			}
		}
		if rh.MorningStart > rh.MorningEnd {
			return &ConfigError{
				Field:  "temporal_patterns.rush_hour_pattern",
				Reason: "morning window is inverted",
			}
		}
		if rh.EveningStart > rh.EveningEnd {
			return &ConfigError{
				Field:  "temporal_patterns.rush_hour_pattern",
				Reason: "evening window is inverted",
			}
		}
		if rh.PeakMultiplier < 0 {
			return &ConfigError{
				Field:  "temporal_patterns.rush_hour_pattern.peak_multiplier",
				Reason: "must be non-negative",
			}
		}
	}
	return nil
}

func (gc *GeographicConfig) validate() error {
	seenZones := make(map[string]bool, len(gc.Zones))
	seenStops := make(map[string]bool)

	for _, zone := range gc.Zones {
		if zone.ID == "" || !validIDPattern.MatchString(zone.ID) {
			return &ConfigError{
				Field:  "geographic.zones",
				Reason: fmt.Sprintf("invalid zone id %q", zone.ID),
			}
		}
		if seenZones[zone.ID] {
			return &ConfigError{
				Field:  "geographic.zones",
				Reason: fmt.Sprintf("duplicate zone id %q", zone.ID),
			}
		}
		seenZones[zone.ID] = true

		if zone.RadiusKm <= 0 {
			return &ConfigError{
				Field:  "geographic.zones." + zone.ID + ".radius_km",
				Reason: "must be positive",
			}
		}
		if zone.Weight < 0 || math.IsNaN(zone.Weight) {
			return &ConfigError{
				Field:  "geographic.zones." + zone.ID + ".weight",
				Reason: "must be a non-negative number",
			}
		}

		for _, stop := range zone.Stops {
			if stop.ID == "" || !validIDPattern.MatchString(stop.ID) {
				return &ConfigError{
					Field:  "geographic.zones." + zone.ID + ".stops",
					Reason: fmt.Sprintf("invalid stop id %q", stop.ID),
				}
			}
			if seenStops[stop.ID] {
				return &ConfigError{
					Field:  "geographic.zones." + zone.ID + ".stops",
					Reason: fmt.Sprintf("duplicate stop id %q", stop.ID),
				}
			}
			seenStops[stop.ID] = true
		}
	}
	return nil
}

func (tr *TripRequestConfig) validate() error {
	if tr.MinPassengers < 1 {
		return &ConfigError{Field: "trip_request.min_passengers", Reason: "must be at least 1"}
	}
	if tr.MinPassengers > tr.MaxPassengers {
		return &ConfigError{Field: "trip_request.max_passengers", Reason: "must be >= min_passengers"}
	}
	if tr.PriorityMin > tr.PriorityMax {
		return &ConfigError{Field: "trip_request.priority_max", Reason: "must be >= priority_min"}
	}
	if tr.MinAdvanceMin < 0 {
		return &ConfigError{Field: "trip_request.min_advance_min", Reason: "must be non-negative"}
	}
	if tr.MinAdvanceMin > tr.MaxAdvanceMin {
		return &ConfigError{Field: "trip_request.max_advance_min", Reason: "must be >= min_advance_min"}
	}
	if err := validateWeightTable("trip_request.purpose_weights", tr.PurposeWeights); err != nil {
		return err
	}
	return validateWeightTable("trip_request.request_type_weights", tr.RequestTypeWeights)
}

// validateWeightTable rejects tables that cannot be normalized into a
// probability distribution. Sums away from 1.0 are fine; the factory
// normalizes them.
func validateWeightTable(field string, weights map[string]float64) error {
	var sum float64
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return &ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("weight for %q must be a non-negative number", name),
			}
		}
		sum += w
	}
	if sum <= 0 {
		return &ConfigError{Field: field, Reason: "weights must sum to a positive value"}
	}
	return nil
}
