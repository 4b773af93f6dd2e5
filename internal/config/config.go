package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for a demand generation run.
// Each component receives the section it needs through its constructor, so
// multiple runs with different configurations can coexist in one process.
type Config struct {
	Streaming   StreamingConfig   `yaml:"streaming"`
	Temporal    TemporalConfig    `yaml:"temporal_patterns"`
	Geographic  GeographicConfig  `yaml:"geographic"`
	TripRequest TripRequestConfig `yaml:"trip_request"`
	Control     ControlConfig     `yaml:"control"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type StreamingConfig struct {
	TickSeconds  float64 `yaml:"tick_seconds"`
	BurstEnabled bool    `yaml:"burst_enabled"`
	MaxPerTick   int     `yaml:"max_per_tick"`
	OutputFormat string  `yaml:"output_format"`
	OutputPath   string  `yaml:"output_path"`
}

type TemporalConfig struct {
	BaseRate       float64         `yaml:"base_rate"`
	HourlyPattern  map[int]float64 `yaml:"hourly_pattern"`
	WeekdayPattern map[int]float64 `yaml:"weekday_pattern"`
	RushHour       *RushHourConfig `yaml:"rush_hour_pattern"`
}

// RushHourConfig bounds are hours of day; windows are half-open [start, end).
type RushHourConfig struct {
	MorningStart   int     `yaml:"morning_start"`
	MorningEnd     int     `yaml:"morning_end"`
	EveningStart   int     `yaml:"evening_start"`
	EveningEnd     int     `yaml:"evening_end"`
	PeakMultiplier float64 `yaml:"peak_multiplier"`
}

type GeographicConfig struct {
	// GTFSStaticURL optionally points at a GTFS static feed (URL or local
	// zip) whose stops are imported into the configured zones. Inline stops
	// are still registered first.
	GTFSStaticURL string       `yaml:"gtfs_static_url"`
	Zones         []ZoneConfig `yaml:"zones"`
}

type ZoneConfig struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Lat      float64      `yaml:"lat"`
	Lon      float64      `yaml:"lon"`
	RadiusKm float64      `yaml:"radius_km"`
	Weight   float64      `yaml:"weight"`
	Stops    []StopConfig `yaml:"stops"`
}

type StopConfig struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type TripRequestConfig struct {
	IDPrefix           string             `yaml:"id_prefix"`
	MinPassengers      int                `yaml:"min_passengers"`
	MaxPassengers      int                `yaml:"max_passengers"`
	PurposeWeights     map[string]float64 `yaml:"purpose_weights"`
	RequestTypeWeights map[string]float64 `yaml:"request_type_weights"`
	PriorityMin        int                `yaml:"priority_min"`
	PriorityMax        int                `yaml:"priority_max"`
	MinAdvanceMin      int                `yaml:"min_advance_min"`
	MaxAdvanceMin      int                `yaml:"max_advance_min"`
}

type ControlConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the YAML configuration document at path, applies
// defaults for unset fields, and validates semantic constraints. It fails
// fast: a malformed document never reaches the sampling components.
func Load(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ApplyDefaults fills unset fields with run defaults. Pattern tables are
// deliberately left alone: a missing hour or weekday key means a 1.0
// multiplier at query time, not an error.
func (cfg *Config) ApplyDefaults() {
	if cfg.Streaming.TickSeconds == 0 {
		cfg.Streaming.TickSeconds = 1.0
	}
	if cfg.Streaming.MaxPerTick == 0 {
		cfg.Streaming.MaxPerTick = 100
	}
	if cfg.Streaming.OutputFormat == "" {
		cfg.Streaming.OutputFormat = "json"
	}
	if cfg.Temporal.BaseRate == 0 {
		cfg.Temporal.BaseRate = 10.0 // requests per minute
	}
	if cfg.TripRequest.IDPrefix == "" {
		cfg.TripRequest.IDPrefix = "trip"
	}
	if cfg.TripRequest.MinPassengers == 0 {
		cfg.TripRequest.MinPassengers = 1
	}
	if cfg.TripRequest.MaxPassengers == 0 {
		cfg.TripRequest.MaxPassengers = 4
	}
	if cfg.TripRequest.PriorityMin == 0 {
		cfg.TripRequest.PriorityMin = 1
	}
	if cfg.TripRequest.PriorityMax == 0 {
		cfg.TripRequest.PriorityMax = 3
	}
	if len(cfg.TripRequest.PurposeWeights) == 0 {
		cfg.TripRequest.PurposeWeights = map[string]float64{
			"work":      0.35,
			"shopping":  0.2,
			"leisure":   0.2,
			"medical":   0.1,
			"education": 0.15,
		}
	}
	if len(cfg.TripRequest.RequestTypeWeights) == 0 {
		cfg.TripRequest.RequestTypeWeights = map[string]float64{
			"immediate": 0.8,
			"scheduled": 0.2,
		}
	}
	if cfg.TripRequest.MinAdvanceMin == 0 && cfg.TripRequest.MaxAdvanceMin == 0 {
		cfg.TripRequest.MinAdvanceMin = 15
		cfg.TripRequest.MaxAdvanceMin = 120
	}
	if cfg.Control.ListenAddr == "" {
		cfg.Control.ListenAddr = ":4100"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
