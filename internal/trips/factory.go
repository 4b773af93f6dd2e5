// Package trips synthesizes trip-request records from configured
// categorical distributions and the weighted geography.
package trips

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"demandgen.transitlab.org/internal/config"
	"demandgen.transitlab.org/internal/geo"
)

// categorical is a normalized weighted choice table. Names are sorted at
// construction so draws are stable across map iteration order.
type categorical struct {
	names      []string
	cumWeights []float64
	total      float64
}

func newCategorical(field string, weights map[string]float64) (categorical, error) {
	if err := validateWeights(field, weights); err != nil {
		return categorical{}, err
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	c := categorical{names: names}
	for _, name := range names {
		c.total += weights[name]
		c.cumWeights = append(c.cumWeights, c.total)
	}
	return c, nil
}

func validateWeights(field string, weights map[string]float64) error {
	var sum float64
	for name, w := range weights {
		if w < 0 {
			return &config.ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("weight for %q is negative", name),
			}
		}
		sum += w
	}
	if sum <= 0 {
		return &config.ConfigError{Field: field, Reason: "weights must sum to a positive value"}
	}
	return nil
}

// draw picks a name proportionally to its weight. Scaling the uniform
// draw by the total normalizes tables whose weights do not sum to 1.0.
func (c categorical) draw(rng *rand.Rand) string {
	v := rng.Float64() * c.total
	idx := sort.SearchFloat64s(c.cumWeights, v)
	if idx >= len(c.names) {
		idx = len(c.names) - 1
	}
	return c.names[idx]
}

// Factory creates trip requests. Pure with respect to its inputs except
// for random draws and the run-scoped id counter.
type Factory struct {
	cfg          config.TripRequestConfig
	weighting    *geo.Weighting
	purposes     categorical
	requestTypes categorical
	src          rand.Source
	rng          *rand.Rand
	counter      uint64
}

// NewFactory validates the trip-request configuration section and builds
// the categorical tables.
func NewFactory(cfg config.TripRequestConfig, weighting *geo.Weighting, src rand.Source) (*Factory, error) {
	if cfg.MinPassengers < 1 {
		return nil, &config.ConfigError{Field: "trip_request.min_passengers", Reason: "must be at least 1"}
	}
	if cfg.MinPassengers > cfg.MaxPassengers {
		return nil, &config.ConfigError{Field: "trip_request.max_passengers", Reason: "must be >= min_passengers"}
	}
	if cfg.MinAdvanceMin > cfg.MaxAdvanceMin {
		return nil, &config.ConfigError{Field: "trip_request.max_advance_min", Reason: "must be >= min_advance_min"}
	}

	purposes, err := newCategorical("trip_request.purpose_weights", cfg.PurposeWeights)
	if err != nil {
		return nil, err
	}
	requestTypes, err := newCategorical("trip_request.request_type_weights", cfg.RequestTypeWeights)
	if err != nil {
		return nil, err
	}

	return &Factory{
		cfg:          cfg,
		weighting:    weighting,
		purposes:     purposes,
		requestTypes: requestTypes,
		src:          src,
		rng:          rand.New(src),
	}, nil
}

// Create synthesizes one trip request for the given timestamp.
func (f *Factory) Create(timestamp time.Time) (TripRequest, error) {
	origin, err := f.weighting.SelectOrigin()
	if err != nil {
		return TripRequest{}, err
	}
	destination, err := f.weighting.SelectDestination(origin)
	if err != nil {
		return TripRequest{}, err
	}

	request := TripRequest{
		ID:                f.nextID(timestamp),
		OriginStopID:      origin,
		DestinationStopID: destination,
		Timestamp:         timestamp,
		PassengerCount:    f.uniformInt(f.cfg.MinPassengers, f.cfg.MaxPassengers),
		Purpose:           f.purposes.draw(f.rng),
		Priority:          f.uniformInt(f.cfg.PriorityMin, f.cfg.PriorityMax),
		RequestType:       RequestType(f.requestTypes.draw(f.rng)),
	}

	if request.RequestType == RequestTypeScheduled {
		offset := f.drawAdvanceMinutes()
		scheduledAt := timestamp.Add(time.Duration(offset) * time.Minute)
		request.ScheduledOffsetMin = offset
		request.ScheduledAt = &scheduledAt
	}

	return request, nil
}

// nextID combines the configured prefix, the timestamp, a run-scoped
// counter, and a uuid fragment for collision resistance across runs.
func (f *Factory) nextID(timestamp time.Time) string {
	f.counter++
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%s_%06d_%s",
		f.cfg.IDPrefix, timestamp.UTC().Format("20060102_150405"), f.counter, suffix)
}

func (f *Factory) uniformInt(min, max int) int {
	if min >= max {
		return min
	}
	return min + f.rng.Intn(max-min+1)
}

// drawAdvanceMinutes samples the scheduled-time offset uniformly within
// the configured advance window.
func (f *Factory) drawAdvanceMinutes() int {
	if f.cfg.MinAdvanceMin >= f.cfg.MaxAdvanceMin {
		return f.cfg.MinAdvanceMin
	}
	u := distuv.Uniform{
		Min: float64(f.cfg.MinAdvanceMin),
		Max: float64(f.cfg.MaxAdvanceMin),
		Src: f.src,
	}
	return int(u.Rand())
}
