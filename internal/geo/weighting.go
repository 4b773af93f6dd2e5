package geo

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"

	"demandgen.transitlab.org/internal/config"
)

// ErrEmptyRegistry is returned when a selection is requested but no zone
// carries positive weight.
var ErrEmptyRegistry = errors.New("geo: no zones with positive weight registered")

// ErrSamplingExhausted is returned when the destination retry budget runs
// out. It indicates a degenerate registry (effectively a single reachable
// stop), not a transient fault.
var ErrSamplingExhausted = errors.New("geo: destination sampling retry budget exhausted")

// destinationRetries bounds the distinct-destination redraw loop.
const destinationRetries = 32

// Weighting answers weighted origin/destination queries over a registry.
// Zone selection walks a cumulative-weight table; the stop within the
// chosen zone is uniform. Immutable after construction.
type Weighting struct {
	registry   *Registry
	zoneIDs    []string
	cumWeights []float64
	total      float64
	rng        *rand.Rand
}

// NewWeighting builds the cumulative-weight table over the registry's
// zones. A zone with positive weight but no stops is a configuration
// error: it would be selectable but unable to produce a stop.
func NewWeighting(registry *Registry, src rand.Source) (*Weighting, error) {
	w := &Weighting{
		registry: registry,
		rng:      rand.New(src),
	}

	for _, zone := range registry.Zones() {
		if zone.Weight <= 0 {
			continue
		}
		if len(registry.StopIDsInZone(zone.ID)) == 0 {
			return nil, &config.ConfigError{
				Field:  "geographic.zones." + zone.ID,
				Reason: fmt.Sprintf("zone %q has weight %g but no stops", zone.ID, zone.Weight),
			}
		}
		w.total += zone.Weight
		w.zoneIDs = append(w.zoneIDs, zone.ID)
		w.cumWeights = append(w.cumWeights, w.total)
	}

	return w, nil
}

// SelectOrigin picks a stop id, zone-weighted then uniform within the zone.
func (w *Weighting) SelectOrigin() (string, error) {
	return w.selectStop()
}

// SelectDestination picks a stop id distinct from origin, redrawing up to
// the retry budget before giving up with ErrSamplingExhausted.
func (w *Weighting) SelectDestination(origin string) (string, error) {
	for attempt := 0; attempt < destinationRetries; attempt++ {
		stopID, err := w.selectStop()
		if err != nil {
			return "", err
		}
		if stopID != origin {
			return stopID, nil
		}
	}
	return "", fmt.Errorf("%w (origin %s)", ErrSamplingExhausted, origin)
}

func (w *Weighting) selectStop() (string, error) {
	if w.total <= 0 {
		return "", ErrEmptyRegistry
	}

	draw := w.rng.Float64() * w.total
	idx := sort.SearchFloat64s(w.cumWeights, draw)
	if idx >= len(w.zoneIDs) {
		idx = len(w.zoneIDs) - 1
	}

	stopIDs := w.registry.StopIDsInZone(w.zoneIDs[idx])
	return stopIDs[w.rng.Intn(len(stopIDs))], nil
}
