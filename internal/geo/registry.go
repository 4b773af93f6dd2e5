package geo

import (
	"fmt"
	"math"

	"demandgen.transitlab.org/internal/config"
)

// Zone is a circular geographic area contributing demand proportional to
// its weight. Immutable after registration.
type Zone struct {
	ID       string
	Name     string
	Lat      float64
	Lon      float64
	RadiusKm float64
	Weight   float64
}

// Stop is a transit stop. ZoneID is a weak reference into the registry;
// the zone does not own the stop record.
type Stop struct {
	ID     string
	Name   string
	Lat    float64
	Lon    float64
	ZoneID string
}

// Contains reports whether the coordinate falls inside the zone's disc.
func (z Zone) Contains(lat, lon float64) bool {
	return HaversineKm(z.Lat, z.Lon, lat, lon) <= z.RadiusKm
}

// Registry owns the zone and stop records for one run. Every stop belongs
// to exactly one zone; registering a duplicate stop id is an error.
type Registry struct {
	zones       map[string]Zone
	zoneOrder   []string
	stops       map[string]Stop
	stopsByZone map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		zones:       make(map[string]Zone),
		stops:       make(map[string]Stop),
		stopsByZone: make(map[string][]string),
	}
}

// FromConfig builds a registry from the geographic configuration section.
func FromConfig(gc config.GeographicConfig) (*Registry, error) {
	registry := NewRegistry()

	for _, zc := range gc.Zones {
		zone := Zone{
			ID:       zc.ID,
			Name:     zc.Name,
			Lat:      zc.Lat,
			Lon:      zc.Lon,
			RadiusKm: zc.RadiusKm,
			Weight:   zc.Weight,
		}
		if err := registry.AddZone(zone); err != nil {
			return nil, err
		}
		for _, sc := range zc.Stops {
			stop := Stop{
				ID:     sc.ID,
				Name:   sc.Name,
				Lat:    sc.Lat,
				Lon:    sc.Lon,
				ZoneID: zc.ID,
			}
			if err := registry.AddStop(stop); err != nil {
				return nil, err
			}
		}
	}

	return registry, nil
}

func (r *Registry) AddZone(zone Zone) error {
	if zone.ID == "" {
		return &config.ConfigError{Field: "zone.id", Reason: "must not be empty"}
	}
	if _, exists := r.zones[zone.ID]; exists {
		return &config.ConfigError{
			Field:  "zone.id",
			Reason: fmt.Sprintf("zone %q already registered", zone.ID),
		}
	}
	r.zones[zone.ID] = zone
	r.zoneOrder = append(r.zoneOrder, zone.ID)
	return nil
}

func (r *Registry) AddStop(stop Stop) error {
	if stop.ID == "" {
		return &config.ConfigError{Field: "stop.id", Reason: "must not be empty"}
	}
	if _, exists := r.stops[stop.ID]; exists {
		return &config.ConfigError{
			Field:  "stop.id",
			Reason: fmt.Sprintf("stop %q already registered", stop.ID),
		}
	}
	if _, exists := r.zones[stop.ZoneID]; !exists {
		return &config.ConfigError{
			Field:  "stop.zone_id",
			Reason: fmt.Sprintf("stop %q references unknown zone %q", stop.ID, stop.ZoneID),
		}
	}
	r.stops[stop.ID] = stop
	r.stopsByZone[stop.ZoneID] = append(r.stopsByZone[stop.ZoneID], stop.ID)
	return nil
}

// Zone returns the zone with the given id, if registered.
func (r *Registry) Zone(id string) (Zone, bool) {
	zone, ok := r.zones[id]
	return zone, ok
}

// Stop returns the stop with the given id, if registered.
func (r *Registry) Stop(id string) (Stop, bool) {
	stop, ok := r.stops[id]
	return stop, ok
}

// Zones returns the registered zones in registration order.
func (r *Registry) Zones() []Zone {
	zones := make([]Zone, 0, len(r.zoneOrder))
	for _, id := range r.zoneOrder {
		zones = append(zones, r.zones[id])
	}
	return zones
}

// StopIDsInZone returns the stop ids registered to the zone, in
// registration order.
func (r *Registry) StopIDsInZone(zoneID string) []string {
	return r.stopsByZone[zoneID]
}

// StopCount returns the total number of registered stops.
func (r *Registry) StopCount() int {
	return len(r.stops)
}

// ZoneContaining returns the nearest zone whose disc contains the
// coordinate, or false when the coordinate is outside every zone.
func (r *Registry) ZoneContaining(lat, lon float64) (Zone, bool) {
	var best Zone
	bestDist := math.Inf(1)
	found := false

	for _, id := range r.zoneOrder {
		zone := r.zones[id]
		dist := HaversineKm(zone.Lat, zone.Lon, lat, lon)
		if dist <= zone.RadiusKm && dist < bestDist {
			best = zone
			bestDist = dist
			found = true
		}
	}
	return best, found
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates
// in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
