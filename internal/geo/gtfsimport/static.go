// Package gtfsimport hydrates a zone registry with stops from a GTFS
// static feed, so a run can sample real network geometry instead of
// hand-listed stops.
package gtfsimport

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jamespfennell/gtfs"

	"demandgen.transitlab.org/internal/geo"
)

func rawFeedData(source string, isLocalFile bool) ([]byte, error) {
	var b []byte
	var err error

	if isLocalFile {
		b, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
	} else {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("error downloading GTFS data: %w", err)
		}
		defer resp.Body.Close() // nolint

		b, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading GTFS data: %w", err)
		}
	}
	return b, nil
}

// LoadStatic loads and parses a GTFS static feed from either a URL or a
// local file path.
func LoadStatic(source string) (*gtfs.Static, error) {
	isLocalFile := !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")

	b, err := rawFeedData(source, isLocalFile)
	if err != nil {
		return nil, err
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	return staticData, nil
}

// ImportStops registers every feed stop that falls inside a configured
// zone, binning each into the nearest containing zone. Stops outside all
// zones or without coordinates are skipped, not errors: feeds routinely
// cover more area than a simulation cares about.
func ImportStops(registry *geo.Registry, staticData *gtfs.Static) (imported, skipped int, err error) {
	for i := range staticData.Stops {
		feedStop := &staticData.Stops[i]
		if feedStop.Latitude == nil || feedStop.Longitude == nil {
			skipped++
			continue
		}

		zone, ok := registry.ZoneContaining(*feedStop.Latitude, *feedStop.Longitude)
		if !ok {
			skipped++
			continue
		}

		stop := geo.Stop{
			ID:     feedStop.Id,
			Name:   feedStop.Name,
			Lat:    *feedStop.Latitude,
			Lon:    *feedStop.Longitude,
			ZoneID: zone.ID,
		}
		if err := registry.AddStop(stop); err != nil {
			return imported, skipped, fmt.Errorf("importing stop %s: %w", feedStop.Id, err)
		}
		imported++
	}
	return imported, skipped, nil
}
