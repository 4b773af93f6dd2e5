package trips

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"demandgen.transitlab.org/internal/config"
	"demandgen.transitlab.org/internal/geo"
)

func testWeighting(t *testing.T) *geo.Weighting {
	t.Helper()
	r := geo.NewRegistry()
	require.NoError(t, r.AddZone(geo.Zone{ID: "downtown", RadiusKm: 2, Weight: 3}))
	require.NoError(t, r.AddZone(geo.Zone{ID: "midtown", RadiusKm: 1.5, Weight: 2}))
	for _, stop := range []geo.Stop{
		{ID: "stop_001", ZoneID: "downtown"},
		{ID: "stop_002", ZoneID: "downtown"},
		{ID: "stop_003", ZoneID: "midtown"},
		{ID: "stop_004", ZoneID: "midtown"},
	} {
		require.NoError(t, r.AddStop(stop))
	}

	w, err := geo.NewWeighting(r, rand.NewSource(17))
	require.NoError(t, err)
	return w
}

func testConfig() config.TripRequestConfig {
	return config.TripRequestConfig{
		IDPrefix:      "trip",
		MinPassengers: 1,
		MaxPassengers: 4,
		PriorityMin:   1,
		PriorityMax:   3,
		PurposeWeights: map[string]float64{
			"work":    0.5,
			"leisure": 0.5,
		},
		RequestTypeWeights: map[string]float64{
			"immediate": 0.8,
			"scheduled": 0.2,
		},
		MinAdvanceMin: 15,
		MaxAdvanceMin: 120,
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("rejects zero minimum passengers", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinPassengers = 0
		_, err := NewFactory(cfg, testWeighting(t), rand.NewSource(1))
		assert.Error(t, err)
	})

	t.Run("rejects inverted passenger bounds", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinPassengers = 5
		cfg.MaxPassengers = 2
		_, err := NewFactory(cfg, testWeighting(t), rand.NewSource(1))
		assert.Error(t, err)
	})

	t.Run("rejects zero-sum weight tables", func(t *testing.T) {
		cfg := testConfig()
		cfg.PurposeWeights = map[string]float64{"work": 0}
		_, err := NewFactory(cfg, testWeighting(t), rand.NewSource(1))
		var cfgErr *config.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("rejects negative weights", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestTypeWeights = map[string]float64{"immediate": -1, "scheduled": 2}
		_, err := NewFactory(cfg, testWeighting(t), rand.NewSource(1))
		assert.Error(t, err)
	})
}

func TestCreate(t *testing.T) {
	now := time.Date(2026, time.August, 17, 8, 30, 0, 0, time.UTC)

	t.Run("fields stay inside configured bounds", func(t *testing.T) {
		f, err := NewFactory(testConfig(), testWeighting(t), rand.NewSource(21))
		require.NoError(t, err)

		for i := 0; i < 2000; i++ {
			request, err := f.Create(now)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, request.PassengerCount, 1)
			assert.LessOrEqual(t, request.PassengerCount, 4)
			assert.GreaterOrEqual(t, request.Priority, 1)
			assert.LessOrEqual(t, request.Priority, 3)
			assert.Contains(t, []string{"work", "leisure"}, request.Purpose)
			assert.NotEqual(t, request.OriginStopID, request.DestinationStopID)
			assert.Equal(t, now, request.Timestamp)
		}
	})

	t.Run("scheduled requests carry an offset in the advance window", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestTypeWeights = map[string]float64{"scheduled": 1.0}
		f, err := NewFactory(cfg, testWeighting(t), rand.NewSource(22))
		require.NoError(t, err)

		for i := 0; i < 1000; i++ {
			request, err := f.Create(now)
			require.NoError(t, err)

			require.True(t, request.Scheduled())
			assert.GreaterOrEqual(t, request.ScheduledOffsetMin, 15)
			assert.LessOrEqual(t, request.ScheduledOffsetMin, 120)
			require.NotNil(t, request.ScheduledAt)
			assert.Equal(t, now.Add(time.Duration(request.ScheduledOffsetMin)*time.Minute), *request.ScheduledAt)
		}
	})

	t.Run("immediate requests carry no offset", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestTypeWeights = map[string]float64{"immediate": 1.0}
		f, err := NewFactory(cfg, testWeighting(t), rand.NewSource(23))
		require.NoError(t, err)

		for i := 0; i < 200; i++ {
			request, err := f.Create(now)
			require.NoError(t, err)

			assert.False(t, request.Scheduled())
			assert.Zero(t, request.ScheduledOffsetMin)
			assert.Nil(t, request.ScheduledAt)
		}
	})

	t.Run("ids are unique and prefixed", func(t *testing.T) {
		f, err := NewFactory(testConfig(), testWeighting(t), rand.NewSource(24))
		require.NoError(t, err)

		seen := make(map[string]bool)
		for i := 0; i < 5000; i++ {
			request, err := f.Create(now)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(request.ID, "trip_20260817_083000_"))
			assert.False(t, seen[request.ID], "duplicate id %s", request.ID)
			seen[request.ID] = true
		}
	})

	t.Run("normalizes weights that do not sum to one", func(t *testing.T) {
		cfg := testConfig()
		cfg.PurposeWeights = map[string]float64{"work": 3.0, "leisure": 1.0}
		f, err := NewFactory(cfg, testWeighting(t), rand.NewSource(25))
		require.NoError(t, err)

		counts := make(map[string]int)
		const draws = 20000
		for i := 0; i < draws; i++ {
			request, err := f.Create(now)
			require.NoError(t, err)
			counts[request.Purpose]++
		}

		assert.InDelta(t, 0.75, float64(counts["work"])/draws, 0.02)
		assert.InDelta(t, 0.25, float64(counts["leisure"])/draws, 0.02)
	})

	t.Run("surfaces geography errors", func(t *testing.T) {
		r := geo.NewRegistry()
		w, err := geo.NewWeighting(r, rand.NewSource(26))
		require.NoError(t, err)

		f, err := NewFactory(testConfig(), w, rand.NewSource(26))
		require.NoError(t, err)

		_, err = f.Create(now)
		assert.ErrorIs(t, err, geo.ErrEmptyRegistry)
	})
}
