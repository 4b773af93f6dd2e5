package generator

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandgen.transitlab.org/internal/trips"
)

func sampleRequest() trips.TripRequest {
	return trips.TripRequest{
		ID:                "trip_20260817_083000_000001_ab12cd34",
		OriginStopID:      "stop_001",
		DestinationStopID: "stop_002",
		Timestamp:         time.Date(2026, time.August, 17, 8, 30, 0, 0, time.UTC),
		PassengerCount:    2,
		Purpose:           "work",
		Priority:          1,
		RequestType:       trips.RequestTypeImmediate,
	}
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	require.NoError(t, sink.Emit(sampleRequest()))
	require.NoError(t, sink.Emit(sampleRequest()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded trips.TripRequest
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	assert.Equal(t, "stop_001", decoded.OriginStopID)
	assert.Equal(t, "stop_002", decoded.DestinationStopID)
	assert.Equal(t, trips.RequestTypeImmediate, decoded.RequestType)

	// Immediate requests serialize without scheduling fields.
	assert.NotContains(t, string(lines[0]), "scheduled_offset_min")
	assert.NotContains(t, string(lines[0]), "scheduled_at")
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf)

	require.NoError(t, sink.Emit(sampleRequest()))

	out := buf.String()
	assert.Contains(t, out, "trip_20260817_083000_000001_ab12cd34")
	assert.Contains(t, out, "stop_001 -> stop_002")
	assert.Contains(t, out, "pax=2")
	assert.Contains(t, out, "purpose=work")
}
