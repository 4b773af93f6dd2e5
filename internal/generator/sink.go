package generator

import (
	"encoding/json"
	"fmt"
	"io"

	"demandgen.transitlab.org/internal/trips"
)

// Sink receives completed trip requests. Implementations own
// serialization and transport; the orchestrator only guarantees
// well-formed field values. Emission is fire-and-forget: there is no
// consumer feedback loop.
type Sink interface {
	Emit(request trips.TripRequest) error
}

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	enc *json.Encoder
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) Emit(request trips.TripRequest) error {
	if err := s.enc.Encode(request); err != nil {
		return fmt.Errorf("encoding trip request %s: %w", request.ID, err)
	}
	return nil
}

// TextSink writes a short human-readable line per trip, for console runs.
type TextSink struct {
	w io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Emit(request trips.TripRequest) error {
	_, err := fmt.Fprintf(s.w, "%s %s %s -> %s pax=%d purpose=%s priority=%d type=%s\n",
		request.Timestamp.Format("15:04:05"),
		request.ID,
		request.OriginStopID,
		request.DestinationStopID,
		request.PassengerCount,
		request.Purpose,
		request.Priority,
		request.RequestType,
	)
	if err != nil {
		return fmt.Errorf("writing trip request %s: %w", request.ID, err)
	}
	return nil
}
