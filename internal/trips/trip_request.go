package trips

import "time"

// RequestType classifies when a trip should be served.
type RequestType string

const (
	RequestTypeImmediate RequestType = "immediate"
	RequestTypeScheduled RequestType = "scheduled"
)

// TripRequest is one synthesized passenger request. Created once by the
// factory and never mutated; ownership passes to the sink on emission.
type TripRequest struct {
	ID                string      `json:"id"`
	OriginStopID      string      `json:"origin_stop_id"`
	DestinationStopID string      `json:"destination_stop_id"`
	Timestamp         time.Time   `json:"timestamp"`
	PassengerCount    int         `json:"passenger_count"`
	Purpose           string      `json:"trip_purpose"`
	Priority          int         `json:"priority"`
	RequestType       RequestType `json:"request_type"`

	// ScheduledAt and ScheduledOffsetMin are set only for scheduled
	// requests; immediate requests carry neither.
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	ScheduledOffsetMin int        `json:"scheduled_offset_min,omitempty"`
}

// Scheduled reports whether the request carries a future service time.
func (tr TripRequest) Scheduled() bool {
	return tr.RequestType == RequestTypeScheduled
}
