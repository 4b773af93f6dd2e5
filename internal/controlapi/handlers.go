package controlapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// statusResponse is the /status payload.
type statusResponse struct {
	State         string  `json:"state"`
	Emitted       uint64  `json:"emitted"`
	LastRate      float64 `json:"last_rate_per_min"`
	StartedAt     string  `json:"started_at,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
}

func (api *ControlAPI) statusHandler(w http.ResponseWriter, r *http.Request) {
	stats := api.Orchestrator.Stats()

	response := statusResponse{
		State:    stats.State.String(),
		Emitted:  stats.Emitted,
		LastRate: stats.LastRate,
	}
	if !stats.StartedAt.IsZero() {
		response.StartedAt = stats.StartedAt.Format(time.RFC3339)
		response.UptimeSeconds = time.Since(stats.StartedAt).Seconds()
	}

	api.writeJSON(w, http.StatusOK, response)
}

// stopHandler signals the run to stop at its next tick boundary. The stop
// is cooperative, so the response is 202 rather than 200.
func (api *ControlAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	api.Orchestrator.Stop()

	api.writeJSON(w, http.StatusAccepted, struct {
		Status string `json:"status"`
	}{Status: "stopping"})
}

func (api *ControlAPI) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		api.Logger.Error("failed to encode response", "error", err)
	}
}
