// Package controlapi exposes a small HTTP surface over a running
// generator: status inspection and a stop signal. It is a control plane,
// not a data plane; trips never flow through it.
package controlapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"demandgen.transitlab.org/internal/app"
)

type ControlAPI struct {
	*app.Application
}

// NewControlAPI creates a control API bound to the application's
// orchestrator and logger.
func NewControlAPI(application *app.Application) *ControlAPI {
	return &ControlAPI{Application: application}
}

// Routes builds the handler tree with request logging applied.
func (api *ControlAPI) Routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/status", api.statusHandler)
	router.HandlerFunc(http.MethodPost, "/stop", api.stopHandler)

	logRequests := NewRequestLoggingMiddleware(api.Logger)
	return logRequests(router)
}
