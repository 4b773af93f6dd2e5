package app

import (
	"log/slog"

	"demandgen.transitlab.org/internal/config"
	"demandgen.transitlab.org/internal/generator"
	"demandgen.transitlab.org/internal/geo"
)

// Application holds the dependencies shared between the run loop and the
// control API. Everything is wired in main and passed by reference; no
// component reaches for process-wide state.
type Application struct {
	Config       config.Config
	Logger       *slog.Logger
	Registry     *geo.Registry
	Orchestrator *generator.Orchestrator
}
