package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/rand"

	"demandgen.transitlab.org/internal/app"
	"demandgen.transitlab.org/internal/config"
	"demandgen.transitlab.org/internal/controlapi"
	"demandgen.transitlab.org/internal/generator"
	"demandgen.transitlab.org/internal/geo"
	"demandgen.transitlab.org/internal/geo/gtfsimport"
	"demandgen.transitlab.org/internal/logging"
	"demandgen.transitlab.org/internal/schedule"
	"demandgen.transitlab.org/internal/temporal"
	"demandgen.transitlab.org/internal/trips"
)

func main() {
	// A missing .env file is fine; env vars may come from the shell.
	_ = godotenv.Load()

	var configPath string
	var durationSec int
	var listenAddr string
	var logLevel string
	var logFormat string

	flag.StringVar(&configPath, "config", envOr("DEMANDGEN_CONFIG", "config/demand_config.yaml"), "Path to YAML configuration file")
	flag.IntVar(&durationSec, "duration", 0, "Run for the given number of seconds (0 = until stopped)")
	flag.StringVar(&listenAddr, "listen", envOr("DEMANDGEN_LISTEN_ADDR", ""), "Control API listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", envOr("DEMANDGEN_LOG_LEVEL", ""), "Log level (debug|info|warn|error, overrides config)")
	flag.StringVar(&logFormat, "log-format", "", "Log format (text|json, overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger := logging.NewTextLogger(os.Stderr, slog.LevelInfo)
		bootLogger.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	if listenAddr != "" {
		cfg.Control.ListenAddr = listenAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger := newLogger(cfg.Logging)

	application, sinkCloser, err := buildApplication(cfg, logger, time.Duration(durationSec)*time.Second)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	if sinkCloser != nil {
		defer logging.SafeCloseWithLogging(sinkCloser, logger, "close output file")
	}

	if cfg.Control.Enabled {
		api := controlapi.NewControlAPI(application)
		srv := &http.Server{
			Addr:         cfg.Control.ListenAddr,
			Handler:      api.Routes(),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		}
		go func() {
			logger.Info("control API listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("control API failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = application.Orchestrator.Run(ctx)
	stats := application.Orchestrator.Stats()
	logger.Info("run finished",
		"emitted", stats.Emitted,
		"state", stats.State.String())

	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

// buildApplication wires the sampling components from configuration. The
// returned closer is non-nil when trips stream to a file.
func buildApplication(cfg config.Config, logger *slog.Logger, duration time.Duration) (*app.Application, *os.File, error) {
	registry, err := geo.FromConfig(cfg.Geographic)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Geographic.GTFSStaticURL != "" {
		staticData, err := gtfsimport.LoadStatic(cfg.Geographic.GTFSStaticURL)
		if err != nil {
			return nil, nil, err
		}
		imported, skipped, err := gtfsimport.ImportStops(registry, staticData)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("imported GTFS stops",
			"source", cfg.Geographic.GTFSStaticURL,
			"imported", imported,
			"skipped", skipped)
	}

	seed := uint64(time.Now().UnixNano())
	weighting, err := geo.NewWeighting(registry, rand.NewSource(seed))
	if err != nil {
		return nil, nil, err
	}

	engine, err := temporal.NewEngine(cfg.Temporal)
	if err != nil {
		return nil, nil, err
	}

	tick := time.Duration(cfg.Streaming.TickSeconds * float64(time.Second))
	scheduler := schedule.NewScheduler(tick, cfg.Streaming.BurstEnabled, cfg.Streaming.MaxPerTick, rand.NewSource(seed+1))

	factory, err := trips.NewFactory(cfg.TripRequest, weighting, rand.NewSource(seed+2))
	if err != nil {
		return nil, nil, err
	}

	var out *os.File
	var sink generator.Sink
	w := os.Stdout
	if cfg.Streaming.OutputPath != "" {
		out, err = os.Create(cfg.Streaming.OutputPath)
		if err != nil {
			return nil, nil, err
		}
		w = out
	}
	if cfg.Streaming.OutputFormat == "text" {
		sink = generator.NewTextSink(w)
	} else {
		sink = generator.NewJSONLSink(w)
	}

	orchestrator := generator.NewOrchestrator(engine, scheduler, factory, sink, logger, tick, duration)

	return &app.Application{
		Config:       cfg,
		Logger:       logger,
		Registry:     registry,
		Orchestrator: orchestrator,
	}, out, nil
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	level := logging.ParseLevel(lc.Level)
	if lc.Format == "json" {
		return logging.NewStructuredLogger(os.Stderr, level)
	}
	return logging.NewTextLogger(os.Stderr, level)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
