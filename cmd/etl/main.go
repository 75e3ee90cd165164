// Command etl downloads the EIA 860/923 forms, processes them into SWITCH
// generation projects, and loads them into switch_wecc. With -once it runs
// a single pass and exits; otherwise it serves health and metrics endpoints
// and repeats every RUN_INTERVAL.
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

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/eia-switch-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/eia-switch-etl/internal/adapter/kafka"
	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
	"github.com/couchcryptid/eia-switch-etl/internal/pipeline"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, postgres.Options{
		URL:     cfg.DatabaseURL,
		Schema:  cfg.Schema,
		Prefix:  cfg.TablePrefix(),
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Error("failed to connect to switch_wecc", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if cfg.UseBackupTables {
		logger.Warn("writing to backup tables", "prefix", cfg.TablePrefix())
	}

	// Region counties come from the GIS database when configured, else from
	// switch_wecc itself.
	counties := pipeline.CountySource(store)
	if cfg.GISDatabaseURL != "" {
		gis, err := postgres.Open(ctx, postgres.Options{URL: cfg.GISDatabaseURL, Logger: logger, Metrics: metrics})
		if err != nil {
			logger.Error("failed to connect to GIS database", "error", err)
			os.Exit(1)
		}
		defer gis.Close()
		counties = gis
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		eia.NewExtractor(cfg, logger, metrics),
		pipeline.NewProcessor(cfg, counties, logger, metrics),
		postgres.NewSwitchLoader(store, cfg, logger),
		publisher,
		logger,
		metrics,
		pipeline.Options{Interval: cfg.RunInterval, MaxAttempts: cfg.MaxRunAttempts},
	)

	if *once {
		_, err := p.RunOnce(ctx)
		closeWriter(writer, logger)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger,
		httpadapter.Check{Name: "pipeline", Checker: p},
		httpadapter.Check{Name: "database", Checker: httpadapter.CheckFunc(store.Ping)},
	)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline. A single pass ends the process once it completes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
		if cfg.RunInterval == 0 {
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Error("pipeline did not stop before shutdown timeout")
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
