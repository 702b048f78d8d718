package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/ssebop-etl/internal/adapter/catalog"
	"github.com/couchcryptid/ssebop-etl/internal/adapter/fixture"
	httpadapter "github.com/couchcryptid/ssebop-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ssebop-etl/internal/adapter/kafka"
	"github.com/couchcryptid/ssebop-etl/internal/config"
	"github.com/couchcryptid/ssebop-etl/internal/observability"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Input source: fixture directory for local runs, catalog service in
	// deployment.
	var (
		source pipeline.WeatherSource
		scenes pipeline.SceneCatalog
	)
	if cfg.DataDir != "" {
		store := fixture.NewStore(cfg.DataDir)
		source, scenes = store, store
		logger.Info("reading inputs from fixture directory", "dir", cfg.DataDir)
	} else {
		client := catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogCacheSize, logger, metrics)
		source, scenes = client, client
		logger.Info("reading inputs from catalog service", "url", cfg.CatalogURL)
	}

	sink, closeSink, err := buildSink(cfg, logger)
	if err != nil {
		logger.Error("failed to build product sink", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(source, scenes, sink, pipeline.Options{
		Source:  cfg.ModelSource,
		Method:  cfg.Method,
		RsoType: cfg.RsoType,
		Surface: cfg.Surface,
		Lapse:   cfg.Lapse,
		Params:  cfg.Params,
		Start:   cfg.StartDate,
		End:     cfg.EndDate,
		Workers: cfg.SceneWorkers,
		Verbose: cfg.Verbose,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the production pipeline; a finished range also ends the process.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-runDone:
		logger.Info("run complete, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeSink(); err != nil {
		logger.Error("sink close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// buildSink composes the configured product sinks; config.Load guarantees at
// least one is set.
func buildSink(cfg *config.Config, logger *slog.Logger) (pipeline.ProductSink, func() error, error) {
	var sinks multiSink
	closeFn := func() error { return nil }

	if cfg.OutputDir != "" {
		w, err := fixture.NewProductWriter(cfg.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, w)
	}
	if len(cfg.KafkaBrokers) > 0 {
		kw := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, kw)
		closeFn = kw.Close
	}
	if len(sinks) == 1 {
		return sinks[0], closeFn, nil
	}
	return sinks, closeFn, nil
}

// multiSink fans one product out to every configured sink.
type multiSink []pipeline.ProductSink

func (m multiSink) Store(ctx context.Context, p *pipeline.Product) error {
	for _, s := range m {
		if err := s.Store(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
