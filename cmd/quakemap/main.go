package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-threat-service/internal/adapter/cache"
	"github.com/couchcryptid/quake-threat-service/internal/adapter/geojson"
	httpadapter "github.com/couchcryptid/quake-threat-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-threat-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-threat-service/internal/catalog"
	"github.com/couchcryptid/quake-threat-service/internal/config"
	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
	"github.com/couchcryptid/quake-threat-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	regionSet, err := geojson.LoadRegionsFile(cfg.RegionsPath, logger)
	if err != nil {
		logger.Error("failed to load regions", "error", err)
		os.Exit(1)
	}
	metrics.RegionsLoaded.Set(float64(len(regionSet.Regions)))
	metrics.DegeneratePolygons.Set(float64(regionSet.Degenerate))

	locator := cache.NewCachedLocator(domain.Regions(regionSet.Regions), cfg.PlacementCacheSize, metrics)
	store := catalog.New(regionSet.Regions, metrics)

	places, err := geojson.LoadPlaces(cfg.CitiesPath, regionSet.Regions)
	if err != nil {
		logger.Error("failed to load cities", "error", err)
		os.Exit(1)
	}
	store.SetPlaces(places)
	logger.Info("places loaded", "places", len(places), "from_cities", cfg.CitiesPath != "")

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(locator, logger, metrics)

	p := pipeline.New(reader, transformer, pipeline.MultiLoader{writer, store}, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, cfg.TopK, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start classification pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	summary := store.Summary()
	logger.Info("shutdown complete", "events", summary.Total, "ocean", summary.Ocean)
}
