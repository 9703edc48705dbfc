// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package main is the entry point for the Cartographus Ingest server.
//
// Cartographus Ingest polls local news, crime-blotter, and permit
// sources, extracts structured incident reports with an LLM, resolves
// them to map coordinates, deduplicates reports that describe the same
// real-world incident, tracks each incident through a confidence-driven
// review workflow, and serves the result through a read API and weekly
// rollups.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config file (Koanf v2)
//  2. Database: Initialize DuckDB with spatial extensions for geographic queries
//  3. Source configuration: Load the source document and upsert every configured source
//  4. Pipeline stages: adapters, extraction, geocoder, dedup, workflow, rollup
//  5. Event bus (optional): NATS JetStream, requires a build with -tags nats
//  6. Supervisor tree: scheduler, extraction, streaming, and API layers
//  7. HTTP read API: incidents, review queue, rollups
//
// # Build Tags
//
//	go build -tags "nats" ./cmd/server   # Enable NATS JetStream event bus
//
// Without the nats tag, pipeline stages call each other in-process and
// the event bus is a stub that drops every event; NATSConfig.Enabled
// together with NATSConfig.EmbeddedServer fails at startup.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/adapters"
	"github.com/tomtom215/cartographus-ingest/internal/adapters/api"
	"github.com/tomtom215/cartographus-ingest/internal/adapters/html"
	"github.com/tomtom215/cartographus-ingest/internal/adapters/rss"
	apiserver "github.com/tomtom215/cartographus-ingest/internal/api"
	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/database"
	"github.com/tomtom215/cartographus-ingest/internal/dedup"
	"github.com/tomtom215/cartographus-ingest/internal/eventprocessor"
	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/geocoder"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/models"
	"github.com/tomtom215/cartographus-ingest/internal/rollup"
	"github.com/tomtom215/cartographus-ingest/internal/scheduler"
	"github.com/tomtom215/cartographus-ingest/internal/sourceconfig"
	"github.com/tomtom215/cartographus-ingest/internal/supervisor"
	"github.com/tomtom215/cartographus-ingest/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting cartographus-ingest")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sources.ConfigPath == "" {
		logging.Fatal().Msg("sources.config_path is required")
	}
	loaded, err := sourceconfig.Load(ctx, db, cfg.Sources.ConfigPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load source configuration")
	}
	logging.Info().Int("count", loaded).Msg("sources loaded")
	if cfg.Sources.HotReload {
		if err := sourceconfig.Watch(cfg.Sources.ConfigPath, db); err != nil {
			logging.Warn().Err(err).Msg("failed to watch source configuration for hot reload")
		}
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	registry := adapters.NewRegistry(map[models.SourceType]adapters.Adapter{
		models.SourceTypeHTML: html.NewAdapter(adapters.NewHTTPFetcher("html", 10*time.Second, 1)),
		models.SourceTypeRSS:  rss.NewAdapter(adapters.NewHTTPFetcher("rss", 10*time.Second, 1)),
		models.SourceTypeAPI:  api.NewAdapter(adapters.NewHTTPFetcher("api", 10*time.Second, 1)),
		// Audio deliberately has no adapter registered: no
		// VoiceActivityDetector/Transcriber implementation exists
		// anywhere in the dependency set this server is built
		// against. A configured audio source is simply never
		// claimed by the registry and its poll cycles fail with
		// "no adapter registered", the same path a misconfigured
		// source type takes.
	})

	extractor := extraction.NewEngine(cfg.Extraction)

	var parcelProvider geocoder.ParcelProvider
	if cfg.Geocoder.ParcelProviderURL != "" {
		parcelProvider = geocoder.NewHTTPParcelProvider(
			adapters.NewHTTPFetcher("parcel-provider", cfg.Geocoder.RequestTimeout, 5),
			cfg.Geocoder.ParcelProviderURL,
			cfg.Geocoder.ParcelProviderAPIKey,
		)
	}

	regions, err := db.ListDistinctRegions(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to list source regions")
	}
	centroids := make(map[string]models.Point, len(regions))
	for _, region := range regions {
		// Every region shares the single configured centroid. A
		// deployment spanning multiple municipalities needs a
		// per-region centroid, which would require extending
		// GeocoderConfig past a single lat/lng pair.
		centroids[region] = models.Point{Lat: cfg.Geocoder.CentroidLatitude, Lng: cfg.Geocoder.CentroidLongitude}
	}
	geoResolver := geocoder.NewResolver(parcelProvider, db, centroids, cfg.Geocoder.CacheTTL)

	deduplicator := dedup.NewDeduplicator(db, cfg.Dedup)
	workflowEngine := workflow.NewEngine(db, db)
	rollupJob := rollup.NewJob(db)

	if cfg.NATS.Enabled {
		var embeddedServer *eventprocessor.EmbeddedServer
		natsCfg := cfg.NATS
		if natsCfg.EmbeddedServer {
			embeddedServer, err = eventprocessor.NewEmbeddedServer(natsCfg)
			if err != nil {
				logging.Fatal().Err(err).Msg("failed to start embedded NATS server")
			}
			natsCfg.URL = embeddedServer.ClientURL()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := embeddedServer.Shutdown(shutdownCtx); err != nil {
					logging.Error().Err(err).Msg("error shutting down embedded NATS server")
				}
			}()
		}

		bus, err := eventprocessor.NewBus(natsCfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize event bus")
		}
		deduplicator.SetEventPublisher(bus)
		workflowEngine.SetEventPublisher(bus)
		rollupJob.SetEventPublisher(bus)
		logging.Info().Bool("embedded", natsCfg.EmbeddedServer).Msg("event bus enabled")

		// Stream provisioning (internal/eventprocessor.StreamInitializer)
		// is an operator-time concern: it needs a raw JetStreamContext
		// obtained outside the application's own NATS connection, the
		// same way the teacher treats its own JetStream admin setup as
		// a deploy-time step rather than something main wires up.
	} else {
		logging.Info().Msg("event bus disabled, pipeline stages call each other in-process")
	}

	rollupService, err := rollup.NewService(rollupJob, db, cfg.Rollup)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create rollup service")
	}

	sched := scheduler.New(db, registry, extractor, geoResolver, deduplicator, workflowEngine, cfg.Scheduler)

	router, err := apiserver.NewRouter(db, cfg.Server, cfg.Security, cfg.API)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create API router")
	}

	tree.AddSchedulerService(sched)
	tree.AddSchedulerService(rollupService)
	tree.AddAPIService(router)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("application stopped gracefully")
}
