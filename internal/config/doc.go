// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

/*
Package config provides centralized configuration management for the ingestion
pipeline.

This package handles loading, validation, and parsing of configuration for
every pipeline stage. It ensures consistent configuration across the scheduler,
source adapters, extraction engine, geocoder, deduplicator, rollup job, event
bus, storage layer, and read API, with sensible defaults for optional settings.

# Configuration Sources

The package reads configuration from, in increasing precedence:
  - Built-in defaults
  - An optional YAML config file (config.yaml, or CONFIG_PATH)
  - Environment variables

# Configuration Structure

  - SourcesConfig: path to the source-configuration document, hot-reload
  - SchedulerConfig: worker pool concurrency, backoff, deactivation policy
  - ExtractionConfig: LLM provider, model, timeout, retries
  - GeocoderConfig: parcel provider endpoint, cache TTL, centroid fallback
  - DedupConfig: match radius, time window, weighted-score threshold
  - RollupConfig: weekly aggregate schedule
  - NATSConfig: event bus settings (raw-observations/extracted-reports/incident-events)
  - DatabaseConfig: DuckDB connection and performance tuning
  - ServerConfig: HTTP server settings (host, port, timeouts)
  - APIConfig: read API pagination limits
  - SecurityConfig: JWT secret for the single authenticated operator action, rate limiting, CORS
  - LoggingConfig: zerolog level/format/caller settings

# Usage Example

Basic configuration loading:

	import "github.com/tomtom215/cartographus-ingest/internal/config"

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Match threshold: %.2f\n", cfg.Dedup.MatchThreshold)

# Validation

Required fields (ANTHROPIC_API_KEY, JWT_SECRET, SOURCES_CONFIG_PATH) and
numeric/duration ranges are checked by Validate(), which Load() calls
automatically. A misconfigured deployment fails at startup, not mid-run.

# Thread Safety

The Config struct is immutable after Load() returns, making it safe for
concurrent access from multiple goroutines without synchronization.
*/
package config
