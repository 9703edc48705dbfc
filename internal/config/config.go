// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package config

import (
	"time"
)

// Config holds all application configuration loaded from a config file and
// environment variables. Provides centralized configuration management for
// every pipeline stage: sources, scheduler, extraction, geocoder, dedup,
// rollup, storage, event bus, and the read API.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Sources    SourcesConfig    `koanf:"sources"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Geocoder   GeocoderConfig   `koanf:"geocoder"`
	Dedup      DedupConfig      `koanf:"dedup"`
	Rollup     RollupConfig     `koanf:"rollup"`
	NATS       NATSConfig       `koanf:"nats"`
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SourcesConfig points at the source-configuration document the scheduler
// reads to know which feeds, scanners, and endpoints to poll.
//
// Environment Variables:
//   - SOURCES_CONFIG_PATH: path to the YAML document listing sources (required)
//   - SOURCES_HOT_RELOAD: watch the document and pick up changes without a restart
type SourcesConfig struct {
	ConfigPath string `koanf:"config_path"`
	HotReload  bool   `koanf:"hot_reload"`
}

// SchedulerConfig controls the bounded worker pool that runs source fetch
// cycles and the backoff/deactivation policy for misbehaving sources.
type SchedulerConfig struct {
	// Concurrency is the maximum number of sources fetched at once.
	// Default: 8
	Concurrency int `koanf:"concurrency"`

	// MinBackoff is the initial backoff delay after a fetch failure.
	// Default: 1m
	MinBackoff time.Duration `koanf:"min_backoff"`

	// MaxBackoff caps the exponential backoff delay.
	// Default: 64m
	MaxBackoff time.Duration `koanf:"max_backoff"`

	// DeactivateAfterFailures disables a source after this many consecutive
	// failed fetch cycles until an operator re-enables it.
	// Default: 10
	DeactivateAfterFailures int `koanf:"deactivate_after_failures"`

	// DefaultPollInterval is used for sources that don't specify their own cadence.
	// Default: 15m
	DefaultPollInterval time.Duration `koanf:"default_poll_interval"`
}

// ExtractionConfig holds the LLM-backed structured extraction settings.
type ExtractionConfig struct {
	// Provider selects the extraction backend. Currently only "anthropic".
	Provider string `koanf:"provider"`

	// APIKey authenticates against the LLM provider.
	APIKey string `koanf:"api_key"`

	// Model is the model identifier to request extractions from.
	Model string `koanf:"model"`

	// Timeout bounds a single extraction call.
	// Default: 30s
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries bounds retries on transient provider failures.
	// Default: 2
	MaxRetries int `koanf:"max_retries"`

	// MinConfidence is range-checked by Validate but not read by any
	// pipeline stage: extractions are stored whatever their confidence.
	MinConfidence float64 `koanf:"min_confidence"`
}

// GeocoderConfig configures the three-tier resolver: parcel, block, centroid.
type GeocoderConfig struct {
	// ParcelProviderURL is the authoritative parcel/address lookup service.
	ParcelProviderURL string `koanf:"parcel_provider_url"`

	// ParcelProviderAPIKey authenticates against the parcel provider, if required.
	ParcelProviderAPIKey string `koanf:"parcel_provider_api_key"`

	// RequestTimeout bounds a single resolver call.
	// Default: 5s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CacheTTL controls how long a resolved address is cached before re-querying.
	// Default: 24h
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CentroidLatitude/CentroidLongitude are the municipality-wide fallback
	// coordinates used when parcel and block resolution both fail.
	CentroidLatitude  float64 `koanf:"centroid_latitude"`
	CentroidLongitude float64 `koanf:"centroid_longitude"`
}

// DedupConfig tunes the spatiotemporal match window and weighted score
// threshold used to decide whether two reports describe one incident.
type DedupConfig struct {
	// RadiusMeters bounds the candidate search to reports within this distance.
	// Default: 300
	RadiusMeters float64 `koanf:"radius_meters"`

	// TimeWindow bounds the candidate search to reports within +/- this duration.
	// Default: 3h
	TimeWindow time.Duration `koanf:"time_window"`

	// MatchThreshold is the minimum weighted score to link a report to an
	// existing incident rather than create a new one.
	// Default: 0.55
	MatchThreshold float64 `koanf:"match_threshold"`
}

// RollupConfig controls the periodic weekly aggregate job.
type RollupConfig struct {
	// Schedule is a cron expression for when the rollup job runs.
	// Default: "0 3 * * 1" (Monday 03:00)
	Schedule string `koanf:"schedule"`

	// WeekStartsOn is loaded but not read: rollup weeks always start on Monday.
	WeekStartsOn string `koanf:"week_starts_on"`
}

// NATSConfig holds event bus settings for the raw-observations,
// extracted-reports, and incident-events streams.
type NATSConfig struct {
	// Enabled controls whether the event bus is active. When false, stages
	// call each other in-process instead of publishing/subscribing.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer enables an embedded NATS server instead of dialing URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamRetentionDays is how long to keep events.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// SubscribersCount is the number of concurrent message processors per stream.
	SubscribersCount int `koanf:"subscribers_count"`

	// DurableName is the consumer durable name for message tracking.
	DurableName string `koanf:"durable_name"`

	// RouterRetryCount is the maximum number of retries for failed messages.
	RouterRetryCount int `koanf:"router_retry_count"`

	// RouterRetryInitialInterval is the initial backoff interval for retries.
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`

	// RouterPoisonQueueTopic is the topic for permanently failed messages.
	RouterPoisonQueueTopic string `koanf:"router_poison_queue_topic"`

	// RouterCloseTimeout is the maximum time to wait for graceful router shutdown.
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = use NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SkipIndexes            bool   `koanf:"skip_indexes"` // loaded but not read: indexes are always created
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// APIConfig holds read API pagination and response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication settings for the single operator
// action (POST /review-queue) and general HTTP hardening.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from environment variables and optional config file.
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// This function uses Koanf v2 for flexible, layered configuration management.
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
