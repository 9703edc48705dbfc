// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateGeocoder(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateSources validates the source-configuration document location.
func (c *Config) validateSources() error {
	if c.Sources.ConfigPath == "" {
		return fmt.Errorf("SOURCES_CONFIG_PATH is required")
	}
	return nil
}

// validateScheduler validates worker pool and backoff settings.
func (c *Config) validateScheduler() error {
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("SCHEDULER_CONCURRENCY must be positive")
	}
	if c.Scheduler.MinBackoff <= 0 {
		return fmt.Errorf("SCHEDULER_MIN_BACKOFF must be positive")
	}
	if c.Scheduler.MaxBackoff < c.Scheduler.MinBackoff {
		return fmt.Errorf("SCHEDULER_MAX_BACKOFF must be >= SCHEDULER_MIN_BACKOFF")
	}
	if c.Scheduler.DeactivateAfterFailures <= 0 {
		return fmt.Errorf("SCHEDULER_DEACTIVATE_AFTER_FAILURES must be positive")
	}
	return nil
}

// validateExtraction validates the extraction engine's provider settings.
func (c *Config) validateExtraction() error {
	if c.Extraction.Provider == "" {
		return fmt.Errorf("EXTRACTION_PROVIDER is required")
	}
	if c.Extraction.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.Extraction.MaxRetries < 0 {
		return fmt.Errorf("EXTRACTION_MAX_RETRIES must not be negative")
	}
	if c.Extraction.MinConfidence < 0 || c.Extraction.MinConfidence > 1 {
		return fmt.Errorf("EXTRACTION_MIN_CONFIDENCE must be between 0 and 1")
	}
	return nil
}

// validateDedup validates the spatiotemporal matching window and threshold.
func (c *Config) validateDedup() error {
	if c.Dedup.RadiusMeters <= 0 {
		return fmt.Errorf("DEDUP_RADIUS_METERS must be positive")
	}
	if c.Dedup.TimeWindow <= 0 {
		return fmt.Errorf("DEDUP_TIME_WINDOW must be positive")
	}
	if c.Dedup.MatchThreshold <= 0 || c.Dedup.MatchThreshold > 1 {
		return fmt.Errorf("DEDUP_MATCH_THRESHOLD must be between 0 (exclusive) and 1")
	}
	return nil
}

// validateGeocoder validates the parcel provider endpoint, when configured.
// An empty ParcelProviderURL is valid: the resolver falls straight through
// to block interpolation and municipality centroid.
func (c *Config) validateGeocoder() error {
	if c.Geocoder.ParcelProviderURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Geocoder.ParcelProviderURL, "GEOCODER_PARCEL_PROVIDER_URL"); err != nil {
		return fmt.Errorf("GEOCODER_PARCEL_PROVIDER_URL is invalid: %w", err)
	}
	return nil
}

// validateNATS validates the event bus configuration, when enabled.
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.MaxMemory <= 0 {
		return fmt.Errorf("NATS_MAX_MEMORY must be positive")
	}
	if c.NATS.MaxStore <= 0 {
		return fmt.Errorf("NATS_MAX_STORE must be positive")
	}
	if c.NATS.StreamRetentionDays <= 0 {
		return fmt.Errorf("NATS_RETENTION_DAYS must be positive")
	}
	if c.NATS.SubscribersCount <= 0 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be positive")
	}
	return nil
}

// validateServer validates HTTP server settings.
func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateSecurity validates the JWT secret used for the single authenticated
// operator action and the rate-limiting/CORS settings guarding the read API.
func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET appears to contain a placeholder value, set a real secret")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive unless rate limiting is disabled")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive unless rate limiting is disabled")
		}
	}
	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validLogLevels defines the allowed log levels.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats.
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogLevel validates the log level configuration.
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration.
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
// that indicate the user forgot to set a real value.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
