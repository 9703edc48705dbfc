// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package sourceconfig loads the source-configuration document
// (config.SourcesConfig.ConfigPath) that declares every feed, blotter
// page, API endpoint, and audio stream the scheduler polls, and upserts
// it into the store. Loading reuses the same koanf/yaml stack internal/
// config uses for the application's own config file.
package sourceconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Store is the subset of internal/database.DB the loader needs.
type Store interface {
	UpsertSource(ctx context.Context, s *models.Source) error
}

// document is the YAML shape of the source-configuration file: a flat
// list under a top-level "sources" key.
type document struct {
	Sources []sourceEntry `koanf:"sources"`
}

type sourceEntry struct {
	ID       string            `koanf:"id"`
	Name     string            `koanf:"name"`
	Type     string            `koanf:"type"`
	URL      string            `koanf:"url"`
	Region   string            `koanf:"region"`
	Category string            `koanf:"category"`
	Config   map[string]string `koanf:"config"`
	Active   *bool             `koanf:"active"`
}

// Load reads path, validates every entry's source_type/category against
// the models enums, and upserts each as a models.Source. An entry with
// an invalid type/category is skipped with a warning rather than
// failing the whole load, so one operator typo doesn't take every other
// source down with it.
func Load(ctx context.Context, store Store, path string) (int, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return 0, fmt.Errorf("sourceconfig: failed to read %s: %w", path, err)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return 0, fmt.Errorf("sourceconfig: failed to parse %s: %w", path, err)
	}

	loaded := 0
	for _, entry := range doc.Sources {
		source, ok := entry.toModel()
		if !ok {
			logging.Warn().Str("id", entry.ID).Str("type", entry.Type).Msg("sourceconfig: skipping source with invalid type/category")
			continue
		}
		if err := store.UpsertSource(ctx, source); err != nil {
			return loaded, fmt.Errorf("sourceconfig: failed to upsert source %s: %w", source.ID, err)
		}
		loaded++
	}

	logging.Info().Int("count", loaded).Str("path", path).Msg("sourceconfig: loaded sources")
	return loaded, nil
}

// Watch hot-reloads the source-configuration document when it changes
// on disk, reusing koanf's file provider watch the same way
// internal/config.WatchConfigFile does for the application config.
func Watch(path string, store Store) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			logging.Warn().Err(err).Msg("sourceconfig: watch error")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := Load(ctx, store, path); err != nil {
			logging.Warn().Err(err).Msg("sourceconfig: hot-reload failed")
		}
	})
}

func (e sourceEntry) toModel() (*models.Source, bool) {
	sourceType := models.SourceType(e.Type)
	if !sourceType.Valid() {
		return nil, false
	}
	category := models.SourceCategory(e.Category)
	if !category.Valid() {
		return nil, false
	}

	active := true
	if e.Active != nil {
		active = *e.Active
	}

	return &models.Source{
		ID:         e.ID,
		Name:       e.Name,
		SourceType: sourceType,
		URL:        e.URL,
		Region:     e.Region,
		Category:   category,
		Config:     e.Config,
		IsActive:   active,
		CreatedAt:  time.Now(),
	}, true
}
