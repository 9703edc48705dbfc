// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package extraction turns a raw text observation into a structured
// incident record using an LLM with a strict output schema, bounded
// retries, and confidence-aware handling of malformed output.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/ingestpipeline"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// RawObservation is what an adapter hands the extraction engine: an
// unstructured blob of text plus the provenance needed to build an
// IncidentReport around whatever the model extracts from it.
type RawObservation struct {
	SourceID   string
	ExternalID string
	SourceURL  string
	Text       string
}

// Extracted is the engine's structured output, mirroring spec §4.3's
// Extracted{...} contract exactly.
type Extracted struct {
	IncidentType        string                  `json:"incident_type"`
	Category             models.IncidentCategory `json:"category"`
	Address              string                  `json:"address,omitempty"`
	City                 string                  `json:"city,omitempty"`
	OccurredAt           *time.Time              `json:"occurred_at,omitempty"`
	UrgencyScore         int                     `json:"urgency_score"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description"`
	ExtractionConfidence float64                 `json:"extraction_confidence"`
	ModelIdentifier      string                  `json:"model_identifier"`
}

// extractionSchema is embedded in the prompt so the model knows exactly
// which fields and closed category values are acceptable; the engine
// still validates the parsed response defensively rather than trusting
// prompt compliance.
const extractionSchema = `Return ONLY a single JSON object with exactly these fields:
{
  "incident_type": string,
  "category": one of "violent_crime","property_crime","fire","medical","traffic","drugs","missing_person","suspicious","other",
  "address": string or null,
  "city": string or null,
  "occurred_at": ISO-8601 timestamp or null,
  "urgency_score": integer 1-10 (1-3 informational, 4-6 notable, 7-8 serious/active, 9-10 life-safety),
  "title": string,
  "description": string,
  "extraction_confidence": number 0-1
}
If the text contains no extractable incident, return {"incident_type": null}.`

// Engine wraps the Anthropic Messages API with the pipeline's retry and
// malformed-output policy.
type Engine struct {
	client     anthropic.Client
	model      anthropic.Model
	maxRetries int
	timeout    time.Duration
}

// NewEngine constructs an Engine from the extraction config section.
func NewEngine(cfg config.ExtractionConfig) *Engine {
	return &Engine{
		client:     anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:      anthropic.Model(cfg.Model),
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
	}
}

// Extract sends obs.Text to the model and parses its response. It
// retries up to maxRetries times on ErrTransientSource-classified
// failures (network/5xx), and returns ErrExtractionMalformed — with the
// raw response text attached via rawResponse for the caller to persist —
// when the model's output doesn't parse as the expected schema after all
// retries are exhausted. If the last attempt instead failed with a
// transient call error, the returned error wraps ErrTransientSource.
func (e *Engine) Extract(ctx context.Context, obs RawObservation) (*Extracted, string, error) {
	var lastErr error
	var lastRaw string
	lastCallFailed := false

	attempts := e.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		raw, err := e.call(callCtx, obs.Text)
		cancel()
		lastRaw = raw

		if err != nil {
			lastErr = err
			lastCallFailed = true
			if !isTransient(err) {
				return nil, raw, fmt.Errorf("%w: %v", ingestpipeline.ErrFatalSource, err)
			}
			logging.Warn().Err(err).Int("attempt", attempt+1).Str("source_id", obs.SourceID).Msg("extraction call failed, retrying")
			continue
		}

		extracted, parseErr := parseExtracted(raw)
		if parseErr != nil {
			if NoIncidentFound(parseErr) {
				return nil, raw, nil
			}
			lastErr = parseErr
			lastCallFailed = false
			logging.Warn().Err(parseErr).Int("attempt", attempt+1).Str("source_id", obs.SourceID).Msg("extraction output malformed, retrying")
			continue
		}

		extracted.ModelIdentifier = string(e.model)
		return extracted, raw, nil
	}

	if lastCallFailed {
		return nil, lastRaw, fmt.Errorf("%w: %v", ingestpipeline.ErrTransientSource, lastErr)
	}
	return nil, lastRaw, fmt.Errorf("%w: %v", ingestpipeline.ErrExtractionMalformed, lastErr)
}

func (e *Engine) call(ctx context.Context, text string) (string, error) {
	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: extractionSchema},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", err
	}

	var out string
	for _, block := range message.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

func parseExtracted(raw string) (*Extracted, error) {
	var probe struct {
		IncidentType *string `json:"incident_type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if probe.IncidentType == nil {
		return nil, errNoIncidentFound
	}

	var extracted Extracted
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return nil, fmt.Errorf("response does not match extraction schema: %w", err)
	}

	if !extracted.Category.Valid() {
		return nil, fmt.Errorf("category %q is not in the closed set", extracted.Category)
	}
	if extracted.UrgencyScore < 1 || extracted.UrgencyScore > 10 {
		return nil, fmt.Errorf("urgency_score %d out of range [1,10]", extracted.UrgencyScore)
	}
	if extracted.ExtractionConfidence < 0 || extracted.ExtractionConfidence > 1 {
		return nil, fmt.Errorf("extraction_confidence %v out of range [0,1]", extracted.ExtractionConfidence)
	}
	if extracted.Title == "" {
		return nil, errors.New("title is empty")
	}

	return &extracted, nil
}

// errNoIncidentFound is returned by parseExtracted, never wrapped in the
// malformed-output sentinel — a text with no extractable incident is a
// valid outcome, not a failure, and callers should simply discard it.
var errNoIncidentFound = errors.New("extraction: no incident found in text")

// NoIncidentFound reports whether err indicates the model correctly
// determined there was nothing to extract.
func NoIncidentFound(err error) bool {
	return errors.Is(err, errNoIncidentFound)
}

func isTransient(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}
	return true
}
