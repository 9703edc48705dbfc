// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

// SourceType is the closed set of origins a Source may be configured as.
type SourceType string

const (
	SourceTypeHTML   SourceType = "html"
	SourceTypeRSS    SourceType = "rss"
	SourceTypeAPI    SourceType = "api"
	SourceTypeAudio  SourceType = "audio"
	SourceTypeManual SourceType = "manual"
)

// Valid reports whether t is one of the closed set of source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeHTML, SourceTypeRSS, SourceTypeAPI, SourceTypeAudio, SourceTypeManual:
		return true
	}
	return false
}

// SourceCategory is the closed set of subject-matter categories a Source
// publishes.
type SourceCategory string

const (
	SourceCategoryNews     SourceCategory = "news"
	SourceCategoryCrime    SourceCategory = "crime"
	SourceCategoryFire     SourceCategory = "fire"
	SourceCategoryPermits  SourceCategory = "permits"
	SourceCategoryBusiness SourceCategory = "business"
)

// Valid reports whether c is one of the closed set of source categories.
func (c SourceCategory) Valid() bool {
	switch c {
	case SourceCategoryNews, SourceCategoryCrime, SourceCategoryFire, SourceCategoryPermits, SourceCategoryBusiness:
		return true
	}
	return false
}

// IncidentCategory is the closed set of categories the extraction engine
// may assign to an incident. A category outside this set is treated as
// ErrExtractionMalformed rather than silently coerced.
type IncidentCategory string

const (
	CategoryViolentCrime  IncidentCategory = "violent_crime"
	CategoryPropertyCrime IncidentCategory = "property_crime"
	CategoryFire          IncidentCategory = "fire"
	CategoryMedical       IncidentCategory = "medical"
	CategoryTraffic       IncidentCategory = "traffic"
	CategoryDrugs         IncidentCategory = "drugs"
	CategoryMissingPerson IncidentCategory = "missing_person"
	CategorySuspicious    IncidentCategory = "suspicious"
	CategoryOther         IncidentCategory = "other"
)

// Valid reports whether c is one of the closed set of incident categories.
func (c IncidentCategory) Valid() bool {
	switch c {
	case CategoryViolentCrime, CategoryPropertyCrime, CategoryFire, CategoryMedical,
		CategoryTraffic, CategoryDrugs, CategoryMissingPerson, CategorySuspicious, CategoryOther:
		return true
	}
	return false
}

// DedupStatus tracks an IncidentReport's progress through the deduplicator.
// It is monotonic: once set to matched, new_incident, or rejected it never
// reverts to pending.
type DedupStatus string

const (
	DedupStatusPending     DedupStatus = "pending"
	DedupStatusMatched     DedupStatus = "matched"
	DedupStatusNewIncident DedupStatus = "new_incident"
	DedupStatusRejected    DedupStatus = "rejected"
)

// Valid reports whether s is one of the closed set of dedup statuses.
func (s DedupStatus) Valid() bool {
	switch s {
	case DedupStatusPending, DedupStatusMatched, DedupStatusNewIncident, DedupStatusRejected:
		return true
	}
	return false
}

// LocationResolution records which geocoder tier resolved an Incident's
// location, in descending order of precision.
type LocationResolution string

const (
	ResolutionParcel   LocationResolution = "parcel"
	ResolutionBlock    LocationResolution = "block"
	ResolutionCentroid LocationResolution = "centroid"
	ResolutionUnknown  LocationResolution = "unknown"
)

// Valid reports whether r is one of the closed set of resolution tiers.
func (r LocationResolution) Valid() bool {
	switch r {
	case ResolutionParcel, ResolutionBlock, ResolutionCentroid, ResolutionUnknown:
		return true
	}
	return false
}

// ReviewStatus drives the confidence & workflow state machine. Once it
// reaches approved or rejected, a confidence recompute must never
// overwrite it — only an operator action may change it further.
type ReviewStatus string

const (
	ReviewStatusAutoPublished ReviewStatus = "auto_published"
	ReviewStatusUnverified    ReviewStatus = "unverified"
	ReviewStatusNeedsReview   ReviewStatus = "needs_review"
	ReviewStatusApproved      ReviewStatus = "approved"
	ReviewStatusRejected      ReviewStatus = "rejected"
)

// Valid reports whether s is one of the closed set of review statuses.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusAutoPublished, ReviewStatusUnverified, ReviewStatusNeedsReview,
		ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Overridden reports whether s is a terminal operator decision that a
// confidence recompute must not overwrite.
func (s ReviewStatus) Overridden() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// IncidentStatus is the operator-facing lifecycle status of an Incident,
// distinct from its review workflow status.
type IncidentStatus string

const (
	IncidentStatusActive    IncidentStatus = "active"
	IncidentStatusResolved  IncidentStatus = "resolved"
	IncidentStatusRetracted IncidentStatus = "retracted"
)

// Valid reports whether s is one of the closed set of incident statuses.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentStatusActive, IncidentStatusResolved, IncidentStatusRetracted:
		return true
	}
	return false
}
