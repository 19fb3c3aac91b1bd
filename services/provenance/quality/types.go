// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package quality scores the trustworthiness of parsed content against
// its source and deterministic embedding.
//
// Scoring is fully deterministic and replayable: no randomness, no
// model calls. Identical inputs always yield identical assessments, so
// a promotion decision can be audited by re-running the gate.
package quality

import (
	"context"
	"errors"
)

// Severity grades an individual quality issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Dimension is the quality axis an issue belongs to. Root-cause
// attribution considers parsing, data, and source; embedding issues
// feed the embedding score but not root cause.
type Dimension string

const (
	DimensionParsing   Dimension = "parsing"
	DimensionEmbedding Dimension = "embedding"
	DimensionData      Dimension = "data"
	DimensionSource    Dimension = "source"
)

// Status summarizes one quality axis.
//
// The boundary between StatusIssues and StatusPoor: an axis is "poor"
// only when it carries at least two independent high-severity issues
// (parsing additionally reports "poor" for an empty parse with no
// recorded errors, and "failed" for an empty parse with errors).
// Anything else with a non-empty issue list is "issues".
type Status string

const (
	StatusGood    Status = "good"
	StatusIssues  Status = "issues"
	StatusPoor    Status = "poor"
	StatusFailed  Status = "failed"
	StatusUnknown Status = "unknown"
)

// Issue types emitted by the gate.
const (
	IssueParseErrors       = "parse_errors"
	IssueEmptyParseResult  = "empty_parse_result"
	IssueSchemaMismatch    = "schema_mismatch"
	IssueMissingFields     = "missing_fields"
	IssuePatternMismatch   = "pattern_mismatch"
	IssueNoRecords         = "no_records"
	IssueLowConfEmbeddings = "low_confidence_embeddings"
	IssueCopybookMismatch  = "copybook_data_mismatch"
	IssueMissingInterchange = "edi_missing_interchange"
	IssueBadScan           = "bad_scan"
	IssueBadSchema         = "bad_schema"
)

// Issue is one detected quality problem.
type Issue struct {
	Type       string    `json:"type"`
	Severity   Severity  `json:"severity"`
	Dimension  Dimension `json:"dimension"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// PrimaryIssue names the dimension root-cause analysis blames.
type PrimaryIssue string

const (
	PrimaryParsing PrimaryIssue = "parsing"
	PrimaryData    PrimaryIssue = "data"
	PrimarySource  PrimaryIssue = "source"
	PrimaryNone    PrimaryIssue = "none"
)

// RootCause is the outcome of root-cause attribution.
type RootCause struct {
	PrimaryIssue    PrimaryIssue `json:"primary_issue"`
	Confidence      float64      `json:"confidence"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// SchemaMatch reports how the parsed schema compares to the schema the
// deterministic embedding declared.
type SchemaMatch struct {
	ExactMatch    bool     `json:"exact_match"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Differences   []string `json:"differences,omitempty"`
}

// Assessment is the immutable result of one gate run for a
// (parsed artifact, source artifact) pair. A re-assessment creates a
// new Assessment with its own ID; existing ones are never updated, so
// the audit trail stays intact.
type Assessment struct {
	AssessmentID     string `json:"assessment_id"`
	TenantID         string `json:"tenant_id"`
	ParsedArtifactID string `json:"parsed_artifact_id"`
	SourceArtifactID string `json:"source_artifact_id"`
	ParserType       string `json:"parser_type"`

	ParsingStatus   Status `json:"parsing_status"`
	EmbeddingStatus Status `json:"embedding_status"`

	ParsingConfidence   float64 `json:"parsing_confidence"`
	EmbeddingConfidence float64 `json:"embedding_confidence"`
	OverallConfidence   float64 `json:"overall_confidence"`

	Issues      []Issue      `json:"issues,omitempty"`
	RootCause   RootCause    `json:"root_cause"`
	SchemaMatch *SchemaMatch `json:"schema_match,omitempty"`

	// Error is set on degraded assessments where the parsed content
	// could not be retrieved at all.
	Error string `json:"error,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// ParsedContent is the retrievable output of a parser run.
type ParsedContent struct {
	// Columns is the ordered column layout, when tabular.
	Columns []string `json:"columns,omitempty"`

	// Records holds the parsed rows as column -> value maps.
	Records []map[string]any `json:"records,omitempty"`

	// ParseErrors lists errors the parser recorded while producing
	// this content.
	ParseErrors []string `json:"parse_errors,omitempty"`
}

// StructuralEmbedding is a deterministic fingerprint of parsed data:
// the declared schema plus per-column value patterns. It is independent
// of any semantic embedding.
type StructuralEmbedding struct {
	Schema []SchemaColumn `json:"schema"`

	// PatternSignature maps lower-cased column names to regular
	// expressions that sample values are expected to match.
	PatternSignature map[string]string `json:"pattern_signature,omitempty"`

	RecordCount int `json:"record_count,omitempty"`
}

// SchemaColumn is one declared column of a structural embedding.
type SchemaColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// SemanticEmbedding carries the gate-relevant slice of a semantic
// embedding: its own confidence, which signals source fidelity.
type SemanticEmbedding struct {
	EmbeddingID string  `json:"embedding_id"`
	Model       string  `json:"model"`
	Confidence  float64 `json:"confidence"`
}

// ErrContentUnavailable wraps content fetch failures; the gate maps it
// to a degraded assessment rather than raising.
var ErrContentUnavailable = errors.New("parsed content unavailable")

// ContentSource retrieves the inputs the gate scores. Implementations
// adapt the platform's object and vector stores.
type ContentSource interface {
	// ParsedContent returns the parsed payload of an artifact.
	ParsedContent(ctx context.Context, tenantID, artifactID string) (*ParsedContent, error)

	// StructuralEmbedding returns the deterministic embedding payload.
	StructuralEmbedding(ctx context.Context, tenantID, artifactID string) (*StructuralEmbedding, error)

	// SemanticEmbeddings returns the semantic embeddings derived from
	// the given source artifact. An empty slice is a valid answer.
	SemanticEmbeddings(ctx context.Context, tenantID, sourceArtifactID string) ([]SemanticEmbedding, error)

	// SourceMetadata returns caller-supplied metadata of the source
	// artifact.
	SourceMetadata(ctx context.Context, tenantID, artifactID string) (map[string]string, error)
}

// AssessmentSink persists assessments. Create-once: implementations
// must never overwrite an existing assessment ID.
type AssessmentSink interface {
	SaveAssessment(ctx context.Context, a *Assessment) error
}
