// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package artifact defines the artifact data model and the ArtifactStore
// contract used by every other provenance component.
//
// An artifact is one unit of ingested or derived content: an uploaded
// file, a parsed result, a structural or semantic embedding, an
// interpretation, or an analysis. Each artifact carries an explicit
// lifecycle state, one or more physical materializations, and lineage
// edges to its immediate sources.
//
// Thread Safety: all Store implementations in this module are safe for
// concurrent use.
package artifact

import (
	"errors"
	"fmt"
	"time"
)

// Type categorizes what an artifact represents.
type Type string

const (
	TypeFile                   Type = "file"
	TypeParsedContent          Type = "parsed_content"
	TypeDeterministicEmbedding Type = "deterministic_embedding"
	TypeSemanticEmbedding      Type = "semantic_embedding"
	TypeInterpretation         Type = "interpretation"
	TypeAnalysis               Type = "analysis"
)

// ValidTypes is the set of recognized artifact types.
var ValidTypes = map[Type]bool{
	TypeFile:                   true,
	TypeParsedContent:          true,
	TypeDeterministicEmbedding: true,
	TypeSemanticEmbedding:      true,
	TypeInterpretation:         true,
	TypeAnalysis:               true,
}

// LifecycleState is the lifecycle stage of an artifact.
//
// States are monotonic except DELETED, which is terminal and absorbs
// every other state.
type LifecycleState string

const (
	StatePending  LifecycleState = "PENDING"
	StateReady    LifecycleState = "READY"
	StateArchived LifecycleState = "ARCHIVED"
	StateDeleted  LifecycleState = "DELETED"
)

// ValidStates is the set of recognized lifecycle states.
var ValidStates = map[LifecycleState]bool{
	StatePending:  true,
	StateReady:    true,
	StateArchived: true,
	StateDeleted:  true,
}

// legalTransitions is the lifecycle transition table. DELETED is
// reachable from any state, including itself; nothing leaves DELETED.
var legalTransitions = map[LifecycleState]map[LifecycleState]bool{
	StatePending:  {StateReady: true, StateArchived: true, StateDeleted: true},
	StateReady:    {StateArchived: true, StateDeleted: true},
	StateArchived: {StateDeleted: true},
	StateDeleted:  {StateDeleted: true},
}

// CanTransition reports whether moving from one lifecycle state to
// another is legal.
func CanTransition(from, to LifecycleState) bool {
	return legalTransitions[from][to]
}

// Sentinel errors for artifact operations.
var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrInvalidArtifact   = errors.New("invalid artifact record")
	ErrUnknownParent     = errors.New("parent artifact does not exist")
)

// ProducedBy records which operation created an artifact.
type ProducedBy struct {
	// Intent is the logical operation, e.g. "ingest_file" or "parse_file".
	Intent string `json:"intent"`

	// ExecutionID identifies the concrete execution that produced it.
	ExecutionID string `json:"execution_id"`
}

// ColumnSpec describes one column of structured content: its name,
// inferred type, and ordinal position.
type ColumnSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// SemanticDescriptor summarizes the shape of an artifact's content.
type SemanticDescriptor struct {
	// Schema is the declared column layout, when the content is tabular.
	Schema []ColumnSpec `json:"schema,omitempty"`

	// RecordCount is the number of records the content holds.
	RecordCount int `json:"record_count,omitempty"`

	// ParserType is the parser that produced the content, e.g. "csv".
	ParserType string `json:"parser_type,omitempty"`

	// EmbeddingModel names the model for semantic embedding artifacts.
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// Materialization is one concrete physical representation of an
// artifact's content. Materializations are exclusively owned by their
// artifact and append-only; a READY artifact has at least one.
type Materialization struct {
	MaterializationID string `json:"materialization_id"`
	StorageType       string `json:"storage_type"`
	URI               string `json:"uri"`
	Format            string `json:"format"`
	Compression       string `json:"compression,omitempty"`
}

// Record is the authoritative description of one artifact.
type Record struct {
	// ArtifactID is unique within a tenant.
	ArtifactID string `json:"artifact_id"`

	ArtifactType Type   `json:"artifact_type"`
	TenantID     string `json:"tenant_id"`

	ProducedBy ProducedBy `json:"produced_by"`

	// ParentArtifacts holds the ordered IDs of the immediate sources.
	// Parents must exist at creation time, which keeps lineage acyclic.
	ParentArtifacts []string `json:"parent_artifacts,omitempty"`

	LifecycleState LifecycleState `json:"lifecycle_state"`

	SemanticDescriptor SemanticDescriptor `json:"semantic_descriptor"`

	// SourceMetadata carries caller-supplied metadata from ingestion.
	SourceMetadata map[string]string `json:"source_metadata,omitempty"`

	Materializations []Materialization `json:"materializations,omitempty"`

	// StateReason records why the artifact entered its current state.
	StateReason string `json:"state_reason,omitempty"`

	// CreatedAt, UpdatedAt, ArchivedAt are Unix milliseconds UTC.
	CreatedAt  int64 `json:"created_at"`
	UpdatedAt  int64 `json:"updated_at"`
	ArchivedAt int64 `json:"archived_at,omitempty"`
}

// Validate checks that the record has the fields every store requires.
func (r *Record) Validate() error {
	if r.ArtifactID == "" {
		return fmt.Errorf("%w: artifact_id is required", ErrInvalidArtifact)
	}
	if r.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidArtifact)
	}
	if !ValidTypes[r.ArtifactType] {
		return fmt.Errorf("%w: unknown artifact_type %q", ErrInvalidArtifact, r.ArtifactType)
	}
	if r.LifecycleState == "" {
		return fmt.Errorf("%w: lifecycle_state is required", ErrInvalidArtifact)
	}
	if !ValidStates[r.LifecycleState] {
		return fmt.Errorf("%w: unknown lifecycle_state %q", ErrInvalidArtifact, r.LifecycleState)
	}
	for _, p := range r.ParentArtifacts {
		if p == "" {
			return fmt.Errorf("%w: empty parent artifact id", ErrInvalidArtifact)
		}
		if p == r.ArtifactID {
			return fmt.Errorf("%w: artifact cannot be its own parent", ErrInvalidArtifact)
		}
	}
	return nil
}

// Clone returns a deep copy of the record. Stores hand out clones so
// callers can never mutate persisted state in place.
func (r *Record) Clone() *Record {
	clone := *r
	if r.ParentArtifacts != nil {
		clone.ParentArtifacts = append([]string(nil), r.ParentArtifacts...)
	}
	if r.Materializations != nil {
		clone.Materializations = append([]Materialization(nil), r.Materializations...)
	}
	if r.SemanticDescriptor.Schema != nil {
		clone.SemanticDescriptor.Schema = append([]ColumnSpec(nil), r.SemanticDescriptor.Schema...)
	}
	if r.SourceMetadata != nil {
		clone.SourceMetadata = make(map[string]string, len(r.SourceMetadata))
		for k, v := range r.SourceMetadata {
			clone.SourceMetadata[k] = v
		}
	}
	return &clone
}

// NowMillis returns the current time in Unix milliseconds UTC, the
// timestamp representation used across provenance records.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
