// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package promotion turns gated derived content into immutable
// records of fact.
//
// A record of fact is committed, persistent meaning: once written it
// is never updated or deleted through normal operation. Promotion is
// idempotent per (tenant, interpretation), so callers can push every
// interpretation through without tracking whether it was promoted
// before.
package promotion

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for promotion operations.
var (
	ErrInvalidPromotion = errors.New("invalid promotion request")
	ErrRecordNotFound   = errors.New("record of fact not found")
)

// RecordType classifies what kind of derived content a record of fact
// holds.
type RecordType string

const (
	RecordTypeInterpretation RecordType = "interpretation"
	RecordTypeAnalysis       RecordType = "analysis"
)

// ValidRecordTypes lists accepted record types.
var ValidRecordTypes = map[RecordType]bool{
	RecordTypeInterpretation: true,
	RecordTypeAnalysis:       true,
}

// RecordOfFact is an immutable promoted copy of derived content.
type RecordOfFact struct {
	RecordID string `json:"record_id"`
	TenantID string `json:"tenant_id"`

	RecordType RecordType `json:"record_type"`

	// SourceArtifactID is the artifact the promoted content was
	// derived from.
	SourceArtifactID string `json:"source_artifact_id"`

	// SourceBoundaryContractID ties the record back to the contract
	// under which the source entered the platform.
	SourceBoundaryContractID string `json:"source_boundary_contract_id"`

	// InterpretationID keys idempotence: at most one record of fact
	// exists per (tenant, interpretation).
	InterpretationID string `json:"interpretation_id"`

	Content         []byte  `json:"content"`
	ConfidenceScore float64 `json:"confidence_score"`

	PromotedBy      string `json:"promoted_by"`
	PromotionReason string `json:"promotion_reason"`

	// PromotedAt is Unix milliseconds UTC.
	PromotedAt int64 `json:"promoted_at"`
}

// PromoteRequest carries everything needed to create one record of
// fact.
type PromoteRequest struct {
	TenantID                 string
	SourceArtifactID         string
	SourceBoundaryContractID string
	RecordType               RecordType
	Content                  []byte
	InterpretationID         string
	ConfidenceScore          float64
	PromotedBy               string
	PromotionReason          string
}

// Validate checks the request before any store access.
func (r *PromoteRequest) Validate() error {
	if r.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidPromotion)
	}
	if r.SourceArtifactID == "" {
		return fmt.Errorf("%w: source_artifact_id is required", ErrInvalidPromotion)
	}
	if r.SourceBoundaryContractID == "" {
		return fmt.Errorf("%w: source_boundary_contract_id is required", ErrInvalidPromotion)
	}
	if r.InterpretationID == "" {
		return fmt.Errorf("%w: interpretation_id is required", ErrInvalidPromotion)
	}
	if !ValidRecordTypes[r.RecordType] {
		return fmt.Errorf("%w: unknown record_type %q", ErrInvalidPromotion, r.RecordType)
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("%w: content is required", ErrInvalidPromotion)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return fmt.Errorf("%w: confidence_score %v out of range [0,1]", ErrInvalidPromotion, r.ConfidenceScore)
	}
	if r.PromotedBy == "" {
		return fmt.Errorf("%w: promoted_by is required", ErrInvalidPromotion)
	}
	return nil
}

// RecordStore persists records of fact. Implementations must be safe
// for concurrent use and must enforce uniqueness on
// (tenant_id, interpretation_id): a concurrent double insert resolves
// to exactly one stored record.
type RecordStore interface {
	// FindByInterpretation returns the record promoted for the given
	// interpretation, or ErrRecordNotFound.
	FindByInterpretation(ctx context.Context, tenantID, interpretationID string) (*RecordOfFact, error)

	// Insert stores a new record. When a record for the same
	// (tenant, interpretation) already exists, Insert returns the
	// existing record and created=false without modifying it.
	Insert(ctx context.Context, rec *RecordOfFact) (existing *RecordOfFact, created bool, err error)
}
