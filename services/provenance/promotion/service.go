// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
)

var tracer = otel.Tracer("symphainy/provenance/promotion")

var promotionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "symphainy",
	Subsystem: "provenance",
	Name:      "promotions_total",
	Help:      "Record-of-fact promotions by outcome",
}, []string{"outcome"})

// Result reports one promotion attempt.
type Result struct {
	RecordID string

	// AlreadyPromoted is true when a record of fact for this
	// interpretation already existed; RecordID then names that
	// existing record.
	AlreadyPromoted bool
}

// Service promotes gated content into records of fact. Interpretations
// are persistent meaning and must never remain only pending working
// material, so callers invoke Promote immediately after producing one.
type Service struct {
	records   RecordStore
	artifacts artifact.Store
	logger    *slog.Logger
}

// NewService creates a promotion service.
func NewService(records RecordStore, artifacts artifact.Store, logger *slog.Logger) (*Service, error) {
	if records == nil {
		return nil, errors.New("record store must not be nil")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, artifacts: artifacts, logger: logger}, nil
}

// Promote creates a record of fact for the given interpretation.
//
// Idempotent on (tenant, interpretation): a second call returns the
// existing record untouched. Existing records are never mutated.
func (s *Service) Promote(ctx context.Context, req PromoteRequest) (*Result, error) {
	ctx, span := tracer.Start(ctx, "promotion.Service.Promote")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("interpretation_id", req.InterpretationID),
		attribute.String("record_type", string(req.RecordType)),
	)
	log := logging.WithTrace(ctx, s.logger)

	if err := req.Validate(); err != nil {
		promotionsTotal.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if _, err := s.artifacts.Get(ctx, req.TenantID, req.SourceArtifactID); err != nil {
		promotionsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("source artifact %s: %w", req.SourceArtifactID, err)
	}

	if existing, err := s.records.FindByInterpretation(ctx, req.TenantID, req.InterpretationID); err == nil {
		promotionsTotal.WithLabelValues("duplicate").Inc()
		log.Info("interpretation already promoted",
			"interpretation_id", req.InterpretationID,
			"record_id", existing.RecordID)
		return &Result{RecordID: existing.RecordID, AlreadyPromoted: true}, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		promotionsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("lookup interpretation %s: %w", req.InterpretationID, err)
	}

	rec := &RecordOfFact{
		RecordID:                 uuid.NewString(),
		TenantID:                 req.TenantID,
		RecordType:               req.RecordType,
		SourceArtifactID:         req.SourceArtifactID,
		SourceBoundaryContractID: req.SourceBoundaryContractID,
		InterpretationID:         req.InterpretationID,
		Content:                  req.Content,
		ConfidenceScore:          req.ConfidenceScore,
		PromotedBy:               req.PromotedBy,
		PromotionReason:          req.PromotionReason,
		PromotedAt:               artifact.NowMillis(),
	}

	// Insert resolves the lookup/insert race: the store enforces
	// uniqueness on (tenant, interpretation) and hands back the winner.
	stored, created, err := s.records.Insert(ctx, rec)
	if err != nil {
		promotionsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert record of fact: %w", err)
	}
	if !created {
		promotionsTotal.WithLabelValues("duplicate").Inc()
		return &Result{RecordID: stored.RecordID, AlreadyPromoted: true}, nil
	}

	promotionsTotal.WithLabelValues("ok").Inc()
	log.Info("promoted to record of fact",
		"record_id", stored.RecordID,
		"interpretation_id", req.InterpretationID,
		"record_type", req.RecordType,
		"confidence_score", req.ConfidenceScore)
	return &Result{RecordID: stored.RecordID}, nil
}
