// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ingest creates artifacts from raw content and commits them.
//
// The flow is a two-phase commit: Gateway.Ingest stores the payload and
// registers a PENDING artifact (tentative), Authority.Save promotes it
// to READY and schedules the follow-up parse (committed). Both phases
// require a boundary contract ID, the externally issued governance
// token — nothing enters the system without one.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

// MaxPayloadBytes caps a single ingested payload (64MB). Larger uploads
// belong in chunked transfer at the platform edge, not here.
const MaxPayloadBytes = 64 * 1024 * 1024

// Sentinel errors for ingestion.
var (
	ErrValidation              = errors.New("validation error")
	ErrMissingBoundaryContract = fmt.Errorf("%w: missing boundary contract id", ErrValidation)
	ErrEmptyPayload            = fmt.Errorf("%w: empty payload", ErrValidation)
)

var tracer = otel.Tracer("symphainy/provenance/ingest")

var (
	ingestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "ingests_total",
		Help:      "Ingestion attempts by profile and status",
	}, []string{"profile", "status"})

	ingestBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "ingest_payload_bytes",
		Help:      "Size of ingested payloads",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
	})
)

// ingestValidate is the validator instance for ingestion requests.
var ingestValidate *validator.Validate

func init() {
	ingestValidate = validator.New()
	// Enforces MaxPayloadBytes; the builtin max tag counts runes, not bytes.
	if err := ingestValidate.RegisterValidation("maxpayload", validatePayloadSize); err != nil {
		panic(fmt.Sprintf("register maxpayload validator: %v", err))
	}
}

func validatePayloadSize(fl validator.FieldLevel) bool {
	payload, ok := fl.Field().Interface().([]byte)
	if !ok {
		return false
	}
	return len(payload) <= MaxPayloadBytes
}

// Options carries optional ingestion parameters.
type Options struct {
	// Filename is the original upload name, kept for audit only.
	Filename string `json:"filename,omitempty"`

	// FileType declares the content type ("csv", "json", "edi",
	// "mainframe"). Empty means unknown; the parser decides later.
	FileType string `json:"file_type,omitempty"`

	// IngestionProfile records the entry path. Defaults to "upload".
	IngestionProfile string `json:"ingestion_profile,omitempty"`
}

// Request is one ingestion call.
type Request struct {
	Payload            []byte            `validate:"required,maxpayload"`
	TenantID           string            `validate:"required"`
	SessionID          string            `validate:"required"`
	BoundaryContractID string            `validate:"required"`
	SourceMetadata     map[string]string `validate:"-"`
	Options            Options           `validate:"-"`
}

// Gateway creates PENDING artifacts from raw bytes.
type Gateway struct {
	artifacts artifact.Store
	objects   storage.ObjectStore
	logger    *slog.Logger
}

// NewGateway creates an ingestion gateway.
//
// Both stores are required; the logger defaults to slog.Default().
func NewGateway(artifacts artifact.Store, objects storage.ObjectStore, logger *slog.Logger) (*Gateway, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if objects == nil {
		return nil, errors.New("object store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{artifacts: artifacts, objects: objects, logger: logger}, nil
}

// Ingest stores the payload at a raw storage location and registers a
// PENDING artifact with that single materialization.
//
// There is deliberately no content-hash deduplication: every upload
// produces a fresh artifact even when byte-identical to a prior one,
// so repeated submissions of the same source stay distinguishable.
func (g *Gateway) Ingest(ctx context.Context, req Request) (*artifact.Record, error) {
	ctx, span := tracer.Start(ctx, "ingest.Gateway.Ingest")
	defer span.End()

	profile := req.Options.IngestionProfile
	if profile == "" {
		profile = "upload"
	}
	span.SetAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("ingestion_profile", profile),
	)
	log := logging.WithTrace(ctx, g.logger)

	if err := g.validate(req); err != nil {
		ingestsTotal.WithLabelValues(profile, "rejected").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	artifactID := uuid.NewString()
	rawURI := path.Join("raw", req.TenantID, req.SessionID, artifactID)

	if err := g.objects.Put(ctx, rawURI, req.Payload); err != nil {
		ingestsTotal.WithLabelValues(profile, "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store raw payload: %w", err)
	}

	rec := &artifact.Record{
		ArtifactID:     artifactID,
		ArtifactType:   artifact.TypeFile,
		TenantID:       req.TenantID,
		LifecycleState: artifact.StatePending,
		ProducedBy: artifact.ProducedBy{
			Intent:      "ingest_" + profile,
			ExecutionID: req.SessionID,
		},
		SemanticDescriptor: artifact.SemanticDescriptor{ParserType: req.Options.FileType},
		SourceMetadata:     mergedMetadata(req),
		Materializations: []artifact.Materialization{{
			MaterializationID: uuid.NewString(),
			StorageType:       "object_store",
			URI:               rawURI,
			Format:            "binary",
		}},
	}

	created, err := g.artifacts.Register(ctx, rec)
	if err != nil {
		ingestsTotal.WithLabelValues(profile, "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("register artifact: %w", err)
	}
	if !created {
		// Freshly minted UUID collided with an existing record; treat as
		// a retry that already succeeded.
		log.Warn("artifact already registered", "artifact_id", artifactID)
	}

	ingestsTotal.WithLabelValues(profile, "ok").Inc()
	ingestBytes.Observe(float64(len(req.Payload)))
	log.Info("artifact ingested",
		"artifact_id", artifactID,
		"tenant_id", req.TenantID,
		"session_id", req.SessionID,
		"bytes", len(req.Payload),
		"profile", profile)

	return g.artifacts.Get(ctx, req.TenantID, artifactID)
}

func (g *Gateway) validate(req Request) error {
	if req.BoundaryContractID == "" {
		return ErrMissingBoundaryContract
	}
	if len(req.Payload) == 0 {
		return ErrEmptyPayload
	}
	if err := ingestValidate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func mergedMetadata(req Request) map[string]string {
	meta := make(map[string]string, len(req.SourceMetadata)+2)
	for k, v := range req.SourceMetadata {
		meta[k] = v
	}
	meta["boundary_contract_id"] = req.BoundaryContractID
	if req.Options.Filename != "" {
		meta["filename"] = req.Options.Filename
	}
	return meta
}
