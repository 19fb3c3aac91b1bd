// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

// ErrNoMaterialization is returned when Save finds an artifact with no
// raw materialization to commit.
var ErrNoMaterialization = errors.New("artifact has no materialization to commit")

var savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "symphainy",
	Subsystem: "provenance",
	Name:      "saves_total",
	Help:      "Materialization commits by status",
}, []string{"status"})

// SaveResult reports the outcome of a commit.
type SaveResult struct {
	// Record is the artifact after the save.
	Record *artifact.Record

	// AlreadyCommitted is true when the artifact was READY before the
	// call; the save was a no-op and no intent was enqueued.
	AlreadyCommitted bool

	// IntentID identifies the pending downstream job, when one was
	// enqueued by this call.
	IntentID string
}

// Authority commits PENDING artifacts to READY and schedules the
// follow-up parse. Upload is tentative; Save is the committed half of
// the two-phase flow.
type Authority struct {
	artifacts artifact.Store
	objects   storage.ObjectStore
	intents   IntentQueue
	logger    *slog.Logger
}

// NewAuthority creates a materialization authority.
func NewAuthority(artifacts artifact.Store, objects storage.ObjectStore, intents IntentQueue, logger *slog.Logger) (*Authority, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if objects == nil {
		return nil, errors.New("object store must not be nil")
	}
	if intents == nil {
		return nil, errors.New("intent queue must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authority{artifacts: artifacts, objects: objects, intents: intents, logger: logger}, nil
}

// Save commits an artifact: copies its raw payload to the committed
// storage location, registers that authoritative materialization, moves
// the artifact to READY, and enqueues exactly one durable pending
// intent for the downstream parse.
//
// Idempotent: saving an already-READY artifact returns the current
// state with AlreadyCommitted set, so retrying clients are safe.
func (a *Authority) Save(ctx context.Context, tenantID, artifactID, boundaryContractID string) (*SaveResult, error) {
	ctx, span := tracer.Start(ctx, "ingest.Authority.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("artifact_id", artifactID),
	)
	log := logging.WithTrace(ctx, a.logger)

	if boundaryContractID == "" {
		savesTotal.WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, ErrMissingBoundaryContract.Error())
		return nil, ErrMissingBoundaryContract
	}

	rec, err := a.artifacts.Get(ctx, tenantID, artifactID)
	if err != nil {
		savesTotal.WithLabelValues("not_found").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if rec.LifecycleState == artifact.StateReady {
		savesTotal.WithLabelValues("noop").Inc()
		log.Debug("artifact already committed", "artifact_id", artifactID)
		return &SaveResult{Record: rec, AlreadyCommitted: true}, nil
	}

	if len(rec.Materializations) == 0 {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, ErrNoMaterialization.Error())
		return nil, fmt.Errorf("%w: artifact %s", ErrNoMaterialization, artifactID)
	}
	raw := rec.Materializations[0]

	payload, err := a.objects.Get(ctx, raw.URI)
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read raw payload %s: %w", raw.URI, err)
	}

	committedURI := path.Join("committed", tenantID, artifactID)
	if err := a.objects.Put(ctx, committedURI, payload); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("write committed payload: %w", err)
	}

	// Register the authoritative copy before the READY transition so a
	// READY artifact always has at least one committed materialization.
	committed := artifact.Materialization{
		MaterializationID: uuid.NewString(),
		StorageType:       "object_store",
		URI:               committedURI,
		Format:            raw.Format,
		Compression:       raw.Compression,
	}
	if err := a.artifacts.AddMaterialization(ctx, tenantID, artifactID, committed); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("register committed materialization: %w", err)
	}

	updated, err := a.artifacts.UpdateLifecycle(ctx, tenantID, artifactID, artifact.StateReady, "materialization committed")
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	profile, found := strings.CutPrefix(rec.ProducedBy.Intent, "ingest_")
	if !found {
		profile = "upload"
	}
	intent := &PendingIntent{
		IntentID:         uuid.NewString(),
		TenantID:         tenantID,
		ArtifactID:       artifactID,
		Kind:             "parse_file",
		Status:           IntentPending,
		IngestionProfile: profile,
		FileType:         rec.SemanticDescriptor.ParserType,
	}
	if err := a.intents.Create(ctx, intent); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("enqueue pending intent: %w", err)
	}

	savesTotal.WithLabelValues("ok").Inc()
	log.Info("artifact committed",
		"artifact_id", artifactID,
		"tenant_id", tenantID,
		"intent_id", intent.IntentID,
		"ingestion_profile", intent.IngestionProfile)

	return &SaveResult{Record: updated, IntentID: intent.IntentID}, nil
}
