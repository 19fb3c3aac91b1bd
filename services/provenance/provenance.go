// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package provenance assembles the artifact lifecycle subsystem and
// presents its operations as one surface: ingestion, two-phase save,
// lineage registration, quality assessment, promotion, and lifecycle
// control. Every dependency is passed in explicitly; the package holds
// no globals.
package provenance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/ingest"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/lifecycle"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/lineage"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/platform"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/promotion"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/quality"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

// ErrNoAuditStore is returned by the interpretation/analysis audit
// operations when the service was assembled without a relational
// audit store.
var ErrNoAuditStore = errors.New("no audit store configured")

// Deps names everything the service needs. Artifacts, Edges, Objects,
// Intents, and Records are required; Assessments, Audit, and Search
// are optional capabilities that degrade to no-ops or errors when
// absent.
type Deps struct {
	Artifacts artifact.Store
	Edges     lineage.EdgeStore
	Objects   storage.ObjectStore
	Intents   ingest.IntentQueue
	Records   promotion.RecordStore

	// Assessments persists gate output for audit. Nil disables
	// persistence; assessments are still computed and returned.
	Assessments quality.AssessmentSink

	// Audit receives interpretation and analysis rows. Nil makes the
	// audit operations return ErrNoAuditStore.
	Audit promotion.AuditStore

	// Search supplies semantic embeddings for data-quality checks.
	// Nil means the gate sees no semantic embeddings.
	Search platform.SemanticSearcher

	Logger *slog.Logger
}

// Service is the assembled provenance subsystem.
type Service struct {
	artifacts artifact.Store
	index     *lineage.Index
	intents   ingest.IntentQueue
	audit     promotion.AuditStore

	gateway   *ingest.Gateway
	authority *ingest.Authority
	facade    *platform.Facade
	gate      *quality.Gate
	promoter  *promotion.Service
	lifecycle *lifecycle.Controller

	logger *slog.Logger
}

// New wires the subsystem together from its stores.
func New(d Deps) (*Service, error) {
	if d.Artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if d.Edges == nil {
		return nil, errors.New("edge store must not be nil")
	}
	if d.Objects == nil {
		return nil, errors.New("object store must not be nil")
	}
	if d.Intents == nil {
		return nil, errors.New("intent queue must not be nil")
	}
	if d.Records == nil {
		return nil, errors.New("record store must not be nil")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	index, err := lineage.NewIndex(d.Edges)
	if err != nil {
		return nil, err
	}
	gateway, err := ingest.NewGateway(d.Artifacts, d.Objects, logger)
	if err != nil {
		return nil, err
	}
	authority, err := ingest.NewAuthority(d.Artifacts, d.Objects, d.Intents, logger)
	if err != nil {
		return nil, err
	}
	facade, err := platform.NewFacade(d.Artifacts, d.Objects, d.Search, logger)
	if err != nil {
		return nil, err
	}
	gate, err := quality.NewGate(d.Artifacts, index, facade, d.Assessments, logger)
	if err != nil {
		return nil, err
	}
	promoter, err := promotion.NewService(d.Records, d.Artifacts, logger)
	if err != nil {
		return nil, err
	}
	controller, err := lifecycle.NewController(d.Artifacts, index, d.Objects, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		artifacts: d.Artifacts,
		index:     index,
		intents:   d.Intents,
		audit:     d.Audit,
		gateway:   gateway,
		authority: authority,
		facade:    facade,
		gate:      gate,
		promoter:  promoter,
		lifecycle: controller,
		logger:    logger,
	}, nil
}

// Healthy verifies the primary artifact store answers. A not-found
// result for the probe key is a healthy answer.
func (s *Service) Healthy(ctx context.Context) error {
	_, err := s.artifacts.Get(ctx, "health", "probe")
	if err != nil && !errors.Is(err, artifact.ErrArtifactNotFound) {
		return err
	}
	return nil
}

// withProfile stamps the ingestion profile, overriding whatever the
// caller put in Options.
func withProfile(req ingest.Request, profile string) ingest.Request {
	req.Options.IngestionProfile = profile
	return req
}

// IngestFile accepts an uploaded file and registers a PENDING
// artifact holding its raw bytes.
func (s *Service) IngestFile(ctx context.Context, req ingest.Request) (*artifact.Record, error) {
	return s.gateway.Ingest(ctx, withProfile(req, "upload"))
}

// IngestEDI accepts an EDI document. The file type defaults to "edi"
// when the caller left it blank.
func (s *Service) IngestEDI(ctx context.Context, req ingest.Request) (*artifact.Record, error) {
	if req.Options.FileType == "" {
		req.Options.FileType = "edi"
	}
	return s.gateway.Ingest(ctx, withProfile(req, "edi"))
}

// IngestAPI accepts a payload delivered through the API path.
func (s *Service) IngestAPI(ctx context.Context, req ingest.Request) (*artifact.Record, error) {
	return s.gateway.Ingest(ctx, withProfile(req, "api"))
}

// SaveFile commits a PENDING artifact to READY and enqueues its parse
// intent. Saving a READY artifact is a no-op.
func (s *Service) SaveFile(ctx context.Context, tenantID, artifactID, boundaryContractID string) (*ingest.SaveResult, error) {
	return s.authority.Save(ctx, tenantID, artifactID, boundaryContractID)
}

// RegisterArtifact persists a derived artifact and records a lineage
// edge to each parent. Registration is idempotent: re-registering an
// existing ID leaves the stored record untouched and still reconciles
// the edges.
func (s *Service) RegisterArtifact(ctx context.Context, rec *artifact.Record) (bool, error) {
	created, err := s.artifacts.Register(ctx, rec)
	if err != nil {
		return false, err
	}
	for _, parent := range rec.ParentArtifacts {
		if err := s.index.AddEdge(ctx, rec.TenantID, rec.ArtifactID, parent); err != nil {
			return created, err
		}
	}
	return created, nil
}

// GetArtifact returns the artifact record, or
// artifact.ErrArtifactNotFound.
func (s *Service) GetArtifact(ctx context.Context, tenantID, artifactID string) (*artifact.Record, error) {
	return s.artifacts.Get(ctx, tenantID, artifactID)
}

// RegisterMaterialization appends a physical location to an existing
// artifact.
func (s *Service) RegisterMaterialization(ctx context.Context, tenantID, artifactID string, m artifact.Materialization) error {
	return s.artifacts.AddMaterialization(ctx, tenantID, artifactID, m)
}

// GetParsedFile retrieves the parsed payload of an artifact from its
// JSON materialization.
func (s *Service) GetParsedFile(ctx context.Context, tenantID, artifactID string) (*quality.ParsedContent, error) {
	return s.facade.ParsedContent(ctx, tenantID, artifactID)
}

// Assess runs the quality gate for a (parsed, source) artifact pair.
func (s *Service) Assess(ctx context.Context, req quality.Request) (*quality.Assessment, error) {
	return s.gate.Assess(ctx, req)
}

// Promote copies derived content into an immutable Record of Fact.
// Idempotent on (tenant, interpretation).
func (s *Service) Promote(ctx context.Context, req promotion.PromoteRequest) (*promotion.Result, error) {
	return s.promoter.Promote(ctx, req)
}

// ArchiveFile soft-deletes an artifact, retaining its storage.
func (s *Service) ArchiveFile(ctx context.Context, tenantID, artifactID, reason string) (*artifact.Record, error) {
	return s.lifecycle.Archive(ctx, tenantID, artifactID, reason)
}

// DeleteFile hard-deletes an artifact, its blobs, and (when cascading)
// everything derived from it.
func (s *Service) DeleteFile(ctx context.Context, tenantID, artifactID string, cascade bool) (*lifecycle.DeleteResult, error) {
	return s.lifecycle.Delete(ctx, tenantID, artifactID, cascade)
}

// Ancestors walks lineage upward from an artifact, root-first.
// maxDepth <= 0 applies lineage.DefaultMaxDepth.
func (s *Service) Ancestors(ctx context.Context, tenantID, artifactID string, maxDepth int) ([]string, error) {
	return s.index.Ancestors(ctx, tenantID, artifactID, maxDepth)
}

// Descendants walks lineage downward from an artifact, nearest first.
func (s *Service) Descendants(ctx context.Context, tenantID, artifactID string) ([]string, error) {
	return s.index.Descendants(ctx, tenantID, artifactID)
}

// CreatePendingIntent enqueues a durable downstream job.
func (s *Service) CreatePendingIntent(ctx context.Context, intent *ingest.PendingIntent) error {
	return s.intents.Create(ctx, intent)
}

// GetPendingIntents lists the tenant's PENDING intents, oldest first.
func (s *Service) GetPendingIntents(ctx context.Context, tenantID string) ([]*ingest.PendingIntent, error) {
	return s.intents.ListPending(ctx, tenantID)
}

// UpdateIntentStatus moves an intent through its status lifecycle.
func (s *Service) UpdateIntentStatus(ctx context.Context, tenantID, intentID string, status ingest.IntentStatus) error {
	return s.intents.UpdateStatus(ctx, tenantID, intentID, status)
}

// RecordInterpretation writes an interpretation audit row.
func (s *Service) RecordInterpretation(ctx context.Context, in *promotion.Interpretation) error {
	if s.audit == nil {
		return ErrNoAuditStore
	}
	return s.audit.SaveInterpretation(ctx, in)
}

// RecordAnalysis writes an analysis audit row.
func (s *Service) RecordAnalysis(ctx context.Context, an *promotion.Analysis) error {
	if s.audit == nil {
		return ErrNoAuditStore
	}
	return s.audit.SaveAnalysis(ctx, an)
}

// ListInterpretations returns the audit trail of interpretations for a
// file, oldest first.
func (s *Service) ListInterpretations(ctx context.Context, tenantID, fileID string) ([]*promotion.Interpretation, error) {
	if s.audit == nil {
		return nil, ErrNoAuditStore
	}
	return s.audit.ListInterpretations(ctx, tenantID, fileID)
}

// ListAnalyses returns the audit trail of analyses attached to an
// interpretation, oldest first.
func (s *Service) ListAnalyses(ctx context.Context, tenantID, interpretationID string) ([]*promotion.Analysis, error) {
	if s.audit == nil {
		return nil, ErrNoAuditStore
	}
	return s.audit.ListAnalyses(ctx, tenantID, interpretationID)
}
