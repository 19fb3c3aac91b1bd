// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package platform resolves artifact content for the quality gate.
//
// The facade walks an artifact's materializations, fetches the payload
// from object storage, and decodes it into the gate's input types.
// Semantic-embedding retrieval is an optional capability supplied at
// construction; without it the facade reports no semantic embeddings
// rather than failing.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/quality"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

// SemanticSearcher finds semantic embeddings derived from a source
// artifact. The weaviate adapter implements it.
type SemanticSearcher interface {
	EmbeddingsForArtifact(ctx context.Context, tenantID, artifactID string) ([]quality.SemanticEmbedding, error)
}

// Facade implements the gate's content source over the artifact store
// and object storage.
type Facade struct {
	artifacts artifact.Store
	objects   storage.ObjectStore
	search    SemanticSearcher
	hasSearch bool
	logger    *slog.Logger
}

var _ quality.ContentSource = (*Facade)(nil)

// NewFacade creates a content-source facade. search may be nil; the
// capability is fixed here rather than probed per call.
func NewFacade(artifacts artifact.Store, objects storage.ObjectStore, search SemanticSearcher, logger *slog.Logger) (*Facade, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if objects == nil {
		return nil, errors.New("object store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		artifacts: artifacts,
		objects:   objects,
		search:    search,
		hasSearch: search != nil,
		logger:    logger,
	}, nil
}

// ParsedContent fetches and decodes the parsed payload of an artifact.
func (f *Facade) ParsedContent(ctx context.Context, tenantID, artifactID string) (*quality.ParsedContent, error) {
	var content quality.ParsedContent
	if err := f.fetchJSON(ctx, tenantID, artifactID, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// StructuralEmbedding fetches and decodes a deterministic embedding.
func (f *Facade) StructuralEmbedding(ctx context.Context, tenantID, artifactID string) (*quality.StructuralEmbedding, error) {
	var embedding quality.StructuralEmbedding
	if err := f.fetchJSON(ctx, tenantID, artifactID, &embedding); err != nil {
		return nil, err
	}
	return &embedding, nil
}

// SemanticEmbeddings returns embeddings derived from the source
// artifact, or none when no searcher was wired in.
func (f *Facade) SemanticEmbeddings(ctx context.Context, tenantID, sourceArtifactID string) ([]quality.SemanticEmbedding, error) {
	if !f.hasSearch {
		return nil, nil
	}
	return f.search.EmbeddingsForArtifact(ctx, tenantID, sourceArtifactID)
}

// SourceMetadata returns the caller-supplied metadata recorded at
// ingestion.
func (f *Facade) SourceMetadata(ctx context.Context, tenantID, artifactID string) (map[string]string, error) {
	rec, err := f.artifacts.Get(ctx, tenantID, artifactID)
	if err != nil {
		return nil, err
	}
	return rec.SourceMetadata, nil
}

// fetchJSON resolves the artifact's materialization, reads the object,
// and decodes it. All failure modes wrap ErrContentUnavailable so the
// gate degrades instead of raising.
func (f *Facade) fetchJSON(ctx context.Context, tenantID, artifactID string, out any) error {
	rec, err := f.artifacts.Get(ctx, tenantID, artifactID)
	if err != nil {
		return fmt.Errorf("%w: artifact %s: %v", quality.ErrContentUnavailable, artifactID, err)
	}
	m, err := pickMaterialization(rec)
	if err != nil {
		return err
	}

	data, err := f.objects.Get(ctx, m.URI)
	if err != nil {
		logging.WithTrace(ctx, f.logger).Warn("materialization fetch failed",
			"artifact_id", artifactID, "uri", m.URI, "error", err)
		return fmt.Errorf("%w: object %s: %v", quality.ErrContentUnavailable, m.URI, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", quality.ErrContentUnavailable, m.URI, err)
	}
	return nil
}

// pickMaterialization chooses which copy to read: the first JSON
// materialization, else the first one at all.
func pickMaterialization(rec *artifact.Record) (*artifact.Materialization, error) {
	if len(rec.Materializations) == 0 {
		return nil, fmt.Errorf("%w: artifact %s has no materializations", quality.ErrContentUnavailable, rec.ArtifactID)
	}
	for i := range rec.Materializations {
		if rec.Materializations[i].Format == "json" {
			return &rec.Materializations[i], nil
		}
	}
	return &rec.Materializations[0], nil
}
