// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package embeddings retrieves semantic embeddings from Weaviate for
// data-quality checks.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/quality"
)

// ClassName is the Weaviate class holding semantic embeddings.
const ClassName = "SemanticEmbedding"

// DefaultLimit bounds one retrieval; the gate samples confidence, it
// does not need every embedding.
const DefaultLimit = 100

// Config configures the searcher.
type Config struct {
	// URL is the Weaviate server URL (e.g. "http://localhost:8080").
	URL string

	// Limit caps embeddings fetched per artifact. Zero means
	// DefaultLimit.
	Limit int
}

// Searcher queries Weaviate for semantic embeddings derived from a
// source artifact.
type Searcher struct {
	client *weaviate.Client
	limit  int
	logger *slog.Logger
}

// NewSearcher creates a searcher from configuration.
func NewSearcher(cfg Config, logger *slog.Logger) (*Searcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("weaviate url must not be empty")
	}
	wcfg := weaviate.Config{Host: cfg.URL, Scheme: "http"}
	if after, ok := strings.CutPrefix(cfg.URL, "https://"); ok {
		wcfg.Scheme, wcfg.Host = "https", after
	} else if after, ok := strings.CutPrefix(cfg.URL, "http://"); ok {
		wcfg.Host = after
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return NewSearcherWithClient(client, cfg.Limit, logger)
}

// NewSearcherWithClient wraps an existing client.
func NewSearcherWithClient(client *weaviate.Client, limit int, logger *slog.Logger) (*Searcher, error) {
	if client == nil {
		return nil, errors.New("client must not be nil")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{client: client, limit: limit, logger: logger}, nil
}

// EmbeddingsForArtifact returns the semantic embeddings derived from
// the given source artifact, scoped to the tenant. A reachable store
// with no matches yields an empty slice.
func (s *Searcher) EmbeddingsForArtifact(ctx context.Context, tenantID, artifactID string) ([]quality.SemanticEmbedding, error) {
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"tenantId"}).
				WithOperator(filters.Equal).
				WithValueString(tenantID),
			filters.Where().
				WithPath([]string{"sourceArtifactId"}).
				WithOperator(filters.Equal).
				WithValueString(artifactID),
		})

	fields := []graphql.Field{
		{Name: "embeddingId"},
		{Name: "model"},
		{Name: "confidence"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithWhere(where).
		WithLimit(s.limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic embedding query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("semantic embedding query: %s", result.Errors[0].Message)
	}

	embeddings, err := parseEmbeddings(result)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("semantic embeddings retrieved",
		"tenant_id", tenantID,
		"source_artifact_id", artifactID,
		"count", len(embeddings))
	return embeddings, nil
}

// parseEmbeddings unpacks the GraphQL response. Objects missing
// expected fields are skipped rather than failing the batch.
func parseEmbeddings(result *models.GraphQLResponse) ([]quality.SemanticEmbedding, error) {
	get, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, errors.New("unexpected graphql response shape")
	}
	objects, ok := get[ClassName].([]any)
	if !ok {
		return nil, nil
	}

	embeddings := make([]quality.SemanticEmbedding, 0, len(objects))
	for _, obj := range objects {
		props, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		emb := quality.SemanticEmbedding{}
		if id, ok := props["embeddingId"].(string); ok {
			emb.EmbeddingID = id
		}
		if model, ok := props["model"].(string); ok {
			emb.Model = model
		}
		if conf, ok := props["confidence"].(float64); ok {
			emb.Confidence = conf
		}
		if emb.EmbeddingID == "" {
			continue
		}
		embeddings = append(embeddings, emb)
	}
	return embeddings, nil
}
