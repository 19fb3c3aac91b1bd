// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package embeddings

import (
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func TestParseEmbeddings(t *testing.T) {
	t.Run("valid objects", func(t *testing.T) {
		resp := &models.GraphQLResponse{
			Data: map[string]models.JSONObject{
				"Get": map[string]any{
					ClassName: []any{
						map[string]any{"embeddingId": "e1", "model": "mini-lm", "confidence": 0.92},
						map[string]any{"embeddingId": "e2", "model": "mini-lm", "confidence": 0.41},
					},
				},
			},
		}
		got, err := parseEmbeddings(resp)
		if err != nil {
			t.Fatalf("parseEmbeddings: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 embeddings, got %d", len(got))
		}
		if got[0].EmbeddingID != "e1" || got[0].Confidence != 0.92 {
			t.Errorf("unexpected first embedding: %+v", got[0])
		}
	})

	t.Run("objects without ids skipped", func(t *testing.T) {
		resp := &models.GraphQLResponse{
			Data: map[string]models.JSONObject{
				"Get": map[string]any{
					ClassName: []any{
						map[string]any{"model": "mini-lm", "confidence": 0.9},
						map[string]any{"embeddingId": "e1", "confidence": 0.8},
						"not an object",
					},
				},
			},
		}
		got, err := parseEmbeddings(resp)
		if err != nil {
			t.Fatalf("parseEmbeddings: %v", err)
		}
		if len(got) != 1 || got[0].EmbeddingID != "e1" {
			t.Fatalf("expected only e1, got %+v", got)
		}
	})

	t.Run("no class data", func(t *testing.T) {
		resp := &models.GraphQLResponse{
			Data: map[string]models.JSONObject{"Get": map[string]any{}},
		}
		got, err := parseEmbeddings(resp)
		if err != nil {
			t.Fatalf("parseEmbeddings: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no embeddings, got %+v", got)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		resp := &models.GraphQLResponse{
			Data: map[string]models.JSONObject{"Get": "nope"},
		}
		if _, err := parseEmbeddings(resp); err == nil {
			t.Fatal("expected error for malformed response")
		}
	})
}

func TestNewSearcherValidation(t *testing.T) {
	if _, err := NewSearcher(Config{}, nil); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewSearcherWithClient(nil, 0, nil); err == nil {
		t.Fatal("expected error for nil client")
	}
	s, err := NewSearcher(Config{URL: "http://localhost:8080"}, nil)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	if s.limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, s.limit)
	}
}
