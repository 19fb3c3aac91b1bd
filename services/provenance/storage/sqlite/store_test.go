// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/promotion"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/quality"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "provenance.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func sampleRecord(recordID, interpretationID string) *promotion.RecordOfFact {
	return &promotion.RecordOfFact{
		RecordID:                 recordID,
		TenantID:                 "t1",
		RecordType:               promotion.RecordTypeInterpretation,
		SourceArtifactID:         "art-1",
		SourceBoundaryContractID: "bc-1",
		InterpretationID:         interpretationID,
		Content:                  []byte(`{"k":"v"}`),
		ConfidenceScore:          0.87,
		PromotedBy:               "quality-gate",
		PromotionReason:          "above threshold",
		PromotedAt:               1700000000000,
	}
}

func TestRecordOfFactRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stored, created, err := store.Insert(ctx, sampleRecord("r1", "i1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "r1", stored.RecordID)

	got, err := store.FindByInterpretation(ctx, "t1", "i1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RecordID)
	assert.Equal(t, []byte(`{"k":"v"}`), got.Content)
	assert.Equal(t, "above threshold", got.PromotionReason)
	assert.InDelta(t, 0.87, got.ConfidenceScore, 1e-9)
}

func TestRecordOfFactUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, created, err := store.Insert(ctx, sampleRecord("r1", "i1"))
	require.NoError(t, err)
	assert.True(t, created)

	// Same interpretation, different record: the first row wins.
	existing, created, err := store.Insert(ctx, sampleRecord("r2", "i1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "r1", existing.RecordID)

	// Same interpretation ID under another tenant is a fresh record.
	other := sampleRecord("r3", "i1")
	other.TenantID = "t2"
	_, created, err = store.Insert(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestFindByInterpretationNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.FindByInterpretation(context.Background(), "t1", "no-such")
	assert.ErrorIs(t, err, promotion.ErrRecordNotFound)
}

func TestInterpretationAudit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := &promotion.Interpretation{
		ID:                 "i1",
		TenantID:           "t1",
		FileID:             "f1",
		ParsedResultID:     "p1",
		EmbeddingID:        "e1",
		InterpretationType: "schema_mapping",
		Result:             []byte(`{"fields":3}`),
		ConfidenceScore:    0.8,
		CoverageScore:      0.75,
		CreatedAt:          100,
	}
	require.NoError(t, store.SaveInterpretation(ctx, in))
	require.NoError(t, store.SaveInterpretation(ctx, &promotion.Interpretation{
		ID: "i2", TenantID: "t1", FileID: "f1", ParsedResultID: "p1",
		InterpretationType: "schema_mapping", CreatedAt: 200,
	}))

	got, err := store.ListInterpretations(ctx, "t1", "f1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i1", got[0].ID, "oldest first")
	assert.Equal(t, "e1", got[0].EmbeddingID)
	assert.Empty(t, got[1].EmbeddingID)

	none, err := store.ListInterpretations(ctx, "t1", "other-file")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnalysisAudit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	an := &promotion.Analysis{
		ID:               "a1",
		TenantID:         "t1",
		FileID:           "f1",
		ParsedResultID:   "p1",
		InterpretationID: "i1",
		AnalysisType:     "anomaly_scan",
		Result:           []byte(`{"anomalies":0}`),
		DeepDive:         true,
		AgentSessionID:   "s1",
		CreatedAt:        100,
	}
	require.NoError(t, store.SaveAnalysis(ctx, an))

	got, err := store.ListAnalyses(ctx, "t1", "i1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].DeepDive)
	assert.Equal(t, "s1", got[0].AgentSessionID)
}

func TestAssessmentSink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := &quality.Assessment{
		AssessmentID:        "as1",
		TenantID:            "t1",
		ParsedArtifactID:    "p1",
		SourceArtifactID:    "f1",
		ParserType:          "csv",
		ParsingStatus:       quality.StatusGood,
		EmbeddingStatus:     quality.StatusUnknown,
		ParsingConfidence:   0.95,
		EmbeddingConfidence: 0.5,
		OverallConfidence:   0.725,
		RootCause:           quality.RootCause{PrimaryIssue: quality.PrimaryNone, Confidence: 0.9},
		CreatedAt:           100,
	}
	require.NoError(t, store.SaveAssessment(ctx, a))

	// Create-once: re-saving the same ID fails.
	assert.Error(t, store.SaveAssessment(ctx, a))

	got, err := store.ListAssessments(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, quality.StatusGood, got[0].ParsingStatus)
	assert.InDelta(t, 0.725, got[0].OverallConfidence, 1e-9)
}
