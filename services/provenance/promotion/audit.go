// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promotion

import "context"

// Interpretation is the audit row recorded for each produced
// interpretation, independent of whether promotion succeeded.
type Interpretation struct {
	ID                 string  `json:"id"`
	TenantID           string  `json:"tenant_id"`
	FileID             string  `json:"file_id"`
	ParsedResultID     string  `json:"parsed_result_id"`
	EmbeddingID        string  `json:"embedding_id,omitempty"`
	GuideID            string  `json:"guide_id,omitempty"`
	InterpretationType string  `json:"interpretation_type"`
	Result             []byte  `json:"interpretation_result"`
	ConfidenceScore    float64 `json:"confidence_score"`
	CoverageScore      float64 `json:"coverage_score"`
	CreatedAt          int64   `json:"created_at"`
}

// Analysis is the audit row for a deep dive over an interpretation.
type Analysis struct {
	ID               string `json:"id"`
	TenantID         string `json:"tenant_id"`
	FileID           string `json:"file_id"`
	ParsedResultID   string `json:"parsed_result_id"`
	InterpretationID string `json:"interpretation_id"`
	AnalysisType     string `json:"analysis_type"`
	Result           []byte `json:"analysis_result"`
	DeepDive         bool   `json:"deep_dive"`
	AgentSessionID   string `json:"agent_session_id,omitempty"`
	CreatedAt        int64  `json:"created_at"`
}

// AuditStore records interpretations and analyses for lineage audit.
type AuditStore interface {
	SaveInterpretation(ctx context.Context, in *Interpretation) error
	SaveAnalysis(ctx context.Context, an *Analysis) error
	ListInterpretations(ctx context.Context, tenantID, fileID string) ([]*Interpretation, error)
	ListAnalyses(ctx context.Context, tenantID, interpretationID string) ([]*Analysis, error)
}
