// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sqlite holds the relational audit tables: records of fact,
// interpretations, analyses, and persisted assessments.
//
// Uniqueness of records of fact on (tenant_id, interpretation_id) is
// enforced here, in the schema, so concurrent promotions resolve to
// exactly one stored row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/promotion"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/quality"
)

// Store is the relational store. It implements the promotion record
// store, the audit store, and the assessment sink.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

var (
	_ promotion.RecordStore  = (*Store)(nil)
	_ promotion.AuditStore   = (*Store)(nil)
	_ quality.AssessmentSink = (*Store)(nil)
)

// Open opens or creates the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records_of_fact (
			record_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			record_type TEXT NOT NULL,
			source_artifact_id TEXT NOT NULL,
			source_boundary_contract_id TEXT NOT NULL,
			interpretation_id TEXT NOT NULL,
			content BLOB NOT NULL,
			confidence_score REAL NOT NULL,
			promoted_by TEXT NOT NULL,
			promotion_reason TEXT,
			promoted_at INTEGER NOT NULL,
			UNIQUE (tenant_id, interpretation_id)
		);
		CREATE INDEX IF NOT EXISTS idx_rof_tenant_source
			ON records_of_fact(tenant_id, source_artifact_id);

		CREATE TABLE IF NOT EXISTS interpretations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			file_id TEXT NOT NULL,
			parsed_result_id TEXT NOT NULL,
			embedding_id TEXT,
			guide_id TEXT,
			interpretation_type TEXT NOT NULL,
			interpretation_result BLOB,
			confidence_score REAL NOT NULL,
			coverage_score REAL NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_interp_tenant_file
			ON interpretations(tenant_id, file_id);

		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			file_id TEXT NOT NULL,
			parsed_result_id TEXT NOT NULL,
			interpretation_id TEXT NOT NULL,
			analysis_type TEXT NOT NULL,
			analysis_result BLOB,
			deep_dive INTEGER NOT NULL DEFAULT 0,
			agent_session_id TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_tenant_interp
			ON analyses(tenant_id, interpretation_id);

		CREATE TABLE IF NOT EXISTS assessments (
			assessment_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			parsed_artifact_id TEXT NOT NULL,
			source_artifact_id TEXT NOT NULL,
			payload BLOB NOT NULL,
			overall_confidence REAL NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_assessments_tenant_parsed
			ON assessments(tenant_id, parsed_artifact_id);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) FindByInterpretation(ctx context.Context, tenantID, interpretationID string) (*promotion.RecordOfFact, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT record_id, tenant_id, record_type, source_artifact_id,
		       source_boundary_contract_id, interpretation_id, content,
		       confidence_score, promoted_by, promotion_reason, promoted_at
		FROM records_of_fact
		WHERE tenant_id = ? AND interpretation_id = ?`,
		tenantID, interpretationID)
	return scanRecord(row)
}

func (s *Store) Insert(ctx context.Context, rec *promotion.RecordOfFact) (*promotion.RecordOfFact, bool, error) {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO records_of_fact (
			record_id, tenant_id, record_type, source_artifact_id,
			source_boundary_contract_id, interpretation_id, content,
			confidence_score, promoted_by, promotion_reason, promoted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, interpretation_id) DO NOTHING`,
		rec.RecordID, rec.TenantID, rec.RecordType, rec.SourceArtifactID,
		rec.SourceBoundaryContractID, rec.InterpretationID, rec.Content,
		rec.ConfidenceScore, rec.PromotedBy, rec.PromotionReason, rec.PromotedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert record of fact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert record of fact: %w", err)
	}
	if affected == 0 {
		existing, err := s.FindByInterpretation(ctx, rec.TenantID, rec.InterpretationID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return rec, true, nil
}

func scanRecord(row *sql.Row) (*promotion.RecordOfFact, error) {
	var rec promotion.RecordOfFact
	var reason sql.NullString
	err := row.Scan(&rec.RecordID, &rec.TenantID, &rec.RecordType,
		&rec.SourceArtifactID, &rec.SourceBoundaryContractID,
		&rec.InterpretationID, &rec.Content, &rec.ConfidenceScore,
		&rec.PromotedBy, &reason, &rec.PromotedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, promotion.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record of fact: %w", err)
	}
	rec.PromotionReason = reason.String
	return &rec, nil
}

func (s *Store) SaveInterpretation(ctx context.Context, in *promotion.Interpretation) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO interpretations (
			id, tenant_id, file_id, parsed_result_id, embedding_id,
			guide_id, interpretation_type, interpretation_result,
			confidence_score, coverage_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.TenantID, in.FileID, in.ParsedResultID, in.EmbeddingID,
		in.GuideID, in.InterpretationType, in.Result,
		in.ConfidenceScore, in.CoverageScore, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("save interpretation %s: %w", in.ID, err)
	}
	return nil
}

func (s *Store) SaveAnalysis(ctx context.Context, an *promotion.Analysis) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO analyses (
			id, tenant_id, file_id, parsed_result_id, interpretation_id,
			analysis_type, analysis_result, deep_dive, agent_session_id,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		an.ID, an.TenantID, an.FileID, an.ParsedResultID,
		an.InterpretationID, an.AnalysisType, an.Result, an.DeepDive,
		an.AgentSessionID, an.CreatedAt)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", an.ID, err)
	}
	return nil
}

func (s *Store) ListInterpretations(ctx context.Context, tenantID, fileID string) ([]*promotion.Interpretation, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, tenant_id, file_id, parsed_result_id, embedding_id,
		       guide_id, interpretation_type, interpretation_result,
		       confidence_score, coverage_score, created_at
		FROM interpretations
		WHERE tenant_id = ? AND file_id = ?
		ORDER BY created_at, id`,
		tenantID, fileID)
	if err != nil {
		return nil, fmt.Errorf("list interpretations: %w", err)
	}
	defer rows.Close()

	var out []*promotion.Interpretation
	for rows.Next() {
		var in promotion.Interpretation
		var embeddingID, guideID sql.NullString
		if err := rows.Scan(&in.ID, &in.TenantID, &in.FileID,
			&in.ParsedResultID, &embeddingID, &guideID,
			&in.InterpretationType, &in.Result, &in.ConfidenceScore,
			&in.CoverageScore, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interpretation: %w", err)
		}
		in.EmbeddingID = embeddingID.String
		in.GuideID = guideID.String
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (s *Store) ListAnalyses(ctx context.Context, tenantID, interpretationID string) ([]*promotion.Analysis, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, tenant_id, file_id, parsed_result_id,
		       interpretation_id, analysis_type, analysis_result,
		       deep_dive, agent_session_id, created_at
		FROM analyses
		WHERE tenant_id = ? AND interpretation_id = ?
		ORDER BY created_at, id`,
		tenantID, interpretationID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*promotion.Analysis
	for rows.Next() {
		var an promotion.Analysis
		var sessionID sql.NullString
		if err := rows.Scan(&an.ID, &an.TenantID, &an.FileID,
			&an.ParsedResultID, &an.InterpretationID, &an.AnalysisType,
			&an.Result, &an.DeepDive, &sessionID, &an.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		an.AgentSessionID = sessionID.String
		out = append(out, &an)
	}
	return out, rows.Err()
}

// SaveAssessment persists a full assessment as JSON alongside its
// query columns. Assessments are create-once; the primary key rejects
// an accidental re-save of the same ID.
func (s *Store) SaveAssessment(ctx context.Context, a *quality.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment %s: %w", a.AssessmentID, err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO assessments (
			assessment_id, tenant_id, parsed_artifact_id,
			source_artifact_id, payload, overall_confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.AssessmentID, a.TenantID, a.ParsedArtifactID,
		a.SourceArtifactID, payload, a.OverallConfidence, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", a.AssessmentID, err)
	}
	return nil
}

// ListAssessments returns stored assessments for a parsed artifact,
// oldest first.
func (s *Store) ListAssessments(ctx context.Context, tenantID, parsedArtifactID string) ([]*quality.Assessment, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT payload FROM assessments
		WHERE tenant_id = ? AND parsed_artifact_id = ?
		ORDER BY created_at, assessment_id`,
		tenantID, parsedArtifactID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*quality.Assessment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		var a quality.Assessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode assessment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
