// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/lineage"
)

// Scoring constants. These are part of the gate's replayable contract:
// changing any of them changes historical comparability, so they are
// compiled in rather than configured.
const (
	scoreGood    = 0.95
	scorePoor    = 0.3
	scoreUnknown = 0.5

	parsingBase   = 0.7
	embeddingBase = 0.6
	exactBonus    = 0.3
	highPenalty   = 0.2
	mediumPenalty = 0.1

	// lowEmbeddingConfidence is the semantic-embedding confidence
	// below which the source is suspected faded or corrupted.
	lowEmbeddingConfidence = 0.7

	// confidenceThreshold triggers bad_scan / bad_schema issues.
	confidenceThreshold = 0.7

	rootCauseBase      = 0.5
	rootCausePerIssue  = 0.15
	rootCauseCap       = 0.95
	rootCauseNoneScore = 0.9

	// poorHighCount is the number of high-severity issues on one axis
	// that degrades its status from "issues" to "poor".
	poorHighCount = 2
)

var tracer = otel.Tracer("symphainy/provenance/quality")

var (
	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "assessments_total",
		Help:      "Quality gate runs by outcome",
	}, []string{"outcome"})

	assessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "assessment_duration_seconds",
		Help:      "Time to compute one assessment",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	overallConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "assessment_overall_confidence",
		Help:      "Distribution of overall confidence scores",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
)

// Request identifies what to assess.
type Request struct {
	TenantID         string
	ParsedArtifactID string
	SourceArtifactID string
	ParserType       string

	// DeterministicEmbeddingID is optional; without it the embedding
	// axis is scored unknown.
	DeterministicEmbeddingID string
}

// Gate computes confidence assessments.
type Gate struct {
	artifacts artifact.Store
	lineage   *lineage.Index
	source    ContentSource
	sink      AssessmentSink
	hasSink   bool
	logger    *slog.Logger
}

// NewGate creates a quality gate.
//
// sink may be nil; the gate then returns assessments without
// persisting them. The capability is fixed here, at construction,
// rather than probed per call.
func NewGate(artifacts artifact.Store, idx *lineage.Index, source ContentSource, sink AssessmentSink, logger *slog.Logger) (*Gate, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if idx == nil {
		return nil, errors.New("lineage index must not be nil")
	}
	if source == nil {
		return nil, errors.New("content source must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		artifacts: artifacts,
		lineage:   idx,
		source:    source,
		sink:      sink,
		hasSink:   sink != nil,
		logger:    logger,
	}, nil
}

// inputs are the fetched raw materials of one assessment.
type inputs struct {
	parsed    *ParsedContent
	parsedErr error
	embedding *StructuralEmbedding
	semantic  []SemanticEmbedding
	meta      map[string]string
}

// Assess scores the parsed artifact against its source.
//
// Identical inputs yield identical assessments apart from the
// generated AssessmentID and timestamp. When the parsed content cannot
// be retrieved at all, Assess returns a degraded assessment (overall
// confidence zero, Error set) instead of an error: the caller decides
// how to react to missing inputs.
func (g *Gate) Assess(ctx context.Context, req Request) (*Assessment, error) {
	ctx, span := tracer.Start(ctx, "quality.Gate.Assess")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("parsed_artifact_id", req.ParsedArtifactID),
		attribute.String("parser_type", req.ParserType),
	)
	log := logging.WithTrace(ctx, g.logger)
	start := time.Now()

	parsedRec, err := g.artifacts.Get(ctx, req.TenantID, req.ParsedArtifactID)
	if err != nil {
		assessmentsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parsed artifact %s: %w", req.ParsedArtifactID, err)
	}
	if _, err := g.artifacts.Get(ctx, req.TenantID, req.SourceArtifactID); err != nil {
		assessmentsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("source artifact %s: %w", req.SourceArtifactID, err)
	}
	if !contains(parsedRec.ParentArtifacts, req.SourceArtifactID) {
		log.Warn("source artifact is not a direct parent of parsed artifact",
			"parsed_artifact_id", req.ParsedArtifactID,
			"source_artifact_id", req.SourceArtifactID)
	}

	in := g.fetchInputs(ctx, req, log)

	a := &Assessment{
		AssessmentID:     uuid.NewString(),
		TenantID:         req.TenantID,
		ParsedArtifactID: req.ParsedArtifactID,
		SourceArtifactID: req.SourceArtifactID,
		ParserType:       req.ParserType,
		CreatedAt:        artifact.NowMillis(),
	}

	if in.parsedErr != nil {
		// Degraded path: nothing to score.
		a.ParsingStatus = StatusFailed
		a.EmbeddingStatus = StatusUnknown
		a.RootCause = RootCause{PrimaryIssue: PrimaryNone}
		a.Error = fmt.Sprintf("parsed content unavailable: %v", in.parsedErr)
		assessmentsTotal.WithLabelValues("degraded").Inc()
		span.SetStatus(codes.Error, a.Error)
		g.persist(ctx, a, log)
		return a, nil
	}

	g.score(a, in)

	assessmentsTotal.WithLabelValues("ok").Inc()
	assessmentDuration.Observe(time.Since(start).Seconds())
	overallConfidence.Observe(a.OverallConfidence)
	log.Info("assessment computed",
		"assessment_id", a.AssessmentID,
		"parsed_artifact_id", req.ParsedArtifactID,
		"overall_confidence", a.OverallConfidence,
		"primary_issue", a.RootCause.PrimaryIssue,
		"issue_count", len(a.Issues))

	g.persist(ctx, a, log)
	return a, nil
}

// fetchInputs retrieves the assessment inputs concurrently. Only the
// parsed content is mandatory; the other fetches degrade to absence.
func (g *Gate) fetchInputs(ctx context.Context, req Request, log *slog.Logger) *inputs {
	in := &inputs{}
	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		parsed, err := g.source.ParsedContent(grpCtx, req.TenantID, req.ParsedArtifactID)
		if err != nil {
			in.parsedErr = err
			return nil
		}
		in.parsed = parsed
		return nil
	})

	if req.DeterministicEmbeddingID != "" {
		grp.Go(func() error {
			emb, err := g.source.StructuralEmbedding(grpCtx, req.TenantID, req.DeterministicEmbeddingID)
			if err != nil {
				log.Warn("deterministic embedding unavailable",
					"embedding_id", req.DeterministicEmbeddingID, "error", err)
				return nil
			}
			in.embedding = emb
			return nil
		})
	}

	grp.Go(func() error {
		semantic, err := g.source.SemanticEmbeddings(grpCtx, req.TenantID, req.SourceArtifactID)
		if err != nil {
			log.Warn("semantic embeddings unavailable",
				"source_artifact_id", req.SourceArtifactID, "error", err)
			return nil
		}
		in.semantic = semantic
		return nil
	})

	grp.Go(func() error {
		meta, err := g.source.SourceMetadata(grpCtx, req.TenantID, req.SourceArtifactID)
		if err != nil {
			log.Warn("source metadata unavailable",
				"source_artifact_id", req.SourceArtifactID, "error", err)
			return nil
		}
		in.meta = meta
		return nil
	})

	// Goroutines stash their outcomes instead of failing the group, so
	// Wait only surfaces a programming error.
	_ = grp.Wait()
	return in
}

// score fills in issues, statuses, confidences, root cause, and
// threshold issues. Pure computation, deterministic by construction:
// checks run in a fixed order and all collections are sorted.
func (g *Gate) score(a *Assessment, in *inputs) {
	pIssues := parsingIssues(in.parsed)
	a.ParsingStatus = parsingStatus(in.parsed, pIssues)

	var eIssues []Issue
	if in.embedding != nil {
		eIssues, a.SchemaMatch = embeddingIssues(in.parsed, in.embedding)
		a.EmbeddingStatus = embeddingStatus(eIssues, a.SchemaMatch)
	} else {
		a.EmbeddingStatus = StatusUnknown
	}

	dIssues := dataIssues(in.parsed, in.semantic)
	sIssues := sourceIssues(a.ParserType, in.parsed, in.meta)

	a.Issues = append(a.Issues, pIssues...)
	a.Issues = append(a.Issues, eIssues...)
	a.Issues = append(a.Issues, dIssues...)
	a.Issues = append(a.Issues, sIssues...)

	a.ParsingConfidence = parsingConfidence(a.ParsingStatus, a.Issues)
	a.EmbeddingConfidence = embeddingConfidence(a.EmbeddingStatus, a.SchemaMatch, a.Issues)
	a.OverallConfidence = (a.ParsingConfidence + a.EmbeddingConfidence) / 2

	a.RootCause = attributeRootCause(a.Issues)

	// Threshold issues come last: they report on the scores and do not
	// feed back into them or into root cause.
	if a.ParsingConfidence < confidenceThreshold {
		a.Issues = append(a.Issues, Issue{
			Type:       IssueBadScan,
			Severity:   SeverityHigh,
			Dimension:  DimensionParsing,
			Suggestion: "parsing confidence below threshold; rescan or re-upload the source document",
		})
	}
	if a.EmbeddingStatus != StatusUnknown && a.EmbeddingConfidence < confidenceThreshold {
		a.Issues = append(a.Issues, Issue{
			Type:       IssueBadSchema,
			Severity:   SeverityHigh,
			Dimension:  DimensionEmbedding,
			Suggestion: "embedding confidence below threshold; regenerate the deterministic embedding or review parser configuration",
		})
	}
}

func embeddingStatus(issues []Issue, match *SchemaMatch) Status {
	high, _ := countBySeverity(issues, DimensionEmbedding)
	switch {
	case len(issues) == 0 && match.ExactMatch:
		return StatusGood
	case high >= poorHighCount:
		return StatusPoor
	case len(issues) == 0:
		return StatusGood
	default:
		return StatusIssues
	}
}

func parsingConfidence(status Status, issues []Issue) float64 {
	switch status {
	case StatusGood:
		return scoreGood
	case StatusPoor, StatusFailed:
		return scorePoor
	case StatusUnknown:
		return scoreUnknown
	}
	high, med := countBySeverity(issues, DimensionParsing)
	return max(0, parsingBase-highPenalty*float64(high)-mediumPenalty*float64(med))
}

func embeddingConfidence(status Status, match *SchemaMatch, issues []Issue) float64 {
	switch status {
	case StatusUnknown:
		return scoreUnknown
	case StatusPoor:
		return scorePoor
	case StatusGood:
		if match != nil && match.ExactMatch {
			return scoreGood
		}
	}
	exact := 0.0
	if match != nil && match.ExactMatch {
		exact = 1.0
	}
	high, med := countBySeverity(issues, DimensionEmbedding)
	return clamp01(embeddingBase + exactBonus*exact - highPenalty*float64(high) - mediumPenalty*float64(med))
}

// attributeRootCause blames the dimension with strictly the most
// high-severity issues, ties resolved parsing > data > source. With no
// high-severity issues anywhere the primary issue is none.
func attributeRootCause(issues []Issue) RootCause {
	counts := map[PrimaryIssue]int{}
	for _, issue := range issues {
		if issue.Severity != SeverityHigh {
			continue
		}
		switch issue.Dimension {
		case DimensionParsing:
			counts[PrimaryParsing]++
		case DimensionData:
			counts[PrimaryData]++
		case DimensionSource:
			counts[PrimarySource]++
		}
	}

	primary := PrimaryNone
	best := 0
	for _, dim := range []PrimaryIssue{PrimaryParsing, PrimaryData, PrimarySource} {
		if counts[dim] > best {
			best = counts[dim]
			primary = dim
		}
	}

	if primary == PrimaryNone {
		return RootCause{PrimaryIssue: PrimaryNone, Confidence: rootCauseNoneScore}
	}
	return RootCause{
		PrimaryIssue:    primary,
		Confidence:      min(rootCauseCap, rootCauseBase+rootCausePerIssue*float64(best)),
		Recommendations: recommendations[primary],
	}
}

var recommendations = map[PrimaryIssue][]string{
	PrimaryParsing: {
		"re-run the parse with the correct parser type",
		"inspect parser error output before re-ingesting",
	},
	PrimaryData: {
		"verify the source produced records",
		"regenerate embeddings from a cleaner copy of the source",
	},
	PrimarySource: {
		"check the source file against its structural definition",
		"request a fresh export from the upstream system",
	},
}

func (g *Gate) persist(ctx context.Context, a *Assessment, log *slog.Logger) {
	if !g.hasSink {
		return
	}
	if err := g.sink.SaveAssessment(ctx, a); err != nil {
		// The assessment is still returned; persistence is an audit
		// concern, not a gating one.
		log.Error("persist assessment failed", "assessment_id", a.AssessmentID, "error", err)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
