// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lifecycle archives and deletes artifacts.
//
// Archive is a soft delete: the record moves to ARCHIVED and its
// storage is retained. Delete is hard: materializations are removed
// from object storage, derived artifacts are cascaded first, and the
// root reference is removed last. Both operations are safely
// retryable.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/lineage"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

var tracer = otel.Tracer("symphainy/provenance/lifecycle")

var (
	archivesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "archives_total",
		Help:      "Archive operations by outcome",
	}, []string{"outcome"})

	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "deletes_total",
		Help:      "Delete operations by outcome",
	}, []string{"outcome"})

	deleteStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "delete_step_failures_total",
		Help:      "Non-fatal delete sub-step failures by step",
	}, []string{"step"})
)

// Delete sub-step names reported in StepFailure.
const (
	StepBlob            = "blob"
	StepDerivedArtifact = "derived_artifact"
)

// StepFailure records one non-fatal sub-step failure during a cascading
// delete. Callers get the exact failed steps instead of log text.
type StepFailure struct {
	Step       string `json:"step"`
	ArtifactID string `json:"artifact_id"`
	URI        string `json:"uri,omitempty"`
	Error      string `json:"error"`
}

// DeleteResult reports one delete operation.
type DeleteResult struct {
	Success bool `json:"success"`

	// AlreadyDeleted is true when the artifact was deleted before this
	// call; the call is then a no-op.
	AlreadyDeleted bool `json:"already_deleted"`

	// CascadedArtifacts lists derived artifacts this call moved to
	// DELETED, deepest first.
	CascadedArtifacts []string `json:"cascaded_artifacts,omitempty"`

	Failures []StepFailure `json:"failures,omitempty"`
}

// Controller performs archive and delete over the artifact store.
type Controller struct {
	artifacts artifact.Store
	lineage   *lineage.Index
	objects   storage.ObjectStore
	logger    *slog.Logger
}

// NewController creates a lifecycle controller.
func NewController(artifacts artifact.Store, idx *lineage.Index, objects storage.ObjectStore, logger *slog.Logger) (*Controller, error) {
	if artifacts == nil {
		return nil, errors.New("artifact store must not be nil")
	}
	if idx == nil {
		return nil, errors.New("lineage index must not be nil")
	}
	if objects == nil {
		return nil, errors.New("object store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{artifacts: artifacts, lineage: idx, objects: objects, logger: logger}, nil
}

// Archive soft-deletes the artifact. Re-archiving an ARCHIVED artifact
// succeeds and returns the current record. Archiving a DELETED
// artifact also returns the current record: delete always wins the
// race, and the caller sees the terminal state instead of an error.
func (c *Controller) Archive(ctx context.Context, tenantID, artifactID, reason string) (*artifact.Record, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.Controller.Archive")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("artifact_id", artifactID),
	)
	log := logging.WithTrace(ctx, c.logger)

	rec, err := c.artifacts.Get(ctx, tenantID, artifactID)
	if err != nil {
		archivesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	switch rec.LifecycleState {
	case artifact.StateArchived, artifact.StateDeleted:
		archivesTotal.WithLabelValues("noop").Inc()
		return rec, nil
	}

	updated, err := c.artifacts.UpdateLifecycle(ctx, tenantID, artifactID, artifact.StateArchived, reason)
	if err != nil {
		// The transition table only rejects ARCHIVED from DELETED, so
		// losing here means a concurrent delete won. Report the
		// terminal state rather than the race.
		if errors.Is(err, artifact.ErrInvalidTransition) {
			if current, getErr := c.artifacts.Get(ctx, tenantID, artifactID); getErr == nil && current.LifecycleState == artifact.StateDeleted {
				archivesTotal.WithLabelValues("noop").Inc()
				return current, nil
			}
		}
		archivesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	archivesTotal.WithLabelValues("ok").Inc()
	log.Info("artifact archived", "artifact_id", artifactID, "reason", reason)
	return updated, nil
}

// Delete hard-deletes the artifact and, when cascade is set, every
// artifact derived from it.
//
// Sub-steps run independently: blob removals and derived-artifact
// removals that fail are recorded in the result and do not abort the
// delete. Removing the root reference is last and fatal on failure; a
// dangling index entry is worse than a dangling blob. Deleting an
// already-deleted artifact is a successful no-op.
func (c *Controller) Delete(ctx context.Context, tenantID, artifactID string, cascade bool) (*DeleteResult, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.Controller.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("artifact_id", artifactID),
		attribute.Bool("cascade", cascade),
	)
	log := logging.WithTrace(ctx, c.logger)

	rec, err := c.artifacts.Get(ctx, tenantID, artifactID)
	if err != nil {
		deletesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if rec.LifecycleState == artifact.StateDeleted {
		deletesTotal.WithLabelValues("noop").Inc()
		return &DeleteResult{Success: true, AlreadyDeleted: true}, nil
	}

	result := &DeleteResult{}

	if cascade {
		c.cascadeDerived(ctx, tenantID, artifactID, result, log)
	}

	// Root blobs, then the root reference last.
	c.deleteBlobs(ctx, rec, result, log)
	if _, err := c.artifacts.UpdateLifecycle(ctx, tenantID, artifactID, artifact.StateDeleted, "deleted"); err != nil {
		deletesTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("delete root reference %s: %w", artifactID, err)
	}

	result.Success = true
	deletesTotal.WithLabelValues("ok").Inc()
	log.Info("artifact deleted",
		"artifact_id", artifactID,
		"cascaded", len(result.CascadedArtifacts),
		"failed_steps", len(result.Failures))
	return result, nil
}

// cascadeDerived removes all artifacts derived from the root, deepest
// first, so no surviving artifact ever references a deleted parent.
// Every derived removal is optional: failures are recorded, not
// raised.
func (c *Controller) cascadeDerived(ctx context.Context, tenantID, rootID string, result *DeleteResult, log *slog.Logger) {
	descendants, err := c.lineage.Descendants(ctx, tenantID, rootID)
	if err != nil {
		result.Failures = append(result.Failures, StepFailure{
			Step:       StepDerivedArtifact,
			ArtifactID: rootID,
			Error:      fmt.Sprintf("list descendants: %v", err),
		})
		deleteStepFailures.WithLabelValues(StepDerivedArtifact).Inc()
		return
	}

	// Descendants come back nearest first; walk them in reverse.
	for i := len(descendants) - 1; i >= 0; i-- {
		id := descendants[i]
		derived, err := c.artifacts.Get(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, artifact.ErrArtifactNotFound) {
				continue
			}
			result.Failures = append(result.Failures, StepFailure{
				Step:       StepDerivedArtifact,
				ArtifactID: id,
				Error:      err.Error(),
			})
			deleteStepFailures.WithLabelValues(StepDerivedArtifact).Inc()
			continue
		}
		if derived.LifecycleState == artifact.StateDeleted {
			continue
		}

		c.deleteBlobs(ctx, derived, result, log)
		if _, err := c.artifacts.UpdateLifecycle(ctx, tenantID, id, artifact.StateDeleted, "cascade delete of "+rootID); err != nil {
			result.Failures = append(result.Failures, StepFailure{
				Step:       StepDerivedArtifact,
				ArtifactID: id,
				Error:      err.Error(),
			})
			deleteStepFailures.WithLabelValues(StepDerivedArtifact).Inc()
			log.Warn("cascade delete of derived artifact failed", "artifact_id", id, "error", err)
			continue
		}
		result.CascadedArtifacts = append(result.CascadedArtifacts, id)
	}
}

// deleteBlobs removes an artifact's materializations from object
// storage. Missing objects are fine; a prior partial delete may have
// removed them already.
func (c *Controller) deleteBlobs(ctx context.Context, rec *artifact.Record, result *DeleteResult, log *slog.Logger) {
	for _, m := range rec.Materializations {
		err := c.objects.Delete(ctx, m.URI)
		if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		result.Failures = append(result.Failures, StepFailure{
			Step:       StepBlob,
			ArtifactID: rec.ArtifactID,
			URI:        m.URI,
			Error:      err.Error(),
		})
		deleteStepFailures.WithLabelValues(StepBlob).Inc()
		log.Warn("blob delete failed", "artifact_id", rec.ArtifactID, "uri", m.URI, "error", err)
	}
}
