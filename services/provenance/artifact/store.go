// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package artifact

import (
	"context"
	"fmt"
)

// Store is the persistence contract for artifact records.
//
// Implementations must make every mutating operation idempotent-safe:
// duplicate Register is a no-op, AddMaterialization is append-only,
// and UpdateLifecycle enforces the transition table. The store never
// guarantees at-most-one-writer; callers rely on these idempotency
// properties instead of locks.
type Store interface {
	// Register persists a new record. Returns false when an artifact
	// with the same ID already exists for the tenant; the existing
	// record is left untouched so retried registrations are harmless.
	// Parents must already exist (ErrUnknownParent otherwise).
	Register(ctx context.Context, rec *Record) (bool, error)

	// Get returns the record, or ErrArtifactNotFound.
	Get(ctx context.Context, tenantID, artifactID string) (*Record, error)

	// AddMaterialization appends a materialization to an existing
	// artifact. Returns ErrArtifactNotFound for unknown artifacts.
	AddMaterialization(ctx context.Context, tenantID, artifactID string, m Materialization) error

	// UpdateLifecycle moves the artifact to a new state after checking
	// the transition table, stamping the reason and timestamps. Illegal
	// moves return ErrInvalidTransition. Transitioning to DELETED drops
	// all live materializations. Returns the updated record.
	UpdateLifecycle(ctx context.Context, tenantID, artifactID string, next LifecycleState, reason string) (*Record, error)

	// List returns every record for the tenant, in unspecified order.
	List(ctx context.Context, tenantID string) ([]*Record, error)
}

// ApplyTransition mutates rec in place to the next lifecycle state,
// returning ErrInvalidTransition for illegal moves. Shared by Store
// implementations so the state machine lives in exactly one place.
func ApplyTransition(rec *Record, next LifecycleState, reason string) error {
	if !ValidStates[next] {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, next)
	}
	if !CanTransition(rec.LifecycleState, next) {
		return fmt.Errorf("%w: %s -> %s (artifact %s)",
			ErrInvalidTransition, rec.LifecycleState, next, rec.ArtifactID)
	}

	now := NowMillis()
	rec.LifecycleState = next
	rec.StateReason = reason
	rec.UpdatedAt = now
	switch next {
	case StateArchived:
		rec.ArchivedAt = now
	case StateDeleted:
		// Terminal state: a deleted artifact has zero live materializations.
		rec.Materializations = nil
	}
	return nil
}
