// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package artifact

import (
	"context"
	"sync"
)

// Compile-time contract assertion.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store for tests and ephemeral environments.
// Records are keyed by tenant then artifact ID and deep-copied on every
// read and write.
type MemStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]*Record
}

// NewMemStore creates an empty in-memory artifact store.
func NewMemStore() *MemStore {
	return &MemStore{tenants: make(map[string]map[string]*Record)}
}

func (s *MemStore) Register(ctx context.Context, rec *Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := rec.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tenants[rec.TenantID]
	if byID == nil {
		byID = make(map[string]*Record)
		s.tenants[rec.TenantID] = byID
	}
	if _, exists := byID[rec.ArtifactID]; exists {
		return false, nil
	}
	// Parents must have existed before the child: no forward references,
	// which is what keeps lineage acyclic.
	for _, parent := range rec.ParentArtifacts {
		if _, ok := byID[parent]; !ok {
			return false, ErrUnknownParent
		}
	}

	clone := rec.Clone()
	if clone.CreatedAt == 0 {
		clone.CreatedAt = NowMillis()
	}
	clone.UpdatedAt = clone.CreatedAt
	byID[rec.ArtifactID] = clone
	return true, nil
}

func (s *MemStore) Get(ctx context.Context, tenantID, artifactID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tenants[tenantID][artifactID]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return rec.Clone(), nil
}

func (s *MemStore) AddMaterialization(ctx context.Context, tenantID, artifactID string, m Materialization) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tenants[tenantID][artifactID]
	if !ok {
		return ErrArtifactNotFound
	}
	rec.Materializations = append(rec.Materializations, m)
	rec.UpdatedAt = NowMillis()
	return nil
}

func (s *MemStore) UpdateLifecycle(ctx context.Context, tenantID, artifactID string, next LifecycleState, reason string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tenants[tenantID][artifactID]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	if err := ApplyTransition(rec, next, reason); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *MemStore) List(ctx context.Context, tenantID string) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.tenants[tenantID]
	out := make([]*Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec.Clone())
	}
	return out, nil
}
