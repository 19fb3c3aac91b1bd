// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lineage

import (
	"context"
	"sort"
	"sync"
)

var _ EdgeStore = (*MemEdgeStore)(nil)

// MemEdgeStore is an in-memory EdgeStore for tests and ephemeral use.
// Parent lists preserve insertion order; child lists are returned
// sorted for deterministic traversal.
type MemEdgeStore struct {
	mu       sync.RWMutex
	parents  map[string]map[string][]string        // tenant -> child -> ordered parents
	children map[string]map[string]map[string]bool // tenant -> parent -> child set
}

// NewMemEdgeStore creates an empty in-memory edge store.
func NewMemEdgeStore() *MemEdgeStore {
	return &MemEdgeStore{
		parents:  make(map[string]map[string][]string),
		children: make(map[string]map[string]map[string]bool),
	}
}

func (s *MemEdgeStore) AddEdge(ctx context.Context, tenantID, childID, parentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byChild := s.parents[tenantID]
	if byChild == nil {
		byChild = make(map[string][]string)
		s.parents[tenantID] = byChild
	}
	for _, existing := range byChild[childID] {
		if existing == parentID {
			return nil
		}
	}
	byChild[childID] = append(byChild[childID], parentID)

	byParent := s.children[tenantID]
	if byParent == nil {
		byParent = make(map[string]map[string]bool)
		s.children[tenantID] = byParent
	}
	if byParent[parentID] == nil {
		byParent[parentID] = make(map[string]bool)
	}
	byParent[parentID][childID] = true
	return nil
}

func (s *MemEdgeStore) Parents(ctx context.Context, tenantID, childID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.parents[tenantID][childID]...), nil
}

func (s *MemEdgeStore) Children(ctx context.Context, tenantID, parentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.children[tenantID][parentID]
	out := make([]string, 0, len(set))
	for child := range set {
		out = append(out, child)
	}
	sort.Strings(out)
	return out, nil
}
