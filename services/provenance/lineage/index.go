// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lineage maintains the parent/child DAG over artifact IDs.
//
// Edges point from a child artifact to its immediate sources. Because
// the artifact store rejects parents that do not exist at creation
// time, the graph is acyclic by construction; traversals still carry a
// visited set so a corrupted edge store cannot loop them.
package lineage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds ancestor traversal when the caller passes no
// explicit limit.
const DefaultMaxDepth = 32

// Sentinel errors for lineage operations.
var (
	ErrEmptyArtifactID = errors.New("artifact id must not be empty")
	ErrSelfEdge        = errors.New("artifact cannot be its own parent")
)

// EdgeStore persists lineage edges. Implementations must be safe for
// concurrent use; AddEdge is idempotent (re-adding an edge is a no-op).
type EdgeStore interface {
	AddEdge(ctx context.Context, tenantID, childID, parentID string) error
	Parents(ctx context.Context, tenantID, childID string) ([]string, error)
	Children(ctx context.Context, tenantID, parentID string) ([]string, error)
}

// Index answers lineage queries over an EdgeStore.
type Index struct {
	edges EdgeStore
}

// NewIndex creates a lineage index over the given edge store.
func NewIndex(edges EdgeStore) (*Index, error) {
	if edges == nil {
		return nil, errors.New("edge store must not be nil")
	}
	return &Index{edges: edges}, nil
}

// AddEdge records that child was derived from parent.
func (x *Index) AddEdge(ctx context.Context, tenantID, childID, parentID string) error {
	if childID == "" || parentID == "" {
		return ErrEmptyArtifactID
	}
	if childID == parentID {
		return ErrSelfEdge
	}
	if err := x.edges.AddEdge(ctx, tenantID, childID, parentID); err != nil {
		return fmt.Errorf("add lineage edge %s -> %s: %w", childID, parentID, err)
	}
	return nil
}

// Ancestors returns every transitive source of the artifact, root-first:
// the deepest sources come before the artifact's direct parents. The
// artifact itself is not included. maxDepth <= 0 applies DefaultMaxDepth.
func (x *Index) Ancestors(ctx context.Context, tenantID, artifactID string, maxDepth int) ([]string, error) {
	if artifactID == "" {
		return nil, ErrEmptyArtifactID
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := map[string]bool{artifactID: true}
	var ordered []string

	// Post-order walk: parents of parents land in ordered before the
	// direct parents, which yields the root-first contract.
	var walk func(id string, depth int) error
	walk = func(id string, depth int) error {
		if depth > maxDepth {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		parents, err := x.edges.Parents(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("parents of %s: %w", id, err)
		}
		for _, parent := range parents {
			if visited[parent] {
				continue
			}
			visited[parent] = true
			if err := walk(parent, depth+1); err != nil {
				return err
			}
			ordered = append(ordered, parent)
		}
		return nil
	}

	if err := walk(artifactID, 1); err != nil {
		return nil, err
	}
	return ordered, nil
}

// Descendants returns every artifact transitively derived from the
// given one, nearest-first (direct children before grandchildren). The
// artifact itself is not included.
func (x *Index) Descendants(ctx context.Context, tenantID, artifactID string) ([]string, error) {
	if artifactID == "" {
		return nil, ErrEmptyArtifactID
	}

	visited := map[string]bool{artifactID: true}
	queue := []string{artifactID}
	var ordered []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]

		children, err := x.edges.Children(ctx, tenantID, id)
		if err != nil {
			return nil, fmt.Errorf("children of %s: %w", id, err)
		}
		for _, child := range children {
			if visited[child] {
				continue
			}
			visited[child] = true
			ordered = append(ordered, child)
			queue = append(queue, child)
		}
	}
	return ordered, nil
}
