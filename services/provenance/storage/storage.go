// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage defines the narrow contracts the provenance core
// uses to reach external storage engines, plus an in-memory object
// store for tests. Concrete adapters live in the subpackages
// (badgerstore, gcs, sqlite).
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrObjectNotFound is returned when no object exists at a URI.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore holds raw materialization payloads keyed by URI.
//
// Implementations own retries and timeouts against the backing engine;
// the core treats each call as a single logical operation.
type ObjectStore interface {
	Put(ctx context.Context, uri string, data []byte) error
	Get(ctx context.Context, uri string) ([]byte, error)
	// Delete removes the object. Deleting a missing object returns
	// ErrObjectNotFound; callers decide whether that matters.
	Delete(ctx context.Context, uri string) error
}

var _ ObjectStore = (*MemObjectStore)(nil)

// MemObjectStore is an in-memory ObjectStore for tests and ephemeral
// environments.
type MemObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemObjectStore creates an empty in-memory object store.
func NewMemObjectStore() *MemObjectStore {
	return &MemObjectStore{objects: make(map[string][]byte)}
}

func (s *MemObjectStore) Put(ctx context.Context, uri string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[uri] = append([]byte(nil), data...)
	return nil
}

func (s *MemObjectStore) Get(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[uri]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemObjectStore) Delete(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[uri]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, uri)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (s *MemObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
