// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promotion

import (
	"context"
	"fmt"
	"sync"
)

// MemRecordStore is an in-memory RecordStore for tests and
// single-process deployments.
type MemRecordStore struct {
	mu sync.RWMutex
	// byKey maps tenantID -> interpretationID -> record.
	byKey map[string]map[string]*RecordOfFact
}

var _ RecordStore = (*MemRecordStore)(nil)

// NewMemRecordStore creates an empty in-memory record store.
func NewMemRecordStore() *MemRecordStore {
	return &MemRecordStore{byKey: make(map[string]map[string]*RecordOfFact)}
}

func (m *MemRecordStore) FindByInterpretation(_ context.Context, tenantID, interpretationID string) (*RecordOfFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byKey[tenantID][interpretationID]
	if !ok {
		return nil, fmt.Errorf("%w: tenant %s interpretation %s", ErrRecordNotFound, tenantID, interpretationID)
	}
	return cloneRecord(rec), nil
}

func (m *MemRecordStore) Insert(_ context.Context, rec *RecordOfFact) (*RecordOfFact, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenant, ok := m.byKey[rec.TenantID]
	if !ok {
		tenant = make(map[string]*RecordOfFact)
		m.byKey[rec.TenantID] = tenant
	}
	if existing, ok := tenant[rec.InterpretationID]; ok {
		return cloneRecord(existing), false, nil
	}
	tenant[rec.InterpretationID] = cloneRecord(rec)
	return cloneRecord(rec), true, nil
}

func cloneRecord(rec *RecordOfFact) *RecordOfFact {
	clone := *rec
	if rec.Content != nil {
		clone.Content = append([]byte(nil), rec.Content...)
	}
	return &clone
}
