// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
)

// IntentStatus is the processing state of a pending downstream job.
type IntentStatus string

const (
	IntentPending    IntentStatus = "PENDING"
	IntentInProgress IntentStatus = "IN_PROGRESS"
	IntentCompleted  IntentStatus = "COMPLETED"
	IntentFailed     IntentStatus = "FAILED"
)

// ValidIntentStatuses is the set of recognized intent statuses.
var ValidIntentStatuses = map[IntentStatus]bool{
	IntentPending:    true,
	IntentInProgress: true,
	IntentCompleted:  true,
	IntentFailed:     true,
}

// Sentinel errors for intent operations.
var (
	ErrIntentNotFound      = errors.New("pending intent not found")
	ErrInvalidIntentStatus = errors.New("invalid intent status")
)

// PendingIntent is a durable record of follow-up work scheduled when an
// artifact was committed. It carries enough context for a later worker
// to resume the parse without re-deriving anything.
type PendingIntent struct {
	IntentID   string       `json:"intent_id"`
	TenantID   string       `json:"tenant_id"`
	ArtifactID string       `json:"artifact_id"`
	Kind       string       `json:"kind"`
	Status     IntentStatus `json:"status"`

	// IngestionProfile records how the artifact arrived ("upload",
	// "edi", "api").
	IngestionProfile string `json:"ingestion_profile"`

	// FileType is the declared content type, e.g. "csv".
	FileType string `json:"file_type"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// IntentQueue persists pending intents.
type IntentQueue interface {
	Create(ctx context.Context, intent *PendingIntent) error
	// ListPending returns intents with status PENDING for the tenant,
	// oldest first.
	ListPending(ctx context.Context, tenantID string) ([]*PendingIntent, error)
	// UpdateStatus moves an intent to a new status. Unknown intents
	// return ErrIntentNotFound.
	UpdateStatus(ctx context.Context, tenantID, intentID string, status IntentStatus) error
}

var _ IntentQueue = (*MemIntentQueue)(nil)

// MemIntentQueue is an in-memory IntentQueue for tests.
type MemIntentQueue struct {
	mu      sync.RWMutex
	intents map[string]map[string]*PendingIntent // tenant -> intent id
}

// NewMemIntentQueue creates an empty in-memory intent queue.
func NewMemIntentQueue() *MemIntentQueue {
	return &MemIntentQueue{intents: make(map[string]map[string]*PendingIntent)}
}

func (q *MemIntentQueue) Create(ctx context.Context, intent *PendingIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidIntentStatuses[intent.Status] {
		return ErrInvalidIntentStatus
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	byID := q.intents[intent.TenantID]
	if byID == nil {
		byID = make(map[string]*PendingIntent)
		q.intents[intent.TenantID] = byID
	}
	clone := *intent
	if clone.CreatedAt == 0 {
		clone.CreatedAt = artifact.NowMillis()
	}
	clone.UpdatedAt = clone.CreatedAt
	byID[intent.IntentID] = &clone
	return nil
}

func (q *MemIntentQueue) ListPending(ctx context.Context, tenantID string) ([]*PendingIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []*PendingIntent
	for _, intent := range q.intents[tenantID] {
		if intent.Status == IntentPending {
			clone := *intent
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].IntentID < out[j].IntentID
	})
	return out, nil
}

func (q *MemIntentQueue) UpdateStatus(ctx context.Context, tenantID, intentID string, status IntentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidIntentStatuses[status] {
		return ErrInvalidIntentStatus
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	intent, ok := q.intents[tenantID][intentID]
	if !ok {
		return ErrIntentNotFound
	}
	intent.Status = status
	intent.UpdatedAt = artifact.NowMillis()
	return nil
}
