// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/ingest"
)

var _ ingest.IntentQueue = (*IntentQueue)(nil)

// IntentQueue persists pending intents in badger.
type IntentQueue struct {
	db *DB
}

// NewIntentQueue creates an intent queue over the database.
func NewIntentQueue(db *DB) (*IntentQueue, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &IntentQueue{db: db}, nil
}

func intentKey(tenantID, intentID string) []byte {
	return []byte("intent/" + tenantID + "/" + intentID)
}

func intentPrefix(tenantID string) []byte {
	return []byte("intent/" + tenantID + "/")
}

func (q *IntentQueue) Create(ctx context.Context, intent *ingest.PendingIntent) error {
	if !ingest.ValidIntentStatuses[intent.Status] {
		return ingest.ErrInvalidIntentStatus
	}
	return q.db.update(ctx, func(txn *badger.Txn) error {
		clone := *intent
		if clone.CreatedAt == 0 {
			clone.CreatedAt = artifact.NowMillis()
		}
		clone.UpdatedAt = clone.CreatedAt
		data, err := json.Marshal(&clone)
		if err != nil {
			return fmt.Errorf("encode intent %s: %w", intent.IntentID, err)
		}
		return txn.Set(intentKey(intent.TenantID, intent.IntentID), data)
	})
}

func (q *IntentQueue) ListPending(ctx context.Context, tenantID string) ([]*ingest.PendingIntent, error) {
	var out []*ingest.PendingIntent
	err := q.db.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         intentPrefix(tenantID),
			PrefetchValues: true,
			PrefetchSize:   64,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var intent ingest.PendingIntent
				if err := json.Unmarshal(val, &intent); err != nil {
					return fmt.Errorf("decode intent at %s: %w", it.Item().Key(), err)
				}
				if intent.Status == ingest.IntentPending {
					out = append(out, &intent)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Oldest first; intent ID stabilizes equal timestamps.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].IntentID < out[j].IntentID
	})
	return out, nil
}

func (q *IntentQueue) UpdateStatus(ctx context.Context, tenantID, intentID string, status ingest.IntentStatus) error {
	if !ingest.ValidIntentStatuses[status] {
		return fmt.Errorf("%w: %q", ingest.ErrInvalidIntentStatus, status)
	}
	return q.db.update(ctx, func(txn *badger.Txn) error {
		key := intentKey(tenantID, intentID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ingest.ErrIntentNotFound
		}
		if err != nil {
			return err
		}
		var intent ingest.PendingIntent
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &intent)
		}); err != nil {
			return fmt.Errorf("decode intent %s: %w", intentID, err)
		}
		intent.Status = status
		intent.UpdatedAt = artifact.NowMillis()
		data, err := json.Marshal(&intent)
		if err != nil {
			return fmt.Errorf("encode intent %s: %w", intentID, err)
		}
		return txn.Set(key, data)
	})
}
