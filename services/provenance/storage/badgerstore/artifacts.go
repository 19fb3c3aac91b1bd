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

	"github.com/dgraph-io/badger/v4"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
)

var _ artifact.Store = (*ArtifactStore)(nil)

// ArtifactStore persists artifact records in badger.
type ArtifactStore struct {
	db *DB
}

// NewArtifactStore creates an artifact store over the database.
func NewArtifactStore(db *DB) (*ArtifactStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &ArtifactStore{db: db}, nil
}

func artifactKey(tenantID, artifactID string) []byte {
	return []byte("artifact/" + tenantID + "/" + artifactID)
}

func artifactPrefix(tenantID string) []byte {
	return []byte("artifact/" + tenantID + "/")
}

func (s *ArtifactStore) Register(ctx context.Context, rec *artifact.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}

	created := false
	err := s.db.update(ctx, func(txn *badger.Txn) error {
		key := artifactKey(rec.TenantID, rec.ArtifactID)
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		for _, parent := range rec.ParentArtifacts {
			if _, err := txn.Get(artifactKey(rec.TenantID, parent)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return artifact.ErrUnknownParent
				}
				return err
			}
		}

		clone := rec.Clone()
		if clone.CreatedAt == 0 {
			clone.CreatedAt = artifact.NowMillis()
		}
		clone.UpdatedAt = clone.CreatedAt
		data, err := json.Marshal(clone)
		if err != nil {
			return fmt.Errorf("encode artifact %s: %w", rec.ArtifactID, err)
		}
		created = true
		return txn.Set(key, data)
	})
	return created, err
}

func (s *ArtifactStore) Get(ctx context.Context, tenantID, artifactID string) (*artifact.Record, error) {
	var rec *artifact.Record
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = readArtifact(txn, tenantID, artifactID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *ArtifactStore) AddMaterialization(ctx context.Context, tenantID, artifactID string, m artifact.Materialization) error {
	return s.db.update(ctx, func(txn *badger.Txn) error {
		rec, err := readArtifact(txn, tenantID, artifactID)
		if err != nil {
			return err
		}
		rec.Materializations = append(rec.Materializations, m)
		rec.UpdatedAt = artifact.NowMillis()
		return writeArtifact(txn, rec)
	})
}

func (s *ArtifactStore) UpdateLifecycle(ctx context.Context, tenantID, artifactID string, next artifact.LifecycleState, reason string) (*artifact.Record, error) {
	var updated *artifact.Record
	err := s.db.update(ctx, func(txn *badger.Txn) error {
		rec, err := readArtifact(txn, tenantID, artifactID)
		if err != nil {
			return err
		}
		if err := artifact.ApplyTransition(rec, next, reason); err != nil {
			return err
		}
		if err := writeArtifact(txn, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ArtifactStore) List(ctx context.Context, tenantID string) ([]*artifact.Record, error) {
	var out []*artifact.Record
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         artifactPrefix(tenantID),
			PrefetchValues: true,
			PrefetchSize:   64,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec artifact.Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode artifact at %s: %w", it.Item().Key(), err)
				}
				out = append(out, &rec)
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
	return out, nil
}

func readArtifact(txn *badger.Txn, tenantID, artifactID string) (*artifact.Record, error) {
	item, err := txn.Get(artifactKey(tenantID, artifactID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, artifact.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec artifact.Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", artifactID, err)
	}
	return &rec, nil
}

func writeArtifact(txn *badger.Txn, rec *artifact.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", rec.ArtifactID, err)
	}
	return txn.Set(artifactKey(rec.TenantID, rec.ArtifactID), data)
}
