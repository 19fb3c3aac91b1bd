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
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/lineage"
)

var _ lineage.EdgeStore = (*EdgeStore)(nil)

// EdgeStore persists lineage edges in badger. Parent lists keep
// insertion order; child lists stay sorted.
type EdgeStore struct {
	db *DB
}

// NewEdgeStore creates an edge store over the database.
func NewEdgeStore(db *DB) (*EdgeStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &EdgeStore{db: db}, nil
}

func parentsKey(tenantID, childID string) []byte {
	return []byte("parents/" + tenantID + "/" + childID)
}

func childrenKey(tenantID, parentID string) []byte {
	return []byte("children/" + tenantID + "/" + parentID)
}

func (s *EdgeStore) AddEdge(ctx context.Context, tenantID, childID, parentID string) error {
	return s.db.update(ctx, func(txn *badger.Txn) error {
		parents, err := readIDList(txn, parentsKey(tenantID, childID))
		if err != nil {
			return err
		}
		if !slices.Contains(parents, parentID) {
			if err := writeIDList(txn, parentsKey(tenantID, childID), append(parents, parentID)); err != nil {
				return err
			}
		}

		children, err := readIDList(txn, childrenKey(tenantID, parentID))
		if err != nil {
			return err
		}
		if !slices.Contains(children, childID) {
			children = append(children, childID)
			slices.Sort(children)
			if err := writeIDList(txn, childrenKey(tenantID, parentID), children); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *EdgeStore) Parents(ctx context.Context, tenantID, childID string) ([]string, error) {
	return s.readList(ctx, parentsKey(tenantID, childID))
}

func (s *EdgeStore) Children(ctx context.Context, tenantID, parentID string) ([]string, error) {
	return s.readList(ctx, childrenKey(tenantID, parentID))
}

func (s *EdgeStore) readList(ctx context.Context, key []byte) ([]string, error) {
	var ids []string
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		var err error
		ids, err = readIDList(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func readIDList(txn *badger.Txn, key []byte) ([]string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &ids)
	}); err != nil {
		return nil, fmt.Errorf("decode edge list at %s: %w", key, err)
	}
	return ids, nil
}

func writeIDList(txn *badger.Txn, key []byte, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode edge list at %s: %w", key, err)
	}
	return txn.Set(key, data)
}
