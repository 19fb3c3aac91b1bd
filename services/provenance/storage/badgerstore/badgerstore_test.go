// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/ingest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestOpenPersistent(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.GCInterval = 0
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestArtifactStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	rec := &artifact.Record{
		ArtifactID:     "a1",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t1",
		LifecycleState: artifact.StatePending,
		SourceMetadata: map[string]string{"filename": "x.csv"},
		Materializations: []artifact.Materialization{{
			MaterializationID: "m1",
			StorageType:       "object",
			URI:               "raw/a1",
		}},
	}
	created, err := store.Register(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := store.Get(ctx, "t1", "a1")
	require.NoError(t, err)
	assert.Equal(t, artifact.StatePending, got.LifecycleState)
	assert.Equal(t, rec.Materializations, got.Materializations)
	assert.NotZero(t, got.CreatedAt)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestArtifactStoreDuplicateRegister(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	rec := &artifact.Record{
		ArtifactID:     "a1",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t1",
		LifecycleState: artifact.StatePending,
	}
	created, err := store.Register(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	again := &artifact.Record{
		ArtifactID:     "a1",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t1",
		LifecycleState: artifact.StateReady,
	}
	created, err = store.Register(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)

	// The original record is untouched.
	got, err := store.Get(ctx, "t1", "a1")
	require.NoError(t, err)
	assert.Equal(t, artifact.StatePending, got.LifecycleState)
}

func TestArtifactStoreUnknownParent(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)

	rec := &artifact.Record{
		ArtifactID:      "child",
		ArtifactType:    artifact.TypeParsedContent,
		TenantID:        "t1",
		LifecycleState:  artifact.StatePending,
		ParentArtifacts: []string{"no-such-parent"},
	}
	_, err = store.Register(context.Background(), rec)
	assert.ErrorIs(t, err, artifact.ErrUnknownParent)
}

func TestArtifactStoreLifecycle(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Register(ctx, &artifact.Record{
		ArtifactID:     "a1",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t1",
		LifecycleState: artifact.StatePending,
		Materializations: []artifact.Materialization{{
			MaterializationID: "m1", StorageType: "object", URI: "raw/a1",
		}},
	})
	require.NoError(t, err)

	updated, err := store.UpdateLifecycle(ctx, "t1", "a1", artifact.StateReady, "committed")
	require.NoError(t, err)
	assert.Equal(t, artifact.StateReady, updated.LifecycleState)

	_, err = store.UpdateLifecycle(ctx, "t1", "a1", artifact.StatePending, "rollback")
	assert.ErrorIs(t, err, artifact.ErrInvalidTransition)

	deleted, err := store.UpdateLifecycle(ctx, "t1", "a1", artifact.StateDeleted, "gone")
	require.NoError(t, err)
	assert.Empty(t, deleted.Materializations)

	_, err = store.UpdateLifecycle(ctx, "t1", "no-such", artifact.StateReady, "")
	assert.ErrorIs(t, err, artifact.ErrArtifactNotFound)
}

func TestArtifactStoreAddMaterialization(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Register(ctx, &artifact.Record{
		ArtifactID:     "a1",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t1",
		LifecycleState: artifact.StatePending,
	})
	require.NoError(t, err)

	m := artifact.Materialization{MaterializationID: "m1", StorageType: "object", URI: "committed/a1"}
	require.NoError(t, store.AddMaterialization(ctx, "t1", "a1", m))

	got, err := store.Get(ctx, "t1", "a1")
	require.NoError(t, err)
	require.Len(t, got.Materializations, 1)
	assert.Equal(t, "committed/a1", got.Materializations[0].URI)

	err = store.AddMaterialization(ctx, "t1", "no-such", m)
	assert.ErrorIs(t, err, artifact.ErrArtifactNotFound)
}

func TestArtifactStoreList(t *testing.T) {
	db := openTestDB(t)
	store, err := NewArtifactStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		_, err := store.Register(ctx, &artifact.Record{
			ArtifactID:     id,
			ArtifactType:   artifact.TypeFile,
			TenantID:       "t1",
			LifecycleState: artifact.StatePending,
		})
		require.NoError(t, err)
	}
	_, err = store.Register(ctx, &artifact.Record{
		ArtifactID:     "other",
		ArtifactType:   artifact.TypeFile,
		TenantID:       "t2",
		LifecycleState: artifact.StatePending,
	})
	require.NoError(t, err)

	records, err := store.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestEdgeStore(t *testing.T) {
	db := openTestDB(t)
	edges, err := NewEdgeStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, edges.AddEdge(ctx, "t1", "child", "parent-b"))
	require.NoError(t, edges.AddEdge(ctx, "t1", "child", "parent-a"))
	require.NoError(t, edges.AddEdge(ctx, "t1", "child", "parent-b")) // idempotent

	parents, err := edges.Parents(ctx, "t1", "child")
	require.NoError(t, err)
	assert.Equal(t, []string{"parent-b", "parent-a"}, parents, "parents keep insertion order")

	require.NoError(t, edges.AddEdge(ctx, "t1", "child-z", "parent-a"))
	children, err := edges.Children(ctx, "t1", "parent-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"child", "child-z"}, children, "children stay sorted")

	none, err := edges.Parents(ctx, "t1", "orphan")
	require.NoError(t, err)
	assert.Empty(t, none)

	// Tenants are isolated.
	other, err := edges.Parents(ctx, "t2", "child")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestIntentQueue(t *testing.T) {
	db := openTestDB(t)
	queue, err := NewIntentQueue(db)
	require.NoError(t, err)
	ctx := context.Background()

	older := &ingest.PendingIntent{
		IntentID: "i1", TenantID: "t1", ArtifactID: "a1",
		Kind: "parse_file", Status: ingest.IntentPending, CreatedAt: 100,
	}
	newer := &ingest.PendingIntent{
		IntentID: "i2", TenantID: "t1", ArtifactID: "a2",
		Kind: "parse_file", Status: ingest.IntentPending, CreatedAt: 200,
	}
	require.NoError(t, queue.Create(ctx, newer))
	require.NoError(t, queue.Create(ctx, older))

	pending, err := queue.ListPending(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "i1", pending[0].IntentID, "oldest first")

	require.NoError(t, queue.UpdateStatus(ctx, "t1", "i1", ingest.IntentCompleted))
	pending, err = queue.ListPending(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "i2", pending[0].IntentID)

	err = queue.UpdateStatus(ctx, "t1", "no-such", ingest.IntentFailed)
	assert.ErrorIs(t, err, ingest.ErrIntentNotFound)

	err = queue.UpdateStatus(ctx, "t1", "i2", "BOGUS")
	assert.ErrorIs(t, err, ingest.ErrInvalidIntentStatus)

	err = queue.Create(ctx, &ingest.PendingIntent{IntentID: "i3", TenantID: "t1", Status: "BOGUS"})
	assert.ErrorIs(t, err, ingest.ErrInvalidIntentStatus)
}
