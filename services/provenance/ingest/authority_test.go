// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/artifact"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

type fixture struct {
	gateway   *Gateway
	authority *Authority
	artifacts *artifact.MemStore
	objects   *storage.MemObjectStore
	intents   *MemIntentQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	artifacts := artifact.NewMemStore()
	objects := storage.NewMemObjectStore()
	intents := NewMemIntentQueue()

	gw, err := NewGateway(artifacts, objects, nil)
	require.NoError(t, err)
	auth, err := NewAuthority(artifacts, objects, intents, nil)
	require.NoError(t, err)
	return &fixture{gateway: gw, authority: auth, artifacts: artifacts, objects: objects, intents: intents}
}

func TestSaveCommitsAndSchedulesParse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.gateway.Ingest(ctx, validRequest())
	require.NoError(t, err)

	result, err := f.authority.Save(ctx, "t1", rec.ArtifactID, "bc-1")
	require.NoError(t, err)

	assert.False(t, result.AlreadyCommitted)
	assert.Equal(t, artifact.StateReady, result.Record.LifecycleState)
	require.Len(t, result.Record.Materializations, 2, "raw plus committed")
	assert.Contains(t, result.Record.Materializations[1].URI, "committed/")

	pending, err := f.intents.ListPending(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, pending, 1, "exactly one durable pending job")
	intent := pending[0]
	assert.Equal(t, result.IntentID, intent.IntentID)
	assert.Equal(t, rec.ArtifactID, intent.ArtifactID)
	assert.Equal(t, "parse_file", intent.Kind)
	assert.Equal(t, "upload", intent.IngestionProfile)
	assert.Equal(t, "csv", intent.FileType)
}

func TestSaveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.gateway.Ingest(ctx, validRequest())
	require.NoError(t, err)

	first, err := f.authority.Save(ctx, "t1", rec.ArtifactID, "bc-1")
	require.NoError(t, err)
	require.False(t, first.AlreadyCommitted)

	second, err := f.authority.Save(ctx, "t1", rec.ArtifactID, "bc-1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyCommitted)
	assert.Equal(t, artifact.StateReady, second.Record.LifecycleState)
	assert.Empty(t, second.IntentID)

	pending, err := f.intents.ListPending(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, pending, 1, "retried save must not enqueue another intent")
}

func TestSaveRequiresBoundaryContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.gateway.Ingest(ctx, validRequest())
	require.NoError(t, err)

	_, err = f.authority.Save(ctx, "t1", rec.ArtifactID, "")
	require.ErrorIs(t, err, ErrMissingBoundaryContract)
}

func TestSaveUnknownArtifact(t *testing.T) {
	f := newFixture(t)

	_, err := f.authority.Save(context.Background(), "t1", "missing", "bc-1")
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)
}

func TestSaveArchivedArtifactFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.gateway.Ingest(ctx, validRequest())
	require.NoError(t, err)
	_, err = f.artifacts.UpdateLifecycle(ctx, "t1", rec.ArtifactID, artifact.StateArchived, "test")
	require.NoError(t, err)

	_, err = f.authority.Save(ctx, "t1", rec.ArtifactID, "bc-1")
	require.ErrorIs(t, err, artifact.ErrInvalidTransition)
}

func TestIntentQueueStatusUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.gateway.Ingest(ctx, validRequest())
	require.NoError(t, err)
	result, err := f.authority.Save(ctx, "t1", rec.ArtifactID, "bc-1")
	require.NoError(t, err)

	require.NoError(t, f.intents.UpdateStatus(ctx, "t1", result.IntentID, IntentInProgress))
	pending, err := f.intents.ListPending(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, pending, "non-PENDING intents must not be listed")

	err = f.intents.UpdateStatus(ctx, "t1", "missing", IntentCompleted)
	require.ErrorIs(t, err, ErrIntentNotFound)

	err = f.intents.UpdateStatus(ctx, "t1", result.IntentID, "BOGUS")
	require.ErrorIs(t, err, ErrInvalidIntentStatus)
}
