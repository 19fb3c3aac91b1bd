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
)

func TestMemIntentQueueOrdering(t *testing.T) {
	ctx := context.Background()
	q := NewMemIntentQueue()

	require.NoError(t, q.Create(ctx, &PendingIntent{
		IntentID: "intent-b", TenantID: "tenant-a", ArtifactID: "art-1",
		Kind: "parse_file", Status: IntentPending, CreatedAt: 200,
	}))
	require.NoError(t, q.Create(ctx, &PendingIntent{
		IntentID: "intent-a", TenantID: "tenant-a", ArtifactID: "art-2",
		Kind: "parse_file", Status: IntentPending, CreatedAt: 100,
	}))
	require.NoError(t, q.Create(ctx, &PendingIntent{
		IntentID: "intent-c", TenantID: "tenant-b", ArtifactID: "art-3",
		Kind: "parse_file", Status: IntentPending, CreatedAt: 50,
	}))

	pending, err := q.ListPending(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "intent-a", pending[0].IntentID)
	assert.Equal(t, "intent-b", pending[1].IntentID)
}

func TestMemIntentQueueStatusTransitions(t *testing.T) {
	ctx := context.Background()
	q := NewMemIntentQueue()

	require.NoError(t, q.Create(ctx, &PendingIntent{
		IntentID: "intent-1", TenantID: "tenant-a", ArtifactID: "art-1",
		Kind: "parse_file", Status: IntentPending,
	}))

	require.NoError(t, q.UpdateStatus(ctx, "tenant-a", "intent-1", IntentInProgress))
	pending, err := q.ListPending(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, q.UpdateStatus(ctx, "tenant-a", "intent-1", IntentCompleted))

	err = q.UpdateStatus(ctx, "tenant-a", "missing", IntentCompleted)
	assert.ErrorIs(t, err, ErrIntentNotFound)

	err = q.UpdateStatus(ctx, "tenant-a", "intent-1", IntentStatus("BOGUS"))
	assert.ErrorIs(t, err, ErrInvalidIntentStatus)
}

func TestMemIntentQueueRejectsInvalidStatus(t *testing.T) {
	ctx := context.Background()
	q := NewMemIntentQueue()

	err := q.Create(ctx, &PendingIntent{
		IntentID: "intent-1", TenantID: "tenant-a", ArtifactID: "art-1",
		Kind: "parse_file", Status: IntentStatus("nope"),
	})
	assert.ErrorIs(t, err, ErrInvalidIntentStatus)
}

func TestMemIntentQueueStampsTimestamps(t *testing.T) {
	ctx := context.Background()
	q := NewMemIntentQueue()

	require.NoError(t, q.Create(ctx, &PendingIntent{
		IntentID: "intent-1", TenantID: "tenant-a", ArtifactID: "art-1",
		Kind: "parse_file", Status: IntentPending,
	}))

	pending, err := q.ListPending(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotZero(t, pending[0].CreatedAt)
	assert.Equal(t, pending[0].CreatedAt, pending[0].UpdatedAt)
}
