// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gcs

import (
	"context"
	"testing"
)

func TestNewStoreValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty bucket", func(t *testing.T) {
		if _, err := NewStore(ctx, Config{}); err == nil {
			t.Fatal("expected error for empty bucket")
		}
	})

	t.Run("missing key file", func(t *testing.T) {
		cfg := Config{
			Bucket:                "b",
			ServiceAccountKeyPath: "/no/such/key.json",
		}
		if _, err := NewStore(ctx, cfg); err == nil {
			t.Fatal("expected error for missing key file")
		}
	})
}
