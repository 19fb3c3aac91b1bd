// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gcs backs the object-store contract with a Google Cloud
// Storage bucket. Materialization URIs map directly to object names.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
)

// Config locates the bucket.
type Config struct {
	ProjectID string
	Bucket    string

	// ServiceAccountKeyPath is the credentials file. Empty uses
	// application default credentials.
	ServiceAccountKeyPath string
}

// Store is an ObjectStore over one GCS bucket.
type Store struct {
	client *gstorage.Client
	bucket string
}

var _ storage.ObjectStore = (*Store)(nil)

// NewStore creates a GCS-backed object store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}

	var opts []option.ClientOption
	if cfg.ServiceAccountKeyPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountKeyPath); err != nil {
			return nil, fmt.Errorf("service account key at %s: %w", cfg.ServiceAccountKeyPath, err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountKeyPath))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Put(ctx context.Context, uri string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(uri).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, uri, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, uri, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, uri string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(uri).NewReader(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil, storage.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.bucket, uri, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, uri string) error {
	err := s.client.Bucket(s.bucket).Object(uri).Delete(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return storage.ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", s.bucket, uri, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
