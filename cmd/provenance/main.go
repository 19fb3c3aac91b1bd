// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command provenance runs the artifact lifecycle service. It reads its
// configuration from the file named by SYMPHAINY_CONFIG (default
// "config.yaml"; a missing file falls back to built-in defaults),
// opens the configured stores, assembles the service, and blocks until
// SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aaron-Lilly/symphainy-prod-sub006/pkg/logging"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/config"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/embeddings"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/observability"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/platform"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage/badgerstore"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage/gcs"
	"github.com/Aaron-Lilly/symphainy-prod-sub006/services/provenance/storage/sqlite"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatalf("provenance: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("SYMPHAINY_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Service.LogLevel),
		LogDir:  cfg.Service.LogDir,
		Service: cfg.Service.Name,
		JSON:    cfg.Service.JSONLogs,
	})
	if err != nil {
		return err
	}
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx := context.Background()

	badgerCfg := badgerstore.DefaultConfig(cfg.Badger.Path)
	if cfg.Badger.InMemory {
		badgerCfg = badgerstore.InMemoryConfig()
	}
	badgerCfg.Logger = logger.Slog()
	db, err := badgerstore.Open(badgerCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	artifacts, err := badgerstore.NewArtifactStore(db)
	if err != nil {
		return err
	}
	edges, err := badgerstore.NewEdgeStore(db)
	if err != nil {
		return err
	}
	intents, err := badgerstore.NewIntentQueue(db)
	if err != nil {
		return err
	}

	relational, err := sqlite.Open(cfg.SQLite.Path, logger.Slog())
	if err != nil {
		return err
	}
	defer relational.Close()

	var objects storage.ObjectStore
	switch cfg.Objects.Backend {
	case "gcs":
		gcsStore, err := gcs.NewStore(ctx, gcs.Config{
			ProjectID:             cfg.Objects.GCSProjectID,
			Bucket:                cfg.Objects.GCSBucket,
			ServiceAccountKeyPath: cfg.Objects.GCSKeyPath,
		})
		if err != nil {
			return err
		}
		defer gcsStore.Close()
		objects = gcsStore
	default:
		objects = storage.NewMemObjectStore()
		logger.Warn("using in-memory object store; payloads do not survive restarts")
	}

	var search platform.SemanticSearcher
	if cfg.Weaviate.Enabled {
		search, err = embeddings.NewSearcher(embeddings.Config{
			URL:   cfg.Weaviate.URL,
			Limit: cfg.Weaviate.Limit,
		}, logger.Slog())
		if err != nil {
			return err
		}
	}

	svc, err := provenance.New(provenance.Deps{
		Artifacts:   artifacts,
		Edges:       edges,
		Objects:     objects,
		Intents:     intents,
		Records:     relational,
		Assessments: relational,
		Audit:       relational,
		Search:      search,
		Logger:      logger.Slog(),
	})
	if err != nil {
		return err
	}

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.Service.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Healthy(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{
			Addr:              cfg.Service.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	observability.MarkStarted(cfg.Service.Name, version)
	logger.Info("provenance service started",
		"version", version,
		"metrics_addr", cfg.Service.MetricsAddr,
		"badger_in_memory", cfg.Badger.InMemory,
		"objects_backend", cfg.Objects.Backend,
		"weaviate_enabled", cfg.Weaviate.Enabled)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("provenance service stopping", "signal", sig.String())
	case err := <-serverErr:
		observability.MarkStopping()
		return err
	}

	observability.MarkStopping()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}
	return nil
}
