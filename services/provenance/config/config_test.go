// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Badger.InMemory {
		t.Error("expected in-memory badger by default")
	}
	if cfg.Objects.Backend != "memory" {
		t.Errorf("expected memory objects backend, got %q", cfg.Objects.Backend)
	}
	if cfg.Service.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.Service.LogLevel)
	}
	if cfg.Service.MetricsAddr != ":9464" {
		t.Errorf("expected default metrics addr, got %q", cfg.Service.MetricsAddr)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.Name != "provenance" {
		t.Errorf("unexpected service name %q", cfg.Service.Name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
service:
  name: provenance
  log_level: debug
badger:
  path: /var/lib/symphainy/badger
sqlite:
  path: /var/lib/symphainy/provenance.db
objects:
  backend: gcs
  gcs_bucket: symphainy-artifacts
weaviate:
  enabled: true
  url: http://localhost:8080
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.Service.LogLevel)
	}
	if cfg.Badger.InMemory {
		t.Error("badger should be persistent when a path is set")
	}
	if cfg.Objects.GCSBucket != "symphainy-artifacts" {
		t.Errorf("gcs_bucket = %q", cfg.Objects.GCSBucket)
	}
	if !cfg.Weaviate.Enabled {
		t.Error("weaviate should be enabled")
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.yaml")
	if err := os.WriteFile(path, make([]byte, MaxConfigBytes+1), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for oversized config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYMPHAINY_LOG_LEVEL", "warn")
	t.Setenv("SYMPHAINY_BADGER_PATH", "/tmp/badger")
	t.Setenv("SYMPHAINY_WEAVIATE_URL", "http://weaviate:8080")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.LogLevel != "warn" {
		t.Errorf("log_level = %q", cfg.Service.LogLevel)
	}
	if cfg.Badger.InMemory || cfg.Badger.Path != "/tmp/badger" {
		t.Errorf("badger = %+v", cfg.Badger)
	}
	if !cfg.Weaviate.Enabled || cfg.Weaviate.URL != "http://weaviate:8080" {
		t.Errorf("weaviate = %+v", cfg.Weaviate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"persistent badger without path", func(c *Config) { c.Badger.InMemory = false; c.Badger.Path = "" }},
		{"empty sqlite path", func(c *Config) { c.SQLite.Path = "" }},
		{"unknown objects backend", func(c *Config) { c.Objects.Backend = "s3" }},
		{"gcs without bucket", func(c *Config) { c.Objects.Backend = "gcs" }},
		{"weaviate without url", func(c *Config) { c.Weaviate.Enabled = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
