// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads provenance service configuration from YAML with
// environment overrides. Loading returns an explicit Config owned by
// the composition root; there is no package-level singleton.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxConfigBytes caps the config file size; anything larger is
// rejected as malformed rather than parsed.
const MaxConfigBytes = 1 << 20

// Config is the full provenance service configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Badger   BadgerConfig   `yaml:"badger"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Objects  ObjectsConfig  `yaml:"objects"`
	Weaviate WeaviateConfig `yaml:"weaviate"`
}

// ServiceConfig covers logging and identity.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`
	JSONLogs bool   `yaml:"json_logs"`

	// MetricsAddr is the listen address of the metrics and health
	// endpoint. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// BadgerConfig locates the embedded document store.
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// SQLiteConfig locates the relational audit store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ObjectsConfig selects the object-store backend.
type ObjectsConfig struct {
	// Backend is "memory" or "gcs".
	Backend string `yaml:"backend"`

	GCSProjectID string `yaml:"gcs_project_id"`
	GCSBucket    string `yaml:"gcs_bucket"`
	GCSKeyPath   string `yaml:"gcs_key_path"`
}

// WeaviateConfig enables semantic-embedding retrieval.
type WeaviateConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Limit   int    `yaml:"limit"`
}

// Default returns the configuration used when no file is present:
// in-memory stores, human-readable stderr logs.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "provenance",
			LogLevel:    "info",
			MetricsAddr: ":9464",
		},
		Badger:  BadgerConfig{InMemory: true},
		SQLite:  SQLiteConfig{Path: "provenance.db"},
		Objects: ObjectsConfig{Backend: "memory"},
	}
}

// Load reads the config file at path, falling back to defaults when
// path is empty or the file does not exist, then applies environment
// overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		case info.Size() > MaxConfigBytes:
			return Config{}, fmt.Errorf("config %s exceeds %d bytes", path, MaxConfigBytes)
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays SYMPHAINY_* environment variables onto the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SYMPHAINY_LOG_LEVEL"); v != "" {
		cfg.Service.LogLevel = v
	}
	if v := os.Getenv("SYMPHAINY_METRICS_ADDR"); v != "" {
		cfg.Service.MetricsAddr = v
	}
	if v := os.Getenv("SYMPHAINY_LOG_DIR"); v != "" {
		cfg.Service.LogDir = v
	}
	if v := os.Getenv("SYMPHAINY_BADGER_PATH"); v != "" {
		cfg.Badger.Path = v
		cfg.Badger.InMemory = false
	}
	if v := os.Getenv("SYMPHAINY_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("SYMPHAINY_OBJECTS_BACKEND"); v != "" {
		cfg.Objects.Backend = v
	}
	if v := os.Getenv("SYMPHAINY_GCS_BUCKET"); v != "" {
		cfg.Objects.GCSBucket = v
	}
	if v := os.Getenv("SYMPHAINY_WEAVIATE_URL"); v != "" {
		cfg.Weaviate.Enabled = true
		cfg.Weaviate.URL = v
	}
}

// Validate rejects configurations that cannot be assembled.
func (c *Config) Validate() error {
	if !c.Badger.InMemory && c.Badger.Path == "" {
		return errors.New("badger.path is required unless badger.in_memory is set")
	}
	if c.SQLite.Path == "" {
		return errors.New("sqlite.path is required")
	}
	switch c.Objects.Backend {
	case "memory":
	case "gcs":
		if c.Objects.GCSBucket == "" {
			return errors.New("objects.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown objects.backend %q", c.Objects.Backend)
	}
	if c.Weaviate.Enabled && c.Weaviate.URL == "" {
		return errors.New("weaviate.url is required when weaviate.enabled is set")
	}
	return nil
}
