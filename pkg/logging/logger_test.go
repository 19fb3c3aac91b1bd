// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(42):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "provenance",
		Quiet:   true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("artifact registered", "artifact_id", "art-1", "tenant_id", "t1")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "provenance_") {
		t.Errorf("unexpected log file name %q", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]), &parsed); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if parsed["service"] != "provenance" {
		t.Errorf("expected service attribute, got %v", parsed["service"])
	}
	if parsed["artifact_id"] != "art-1" {
		t.Errorf("expected artifact_id attribute, got %v", parsed["artifact_id"])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := New(Config{Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// captureExporter records exported entries for assertions.
type captureExporter struct {
	mu      sync.Mutex
	entries []LogEntry
	flushed bool
	closed  bool
}

func (c *captureExporter) Export(_ context.Context, entry LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureExporter) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed = true
	return nil
}

func (c *captureExporter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestExporterReceivesEntries(t *testing.T) {
	exp := &captureExporter{}
	logger, err := New(Config{Quiet: true, Service: "provenance", Exporter: exp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Warn("lifecycle transition rejected", "from", "ARCHIVED", "to", "READY")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()
	if len(exp.entries) != 1 {
		t.Fatalf("expected 1 exported entry, got %d", len(exp.entries))
	}
	entry := exp.entries[0]
	if entry.Level != LevelWarn {
		t.Errorf("expected warn level, got %v", entry.Level)
	}
	if entry.Service != "provenance" {
		t.Errorf("expected service attribute, got %q", entry.Service)
	}
	if entry.Attrs["from"] != "ARCHIVED" {
		t.Errorf("expected from attribute, got %v", entry.Attrs["from"])
	}
	if !exp.flushed || !exp.closed {
		t.Error("expected exporter to be flushed and closed on Close")
	}
}

func TestWithAddsAttributes(t *testing.T) {
	exp := &captureExporter{}
	logger, err := New(Config{Quiet: true, Exporter: exp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	scoped := logger.With("tenant_id", "t1")
	scoped.Info("assessment stored")

	exp.mu.Lock()
	defer exp.mu.Unlock()
	if len(exp.entries) != 1 {
		t.Fatalf("expected 1 exported entry, got %d", len(exp.entries))
	}
}
