// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Symphainy services.
//
// The logging system is built on the standard library slog package with
// a layered output model:
//
//   - Default: stderr output (text for humans, JSON when configured)
//   - Optional: daily JSON log files with automatic directory creation
//   - Optional: export to an external sink via the LogExporter interface
//
// Basic usage:
//
//	logger := logging.Default()
//	logger.Info("artifact registered", "artifact_id", id, "tenant_id", tenant)
//
// Service usage with file logging:
//
//	logger, err := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "/var/log/symphainy",
//	    Service: "provenance",
//	    JSON:    true,
//	})
//	defer logger.Close()
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level. Unknown names map to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures Logger behavior. The zero value logs Info and above
// to stderr in text format.
type Config struct {
	// Level is the minimum level to emit. Default: LevelInfo.
	Level Level

	// LogDir enables file logging when non-empty. Files are named
	// "{Service}_{YYYY-MM-DD}.log" and always written as JSON.
	// Supports "~" expansion. The directory is created with 0750.
	LogDir string

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON switches stderr output to JSON format.
	JSON bool

	// Quiet disables stderr output entirely. File and exporter output
	// are unaffected.
	Quiet bool

	// Exporter, when set, receives every entry asynchronously.
	// Export failures never disrupt local logging.
	Exporter LogExporter
}

// LogEntry is the structured form handed to LogExporter implementations.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string
	Attrs     map[string]any
}

// LogExporter sends log entries to an external system (object storage,
// an aggregator, an OTLP collector). Implementations should buffer
// internally; Flush is called before Close during shutdown.
type LogExporter interface {
	Export(ctx context.Context, entry LogEntry) error
	Flush(ctx context.Context) error
	Close() error
}

// Logger wraps slog.Logger with multi-destination output and cleanup.
type Logger struct {
	slogger *slog.Logger
	service string
	level   Level

	mu       sync.Mutex
	file     *os.File
	exporter LogExporter
	closed   bool
}

// Default returns a stderr-only logger at Info level.
func Default() *Logger {
	l, _ := New(Config{})
	return l
}

// New creates a Logger from the given configuration.
//
// Returns an error only when file logging is requested and the log
// directory or file cannot be created; stderr logging never fails.
func New(cfg Config) (*Logger, error) {
	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, os.Stderr)
	}

	l := &Logger{service: cfg.Service, level: cfg.Level, exporter: cfg.Exporter}

	if cfg.LogDir != "" {
		dir, err := expandHome(cfg.LogDir)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		name := fmt.Sprintf("%s_%s.log", orUnknown(cfg.Service), time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		writers = append(writers, f)
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlog()}
	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	var handler slog.Handler
	if cfg.JSON || l.file != nil {
		// Mixed destinations write JSON everywhere; file logs are
		// always machine-parsed downstream.
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if cfg.Exporter != nil {
		handler = &exportHandler{inner: handler, logger: l}
	}

	slogger := slog.New(handler)
	if cfg.Service != "" {
		slogger = slogger.With(slog.String("service", cfg.Service))
	}
	l.slogger = slogger
	return l, nil
}

// Slog returns the underlying slog.Logger for APIs that accept one.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// With returns a Logger that includes the given attributes on every entry.
func (l *Logger) With(args ...any) *Logger {
	clone := *l
	clone.slogger = l.slogger.With(args...)
	return &clone
}

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// Close flushes the exporter and closes the log file. Safe to call
// more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var firstErr error
	if l.exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.exporter.Flush(ctx); err != nil {
			firstErr = err
		}
		cancel()
		if err := l.exporter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.file != nil {
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// exportHandler forwards records to the exporter after the inner
// handler has written them locally.
type exportHandler struct {
	inner  slog.Handler
	logger *Logger
}

func (h *exportHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *exportHandler) Handle(ctx context.Context, rec slog.Record) error {
	err := h.inner.Handle(ctx, rec)

	entry := LogEntry{
		Timestamp: rec.Time,
		Level:     fromSlog(rec.Level),
		Message:   rec.Message,
		Service:   h.logger.service,
		Attrs:     make(map[string]any, rec.NumAttrs()),
	}
	rec.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})

	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	// Export failures are deliberately dropped; local logging already
	// succeeded and the exporter buffers internally.
	_ = h.logger.exporter.Export(exportCtx, entry)
	return err
}

func (h *exportHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &exportHandler{inner: h.inner.WithAttrs(attrs), logger: h.logger}
}

func (h *exportHandler) WithGroup(name string) slog.Handler {
	return &exportHandler{inner: h.inner.WithGroup(name), logger: h.logger}
}

func fromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
