// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sinks
// Description: FileSink appends one formatted line per record to a file
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sinks

import (
	"os"
	"path/filepath"
	"sync"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
)

// FileConfig holds configuration for FileSink
type FileConfig struct {
	Path      string        // Destination file, created if missing
	Formatter log.Formatter // Line format (default: text with timestamp)
}

// FileSink appends records to a file. Writes are serialized.
type FileSink struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	formatter log.Formatter
}

// NewFileSink creates the parent directories and opens the file for
// appending. Construction fails if either step fails.
func NewFileSink(cfg FileConfig) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, lferror.New("file sink path is required").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("sinks.NewFileSink")
	}
	if cfg.Formatter == nil {
		cfg.Formatter = log.NewTextFormatter()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, lferror.Wrap(err, "create log directory").
			WithCode(lferror.CodeIOError).
			WithOperation("sinks.NewFileSink").
			WithDetail("path", cfg.Path)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, lferror.Wrap(err, "open log file").
			WithCode(lferror.CodeIOError).
			WithOperation("sinks.NewFileSink").
			WithDetail("path", cfg.Path)
	}

	return &FileSink{path: cfg.Path, file: f, formatter: cfg.Formatter}, nil
}

// Path returns the file path
func (s *FileSink) Path() string {
	return s.path
}

// Log implements log.Sink
func (s *FileSink) Log(record log.Record) error {
	line, err := s.formatter.Format(record)
	if err != nil {
		return lferror.Wrap(err, "format record").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("sinks.FileSink.Log")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return lferror.New("file sink is closed").
			WithCode(lferror.CodeIOError).
			WithOperation("sinks.FileSink.Log").
			WithDetail("path", s.path)
	}
	if _, err := s.file.Write(line); err != nil {
		return lferror.Wrap(err, "append record").
			WithCode(lferror.CodeIOError).
			WithOperation("sinks.FileSink.Log").
			WithDetail("path", s.path)
	}
	return nil
}

// Flush syncs the file to stable storage
func (s *FileSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Sync()
	}
}

// Close closes the file. Later Log calls fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
