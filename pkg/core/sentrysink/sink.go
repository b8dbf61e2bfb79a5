// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sentrysink
// Description: Forwards severe log records to Sentry as messages or
//              exceptions with source tags, context and fingerprints
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

// Package sentrysink adapts the logflow pipeline to Sentry. It lives in
// its own package so only programs that attach it link sentry-go.
package sentrysink

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
)

// Config holds configuration for the Sentry sink
type Config struct {
	DSN         string
	Environment string // default: production
	Release     string

	// LevelThreshold is the least severe level forwarded (default: ERROR)
	LevelThreshold string

	// Levels is the severity table the threshold is resolved against
	// (default: log.DefaultLevels). A Logger replaces it with its own.
	Levels []log.Level

	// IncludeArgsInFingerprint adds "status:<n>" from the first argument
	IncludeArgsInFingerprint bool

	// FlushTimeout bounds Flush and Close (default: 2s)
	FlushTimeout time.Duration

	// Hub replaces the hub built from DSN, Environment and Release
	Hub *sentry.Hub

	// ErrorHandler receives errors the sink cannot return, such as a
	// Logger level table without the threshold (default: stderr)
	ErrorHandler func(error)
}

// Sink forwards records at or above the threshold to Sentry. Levels not
// in the Logger's table are always forwarded.
type Sink struct {
	hub          *sentry.Hub
	threshold    string
	includeArgs  bool
	flushTimeout time.Duration
	onError      func(error)

	mu       sync.RWMutex
	levels   []log.Level
	minLevel int
}

// New creates a Sink
func New(cfg Config) (*Sink, error) {
	if cfg.LevelThreshold == "" {
		cfg.LevelThreshold = log.LevelError
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 2 * time.Second
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(err error) {
			fmt.Fprintf(os.Stderr, "logflow: sentry sink: %v\n", err)
		}
	}

	hub := cfg.Hub
	if hub == nil {
		env := cfg.Environment
		if env == "" {
			env = "production"
		}
		client, err := sentry.NewClient(sentry.ClientOptions{
			Dsn:         cfg.DSN,
			Environment: env,
			Release:     cfg.Release,
		})
		if err != nil {
			return nil, lferror.Wrap(err, "create sentry client").
				WithCode(lferror.CodeInvalidConfig).
				WithOperation("sentrysink.New")
		}
		hub = sentry.NewHub(client, sentry.NewScope())
	}

	s := &Sink{
		hub:          hub,
		threshold:    cfg.LevelThreshold,
		includeArgs:  cfg.IncludeArgsInFingerprint,
		flushTimeout: cfg.FlushTimeout,
		onError:      cfg.ErrorHandler,
	}
	levels := cfg.Levels
	if levels == nil {
		levels = log.DefaultLevels()
	}
	if err := s.setLevels(levels, "sentrysink.New"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) setLevels(levels []log.Level, op string) error {
	lvl, ok := log.FindLevel(levels, s.threshold)
	if !ok {
		return lferror.New("sentry level threshold is not a configured level").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation(op).
			WithDetail("threshold", s.threshold)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = levels
	s.minLevel = lvl.Priority
	return nil
}

// SetPresentation implements log.PresentationAware. The sink adopts the
// Logger's level table so custom levels compare by their own priorities.
// If the table lacks the threshold, the previous table is kept and the
// error goes to the ErrorHandler.
func (s *Sink) SetPresentation(p log.Presentation) {
	if err := s.setLevels(p.Levels, "sentrysink.SetPresentation"); err != nil {
		s.onError(err)
	}
}

func (s *Sink) forwards(level string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lvl, ok := log.FindLevel(s.levels, level)
	return !ok || lvl.Priority >= s.minLevel
}

// Log implements log.Sink
func (s *Sink) Log(record log.Record) error {
	if !s.forwards(record.Level) {
		return nil
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(record.Level))
		scope.SetExtra("timestamp", log.FormatTimestamp(record.Timestamp))

		if src := record.Source; src != nil {
			if src.File != "" {
				scope.SetTag("source.file", src.File)
				scope.SetExtra("source.location", fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column))
			}
			if src.Function != "" {
				scope.SetTag("source.function", src.Function)
			}
			if src.Line > 0 {
				scope.SetTag("source.line", strconv.Itoa(src.Line))
			}
		}

		for k, v := range record.Context {
			scope.SetContext(k, sentry.Context{"value": v})
		}

		for i, arg := range record.Args {
			if arg == nil {
				continue
			}
			scope.SetExtra("arg_"+strconv.Itoa(i), extraValue(arg))
		}

		var first map[string]any
		if len(record.Args) > 0 {
			first, _ = asObject(record.Args[0])
		}
		if first != nil && record.OriginalError == nil {
			scope.SetContext("errorObject", sentry.Context(first))
			if status, ok := first["status"]; ok {
				scope.SetTag("api.status", fmt.Sprint(status))
			}
			if data, ok := first["data"]; ok {
				scope.SetExtra("api.response", data)
			}
		}

		scope.SetFingerprint(s.fingerprint(record, first))

		if record.OriginalError != nil {
			s.hub.CaptureException(record.OriginalError)
			return
		}
		message := record.Message
		if first != nil {
			if details, err := json.Marshal(first); err == nil {
				message += " | Details: " + string(details)
			}
		}
		s.hub.CaptureMessage(message)
	})
	return nil
}

func (s *Sink) fingerprint(record log.Record, first map[string]any) []string {
	fp := []string{record.Message}
	if record.Source != nil && record.Source.File != "" {
		fp = append(fp, record.Source.File)
	}
	if s.includeArgs && first != nil {
		if status, ok := first["status"]; ok {
			fp = append(fp, "status:"+fmt.Sprint(status))
		}
	}
	return fp
}

// Flush waits up to FlushTimeout for queued events to be sent
func (s *Sink) Flush() {
	s.hub.Flush(s.flushTimeout)
}

// Close flushes queued events
func (s *Sink) Close() error {
	if !s.hub.Flush(s.flushTimeout) {
		return lferror.New("sentry flush timed out").
			WithCode(lferror.CodeDeliveryAbandoned).
			WithOperation("sentrysink.Sink.Close")
	}
	return nil
}

func sentryLevel(level string) sentry.Level {
	switch level {
	case log.LevelDebug:
		return sentry.LevelDebug
	case log.LevelInfo:
		return sentry.LevelInfo
	case log.LevelWarn:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

// asObject returns v as a JSON object when it encodes as one
func asObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case nil, error, string, fmt.Stringer:
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil || len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}

// extraValue makes v safe for Sentry's JSON encoder
func extraValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}
