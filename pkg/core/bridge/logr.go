// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     bridge
// Description: logr.LogSink writing to a logflow Logger
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package bridge

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/msto63/logflow/foundation/core/log"
)

// LogrSink implements logr.LogSink on top of a Logger. V(0) logs at INFO,
// higher verbosity at DEBUG, and Error at ERROR.
type LogrSink struct {
	logger    *log.Logger
	name      string
	values    []any
	callDepth int
}

var (
	_ logr.LogSink          = (*LogrSink)(nil)
	_ logr.CallDepthLogSink = (*LogrSink)(nil)
)

// NewLogr returns a logr.Logger backed by logger
func NewLogr(logger *log.Logger) logr.Logger {
	return logr.New(&LogrSink{logger: logger})
}

// Init implements logr.LogSink
func (s *LogrSink) Init(info logr.RuntimeInfo) {
	s.callDepth = info.CallDepth
}

// Enabled implements logr.LogSink
func (s *LogrSink) Enabled(level int) bool {
	return s.logger.Enabled(verbosityLevel(level))
}

// Info implements logr.LogSink
func (s *LogrSink) Info(level int, msg string, keysAndValues ...any) {
	fields, errs := s.fields(keysAndValues)
	args := append([]any{fields}, errs...)
	// frames between the call site and LogDepth: Info plus logr's own
	s.logger.LogDepth(s.callDepth+1, verbosityLevel(level), msg, args...)
}

// Error implements logr.LogSink
func (s *LogrSink) Error(err error, msg string, keysAndValues ...any) {
	fields, errs := s.fields(keysAndValues)
	args := []any{fields}
	if err != nil {
		fields["error"] = err
		args = append(args, err)
	}
	args = append(args, errs...)
	s.logger.LogDepth(s.callDepth+1, log.LevelError, msg, args...)
}

// WithValues implements logr.LogSink
func (s *LogrSink) WithValues(keysAndValues ...any) logr.LogSink {
	s2 := *s
	s2.values = make([]any, 0, len(s.values)+len(keysAndValues))
	s2.values = append(s2.values, s.values...)
	s2.values = append(s2.values, keysAndValues...)
	return &s2
}

// WithName implements logr.LogSink. Names join with "/".
func (s *LogrSink) WithName(name string) logr.LogSink {
	s2 := *s
	if s.name == "" {
		s2.name = name
	} else {
		s2.name = s.name + "/" + name
	}
	return &s2
}

// WithCallDepth implements logr.CallDepthLogSink
func (s *LogrSink) WithCallDepth(depth int) logr.LogSink {
	s2 := *s
	s2.callDepth += depth
	return &s2
}

func (s *LogrSink) fields(keysAndValues []any) (map[string]any, []any) {
	fields := make(map[string]any, (len(s.values)+len(keysAndValues))/2+1)
	var errs []any
	add := func(kv []any) {
		for i := 0; i < len(kv); i += 2 {
			key := fmt.Sprint(kv[i])
			var v any = "<missing>"
			if i+1 < len(kv) {
				v = kv[i+1]
			}
			if err, ok := v.(error); ok {
				errs = append(errs, err)
			}
			fields[key] = v
		}
	}
	add(s.values)
	add(keysAndValues)
	if s.name != "" {
		fields["logger"] = s.name
	}
	return fields, errs
}

func verbosityLevel(level int) string {
	if level > 0 {
		return log.LevelDebug
	}
	return log.LevelInfo
}
