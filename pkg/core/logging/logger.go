// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     logging
// Description: Convenience constructors and key/value helpers on top of the
//              pipeline factory
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"strings"

	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/pkg/core/config"
)

// ParseLevel normalizes a level name from flags or environment. Common
// aliases map onto the default table; other names pass through upper-cased.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "TRACE":
		return log.LevelDebug
	case "WARNING":
		return log.LevelWarn
	case "FATAL", "CRITICAL":
		return log.LevelError
	case "":
		return log.LevelInfo
	default:
		return l
	}
}

// NewConsoleLogger creates a Logger writing to the console at level
func NewConsoleLogger(name, level string) (*log.Logger, error) {
	cfg := config.Default()
	cfg.Logger.Name = name
	cfg.Logger.MinLevel = ParseLevel(level)

	p, err := NewPipeline(cfg, Options{})
	if err != nil {
		return nil, err
	}
	return p.Logger, nil
}

// Fields converts alternating key/value pairs into a map argument.
// Non-string keys and a trailing key without value are skipped.
func Fields(keysAndValues ...any) map[string]any {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
