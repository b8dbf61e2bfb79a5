// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     bridge
// Description: slog.Handler writing to a logflow Logger
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package bridge

import (
	"context"
	"log/slog"

	"github.com/msto63/logflow/foundation/core/log"
)

// SlogHandler implements slog.Handler on top of a Logger
type SlogHandler struct {
	logger *log.Logger
	attrs  []slog.Attr
	group  string
}

// NewSlogHandler creates a handler forwarding to logger
func NewSlogHandler(logger *log.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// NewSlogLogger returns a *slog.Logger backed by logger
func NewSlogLogger(logger *log.Logger) *slog.Logger {
	return slog.New(NewSlogHandler(logger))
}

// LevelName maps a slog level onto the default level table
func LevelName(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return log.LevelDebug
	case level < slog.LevelWarn:
		return log.LevelInfo
	case level < slog.LevelError:
		return log.LevelWarn
	default:
		return log.LevelError
	}
}

// Enabled implements slog.Handler
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.Enabled(LevelName(level))
}

// Handle implements slog.Handler
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	var errs []any

	for _, a := range h.attrs {
		addAttr(fields, "", a, &errs)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.group, a, &errs)
		return true
	})

	var args []any
	if len(fields) > 0 {
		args = append(args, fields)
	}
	args = append(args, errs...)

	h.logger.LogAt(r.PC, LevelName(r.Level), r.Message, args...)
	return nil
}

// WithAttrs implements slog.Handler
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup implements slog.Handler. Groups flatten into dotted keys.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group == "" {
		h2.group = name
	} else {
		h2.group = h.group + "." + name
	}
	return &h2
}

func addAttr(fields map[string]any, prefix string, a slog.Attr, errs *[]any) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		group := key
		if a.Key == "" {
			group = prefix
		}
		for _, ga := range a.Value.Group() {
			addAttr(fields, group, ga, errs)
		}
		return
	}

	v := a.Value.Any()
	if err, ok := v.(error); ok {
		*errs = append(*errs, err)
	}
	fields[key] = v
}
