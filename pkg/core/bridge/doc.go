// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     bridge
// Description: Front-ends that route log/slog and go-logr calls into a
//              logflow Logger
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

// Package bridge lets code written against log/slog or go-logr log
// through a logflow Logger. Attributes and key/value pairs become a single
// map argument on the record; an error value also becomes the record's
// OriginalError.
package bridge
