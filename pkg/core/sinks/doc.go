// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sinks
// Description: Delivery targets for log records: console, in-memory ring
//              buffer, append-only file and batched remote HTTP endpoint
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

// Package sinks provides the standard log.Sink implementations.
//
// ConsoleSink, MemorySink and FileSink deliver synchronously inside the
// Log call. RemoteSink only buffers in Log; a ticker flushes the buffer
// into a batch that is POSTed to an HTTP endpoint on its own goroutine,
// retried with exponential backoff and abandoned after MaxRetries.
package sinks
