// Package log is the record pipeline of logflow.
//
// Package: log
// Title: logflow Structured Logging Pipeline
// Description: A Logger filters calls by severity and by a sliding-window rate
//              limit, enriches them with timestamp, ambient context and call-site
//              metadata, and fans each surviving Record out to an ordered list of
//              Sinks. Delivery targets (console, memory, file, remote HTTP, error
//              tracking) live in pkg/core/sinks and pkg/core/sentrysink and are
//              consumed only through the Sink interface.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation of levels, records, rate limiting and dispatch
//
// Features:
// - Caller-defined severity tables (DEBUG < INFO < WARN < ERROR by default)
// - Minimum-severity filtering; unknown level names are dropped silently
// - Exact sliding-window rate limiting
// - Context snapshots through a ContextProvider
// - Optional call-site tagging
// - Synchronous fan-out in registration order; sink errors reported, not returned
//
// Usage:
//   import lflog "github.com/msto63/logflow/foundation/core/log"
//
//   cfg := lflog.DefaultConfig()
//   cfg.MinLevel = lflog.LevelWarn
//   cfg.Sinks = []lflog.Sink{memory}
//   cfg.RateLimit = &lflog.RateLimitConfig{Enabled: true, Interval: time.Second, MaxLogs: 100}
//
//   logger, err := lflog.New(cfg)
//   if err != nil {
//     return err
//   }
//   logger.Warn("disk almost full", map[string]any{"free_mb": 120})
//   logger.Error("upload failed", err)
package log
