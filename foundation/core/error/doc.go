// Package error provides the structured error type used across logflow.
//
// Package: error
// Title: logflow Error Handling
// Description: Errors carry a code, the failing operation and key/value
//              details so that configuration failures and delivery failures
//              can be told apart programmatically and reported with context.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with codes, wrapping and details
//
// Usage:
//   import lferror "github.com/msto63/logflow/foundation/core/error"
//
//   err := lferror.New("flush interval must be positive").
//     WithCode(lferror.CodeInvalidConfig).
//     WithOperation("sinks.NewRemoteSink").
//     WithDetail("flush_interval", cfg.FlushInterval)
//
//   if lferror.HasCode(err, lferror.CodeInvalidConfig) {
//     // reject configuration
//   }
package error
