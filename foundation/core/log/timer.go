// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration through the
//              owning Logger when stopped.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package log

import (
	"time"
)

// Timer measures an operation started with Logger.StartTimer
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	level     string
	fields    map[string]any
	stopped   bool
}

// WithLevel sets the level of the completion record (default DEBUG)
func (t *Timer) WithLevel(level string) *Timer {
	t.level = level
	return t
}

// WithField adds a field to the completion record
func (t *Timer) WithField(key string, value any) *Timer {
	if t.fields == nil {
		t.fields = make(map[string]any)
	}
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return t.logger.clock.Now().Sub(t.start)
}

// Stop logs "<operation> completed" with the elapsed time and returns it.
// Only the first call logs.
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true

	elapsed := t.Elapsed()
	fields := map[string]any{
		"operation":   t.operation,
		"duration_ms": elapsed.Milliseconds(),
	}
	for k, v := range t.fields {
		fields[k] = v
	}
	t.logger.dispatch(1, t.level, t.operation+" completed", []any{fields})
	return elapsed
}

// StopWithError logs the completion at ERROR with err attached
func (t *Timer) StopWithError(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true

	elapsed := t.Elapsed()
	fields := map[string]any{
		"operation":   t.operation,
		"duration_ms": elapsed.Milliseconds(),
	}
	for k, v := range t.fields {
		fields[k] = v
	}
	t.logger.dispatch(1, LevelError, t.operation+" failed", []any{fields, err})
	return elapsed
}
