// File: ratelimit.go
// Title: Sliding-Window Rate Limiter
// Description: Admits at most maxLogs calls in any trailing window of fixed
//              width. Decisions are exact: the window is recomputed from the
//              stored admission instants on every check.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package log

import (
	"sync"
	"time"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/utils/clockx"
)

// RateLimiter is a sliding-window admission counter. It is safe for
// concurrent use; checks are serialized so no two callers can take the
// same slot.
type RateLimiter struct {
	interval time.Duration
	maxLogs  int
	clock    clockx.Clock

	mu sync.Mutex
	// admitted holds admission instants in ascending order
	admitted []time.Time
}

// NewRateLimiter creates a limiter admitting maxLogs calls per interval.
// A nil clock uses the real clock.
func NewRateLimiter(interval time.Duration, maxLogs int, clock clockx.Clock) (*RateLimiter, error) {
	if interval <= 0 {
		return nil, lferror.New("rate limit interval must be positive").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("log.NewRateLimiter").
			WithDetail("interval", interval.String())
	}
	if maxLogs < 0 {
		return nil, lferror.New("rate limit max logs cannot be negative").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("log.NewRateLimiter").
			WithDetail("max_logs", maxLogs)
	}
	if clock == nil {
		clock = clockx.Real()
	}
	return &RateLimiter{
		interval: interval,
		maxLogs:  maxLogs,
		clock:    clock,
		admitted: make([]time.Time, 0, maxLogs),
	}, nil
}

// ShouldLog reports whether a call made now is admitted, recording it if so
func (r *RateLimiter) ShouldLog() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.evictLocked(now.Add(-r.interval))

	if len(r.admitted) < r.maxLogs {
		r.admitted = append(r.admitted, now)
		return true
	}
	return false
}

// evictLocked drops admissions strictly before windowStart
func (r *RateLimiter) evictLocked(windowStart time.Time) {
	keep := 0
	for keep < len(r.admitted) && r.admitted[keep].Before(windowStart) {
		keep++
	}
	if keep == 0 {
		return
	}
	n := copy(r.admitted, r.admitted[keep:])
	r.admitted = r.admitted[:n]
}

// Reset discards all history so the next call is admitted (unless maxLogs is 0)
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admitted = r.admitted[:0]
}

// Len returns the number of admissions inside the current window
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(r.clock.Now().Add(-r.interval))
	return len(r.admitted)
}

// Interval returns the window width
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// MaxLogs returns the admissions allowed per window
func (r *RateLimiter) MaxLogs() int {
	return r.maxLogs
}
