// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     health
// Description: Health reporting for pipelines and the ingest receiver
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/msto63/logflow/foundation/utils/clockx"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
}

// Checker is an interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string { return c.name }

func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Registry manages the health checks of one component
type Registry struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	component string
	version   string
	clock     clockx.Clock
	startAt   time.Time
}

// NewRegistry creates a registry. A nil clock means real time.
func NewRegistry(component, version string, clock clockx.Clock) *Registry {
	if clock == nil {
		clock = clockx.Real()
	}
	return &Registry{
		checkers:  make(map[string]Checker),
		component: component,
		version:   version,
		clock:     clock,
		startAt:   clock.Now(),
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc adds a check function to the registry
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Check runs all checks concurrently. The report lists results by name;
// the overall status is the worst individual status.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := r.clock.Now()
			result := c.Check(ctx)
			result.Duration = r.clock.Now().Sub(start)
			if result.Name == "" {
				result.Name = c.Name()
			}
			if result.Status == "" {
				result.Status = StatusUnknown
			}
			results[i] = result
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	now := r.clock.Now()
	report := &Report{
		Component: r.component,
		Version:   r.version,
		Status:    StatusHealthy,
		Uptime:    now.Sub(r.startAt),
		Timestamp: now,
		Checks:    results,
	}
	for _, result := range results {
		if severity(result.Status) > severity(report.Status) {
			report.Status = result.Status
		}
	}
	return report
}

func severity(s Status) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnknown:
		return 2
	default:
		return 3
	}
}

// ServeHTTP writes the report as JSON. Unhealthy reports answer 503.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	report := r.Check(req.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(report)
}

// Report represents the overall health report
type Report struct {
	Component string        `json:"component"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// String returns a string representation of the report
func (r *Report) String() string {
	return fmt.Sprintf("Component: %s, Status: %s, Uptime: %v, Checks: %d",
		r.Component, r.Status, r.Uptime, len(r.Checks))
}

// Find returns the named check result
func (r *Report) Find(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// BacklogCheck reports the number of records a buffering sink holds.
// It is degraded at degradedAt or more pending records; zero disables
// the threshold.
func BacklogCheck(name string, pending func() int, degradedAt int) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		n := pending()
		result := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Details: map[string]any{"pending": n},
		}
		if degradedAt > 0 && n >= degradedAt {
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("%d records waiting for delivery", n)
		}
		return result
	})
}
