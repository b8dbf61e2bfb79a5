// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sinks
// Description: MemorySink keeps the most recent records in a ring buffer
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sinks

import (
	"sync"

	"github.com/msto63/logflow/foundation/core/log"
)

// DefaultMemoryMax is the MemorySink capacity when none is given
const DefaultMemoryMax = 1000

// MemorySink retains the last Max records, dropping the oldest first
type MemorySink struct {
	mu    sync.Mutex
	ring  []log.Record
	start int
	count int
}

// NewMemorySink creates a MemorySink holding up to max records.
// max <= 0 uses DefaultMemoryMax.
func NewMemorySink(max int) *MemorySink {
	if max <= 0 {
		max = DefaultMemoryMax
	}
	return &MemorySink{ring: make([]log.Record, max)}
}

// Log implements log.Sink
func (s *MemorySink) Log(record log.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := record.Clone()
	if s.count < len(s.ring) {
		s.ring[(s.start+s.count)%len(s.ring)] = r
		s.count++
		return nil
	}
	s.ring[s.start] = r
	s.start = (s.start + 1) % len(s.ring)
	return nil
}

// Records returns the retained records, oldest first
func (s *MemorySink) Records() []log.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]log.Record, s.count)
	for i := range out {
		out[i] = s.ring[(s.start+i)%len(s.ring)]
	}
	return out
}

// Len returns the number of retained records
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Cap returns the capacity
func (s *MemorySink) Cap() int {
	return len(s.ring)
}

// Clear implements log.Clearer
func (s *MemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ring)
	s.start, s.count = 0, 0
}
