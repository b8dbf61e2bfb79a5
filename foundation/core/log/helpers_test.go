package log

import (
	"sync"
	"testing"
	"time"

	"github.com/msto63/logflow/foundation/utils/clockx"
)

var testEpoch = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// recordingSink keeps every record it receives
type recordingSink struct {
	mu      sync.Mutex
	records []Record
	err     error
	flushed int
	cleared int
	stopped int
}

func (s *recordingSink) Log(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return s.err
}

func (s *recordingSink) Flush() { s.flushed++ }
func (s *recordingSink) Clear() { s.cleared++ }
func (s *recordingSink) Stop()  { s.stopped++ }

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Message
	}
	return out
}

func newTestLogger(t testing.TB, mutate func(*Config)) (*Logger, *recordingSink, *clockx.FakeClock) {
	t.Helper()
	sink := &recordingSink{}
	clk := clockx.Fake(testEpoch)
	cfg := DefaultConfig()
	cfg.Sinks = []Sink{sink}
	cfg.Clock = clk
	if mutate != nil {
		mutate(&cfg)
	}
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, sink, clk
}
