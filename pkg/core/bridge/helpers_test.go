package bridge

import (
	"sync"
	"testing"

	"github.com/msto63/logflow/foundation/core/log"
)

type recorder struct {
	mu      sync.Mutex
	records []log.Record
}

func (r *recorder) Log(rec log.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func newLogger(t *testing.T, minLevel string, tagging bool) (*log.Logger, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := log.DefaultConfig()
	cfg.MinLevel = minLevel
	cfg.EnableSourceTagging = tagging
	cfg.Sinks = []log.Sink{rec}
	logger, err := log.New(cfg)
	if err != nil {
		t.Fatalf("log.New() error = %v", err)
	}
	return logger, rec
}
