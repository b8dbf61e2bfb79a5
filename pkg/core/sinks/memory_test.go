package sinks

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/msto63/logflow/foundation/core/log"
)

func messages(records []log.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Message
	}
	return out
}

func TestMemorySinkDropsOldest(t *testing.T) {
	sink := NewMemorySink(3)
	for _, m := range []string{"1", "2", "3", "4", "5"} {
		if err := sink.Log(record(log.LevelInfo, m)); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	if diff := cmp.Diff([]string{"3", "4", "5"}, messages(sink.Records())); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if sink.Len() != 3 || sink.Cap() != 3 {
		t.Errorf("Len() = %d, Cap() = %d", sink.Len(), sink.Cap())
	}
}

func TestMemorySinkDefaultCapacity(t *testing.T) {
	if got := NewMemorySink(0).Cap(); got != DefaultMemoryMax {
		t.Errorf("Cap() = %d, want %d", got, DefaultMemoryMax)
	}
}

func TestMemorySinkClear(t *testing.T) {
	sink := NewMemorySink(2)
	sink.Log(record(log.LevelInfo, "a"))
	sink.Log(record(log.LevelInfo, "b"))
	sink.Log(record(log.LevelInfo, "c"))
	sink.Clear()

	if sink.Len() != 0 {
		t.Fatalf("Len() after Clear = %d", sink.Len())
	}
	sink.Log(record(log.LevelInfo, "d"))
	if diff := cmp.Diff([]string{"d"}, messages(sink.Records())); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMemorySinkRetainsCopies(t *testing.T) {
	sink := NewMemorySink(10)
	r := record(log.LevelInfo, "a", "arg")
	sink.Log(r)
	r.Args[0] = "mutated"

	if got := sink.Records()[0].Args[0]; got != "arg" {
		t.Errorf("retained arg = %v, want arg", got)
	}
}

func TestMemorySinkThroughLogger(t *testing.T) {
	sink := NewMemorySink(10)
	cfg := log.DefaultConfig()
	cfg.MinLevel = log.LevelWarn
	cfg.Sinks = []log.Sink{sink}
	logger := log.MustNew(cfg)

	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	if diff := cmp.Diff([]string{"c", "d"}, messages(sink.Records())); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	logger.Clear()
	if sink.Len() != 0 {
		t.Error("Logger.Clear should clear the memory sink")
	}
}
