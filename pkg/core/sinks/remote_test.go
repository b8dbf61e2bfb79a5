package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/foundation/utils/clockx"
	"github.com/msto63/logflow/pkg/core/version"
)

type capturedRequest struct {
	header  http.Header
	records []map[string]any
}

// collector is a fake ingest endpoint. status decides the response for
// the n-th request, counting from 1.
type collector struct {
	t      *testing.T
	status func(n int) int

	mu       sync.Mutex
	requests []capturedRequest
	got      chan capturedRequest
}

func newCollector(t *testing.T, status func(n int) int) (*collector, *httptest.Server) {
	t.Helper()
	c := &collector{t: t, status: status, got: make(chan capturedRequest, 64)}
	srv := httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(srv.Close)
	return c, srv
}

func (c *collector) handle(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			c.t.Errorf("gzip reader: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer zr.Close()
		body = zr
	}
	var records []map[string]any
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		c.t.Errorf("decode body: %v", err)
	}

	req := capturedRequest{header: r.Header.Clone(), records: records}
	c.mu.Lock()
	c.requests = append(c.requests, req)
	n := len(c.requests)
	c.mu.Unlock()

	status := http.StatusOK
	if c.status != nil {
		status = c.status(n)
	}
	w.WriteHeader(status)
	select {
	case c.got <- req:
	default:
	}
}

func (c *collector) hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *collector) wait(t *testing.T) capturedRequest {
	t.Helper()
	select {
	case req := <-c.got:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a delivery")
		return capturedRequest{}
	}
}

func always(status int) func(int) int {
	return func(int) int { return status }
}

type remoteHarness struct {
	sink   *RemoteSink
	clock  *clockx.FakeClock
	errors chan error
}

func newRemoteHarness(t *testing.T, endpoint string, mutate func(*RemoteConfig)) *remoteHarness {
	t.Helper()
	h := &remoteHarness{clock: clockx.Fake(testEpoch), errors: make(chan error, 16)}
	cfg := DefaultRemoteConfig(endpoint)
	cfg.Clock = h.clock
	cfg.Jitter = func() time.Duration { return 0 }
	cfg.ErrorHandler = func(err error) { h.errors <- err }
	if mutate != nil {
		mutate(&cfg)
	}
	sink, err := NewRemoteSink(cfg)
	if err != nil {
		t.Fatalf("NewRemoteSink() error = %v", err)
	}
	h.sink = sink
	return h
}

func (h *remoteHarness) waitError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errors:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an error report")
		return nil
	}
}

func recordMessages(records []map[string]any) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["message"].(string)
	}
	return out
}

func TestRemoteSinkOneFlushOnePost(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) {
		cfg.Headers = map[string]string{"Authorization": "Bearer t0ken"}
	})

	want := []string{"m1", "m2", "m3", "m4", "m5"}
	for _, m := range want {
		if err := h.sink.Log(record(log.LevelInfo, m)); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	if h.sink.Pending() != len(want) {
		t.Fatalf("Pending() = %d, want %d", h.sink.Pending(), len(want))
	}

	h.sink.Flush()
	req := c.wait(t)

	if diff := cmp.Diff(want, recordMessages(req.records)); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
	if got := req.header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := req.header.Get("User-Agent"); got != version.UserAgent() {
		t.Errorf("User-Agent = %q", got)
	}
	if got := req.header.Get("Authorization"); got != "Bearer t0ken" {
		t.Errorf("Authorization = %q", got)
	}
	if _, err := uuid.Parse(req.header.Get(HeaderBatchID)); err != nil {
		t.Errorf("%s = %q is not a UUID", HeaderBatchID, req.header.Get(HeaderBatchID))
	}
	if h.sink.Pending() != 0 {
		t.Errorf("Pending() after flush = %d", h.sink.Pending())
	}

	h.sink.Flush()
	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 1 {
		t.Errorf("hits = %d, want 1", c.hits())
	}
}

func TestRemoteSinkWireRecord(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	r := record(log.LevelError, "upload failed", "bucket")
	r.Context = map[string]any{"tenant": "t-1"}
	h.sink.Log(r)
	h.sink.Flush()

	got := c.wait(t).records[0]
	want := map[string]any{
		"level":     "ERROR",
		"message":   "upload failed",
		"timestamp": "2026-03-14T09:26:53.589Z",
		"args":      []any{"bucket"},
		"context":   map[string]any{"tenant": "t-1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wire record mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteSinkEmptyFlushSendsNothing(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Flush()
	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 0 {
		t.Errorf("hits = %d, want 0", c.hits())
	}
}

func TestRemoteSinkTickerFlush(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) {
		cfg.FlushInterval = 2 * time.Second
	})

	h.sink.Log(record(log.LevelInfo, "tick"))
	h.clock.Advance(2 * time.Second)

	req := c.wait(t)
	if diff := cmp.Diff([]string{"tick"}, recordMessages(req.records)); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
	h.sink.Stop()
}

func TestRemoteSinkStopHaltsTicker(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Stop()
	h.sink.Stop()
	h.sink.Log(record(log.LevelInfo, "held"))
	h.clock.Advance(time.Minute)

	if h.sink.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1 after Stop", h.sink.Pending())
	}
	if c.hits() != 0 {
		t.Errorf("hits = %d, want 0", c.hits())
	}
}

func TestRemoteSinkRetryThenAbandon(t *testing.T) {
	c, srv := newCollector(t, always(http.StatusServiceUnavailable))
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) {
		cfg.MaxRetries = 3
		cfg.BackoffBase = 500 * time.Millisecond
	})
	h.sink.Stop()

	h.sink.Log(record(log.LevelWarn, "doomed"))
	h.sink.Flush()

	for attempt := 0; attempt < 3; attempt++ {
		h.clock.WaitForTimers(1)
		delay := (500 * time.Millisecond) << attempt
		h.clock.Advance(delay - time.Millisecond)
		if h.clock.PendingCount() != 1 {
			t.Fatalf("retry %d fired before %v elapsed", attempt+1, delay)
		}
		h.clock.Advance(time.Millisecond)
	}

	err := h.waitError(t)
	if !lferror.HasCode(err, lferror.CodeDeliveryAbandoned) {
		t.Fatalf("reported error = %v, want CodeDeliveryAbandoned", err)
	}
	if c.hits() != 4 {
		t.Errorf("hits = %d, want 1 attempt + 3 retries", c.hits())
	}
	if h.clock.PendingCount() != 0 {
		t.Error("no retry may be scheduled after abandoning")
	}

	c.mu.Lock()
	first := c.requests[0].header.Get(HeaderBatchID)
	for i, req := range c.requests {
		if req.header.Get(HeaderBatchID) != first {
			t.Errorf("attempt %d used batch id %q, want %q", i, req.header.Get(HeaderBatchID), first)
		}
	}
	c.mu.Unlock()
}

func TestRemoteSinkZeroRetries(t *testing.T) {
	c, srv := newCollector(t, always(http.StatusInternalServerError))
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) { cfg.MaxRetries = 0 })

	h.sink.Log(record(log.LevelInfo, "once"))
	h.sink.Flush()

	if err := h.waitError(t); !lferror.HasCode(err, lferror.CodeDeliveryAbandoned) {
		t.Fatalf("reported error = %v", err)
	}
	if c.hits() != 1 {
		t.Errorf("hits = %d, want 1", c.hits())
	}
}

func TestRemoteSinkRecoversOnRetry(t *testing.T) {
	c, srv := newCollector(t, func(n int) int {
		if n <= 2 {
			return http.StatusTooManyRequests
		}
		return http.StatusAccepted
	})
	h := newRemoteHarness(t, srv.URL, nil)
	h.sink.Stop()

	h.sink.Log(record(log.LevelInfo, "eventually"))
	h.sink.Flush()
	h.clock.WaitForTimers(1)
	h.clock.Advance(500 * time.Millisecond)
	h.clock.WaitForTimers(1)
	h.clock.Advance(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sink.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 3 {
		t.Errorf("hits = %d, want 3", c.hits())
	}
	select {
	case err := <-h.errors:
		t.Errorf("unexpected error report: %v", err)
	default:
	}
}

func TestRemoteSinkPermanentFailure(t *testing.T) {
	c, srv := newCollector(t, always(http.StatusBadRequest))
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Log(record(log.LevelInfo, "malformed"))
	h.sink.Flush()

	err := h.waitError(t)
	if !lferror.HasCode(err, lferror.CodePermanentFailure) {
		t.Fatalf("reported error = %v, want CodePermanentFailure", err)
	}
	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 1 {
		t.Errorf("hits = %d, want 1", c.hits())
	}
}

func TestRemoteSinkTransportErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	h := newRemoteHarness(t, endpoint, func(cfg *RemoteConfig) { cfg.MaxRetries = 1 })
	h.sink.Stop()
	h.sink.Log(record(log.LevelInfo, "unreachable"))
	h.sink.Flush()

	h.clock.WaitForTimers(1)
	h.clock.Advance(500 * time.Millisecond)

	err := h.waitError(t)
	if !lferror.HasCode(err, lferror.CodeDeliveryAbandoned) || !lferror.HasCode(err, lferror.CodeNetworkError) {
		t.Errorf("reported error = %v", err)
	}
}

func TestRemoteSinkClearBeforeExhaustion(t *testing.T) {
	c, srv := newCollector(t, always(http.StatusBadGateway))
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) { cfg.MaxRetries = 2 })
	h.sink.Stop()

	h.sink.Log(record(log.LevelInfo, "in flight"))
	h.sink.Flush()
	h.sink.Log(record(log.LevelInfo, "buffered"))
	h.sink.Clear()

	if h.sink.Pending() != 0 {
		t.Fatalf("Pending() = %d after Clear", h.sink.Pending())
	}

	h.clock.WaitForTimers(1)
	h.clock.Advance(500 * time.Millisecond)
	h.clock.WaitForTimers(1)
	h.clock.Advance(time.Second)

	err := h.waitError(t)
	if !lferror.HasCode(err, lferror.CodeDeliveryAbandoned) {
		t.Fatalf("reported error = %v", err)
	}
	if c.hits() != 3 {
		t.Errorf("hits = %d, want 3", c.hits())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, req := range c.requests {
		if diff := cmp.Diff([]string{"in flight"}, recordMessages(req.records)); diff != "" {
			t.Errorf("attempt %d batch mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestRemoteSinkRecordsDuringDeliveryGoToNextBatch(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Log(record(log.LevelInfo, "first"))
	h.sink.Flush()
	h.sink.Log(record(log.LevelInfo, "second"))
	h.sink.Flush()

	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 2 {
		t.Fatalf("hits = %d, want 2", c.hits())
	}
	var all []string
	c.mu.Lock()
	for _, req := range c.requests {
		if len(req.records) != 1 {
			t.Errorf("batch size = %d, want 1", len(req.records))
		}
		all = append(all, recordMessages(req.records)...)
	}
	c.mu.Unlock()
	if len(all) != 2 || all[0] == all[1] {
		t.Errorf("records = %v, want first and second once each", all)
	}
}

func TestRemoteSinkConcurrentLogAndFlush(t *testing.T) {
	const writers, perWriter = 8, 200

	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	stop := make(chan struct{})
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		for {
			select {
			case <-stop:
				return
			default:
				h.sink.Flush()
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				h.sink.Log(record(log.LevelInfo, fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	<-flusherDone

	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	seen := make(map[string]int)
	c.mu.Lock()
	for _, req := range c.requests {
		if len(req.records) == 0 {
			t.Errorf("empty batch delivered")
		}
		for _, m := range recordMessages(req.records) {
			seen[m]++
		}
	}
	c.mu.Unlock()

	if len(seen) != writers*perWriter {
		t.Errorf("distinct records = %d, want %d", len(seen), writers*perWriter)
	}
	for m, n := range seen {
		if n != 1 {
			t.Errorf("record %q delivered %d times, want 1", m, n)
		}
	}
}

func TestRemoteSinkFlushAfterShutdown(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Log(record(log.LevelInfo, "before"))
	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if c.hits() != 1 {
		t.Fatalf("hits after Shutdown = %d, want 1", c.hits())
	}

	h.sink.Log(record(log.LevelInfo, "after"))
	h.sink.Flush()
	if err := h.sink.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if c.hits() != 1 {
		t.Errorf("hits = %d, want 1: nothing is sent after Shutdown", c.hits())
	}
	if got := h.sink.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
}

func TestRemoteSinkCompress(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, func(cfg *RemoteConfig) { cfg.Compress = true })

	h.sink.Log(record(log.LevelInfo, "squeezed"))
	h.sink.Flush()

	req := c.wait(t)
	if req.header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q", req.header.Get("Content-Encoding"))
	}
	if diff := cmp.Diff([]string{"squeezed"}, recordMessages(req.records)); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteSinkShutdownFlushes(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Log(record(log.LevelInfo, "a"))
	h.sink.Log(record(log.LevelInfo, "b"))
	if err := h.sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.hits() != 1 {
		t.Fatalf("hits = %d, want 1", c.hits())
	}
	req := c.wait(t)
	if diff := cmp.Diff([]string{"a", "b"}, recordMessages(req.records)); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteSinkShutdownDeadline(t *testing.T) {
	_, srv := newCollector(t, always(http.StatusServiceUnavailable))
	h := newRemoteHarness(t, srv.URL, nil)

	h.sink.Log(record(log.LevelInfo, "stuck in backoff"))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.sink.Shutdown(ctx)
	if !lferror.HasCode(err, lferror.CodeDeliveryAbandoned) {
		t.Errorf("Shutdown() error = %v, want CodeDeliveryAbandoned", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	h := newRemoteHarness(t, "http://localhost:1", func(cfg *RemoteConfig) {
		cfg.BackoffBase = 500 * time.Millisecond
		cfg.Jitter = func() time.Duration { return 7 * time.Millisecond }
	})
	defer h.sink.Stop()

	want := []time.Duration{507 * time.Millisecond, 1007 * time.Millisecond, 2007 * time.Millisecond, 4007 * time.Millisecond}
	for attempt, w := range want {
		if got := h.sink.BackoffDelay(attempt); got != w {
			t.Errorf("BackoffDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	h := newRemoteHarness(t, "http://localhost:1", func(cfg *RemoteConfig) {
		cfg.BackoffBase = 500 * time.Millisecond
		cfg.MaxBackoff = time.Minute
	})
	defer h.sink.Stop()

	prev := time.Duration(0)
	for attempt := 0; attempt <= 100; attempt++ {
		got := h.sink.BackoffDelay(attempt)
		if got <= 0 {
			t.Fatalf("BackoffDelay(%d) = %v, want positive", attempt, got)
		}
		if got < prev {
			t.Fatalf("BackoffDelay(%d) = %v, less than previous %v", attempt, got, prev)
		}
		if got > time.Minute {
			t.Fatalf("BackoffDelay(%d) = %v, want at most 1m", attempt, got)
		}
		prev = got
	}
	if prev != time.Minute {
		t.Errorf("BackoffDelay(100) = %v, want 1m", prev)
	}
}

func TestBackoffDelayDefaultCap(t *testing.T) {
	h := newRemoteHarness(t, "http://localhost:1", nil)
	defer h.sink.Stop()

	if got := h.sink.BackoffDelay(63); got != 5*time.Minute {
		t.Errorf("BackoffDelay(63) = %v, want 5m", got)
	}
}

func TestDefaultJitterBounds(t *testing.T) {
	cfg := DefaultRemoteConfig("http://localhost:1")
	cfg.Clock = clockx.Fake(testEpoch)
	sink, err := NewRemoteSink(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Stop()

	for i := 0; i < 200; i++ {
		d := sink.BackoffDelay(0)
		if d < 500*time.Millisecond || d >= 600*time.Millisecond {
			t.Fatalf("BackoffDelay(0) = %v, want [500ms, 600ms)", d)
		}
	}
}

func TestNewRemoteSinkValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RemoteConfig)
	}{
		{"no endpoint", func(c *RemoteConfig) { c.Endpoint = "" }},
		{"negative retries", func(c *RemoteConfig) { c.MaxRetries = -1 }},
		{"negative interval", func(c *RemoteConfig) { c.FlushInterval = -time.Second }},
		{"negative max backoff", func(c *RemoteConfig) { c.MaxBackoff = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRemoteConfig("http://localhost:1")
			tt.mutate(&cfg)
			if _, err := NewRemoteSink(cfg); !lferror.HasCode(err, lferror.CodeInvalidConfig) {
				t.Errorf("NewRemoteSink() error = %v, want CodeInvalidConfig", err)
			}
		})
	}
}

func TestRemoteSinkThroughLogger(t *testing.T) {
	c, srv := newCollector(t, nil)
	h := newRemoteHarness(t, srv.URL, nil)

	cfg := log.DefaultConfig()
	cfg.Sinks = []log.Sink{h.sink}
	logger := log.MustNew(cfg)
	logger.Info("via logger", map[string]any{"k": "v"})
	logger.Flush()

	req := c.wait(t)
	if diff := cmp.Diff([]string{"via logger"}, recordMessages(req.records)); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
