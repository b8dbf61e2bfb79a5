// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sinks
// Description: RemoteSink batches records and POSTs them to an HTTP endpoint
//              with exponential-backoff retry
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/foundation/utils/clockx"
	"github.com/msto63/logflow/pkg/core/version"
)

// HeaderBatchID carries the batch identifier, stable across retries
const HeaderBatchID = "X-Batch-ID"

// RemoteConfig holds configuration for RemoteSink
type RemoteConfig struct {
	Endpoint       string            // Destination URL
	Headers        map[string]string // Merged over Content-Type: application/json
	FlushInterval  time.Duration     // Ticker period (default: 3s)
	MaxRetries     int               // Retries after the first attempt (0 allowed)
	BackoffBase    time.Duration     // First retry delay (default: 500ms)
	MaxBackoff     time.Duration     // Cap on the exponential delay (default: 5m)
	MaxJitter      time.Duration     // Upper bound of retry jitter (default: 100ms)
	RequestTimeout time.Duration     // Per-attempt timeout (default: 10s)
	Compress       bool              // gzip request bodies

	HTTPClient   *http.Client         // default: a new http.Client
	Clock        clockx.Clock         // Drives the ticker and backoff waits
	Jitter       func() time.Duration // Overrides the random jitter source
	ErrorHandler func(error)          // Receives abandoned batches (default: stderr)
}

// DefaultRemoteConfig returns the default configuration for endpoint
func DefaultRemoteConfig(endpoint string) RemoteConfig {
	return RemoteConfig{
		Endpoint:       endpoint,
		FlushInterval:  3 * time.Second,
		MaxRetries:     3,
		BackoffBase:    500 * time.Millisecond,
		MaxBackoff:     5 * time.Minute,
		MaxJitter:      100 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}
}

// RemoteSink buffers records and delivers them in batches. Log never
// blocks on I/O. Every flush turns the buffer into one batch that is
// delivered on its own goroutine, so several batches may be in flight
// at once and may arrive out of order.
type RemoteSink struct {
	endpoint    string
	headers     http.Header
	maxRetries  int
	backoffBase time.Duration
	maxBackoff  time.Duration
	timeout     time.Duration
	compress    bool
	client      *http.Client
	clock       clockx.Clock
	jitter      func() time.Duration
	onError     func(error)

	// Batching
	buffer   []log.Record
	bufferMu sync.Mutex
	closed   bool // set by Shutdown; no delivery starts afterwards

	// Lifecycle
	ticker   *clockx.Ticker
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	inflight sync.WaitGroup
}

// NewRemoteSink creates a RemoteSink and starts its flush ticker. Zero
// durations take their defaults; MaxRetries is used as given.
func NewRemoteSink(cfg RemoteConfig) (*RemoteSink, error) {
	invalid := func(msg string, key string, value any) error {
		return lferror.New(msg).
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("sinks.NewRemoteSink").
			WithDetail(key, value)
	}
	if cfg.Endpoint == "" {
		return nil, invalid("remote endpoint is required", "endpoint", cfg.Endpoint)
	}
	if cfg.MaxRetries < 0 {
		return nil, invalid("max retries must not be negative", "maxRetries", cfg.MaxRetries)
	}
	if cfg.FlushInterval < 0 || cfg.BackoffBase < 0 || cfg.MaxBackoff < 0 || cfg.MaxJitter < 0 || cfg.RequestTimeout < 0 {
		return nil, invalid("durations must not be negative", "endpoint", cfg.Endpoint)
	}

	defaults := DefaultRemoteConfig(cfg.Endpoint)
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}
	if cfg.MaxBackoff < cfg.BackoffBase {
		cfg.MaxBackoff = cfg.BackoffBase
	}
	if cfg.MaxJitter == 0 {
		cfg.MaxJitter = defaults.MaxJitter
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockx.Real()
	}
	if cfg.Jitter == nil {
		maxJitter := int64(cfg.MaxJitter)
		cfg.Jitter = func() time.Duration { return time.Duration(rand.Int63n(maxJitter)) }
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(err error) {
			fmt.Fprintf(os.Stderr, "logflow: remote sink: %v\n", err)
		}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", version.UserAgent())
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	s := &RemoteSink{
		endpoint:    cfg.Endpoint,
		headers:     headers,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		maxBackoff:  cfg.MaxBackoff,
		timeout:     cfg.RequestTimeout,
		compress:    cfg.Compress,
		client:      cfg.HTTPClient,
		clock:       cfg.Clock,
		jitter:      cfg.Jitter,
		onError:     cfg.ErrorHandler,
		ticker:      cfg.Clock.NewTicker(cfg.FlushInterval),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	go s.flushWorker()

	return s, nil
}

// flushWorker flushes on every tick until Stop
func (s *RemoteSink) flushWorker() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.ticker.C:
			s.Flush()
		case <-s.stopCh:
			return
		}
	}
}

// Log implements log.Sink. It only appends to the buffer.
func (s *RemoteSink) Log(record log.Record) error {
	s.bufferMu.Lock()
	s.buffer = append(s.buffer, record.Clone())
	s.bufferMu.Unlock()
	return nil
}

// Pending returns the number of buffered records not yet taken by a flush
func (s *RemoteSink) Pending() int {
	s.bufferMu.Lock()
	defer s.bufferMu.Unlock()
	return len(s.buffer)
}

// Flush takes the buffer as a new batch and starts delivering it. An
// empty buffer sends nothing. Flush does not wait for delivery. After
// Shutdown, Flush does nothing.
func (s *RemoteSink) Flush() {
	s.bufferMu.Lock()
	batch := s.takeLocked()
	s.bufferMu.Unlock()

	if batch != nil {
		go s.deliver(batch)
	}
}

// takeLocked swaps out the buffer and registers it as in flight. It
// returns nil when the buffer is empty or the sink is shut down. The
// caller holds bufferMu.
func (s *RemoteSink) takeLocked() []log.Record {
	if s.closed || len(s.buffer) == 0 {
		return nil
	}
	batch := s.buffer
	s.buffer = nil
	s.inflight.Add(1)
	return batch
}

// Clear drops buffered records. Batches already taken are unaffected.
func (s *RemoteSink) Clear() {
	s.bufferMu.Lock()
	s.buffer = nil
	s.bufferMu.Unlock()
}

// Stop cancels the flush ticker. Deliveries in flight and scheduled
// retries continue.
func (s *RemoteSink) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.stopCh)
	})
}

// Shutdown stops the ticker, flushes the buffer and waits for every
// in-flight batch to be delivered or abandoned, or for ctx to end.
// Records logged after Shutdown stay buffered and are never sent.
func (s *RemoteSink) Shutdown(ctx context.Context) error {
	s.Stop()
	<-s.doneCh

	s.bufferMu.Lock()
	batch := s.takeLocked()
	s.closed = true
	s.bufferMu.Unlock()
	if batch != nil {
		go s.deliver(batch)
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return lferror.Wrap(ctx.Err(), "remote sink shutdown interrupted").
			WithCode(lferror.CodeDeliveryAbandoned).
			WithOperation("sinks.RemoteSink.Shutdown").
			WithDetail("endpoint", s.endpoint)
	}
}

// Close implements io.Closer by shutting down without a deadline
func (s *RemoteSink) Close() error {
	return s.Shutdown(context.Background())
}

// BackoffDelay returns the wait before retry number attempt+1:
// BackoffBase * 2^attempt, capped at MaxBackoff, plus jitter. Delays
// never decrease as attempt grows.
func (s *RemoteSink) BackoffDelay(attempt int) time.Duration {
	delay := s.backoffBase
	for i := 0; i < attempt && delay < s.maxBackoff; i++ {
		if delay > s.maxBackoff/2 {
			delay = s.maxBackoff
			break
		}
		delay *= 2
	}
	if delay > s.maxBackoff {
		delay = s.maxBackoff
	}
	return delay + s.jitter()
}

// deliver runs the retry state machine for one batch
func (s *RemoteSink) deliver(batch []log.Record) {
	defer s.inflight.Done()

	batchID := uuid.NewString()
	body, err := s.encode(batch)
	if err != nil {
		s.onError(lferror.Wrap(err, "encode batch").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("sinks.RemoteSink.deliver").
			WithDetail("batchId", batchID).
			WithDetail("records", len(batch)))
		return
	}

	for attempt := 0; ; attempt++ {
		err := s.post(batchID, body)
		if err == nil {
			return
		}
		if lferror.HasCode(err, lferror.CodePermanentFailure) {
			s.onError(lferror.Wrap(err, "batch rejected").
				WithOperation("sinks.RemoteSink.deliver").
				WithDetail("batchId", batchID).
				WithDetail("records", len(batch)).
				WithDetail("attempts", attempt+1))
			return
		}
		if attempt >= s.maxRetries {
			s.onError(lferror.Wrap(err, "batch abandoned after retries").
				WithCode(lferror.CodeDeliveryAbandoned).
				WithOperation("sinks.RemoteSink.deliver").
				WithDetail("batchId", batchID).
				WithDetail("records", len(batch)).
				WithDetail("attempts", attempt+1))
			return
		}
		<-s.clock.After(s.BackoffDelay(attempt))
	}
}

// encode renders the batch as a JSON array, gzipped when configured
func (s *RemoteSink) encode(batch []log.Record) ([]byte, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}
	if !s.compress {
		return data, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// post performs one delivery attempt. Transport errors, 5xx and 429 are
// retryable; other non-2xx statuses are permanent.
func (s *RemoteSink) post(batchID string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return lferror.Wrap(err, "build request").
			WithCode(lferror.CodePermanentFailure).
			WithDetail("endpoint", s.endpoint)
	}
	for k, v := range s.headers {
		req.Header[k] = v
	}
	req.Header.Set(HeaderBatchID, batchID)
	if s.compress {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return lferror.Wrap(err, "send batch").
			WithCode(lferror.CodeNetworkError).
			WithDetail("endpoint", s.endpoint)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return lferror.New("endpoint returned " + strconv.Itoa(resp.StatusCode)).
			WithCode(lferror.CodeNetworkError).
			WithDetail("endpoint", s.endpoint).
			WithDetail("status", resp.StatusCode)
	default:
		return lferror.New("endpoint returned " + strconv.Itoa(resp.StatusCode)).
			WithCode(lferror.CodePermanentFailure).
			WithDetail("endpoint", s.endpoint).
			WithDetail("status", resp.StatusCode)
	}
}
