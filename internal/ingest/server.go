package ingest

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/pkg/core/cache"
	"github.com/msto63/logflow/pkg/core/health"
	"github.com/msto63/logflow/pkg/core/sinks"
	"github.com/msto63/logflow/pkg/core/version"
)

const (
	// IngestPath receives batches from a RemoteSink
	IngestPath = "/logs"
	// HealthPath serves the health report with receiver statistics
	HealthPath = "/healthz"
)

// Config holds receiver configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxBodyBytes caps the decoded request body
	MaxBodyBytes int64

	// DedupeCapacity is how many batch IDs are remembered
	DedupeCapacity int

	// DedupeTTL is how long a batch ID is remembered
	DedupeTTL time.Duration

	// FailFirst answers the first N batches with 503 so senders retry
	FailFirst int
}

// DefaultConfig returns default receiver configuration
func DefaultConfig() Config {
	return Config{
		Addr:           ":8088",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxBodyBytes:   8 << 20,
		DedupeCapacity: 4096,
		DedupeTTL:      10 * time.Minute,
	}
}

// Stats are cumulative receiver counters
type Stats struct {
	Batches    int64 `json:"batches"`
	Records    int64 `json:"records"`
	Duplicates int64 `json:"duplicates"`
	Rejected   int64 `json:"rejected"`
	Failed     int64 `json:"failed"`
}

// Server accepts record batches over HTTP and hands every record to a sink
type Server struct {
	cfg    Config
	sink   log.Sink
	logger *log.Logger
	parser fastjson.ParserPool

	seen *cache.Cache

	mu     sync.Mutex
	failed int

	batches    atomic.Int64
	records    atomic.Int64
	duplicates atomic.Int64
	rejected   atomic.Int64
	failures   atomic.Int64

	health     *health.Registry
	httpServer *http.Server
}

// New creates a receiver. sink receives decoded records; logger, when not
// nil, receives the receiver's own diagnostics.
func New(cfg Config, sink log.Sink, logger *log.Logger) (*Server, error) {
	if sink == nil {
		return nil, lferror.New("ingest sink is required").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("ingest.New")
	}
	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.DedupeCapacity <= 0 {
		cfg.DedupeCapacity = def.DedupeCapacity
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = def.DedupeTTL
	}
	if cfg.FailFirst < 0 {
		return nil, lferror.New("fail-first must not be negative").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("ingest.New")
	}

	s := &Server{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		seen:   cache.New(cache.Config{MaxItems: cfg.DedupeCapacity, TTL: cfg.DedupeTTL}),
	}

	s.health = health.NewRegistry("ingest", version.Ingest, nil)
	s.health.RegisterFunc("receiver", s.checkReceiver)

	mux := http.NewServeMux()
	mux.HandleFunc(IngestPath, s.handleIngest)
	mux.Handle(HealthPath, s.health)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the HTTP handler, for embedding or httptest
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and blocks until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return lferror.Wrap(err, "listen failed").
			WithCode(lferror.CodeNetworkError).
			WithOperation("ingest.Start").
			WithDetail("addr", s.cfg.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.debug("Starting ingest receiver", map[string]any{"addr": ln.Addr().String()})
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.debug("Stopping ingest receiver")
	return s.httpServer.Shutdown(ctx)
}

// Stats returns a snapshot of the counters
func (s *Server) Stats() Stats {
	return Stats{
		Batches:    s.batches.Load(),
		Records:    s.records.Load(),
		Duplicates: s.duplicates.Load(),
		Rejected:   s.rejected.Load(),
		Failed:     s.failures.Load(),
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.injectFailure() {
		s.failures.Add(1)
		http.Error(w, "Injected failure", http.StatusServiceUnavailable)
		return
	}

	batchID := r.Header.Get(sinks.HeaderBatchID)
	if batchID != "" && s.seen.Contains(batchID) {
		s.duplicates.Add(1)
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := readBody(r, s.cfg.MaxBodyBytes)
	if err != nil {
		s.rejected.Add(1)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		s.rejected.Add(1)
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Handle batch (Array) or single (Object)
	var values []*fastjson.Value
	if v.Type() == fastjson.TypeArray {
		values, _ = v.Array()
	} else {
		values = []*fastjson.Value{v}
	}

	records := make([]log.Record, 0, len(values))
	for _, val := range values {
		rec, err := DecodeRecord(val)
		if err != nil {
			s.rejected.Add(1)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records = append(records, rec)
	}

	if batchID != "" {
		s.seen.Set(batchID, len(records))
	}
	s.batches.Add(1)

	var sinkErrs []error
	for _, rec := range records {
		if err := s.sink.Log(rec); err != nil {
			sinkErrs = append(sinkErrs, err)
			continue
		}
		s.records.Add(1)
	}
	if err := errors.Join(sinkErrs...); err != nil {
		s.warn("Sink rejected received records", map[string]any{"error": err.Error(), "batch": batchID})
	}

	w.WriteHeader(http.StatusOK)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

// checkReceiver is degraded while failures are still being injected
func (s *Server) checkReceiver(ctx context.Context) health.CheckResult {
	stats := s.Stats()
	result := health.CheckResult{
		Name:   "receiver",
		Status: health.StatusHealthy,
		Details: map[string]any{
			"batches":    stats.Batches,
			"records":    stats.Records,
			"duplicates": stats.Duplicates,
			"rejected":   stats.Rejected,
			"failed":     stats.Failed,
		},
	}

	s.mu.Lock()
	injecting := s.failed < s.cfg.FailFirst
	s.mu.Unlock()
	if injecting {
		result.Status = health.StatusDegraded
		result.Message = "injecting failures"
	}
	return result
}

func (s *Server) injectFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed < s.cfg.FailFirst {
		s.failed++
		return true
	}
	return false
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()

	var reader io.Reader = r.Body
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, lferror.Wrap(err, "invalid gzip body").WithCode(lferror.CodeInvalidInput)
		}
		defer zr.Close()
		reader = zr
	}

	body, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, lferror.Wrap(err, "failed to read body").WithCode(lferror.CodeIOError)
	}
	if int64(len(body)) > limit {
		return nil, lferror.New("body too large").
			WithCode(lferror.CodeInvalidInput).
			WithDetail("limit", limit)
	}
	return body, nil
}

// loggingMiddleware adds request logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		s.debug("HTTP request", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapper.statusCode,
			"batch":    r.Header.Get(sinks.HeaderBatchID),
			"duration": time.Since(start).String(),
		})
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.LogDepth(1, log.LevelDebug, msg, args...)
	}
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.LogDepth(1, log.LevelWarn, msg, args...)
	}
}
