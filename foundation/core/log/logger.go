// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger pipeline: severity filter, rate limiter,
//              record construction and synchronous fan-out to sinks.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/utils/clockx"
)

// RateLimitConfig enables sliding-window rate limiting of log calls
type RateLimitConfig struct {
	Enabled  bool
	Interval time.Duration
	MaxLogs  int
}

// Config configures a Logger
type Config struct {
	// Name identifies the logger in diagnostics
	Name string

	// MinLevel is the name of the least severe level that passes.
	// Empty means the lowest-priority configured level.
	MinLevel string

	// Levels overrides the severity table (default DefaultLevels())
	Levels []Level

	// Sinks is the initial ordered sink list
	Sinks []Sink

	EnableColors        bool
	EnableTimestamp     bool
	EnableSourceTagging bool

	// ContextProvider is invoked once per record to snapshot ambient context
	ContextProvider func() map[string]any

	RateLimit *RateLimitConfig

	// Clock supplies timestamps and drives the rate limiter (default real time)
	Clock clockx.Clock

	// CallerSkip adds frames to skip when tagging sources, for wrappers
	CallerSkip int

	// SourceLocator overrides call-site lookup (default CallerSource)
	SourceLocator SourceLocator

	// ErrorHandler receives sink failures (default: one line on stderr)
	ErrorHandler func(error)
}

// DefaultConfig returns colors and timestamps enabled, source tagging off
func DefaultConfig() Config {
	return Config{
		EnableColors:    true,
		EnableTimestamp: true,
	}
}

// Logger filters, enriches and dispatches log calls. It is safe for
// concurrent use.
type Logger struct {
	name         string
	levels       *levelTable
	minLevel     Level
	presentation Presentation

	contextProvider func() map[string]any
	sourceTagging   bool
	callerSkip      int
	locate          SourceLocator
	limiter         *RateLimiter
	clock           clockx.Clock
	onError         func(error)

	mu    sync.RWMutex
	sinks []Sink
}

// New creates a Logger. Invalid configuration is rejected with a
// CodeInvalidConfig error.
func New(cfg Config) (*Logger, error) {
	levels := cfg.Levels
	if levels == nil {
		levels = DefaultLevels()
	}
	table, err := newLevelTable(levels)
	if err != nil {
		return nil, err
	}

	minLevel := table.lowest()
	if cfg.MinLevel != "" {
		lvl, ok := table.lookup(cfg.MinLevel)
		if !ok {
			return nil, lferror.New("minimum level is not a configured level").
				WithCode(lferror.CodeInvalidConfig).
				WithOperation("log.New").
				WithDetail("min_level", cfg.MinLevel)
		}
		minLevel = lvl
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockx.Real()
	}

	l := &Logger{
		name:     cfg.Name,
		levels:   table,
		minLevel: minLevel,
		presentation: Presentation{
			Colors:    cfg.EnableColors,
			Timestamp: cfg.EnableTimestamp,
			Levels:    table.levels(),
		},
		contextProvider: cfg.ContextProvider,
		sourceTagging:   cfg.EnableSourceTagging,
		callerSkip:      cfg.CallerSkip,
		locate:          cfg.SourceLocator,
		clock:           clock,
		onError:         cfg.ErrorHandler,
	}
	if l.locate == nil {
		l.locate = CallerSource
	}
	if l.onError == nil {
		l.onError = stderrHandler(cfg.Name)
	}

	if rl := cfg.RateLimit; rl != nil && rl.Enabled {
		limiter, err := NewRateLimiter(rl.Interval, rl.MaxLogs, clock)
		if err != nil {
			return nil, lferror.Wrap(err, "invalid rate limit").WithOperation("log.New")
		}
		l.limiter = limiter
	}

	for _, s := range cfg.Sinks {
		l.AddSink(s)
	}
	return l, nil
}

// MustNew is New that panics on invalid configuration
func MustNew(cfg Config) *Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

func stderrHandler(name string) func(error) {
	prefix := "logflow"
	if name != "" {
		prefix = "logflow[" + name + "]"
	}
	return func(err error) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	}
}

// AddSink appends a sink to the dispatch list
func (l *Logger) AddSink(s Sink) {
	if s == nil {
		return
	}
	if pa, ok := s.(PresentationAware); ok {
		pa.SetPresentation(l.presentation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Sinks returns the registered sinks in dispatch order
func (l *Logger) Sinks() []Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Sink, len(l.sinks))
	copy(out, l.sinks)
	return out
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Levels returns the severity table ordered by ascending priority
func (l *Logger) Levels() []Level {
	return l.levels.levels()
}

// MinLevel returns the minimum level that passes the filter
func (l *Logger) MinLevel() Level {
	return l.minLevel
}

// RateLimiter returns the limiter, or nil when rate limiting is disabled
func (l *Logger) RateLimiter() *RateLimiter {
	return l.limiter
}

// Enabled reports whether level passes the severity filter. It does not
// consult the rate limiter.
func (l *Logger) Enabled(level string) bool {
	lvl, ok := l.levels.lookup(level)
	return ok && lvl.Priority >= l.minLevel.Priority
}

// Log logs message at the named level. Unknown levels are dropped.
func (l *Logger) Log(level string, message string, args ...any) {
	l.dispatch(1, level, message, args)
}

// LogDepth is Log for wrappers: depth counts the wrapper frames between
// the real call site and LogDepth.
func (l *Logger) LogDepth(depth int, level string, message string, args ...any) {
	l.dispatch(1+depth, level, message, args)
}

// Debug logs at DEBUG
func (l *Logger) Debug(message string, args ...any) {
	l.dispatch(1, LevelDebug, message, args)
}

// Info logs at INFO
func (l *Logger) Info(message string, args ...any) {
	l.dispatch(1, LevelInfo, message, args)
}

// Warn logs at WARN
func (l *Logger) Warn(message string, args ...any) {
	l.dispatch(1, LevelWarn, message, args)
}

// Error logs at ERROR
func (l *Logger) Error(message string, args ...any) {
	l.dispatch(1, LevelError, message, args)
}

// StartTimer starts a Timer that logs at DEBUG when stopped
func (l *Logger) StartTimer(operation string) *Timer {
	return &Timer{
		logger:    l,
		operation: operation,
		start:     l.clock.Now(),
		level:     LevelDebug,
	}
}

// LogAt logs with the call site given by pc, as captured by
// runtime.Callers or carried in slog.Record.PC. A zero pc leaves the
// record without a source.
func (l *Logger) LogAt(pc uintptr, level string, message string, args ...any) {
	if !l.admit(level) {
		return
	}
	record := l.buildRecord(level, message, args)
	if l.sourceTagging && pc != 0 {
		record.Source = SourceForPC(pc)
	}
	l.emit(record)
}

// dispatch runs the pipeline. depth is the number of frames between
// dispatch and the call site.
func (l *Logger) dispatch(depth int, level, message string, args []any) {
	if !l.admit(level) {
		return
	}
	record := l.buildRecord(level, message, args)
	if l.sourceTagging {
		// frames: locator <- dispatch <- depth wrappers <- call site
		record.Source = l.locate(depth + 1 + l.callerSkip)
	}
	l.emit(record)
}

// admit applies the severity filter, then the rate limiter. Dropped
// calls never consume rate-limit budget.
func (l *Logger) admit(level string) bool {
	lvl, ok := l.levels.lookup(level)
	if !ok || lvl.Priority < l.minLevel.Priority {
		return false
	}
	return l.limiter == nil || l.limiter.ShouldLog()
}

func (l *Logger) buildRecord(level, message string, args []any) Record {
	record := Record{
		Level:     level,
		Message:   message,
		Timestamp: l.clock.Now(),
	}
	if len(args) > 0 {
		record.Args = make([]any, len(args))
		copy(record.Args, args)
		record.OriginalError = firstError(record.Args)
	}
	if l.contextProvider != nil {
		if ctx := l.contextProvider(); ctx != nil {
			record.Context = make(map[string]any, len(ctx))
			for k, v := range ctx {
				record.Context[k] = v
			}
		}
	}
	return record
}

func (l *Logger) emit(record Record) {
	l.mu.RLock()
	sinks := l.sinks
	l.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Log(record); err != nil {
			l.onError(lferror.Wrap(err, "sink failed").
				WithCode(lferror.CodeSinkError).
				WithOperation("log.Logger.emit").
				WithDetail("sink", fmt.Sprintf("%T", s)).
				WithDetail("level", record.Level))
		}
	}
}

// Flush flushes every sink implementing Flusher
func (l *Logger) Flush() {
	for _, s := range l.Sinks() {
		if f, ok := s.(Flusher); ok {
			f.Flush()
		}
	}
}

// Clear clears every sink implementing Clearer
func (l *Logger) Clear() {
	for _, s := range l.Sinks() {
		if c, ok := s.(Clearer); ok {
			c.Clear()
		}
	}
}

// Close closes every sink implementing io.Closer and stops those
// implementing only Stopper. Closing a buffering sink may block until its
// pending deliveries finish.
func (l *Logger) Close() error {
	var errs []error
	for _, s := range l.Sinks() {
		switch v := s.(type) {
		case io.Closer:
			if err := v.Close(); err != nil {
				errs = append(errs, err)
			}
		case Stopper:
			v.Stop()
		}
	}
	return errors.Join(errs...)
}

// Default logger writing text lines to stderr at INFO and above
var (
	defaultMu     sync.RWMutex
	defaultLogger = newDefaultLogger()
)

func newDefaultLogger() *Logger {
	cfg := DefaultConfig()
	cfg.Name = "default"
	cfg.MinLevel = LevelInfo
	cfg.Sinks = []Sink{NewWriterSink(os.Stderr, nil)}
	return MustNew(cfg)
}

// Default returns the package-level logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger
func SetDefault(logger *Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Global convenience functions using the default logger

// Debug logs at DEBUG on the default logger
func Debug(message string, args ...any) {
	Default().dispatch(1, LevelDebug, message, args)
}

// Info logs at INFO on the default logger
func Info(message string, args ...any) {
	Default().dispatch(1, LevelInfo, message, args)
}

// Warn logs at WARN on the default logger
func Warn(message string, args ...any) {
	Default().dispatch(1, LevelWarn, message, args)
}

// Error logs at ERROR on the default logger
func Error(message string, args ...any) {
	Default().dispatch(1, LevelError, message, args)
}
