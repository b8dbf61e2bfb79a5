// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     logging
// Description: Assembles a Logger and its sinks from a configuration file
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/foundation/utils/clockx"
	"github.com/msto63/logflow/pkg/core/config"
	"github.com/msto63/logflow/pkg/core/health"
	"github.com/msto63/logflow/pkg/core/sentrysink"
	"github.com/msto63/logflow/pkg/core/sinks"
	"github.com/msto63/logflow/pkg/core/version"
)

// BacklogDegradedAt is the remote backlog at which the pipeline reports
// itself degraded
const BacklogDegradedAt = 10000

// Options supplies runtime dependencies the configuration file cannot
type Options struct {
	Stdout io.Writer // Console stdout (default: os.Stdout)
	Stderr io.Writer // Console stderr (default: os.Stderr)

	HTTPClient *http.Client // Remote sink client
	Clock      clockx.Clock // Logger and remote sink clock
	SentryHub  *sentry.Hub  // Replaces the hub built from the DSN

	ContextProvider func() map[string]any
	ErrorHandler    func(error) // Sink and delivery failures (default: stderr)
}

// Pipeline is a Logger together with the sinks built for it
type Pipeline struct {
	Logger *log.Logger

	Console *sinks.ConsoleSink
	Memory  *sinks.MemorySink
	File    *sinks.FileSink
	Remote  *sinks.RemoteSink
	Sentry  *sentrysink.Sink
}

// NewPipeline builds the Logger and every enabled sink in cfg. Sinks are
// attached in the order console, memory, file, remote, sentry. If any
// sink fails to build, the ones already built are closed.
func NewPipeline(cfg *config.File, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{}

	fail := func(err error) (*Pipeline, error) {
		_ = p.Shutdown(context.Background())
		return nil, lferror.Wrap(err, "build logging pipeline").
			WithOperation("logging.NewPipeline")
	}

	levels := levelsFrom(cfg.Logger.Levels)
	attached := make([]log.Sink, 0, 5)

	if s := cfg.Sinks.Console; s != nil && s.Enabled {
		console, err := sinks.NewConsoleSink(sinks.ConsoleConfig{
			Stream: sinks.Stream(s.Stream),
			Stdout: opts.Stdout,
			Stderr: opts.Stderr,
		})
		if err != nil {
			return fail(err)
		}
		p.Console = console
		attached = append(attached, console)
	}
	if s := cfg.Sinks.Memory; s != nil && s.Enabled {
		p.Memory = sinks.NewMemorySink(s.Max)
		attached = append(attached, p.Memory)
	}
	if s := cfg.Sinks.File; s != nil && s.Enabled {
		format, err := log.ParseFormat(s.Format)
		if err != nil {
			return fail(err)
		}
		file, err := sinks.NewFileSink(sinks.FileConfig{
			Path:      s.Path,
			Formatter: log.GetFormatter(format),
		})
		if err != nil {
			return fail(err)
		}
		p.File = file
		attached = append(attached, file)
	}
	if s := cfg.Sinks.Remote; s != nil && s.Enabled {
		rc := sinks.DefaultRemoteConfig(s.Endpoint)
		rc.Headers = s.Headers
		rc.FlushInterval = s.FlushInterval.Duration
		if s.MaxRetries != nil {
			rc.MaxRetries = *s.MaxRetries
		}
		rc.BackoffBase = s.BackoffBase.Duration
		rc.MaxBackoff = s.MaxBackoff.Duration
		rc.RequestTimeout = s.Timeout.Duration
		rc.Compress = s.Compress
		rc.HTTPClient = opts.HTTPClient
		rc.Clock = opts.Clock
		rc.ErrorHandler = opts.ErrorHandler

		remote, err := sinks.NewRemoteSink(rc)
		if err != nil {
			return fail(err)
		}
		p.Remote = remote
		attached = append(attached, remote)
	}
	if s := cfg.Sinks.Sentry; s != nil && s.Enabled {
		sentrySink, err := sentrysink.New(sentrysink.Config{
			DSN:                      s.DSN,
			Environment:              s.Environment,
			Release:                  s.Release,
			LevelThreshold:           s.LevelThreshold,
			Levels:                   levels,
			IncludeArgsInFingerprint: s.IncludeArgsInFingerprint,
			Hub:                      opts.SentryHub,
			ErrorHandler:             opts.ErrorHandler,
		})
		if err != nil {
			return fail(err)
		}
		p.Sentry = sentrySink
		attached = append(attached, sentrySink)
	}

	lc := log.Config{
		Name:                cfg.Logger.Name,
		MinLevel:            cfg.Logger.MinLevel,
		Levels:              levels,
		Sinks:               attached,
		EnableColors:        boolOr(cfg.Logger.EnableColors, true),
		EnableTimestamp:     boolOr(cfg.Logger.EnableTimestamp, true),
		EnableSourceTagging: cfg.Logger.EnableSourceTagging,
		ContextProvider:     opts.ContextProvider,
		Clock:               opts.Clock,
		ErrorHandler:        opts.ErrorHandler,
	}
	if rl := cfg.Logger.RateLimit; rl != nil {
		lc.RateLimit = &log.RateLimitConfig{
			Enabled:  rl.Enabled,
			Interval: rl.Interval.Duration,
			MaxLogs:  rl.MaxLogs,
		}
	}

	logger, err := log.New(lc)
	if err != nil {
		return fail(err)
	}
	p.Logger = logger
	return p, nil
}

// Shutdown stops the remote sink's ticker, delivers what it still holds
// within ctx, then flushes and closes the remaining sinks.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Remote != nil {
		if err := p.Remote.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if p.File != nil {
		if err := p.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Sentry != nil {
		if err := p.Sentry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health returns a registry reporting the logger and, when present, the
// remote sink backlog
func (p *Pipeline) Health() *health.Registry {
	registry := health.NewRegistry(p.Logger.Name(), version.Library, nil)
	registry.RegisterFunc("logger", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Status: health.StatusHealthy,
			Details: map[string]any{
				"min_level": p.Logger.MinLevel().Name,
				"sinks":     len(p.Logger.Sinks()),
			},
		}
	})
	if p.Remote != nil {
		registry.Register(health.BacklogCheck("remote", p.Remote.Pending, BacklogDegradedAt))
	}
	return registry
}

func levelsFrom(cfg []config.LevelConfig) []log.Level {
	if len(cfg) == 0 {
		return nil
	}
	levels := make([]log.Level, len(cfg))
	for i, l := range cfg {
		levels[i] = log.Level{Name: l.Name, Priority: l.Priority, Color: l.Color}
	}
	return levels
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
