// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package: config
// Description: Configuration schema for a logging pipeline: logger settings
//              and the sinks to attach, loaded from TOML or YAML
// Author: Mike Stoffels
// Created: 2026-10-19
// License: MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	lferror "github.com/msto63/logflow/foundation/core/error"
	fconfig "github.com/msto63/logflow/foundation/core/config"
)

// EnvConfigPath names the environment variable LoadFromEnv reads
const EnvConfigPath = "LOGFLOW_CONFIG"

// File holds a complete pipeline configuration
type File struct {
	Logger LoggerConfig `toml:"logger" yaml:"logger"`
	Sinks  SinksConfig  `toml:"sinks" yaml:"sinks"`
}

// LoggerConfig holds the Logger settings
type LoggerConfig struct {
	Name                string           `toml:"name" yaml:"name"`
	MinLevel            string           `toml:"min_level" yaml:"min_level"`
	EnableColors        *bool            `toml:"enable_colors" yaml:"enable_colors"`
	EnableTimestamp     *bool            `toml:"enable_timestamp" yaml:"enable_timestamp"`
	EnableSourceTagging bool             `toml:"enable_source_tagging" yaml:"enable_source_tagging"`
	Levels              []LevelConfig    `toml:"levels" yaml:"levels"`
	RateLimit           *RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
}

// LevelConfig defines one severity level
type LevelConfig struct {
	Name     string `toml:"name" yaml:"name"`
	Priority int    `toml:"priority" yaml:"priority"`
	Color    string `toml:"color" yaml:"color"`
}

// RateLimitConfig holds sliding-window rate limit settings
type RateLimitConfig struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	Interval Duration `toml:"interval" yaml:"interval"`
	MaxLogs  int      `toml:"max_logs" yaml:"max_logs"`
}

// SinksConfig holds the sinks to attach. A nil section is disabled.
type SinksConfig struct {
	Console *ConsoleConfig `toml:"console" yaml:"console"`
	Memory  *MemoryConfig  `toml:"memory" yaml:"memory"`
	File    *FileConfig    `toml:"file" yaml:"file"`
	Remote  *RemoteConfig  `toml:"remote" yaml:"remote"`
	Sentry  *SentryConfig  `toml:"sentry" yaml:"sentry"`
}

// ConsoleConfig holds console sink settings
type ConsoleConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// Stream is "split" (DEBUG/INFO to stdout, others to stderr), "stdout" or "stderr"
	Stream string `toml:"stream" yaml:"stream"`
}

// MemoryConfig holds memory sink settings
type MemoryConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	Max     int  `toml:"max" yaml:"max"`
}

// FileConfig holds file sink settings
type FileConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
	// Format is "text" or "json"
	Format string `toml:"format" yaml:"format"`
}

// RemoteConfig holds remote sink settings
type RemoteConfig struct {
	Enabled       bool              `toml:"enabled" yaml:"enabled"`
	Endpoint      string            `toml:"endpoint" yaml:"endpoint"`
	Headers       map[string]string `toml:"headers" yaml:"headers"`
	FlushInterval Duration          `toml:"flush_interval" yaml:"flush_interval"`
	MaxRetries    *int              `toml:"max_retries" yaml:"max_retries"`
	BackoffBase   Duration          `toml:"backoff_base" yaml:"backoff_base"`
	MaxBackoff    Duration          `toml:"max_backoff" yaml:"max_backoff"`
	Timeout       Duration          `toml:"timeout" yaml:"timeout"`
	Compress      bool              `toml:"compress" yaml:"compress"`
}

// SentryConfig holds error-tracking sink settings
type SentryConfig struct {
	Enabled                  bool   `toml:"enabled" yaml:"enabled"`
	DSN                      string `toml:"dsn" yaml:"dsn"`
	Environment              string `toml:"environment" yaml:"environment"`
	Release                  string `toml:"release" yaml:"release"`
	LevelThreshold           string `toml:"level_threshold" yaml:"level_threshold"`
	IncludeArgsInFingerprint bool   `toml:"include_args_in_fingerprint" yaml:"include_args_in_fingerprint"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*File, error) {
	path = os.ExpandEnv(path)

	var cfg File
	if err := fconfig.DecodeFile(path, fconfig.FormatAuto, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Parse parses configuration content in the given format
func Parse(data []byte, format fconfig.Format) (*File, error) {
	var cfg File
	if err := fconfig.Decode(data, format, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

func finish(cfg *File) (*File, error) {
	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from LOGFLOW_CONFIG or a default location
func LoadFromEnv() (*File, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = fconfig.FirstExisting(DefaultPaths()...)
	}
	if path == "" {
		return nil, lferror.New("no config file found, set " + EnvConfigPath + " or create configs/logflow.toml").
			WithCode(lferror.CodeNotFound).
			WithOperation("config.LoadFromEnv")
	}
	return Load(path)
}

// DefaultPaths lists the locations LoadFromEnv tries in order
func DefaultPaths() []string {
	paths := []string{
		"./configs/logflow.toml",
		"./logflow.toml",
		"./logflow.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "logflow", "logflow.toml"))
	}
	return paths
}

// Default returns a configuration with only the console sink enabled
func Default() *File {
	cfg := &File{Sinks: SinksConfig{Console: &ConsoleConfig{Enabled: true}}}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults sets default values for missing configuration
func (c *File) applyDefaults() {
	if c.Logger.Name == "" {
		c.Logger.Name = "logflow"
	}
	if c.Logger.EnableColors == nil {
		c.Logger.EnableColors = boolPtr(true)
	}
	if c.Logger.EnableTimestamp == nil {
		c.Logger.EnableTimestamp = boolPtr(true)
	}
	c.Logger.MinLevel = c.canonicalLevel(c.Logger.MinLevel)

	if s := c.Sinks.Console; s != nil && s.Stream == "" {
		s.Stream = "split"
	}
	if s := c.Sinks.Memory; s != nil && s.Max == 0 {
		s.Max = 1000
	}
	if s := c.Sinks.File; s != nil && s.Format == "" {
		s.Format = "text"
	}
	if s := c.Sinks.Remote; s != nil {
		if s.FlushInterval.Duration == 0 {
			s.FlushInterval.Duration = 3 * time.Second
		}
		if s.MaxRetries == nil {
			s.MaxRetries = intPtr(3)
		}
		if s.BackoffBase.Duration == 0 {
			s.BackoffBase.Duration = 500 * time.Millisecond
		}
		if s.MaxBackoff.Duration == 0 {
			s.MaxBackoff.Duration = 5 * time.Minute
		}
		if s.Timeout.Duration == 0 {
			s.Timeout.Duration = 10 * time.Second
		}
	}
	if s := c.Sinks.Sentry; s != nil {
		if s.LevelThreshold == "" {
			s.LevelThreshold = "ERROR"
		}
		s.LevelThreshold = c.canonicalLevel(s.LevelThreshold)
	}
}

// canonicalLevel returns the configured level whose name matches name
// ignoring case. Without a custom level table, names are upper-cased to
// match the default levels.
func (c *File) canonicalLevel(name string) string {
	name = strings.TrimSpace(name)
	if len(c.Logger.Levels) == 0 {
		return strings.ToUpper(name)
	}
	for _, l := range c.Logger.Levels {
		if strings.EqualFold(l.Name, name) {
			return l.Name
		}
	}
	return name
}

// expandEnvVars expands environment variables in configuration values
func (c *File) expandEnvVars() {
	if s := c.Sinks.File; s != nil {
		s.Path = os.ExpandEnv(s.Path)
	}
	if s := c.Sinks.Remote; s != nil {
		s.Endpoint = os.ExpandEnv(s.Endpoint)
		for k, v := range s.Headers {
			s.Headers[k] = os.ExpandEnv(v)
		}
	}
	if s := c.Sinks.Sentry; s != nil {
		s.DSN = os.ExpandEnv(s.DSN)
		s.Environment = os.ExpandEnv(s.Environment)
		s.Release = os.ExpandEnv(s.Release)
	}
}

// Validate checks settings that cannot be defaulted. Level names are
// checked again by log.New, which owns the severity table.
func (c *File) Validate() error {
	invalid := func(msg, key string, value any) error {
		return lferror.New(msg).
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("key", key).
			WithDetail("value", value)
	}

	if rl := c.Logger.RateLimit; rl != nil && rl.Enabled {
		if rl.Interval.Duration <= 0 {
			return invalid("rate limit interval must be positive", "logger.rate_limit.interval", rl.Interval.String())
		}
		if rl.MaxLogs < 0 {
			return invalid("rate limit max_logs must not be negative", "logger.rate_limit.max_logs", rl.MaxLogs)
		}
	}
	if s := c.Sinks.Console; s != nil && s.Enabled {
		switch s.Stream {
		case "split", "stdout", "stderr":
		default:
			return invalid("unknown console stream", "sinks.console.stream", s.Stream)
		}
	}
	if s := c.Sinks.Memory; s != nil && s.Enabled && s.Max < 0 {
		return invalid("memory sink max must not be negative", "sinks.memory.max", s.Max)
	}
	if s := c.Sinks.File; s != nil && s.Enabled {
		if strings.TrimSpace(s.Path) == "" {
			return invalid("file sink path is required", "sinks.file.path", s.Path)
		}
		if s.Format != "text" && s.Format != "json" {
			return invalid("unknown file sink format", "sinks.file.format", s.Format)
		}
	}
	if s := c.Sinks.Remote; s != nil && s.Enabled {
		if !strings.HasPrefix(s.Endpoint, "http://") && !strings.HasPrefix(s.Endpoint, "https://") {
			return invalid("remote endpoint must be an http(s) URL", "sinks.remote.endpoint", s.Endpoint)
		}
		if *s.MaxRetries < 0 {
			return invalid("remote max_retries must not be negative", "sinks.remote.max_retries", *s.MaxRetries)
		}
		if s.FlushInterval.Duration < 0 || s.BackoffBase.Duration < 0 || s.MaxBackoff.Duration < 0 {
			return invalid("remote durations must not be negative", "sinks.remote", s.FlushInterval.String())
		}
	}
	return nil
}

// EnabledSinks returns the names of the enabled sinks in attach order
func (c *File) EnabledSinks() []string {
	var names []string
	if s := c.Sinks.Console; s != nil && s.Enabled {
		names = append(names, "console")
	}
	if s := c.Sinks.Memory; s != nil && s.Enabled {
		names = append(names, "memory")
	}
	if s := c.Sinks.File; s != nil && s.Enabled {
		names = append(names, "file")
	}
	if s := c.Sinks.Remote; s != nil && s.Enabled {
		names = append(names, "remote")
	}
	if s := c.Sinks.Sentry; s != nil && s.Enabled {
		names = append(names, "sentry")
	}
	return names
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }
