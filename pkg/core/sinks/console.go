// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     sinks
// Description: ConsoleSink writes human-readable, optionally colored lines
//              to stdout and stderr
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
)

// Stream selects where ConsoleSink writes
type Stream string

const (
	// StreamSplit writes levels below WARN to stdout and the rest to stderr
	StreamSplit Stream = "split"
	// StreamStdout writes everything to stdout
	StreamStdout Stream = "stdout"
	// StreamStderr writes everything to stderr
	StreamStderr Stream = "stderr"
)

// ConsoleConfig holds configuration for ConsoleSink
type ConsoleConfig struct {
	Stream Stream    // Routing (default: StreamSplit)
	Stdout io.Writer // default: os.Stdout
	Stderr io.Writer // default: os.Stderr
}

// ConsoleSink renders records as
//
//	[LEVEL] [timestamp] message args...
//	  ↪ file:line:column @ function
//
// Colors and timestamps follow the Logger's presentation hints.
type ConsoleSink struct {
	mu      sync.Mutex
	stream  Stream
	stdout  io.Writer
	stderr  io.Writer
	present log.Presentation
	split   int // priority from which records go to stderr
	styles  map[string]lipgloss.Style
	plain   lipgloss.Style
}

// NewConsoleSink creates a ConsoleSink. Until a Logger hands it
// presentation hints it prints timestamps without colors.
func NewConsoleSink(cfg ConsoleConfig) (*ConsoleSink, error) {
	if cfg.Stream == "" {
		cfg.Stream = StreamSplit
	}
	switch cfg.Stream {
	case StreamSplit, StreamStdout, StreamStderr:
	default:
		return nil, lferror.New("unknown console stream").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("sinks.NewConsoleSink").
			WithDetail("stream", string(cfg.Stream))
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	s := &ConsoleSink{
		stream: cfg.Stream,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
	}
	s.SetPresentation(log.Presentation{Timestamp: true, Levels: log.DefaultLevels()})
	return s, nil
}

// SetPresentation implements log.PresentationAware
func (s *ConsoleSink) SetPresentation(p log.Presentation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.present = p
	s.split = int(^uint(0) >> 1)
	if warn, ok := log.FindLevel(p.Levels, log.LevelWarn); ok {
		s.split = warn.Priority
	}

	renderer := lipgloss.NewRenderer(s.stdout)
	s.plain = renderer.NewStyle()
	s.styles = make(map[string]lipgloss.Style, len(p.Levels))
	for _, lvl := range p.Levels {
		if lvl.Color == "" {
			continue
		}
		s.styles[lvl.Name] = renderer.NewStyle().
			Foreground(lipgloss.Color(lvl.Color)).
			Bold(true)
	}
}

// Log implements log.Sink
func (s *ConsoleSink) Log(record log.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.writerFor(record.Level)
	if _, err := io.WriteString(w, s.render(record)); err != nil {
		return lferror.Wrap(err, "write console line").
			WithCode(lferror.CodeIOError).
			WithOperation("sinks.ConsoleSink.Log")
	}
	return nil
}

func (s *ConsoleSink) writerFor(level string) io.Writer {
	switch s.stream {
	case StreamStdout:
		return s.stdout
	case StreamStderr:
		return s.stderr
	}
	if lvl, ok := log.FindLevel(s.present.Levels, level); ok && lvl.Priority >= s.split {
		return s.stderr
	}
	return s.stdout
}

func (s *ConsoleSink) render(record log.Record) string {
	var b strings.Builder

	tag := "[" + record.Level + "]"
	if style, ok := s.styles[record.Level]; ok && s.present.Colors {
		tag = style.Render(tag)
	}
	b.WriteString(tag)
	if s.present.Timestamp {
		b.WriteString(" [")
		b.WriteString(log.FormatTimestamp(record.Timestamp))
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(record.Message)
	for _, arg := range record.Args {
		b.WriteByte(' ')
		b.WriteString(formatArg(arg))
	}
	if src := record.Source; src != nil {
		loc := fmt.Sprintf("  ↪ %s:%d:%d @ %s", src.File, src.Line, src.Column, src.Function)
		b.WriteByte('\n')
		if s.present.Colors {
			loc = s.plain.Faint(true).Render(loc)
		}
		b.WriteString(loc)
	}
	b.WriteByte('\n')
	return b.String()
}

// formatArg prints strings and errors as text and everything else as JSON
// where possible
func formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	if data, err := json.Marshal(arg); err == nil {
		return string(data)
	}
	return fmt.Sprint(arg)
}
