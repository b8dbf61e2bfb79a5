// File: format.go
// Title: Record Formatters
// Description: Text and JSON renderings of a Record for line-oriented
//              destinations, plus a Sink writing formatted records to any
//              io.Writer.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with text and JSON formats

package log

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"

	lferror "github.com/msto63/logflow/foundation/core/error"
)

// Format selects a Formatter
type Format int

const (
	// FormatText is the one-line human format used by the file sink
	FormatText Format = iota

	// FormatJSON is one wire-format JSON object per line
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses "text" or "json"
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, lferror.New("invalid format").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("log.ParseFormat").
			WithDetail("format", format)
	}
}

// Formatter renders a record including its trailing newline
type Formatter interface {
	Format(record Record) ([]byte, error)
}

// GetFormatter returns the default formatter for a format
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return NewTextFormatter()
	}
}

// TextFormatter renders
//
//	[LEVEL] [2026-01-02T15:04:05.000Z] message ↪ file:line:column @function
type TextFormatter struct {
	// Timestamp includes the bracketed timestamp
	Timestamp bool
}

// NewTextFormatter returns a TextFormatter with timestamps enabled
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{Timestamp: true}
}

// Format implements Formatter
func (f *TextFormatter) Format(record Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(record.Level)
	buf.WriteByte(']')
	if f.Timestamp {
		buf.WriteString(" [")
		buf.WriteString(FormatTimestamp(record.Timestamp))
		buf.WriteByte(']')
	}
	buf.WriteByte(' ')
	buf.WriteString(record.Message)
	if src := record.Source; src != nil {
		buf.WriteString(" ↪ ")
		buf.WriteString(src.File)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Line))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Column))
		buf.WriteString(" @")
		buf.WriteString(src.Function)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders the wire-format object followed by a newline
type JSONFormatter struct{}

// Format implements Formatter
func (f *JSONFormatter) Format(record Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriterSink writes formatted records to an io.Writer. Writes are
// serialized so lines never interleave.
type WriterSink struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
}

// NewWriterSink creates a WriterSink. A nil formatter uses the text format.
func NewWriterSink(w io.Writer, formatter Formatter) *WriterSink {
	if formatter == nil {
		formatter = NewTextFormatter()
	}
	return &WriterSink{w: w, formatter: formatter}
}

// Log implements Sink
func (s *WriterSink) Log(record Record) error {
	data, err := s.formatter.Format(record)
	if err != nil {
		return lferror.Wrap(err, "format record").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("log.WriterSink.Log")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return lferror.Wrap(err, "write record").
			WithCode(lferror.CodeIOError).
			WithOperation("log.WriterSink.Log")
	}
	return nil
}
