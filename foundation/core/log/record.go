// File: record.go
// Title: Log Record Structure
// Description: Defines the immutable Record built once per accepted log call,
//              its call-site Source, and the JSON form used on the wire.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with JSON wire encoding

package log

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampFormat is ISO-8601 with millisecond precision. Records are
// always rendered in UTC, so the zone prints as "Z".
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampFormat
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Source is the call-site of a log call. Column is 0 when unknown, which
// is always the case for Go stack frames.
type Source struct {
	File     string `json:"file,omitempty"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// Record is one accepted log call. A Record is never modified after the
// Logger builds it; sinks share it read-only and keep a Clone if they
// retain it beyond the Log call.
type Record struct {
	Level     string
	Message   string
	Args      []any
	Timestamp time.Time
	Context   map[string]any
	Source    *Source
	// OriginalError is the first error-typed value in Args, if any
	OriginalError error
}

// Clone returns a copy that shares no slices, maps or pointers with r.
// The argument values themselves are not deep-copied.
func (r Record) Clone() Record {
	c := r
	if r.Args != nil {
		c.Args = make([]any, len(r.Args))
		copy(c.Args, r.Args)
	}
	if r.Context != nil {
		c.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			c.Context[k] = v
		}
	}
	if r.Source != nil {
		src := *r.Source
		c.Source = &src
	}
	return c
}

// firstError returns the first argument implementing error
func firstError(args []any) error {
	for _, arg := range args {
		if err, ok := arg.(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// errorJSON is the wire form of an error value. Errors do not round-trip.
type errorJSON struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorJSON(err error) errorJSON {
	return errorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}

// jsonValue degrades values that cannot be encoded as plain JSON: errors
// become {"type","message"} and anything json rejects becomes its fmt form.
func jsonValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case error:
		return newErrorJSON(val)
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}

type recordJSON struct {
	Level         string         `json:"level"`
	Message       string         `json:"message"`
	Timestamp     string         `json:"timestamp"`
	Args          []any          `json:"args,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	Source        *Source        `json:"source,omitempty"`
	OriginalError *errorJSON     `json:"originalError,omitempty"`
}

// MarshalJSON encodes the record in the remote wire format
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Level:     r.Level,
		Message:   r.Message,
		Timestamp: FormatTimestamp(r.Timestamp),
		Source:    r.Source,
	}
	if len(r.Args) > 0 {
		out.Args = make([]any, len(r.Args))
		for i, arg := range r.Args {
			out.Args[i] = jsonValue(arg)
		}
	}
	if len(r.Context) > 0 {
		out.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			out.Context[k] = jsonValue(v)
		}
	}
	if r.OriginalError != nil {
		e := newErrorJSON(r.OriginalError)
		out.OriginalError = &e
	}
	return json.Marshal(out)
}
