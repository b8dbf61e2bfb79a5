// File: sink.go
// Title: Sink Contract
// Description: The capability interfaces every delivery target implements.
//              The Logger depends on nothing else from a sink.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package log

// Sink consumes records. Log is called synchronously from the logging
// goroutine; a sink that does I/O on its own schedule must buffer.
// A non-nil error is reported through the Logger's ErrorHandler and does
// not stop delivery to the remaining sinks.
type Sink interface {
	Log(record Record) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(record Record) error

// Log calls f(record)
func (f SinkFunc) Log(record Record) error {
	return f(record)
}

// Flusher is implemented by sinks that buffer records
type Flusher interface {
	Flush()
}

// Clearer is implemented by sinks that can discard retained records
type Clearer interface {
	Clear()
}

// Stopper is implemented by sinks running their own timers
type Stopper interface {
	Stop()
}

// Presentation carries the Logger's display settings to sinks that render
// records for humans.
type Presentation struct {
	Colors    bool
	Timestamp bool
	Levels    []Level
}

// PresentationAware sinks receive the Logger's Presentation when they are
// registered.
type PresentationAware interface {
	SetPresentation(p Presentation)
}
