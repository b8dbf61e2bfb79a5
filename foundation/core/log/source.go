// File: source.go
// Title: Call-Site Lookup
// Description: Best-effort resolution of the source location of a log call.
//              A lookup that fails yields nil and never affects delivery.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation on runtime.Callers

package log

import (
	"runtime"
	"strings"
)

// SourceLocator returns the call-site skip frames above its caller, or nil
type SourceLocator func(skip int) *Source

// CallerSource is the default SourceLocator. skip 0 is the function that
// calls CallerSource.
func CallerSource(skip int) *Source {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return nil
	}
	return SourceForPC(pcs[0])
}

// SourceForPC resolves a program counter returned by runtime.Callers
func SourceForPC(pc uintptr) *Source {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" && frame.Function == "" {
		return nil
	}
	return &Source{
		File:     frame.File,
		Function: shortFunction(frame.Function),
		Line:     frame.Line,
	}
}

// shortFunction strips the import path, keeping "pkg.Func" or "pkg.(*T).Method"
func shortFunction(name string) string {
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		return name[idx+1:]
	}
	return name
}
