// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     version
// Description: Central version information for the library, wire format
//              and command-line tool
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package version

// Version constants
const (
	// Library version
	Library = "0.1.0"

	// WireFormat is the version of the remote batch format
	WireFormat = "1"

	// Component versions
	CLI    = "0.1.0"
	Ingest = "0.1.0"
)

// Build information, set via -ldflags at build time
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "cli", "logflow":
		return CLI
	case "ingest", "serve":
		return Ingest
	case "wire":
		return WireFormat
	default:
		return Library
	}
}

// UserAgent is sent by the remote sink with every batch
func UserAgent() string {
	return "logflow/" + Library + " (wire/" + WireFormat + ")"
}
