// File: config.go
// Title: Configuration Decoding Implementation
// Description: Implements format detection and TOML/YAML decoding of
//              configuration content into typed structs.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with TOML/YAML support

package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	lferror "github.com/msto63/logflow/foundation/core/error"
)

// Format represents the configuration file format
type Format int

const (
	// FormatTOML represents TOML format (default)
	FormatTOML Format = iota

	// FormatYAML represents YAML format
	FormatYAML

	// FormatAuto auto-detects format from file extension
	FormatAuto
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseFormat parses "toml", "yaml"/"yml" or "auto"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "", "auto":
		return FormatAuto, nil
	default:
		return FormatAuto, lferror.New("unsupported config format").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("config.ParseFormat").
			WithDetail("format", s)
	}
}

// DetectFormat determines the configuration format from the file extension.
// Unknown extensions fall back to TOML.
func DetectFormat(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Decode parses content in the given format into v. FormatAuto is
// treated as TOML.
func Decode(content []byte, format Format, v any) error {
	switch format {
	case FormatTOML, FormatAuto:
		md, err := toml.NewDecoder(bytes.NewReader(content)).Decode(v)
		if err != nil {
			return lferror.Wrap(err, "TOML parse error").
				WithCode(lferror.CodeInvalidInput).
				WithOperation("config.Decode")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return lferror.New("unknown configuration keys").
				WithCode(lferror.CodeInvalidInput).
				WithOperation("config.Decode").
				WithDetail("keys", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return lferror.Wrap(err, "YAML parse error").
				WithCode(lferror.CodeInvalidInput).
				WithOperation("config.Decode")
		}
	default:
		return lferror.New("unsupported format").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("config.Decode").
			WithDetail("format", format.String())
	}
	return nil
}

// DecodeFile reads filePath and decodes it into v. With FormatAuto the
// format is detected from the extension.
func DecodeFile(filePath string, format Format, v any) error {
	if strings.TrimSpace(filePath) == "" {
		return lferror.New("config file path cannot be empty").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("config.DecodeFile")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		code := lferror.CodeConfigError
		if errors.Is(err, fs.ErrNotExist) {
			code = lferror.CodeNotFound
		}
		return lferror.Wrap(err, "failed to read config file").
			WithCode(code).
			WithOperation("config.DecodeFile").
			WithDetail("filePath", filePath)
	}

	if format == FormatAuto {
		format = DetectFormat(filePath)
	}
	if err := Decode(content, format, v); err != nil {
		return lferror.Wrap(err, "failed to parse config file").
			WithOperation("config.DecodeFile").
			WithDetail("filePath", filePath).
			WithDetail("format", format.String())
	}
	return nil
}

// FirstExisting returns the first path that exists, or "" if none does
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
