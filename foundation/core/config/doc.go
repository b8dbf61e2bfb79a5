// File: doc.go
// Title: Configuration Decoding Package Documentation
// Description: Package config decodes TOML and YAML configuration files into
//              typed structs with format detection and structured errors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with TOML/YAML support

/*
Package config decodes configuration files into typed structs.

The format is chosen by file extension (".toml", ".yaml", ".yml") unless
given explicitly. TOML is decoded with github.com/BurntSushi/toml, YAML with
gopkg.in/yaml.v3. Failures are returned as *lferror.Error values carrying
CodeNotFound, CodeConfigError or CodeInvalidInput so callers can tell a
missing file from a malformed one.

Basic usage:

	var cfg MySettings
	if err := config.DecodeFile("settings.toml", config.FormatAuto, &cfg); err != nil {
		return err
	}

Schemas that need defaults or validation layer them on top, see
pkg/core/config for the logflow pipeline schema.
*/
package config
