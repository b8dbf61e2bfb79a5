// File: level.go
// Title: Severity Levels
// Description: Defines named, priority-ordered severity levels and the lookup
//              table a Logger builds from them at construction.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with the four default levels

package log

import (
	"sort"
	"strings"

	lferror "github.com/msto63/logflow/foundation/core/error"
)

// Names of the default levels
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Level is a named severity. Higher Priority means more important.
type Level struct {
	Name     string
	Priority int
	// Color is an optional display color, a hex value such as "#F44336"
	Color string
}

// DefaultLevels returns the built-in severity table
func DefaultLevels() []Level {
	return []Level{
		{Name: LevelDebug, Priority: 0, Color: "#9E9E9E"},
		{Name: LevelInfo, Priority: 1, Color: "#2196F3"},
		{Name: LevelWarn, Priority: 2, Color: "#FFC107"},
		{Name: LevelError, Priority: 3, Color: "#F44336"},
	}
}

// levelTable is the immutable severity table of one Logger
type levelTable struct {
	byName  map[string]Level
	ordered []Level
}

func newLevelTable(levels []Level) (*levelTable, error) {
	if len(levels) == 0 {
		return nil, lferror.New("at least one level is required").
			WithCode(lferror.CodeInvalidConfig).
			WithOperation("log.newLevelTable")
	}

	t := &levelTable{
		byName:  make(map[string]Level, len(levels)),
		ordered: make([]Level, 0, len(levels)),
	}
	for _, lvl := range levels {
		if strings.TrimSpace(lvl.Name) == "" {
			return nil, lferror.New("level name cannot be empty").
				WithCode(lferror.CodeInvalidConfig).
				WithOperation("log.newLevelTable").
				WithDetail("priority", lvl.Priority)
		}
		if _, dup := t.byName[lvl.Name]; dup {
			return nil, lferror.New("duplicate level name").
				WithCode(lferror.CodeInvalidConfig).
				WithOperation("log.newLevelTable").
				WithDetail("level", lvl.Name)
		}
		t.byName[lvl.Name] = lvl
		t.ordered = append(t.ordered, lvl)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		return t.ordered[i].Priority < t.ordered[j].Priority
	})
	return t, nil
}

func (t *levelTable) lookup(name string) (Level, bool) {
	lvl, ok := t.byName[name]
	return lvl, ok
}

func (t *levelTable) lowest() Level {
	return t.ordered[0]
}

// levels returns the table ordered by ascending priority
func (t *levelTable) levels() []Level {
	out := make([]Level, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// FindLevel returns the level in levels whose name matches name, ignoring
// case and surrounding whitespace. It is meant for user input such as
// configuration files; the Logger itself matches names exactly.
func FindLevel(levels []Level, name string) (Level, bool) {
	name = strings.TrimSpace(name)
	for _, lvl := range levels {
		if strings.EqualFold(lvl.Name, name) {
			return lvl, true
		}
	}
	return Level{}, false
}
