// File: level_test.go
// Title: Severity Level Tests
// Description: Tests for the default table, table validation and lookup.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test implementation

package log

import (
	"testing"

	lferror "github.com/msto63/logflow/foundation/core/error"
)

func TestDefaultLevels(t *testing.T) {
	levels := DefaultLevels()
	want := []struct {
		name     string
		priority int
	}{
		{LevelDebug, 0},
		{LevelInfo, 1},
		{LevelWarn, 2},
		{LevelError, 3},
	}
	if len(levels) != len(want) {
		t.Fatalf("len(DefaultLevels()) = %d, want %d", len(levels), len(want))
	}
	for i, w := range want {
		if levels[i].Name != w.name || levels[i].Priority != w.priority {
			t.Errorf("level %d = %s(%d), want %s(%d)", i, levels[i].Name, levels[i].Priority, w.name, w.priority)
		}
		if levels[i].Color == "" {
			t.Errorf("level %s has no color", levels[i].Name)
		}
	}
}

func TestNewLevelTable(t *testing.T) {
	tests := []struct {
		name    string
		levels  []Level
		wantErr bool
	}{
		{"defaults", DefaultLevels(), false},
		{"empty", []Level{}, true},
		{"blank name", []Level{{Name: " ", Priority: 1}}, true},
		{"duplicate", []Level{{Name: "A", Priority: 1}, {Name: "A", Priority: 2}}, true},
		{"custom", []Level{{Name: "LOUD", Priority: 10}, {Name: "QUIET", Priority: -5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newLevelTable(tt.levels)
			if tt.wantErr {
				if !lferror.HasCode(err, lferror.CodeInvalidConfig) {
					t.Fatalf("newLevelTable() error = %v, want CodeInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("newLevelTable() error = %v", err)
			}
			for _, lvl := range tt.levels {
				got, ok := table.lookup(lvl.Name)
				if !ok || got != lvl {
					t.Errorf("lookup(%q) = %v, %v", lvl.Name, got, ok)
				}
			}
		})
	}
}

func TestLevelTableLowestAndOrder(t *testing.T) {
	table, err := newLevelTable([]Level{
		{Name: "HIGH", Priority: 9},
		{Name: "LOW", Priority: -1},
		{Name: "MID", Priority: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if table.lowest().Name != "LOW" {
		t.Errorf("lowest() = %s, want LOW", table.lowest().Name)
	}
	ordered := table.levels()
	if ordered[0].Name != "LOW" || ordered[1].Name != "MID" || ordered[2].Name != "HIGH" {
		t.Errorf("levels() = %v, want ascending priority", ordered)
	}
	if _, ok := table.lookup("low"); ok {
		t.Error("lookup should be case-sensitive")
	}
}

func TestFindLevel(t *testing.T) {
	levels := DefaultLevels()
	if lvl, ok := FindLevel(levels, " warn "); !ok || lvl.Name != LevelWarn {
		t.Errorf("FindLevel(warn) = %v, %v", lvl, ok)
	}
	if _, ok := FindLevel(levels, "fatal"); ok {
		t.Error("FindLevel(fatal) should fail")
	}
}
