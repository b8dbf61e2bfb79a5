// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, codes and details.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test implementation

package error

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("boom")

	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", err.Error(), "boom")
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if len(err.Details()) != 0 {
		t.Errorf("Details() = %v, want empty", err.Details())
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNil  bool
		wantMsg  string
		wantCode Code
	}{
		{
			name:    "wrap nil error",
			err:     nil,
			wantNil: true,
		},
		{
			name:     "wrap standard error",
			err:      io.EOF,
			wantMsg:  "reading batch: EOF",
			wantCode: CodeUnknown,
		},
		{
			name:     "wrap coded error inherits code",
			err:      New("bad interval").WithCode(CodeInvalidConfig),
			wantMsg:  "reading batch: bad interval",
			wantCode: CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, "reading batch")
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Wrap(nil) = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if got.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got.Code(), tt.wantCode)
			}
			if !errors.Is(got, tt.err) {
				t.Error("errors.Is should find the wrapped cause")
			}
		})
	}
}

func TestBuilderMethods(t *testing.T) {
	err := New("delivery abandoned").
		WithCode(CodeDeliveryAbandoned).
		WithOperation("sinks.RemoteSink.deliver").
		WithDetail("attempts", 4).
		WithDetails(map[string]interface{}{"records": 10})

	if err.Operation() != "sinks.RemoteSink.deliver" {
		t.Errorf("Operation() = %q", err.Operation())
	}
	if v, ok := err.Detail("attempts"); !ok || v != 4 {
		t.Errorf("Detail(attempts) = %v, %v", v, ok)
	}
	if v, ok := err.Detail("records"); !ok || v != 10 {
		t.Errorf("Detail(records) = %v, %v", v, ok)
	}

	s := err.String()
	for _, want := range []string{"DELIVERY_ABANDONED", "sinks.RemoteSink.deliver", "attempts=4", "records=10"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestDetailsIsCopy(t *testing.T) {
	err := New("x").WithDetail("k", "v")
	d := err.Details()
	d["k"] = "changed"
	if v, _ := err.Detail("k"); v != "v" {
		t.Error("Details() should return a copy")
	}
}

func TestHasCodeAndGetCode(t *testing.T) {
	base := New("bad level").WithCode(CodeInvalidConfig)
	wrapped := Wrap(base, "building logger").WithCode(CodeConfigError)

	if !HasCode(wrapped, CodeInvalidConfig) {
		t.Error("HasCode should search the chain")
	}
	if !HasCode(wrapped, CodeConfigError) {
		t.Error("HasCode should match the outer code")
	}
	if HasCode(io.EOF, CodeInvalidConfig) {
		t.Error("HasCode on a plain error should be false")
	}
	if GetCode(wrapped) != CodeConfigError {
		t.Errorf("GetCode() = %v, want %v", GetCode(wrapped), CodeConfigError)
	}
	if GetCode(io.EOF) != CodeUnknown {
		t.Errorf("GetCode(io.EOF) = %v, want %v", GetCode(io.EOF), CodeUnknown)
	}
}

func TestIsByCode(t *testing.T) {
	sentinel := New("").WithCode(CodeDeliveryAbandoned)
	err := New("gave up").WithCode(CodeDeliveryAbandoned)
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(New("other"), New("")) {
		t.Error("CodeUnknown sentinels should never match")
	}
}

func TestCodeClassification(t *testing.T) {
	if !CodeInvalidConfig.IsConfiguration() || CodeNetworkError.IsConfiguration() {
		t.Error("IsConfiguration classification wrong")
	}
	if !CodeDeliveryAbandoned.IsDelivery() || CodeInvalidConfig.IsDelivery() {
		t.Error("IsDelivery classification wrong")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := Wrap(io.EOF, "read").WithCode(CodeIOError).WithOperation("file.Write").WithDetail("path", "/tmp/x")
	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("Marshal: %v", mErr)
	}
	var decoded map[string]interface{}
	if uErr := json.Unmarshal(data, &decoded); uErr != nil {
		t.Fatalf("Unmarshal: %v", uErr)
	}
	if decoded["code"] != "IO_ERROR" || decoded["cause"] != "EOF" || decoded["operation"] != "file.Write" {
		t.Errorf("unexpected JSON: %s", data)
	}
}
