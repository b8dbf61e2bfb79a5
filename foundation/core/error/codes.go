// File: codes.go
// Title: Error Code Definitions
// Description: Error codes for classifying configuration, I/O and delivery
//              failures.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation with core error codes

package error

// Code categorizes an Error
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Configuration
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeUnsupported   Code = "UNSUPPORTED"

	// I/O and delivery
	CodeIOError           Code = "IO_ERROR"
	CodeNetworkError      Code = "NETWORK_ERROR"
	CodeDeliveryAbandoned Code = "DELIVERY_ABANDONED"
	CodePermanentFailure  Code = "PERMANENT_FAILURE"
	CodeSinkError         Code = "SINK_ERROR"
)

// String returns the code value
func (c Code) String() string {
	return string(c)
}

// IsConfiguration reports whether the code describes a construction-time failure
func (c Code) IsConfiguration() bool {
	switch c {
	case CodeInvalidConfig, CodeConfigError, CodeUnsupported:
		return true
	default:
		return false
	}
}

// IsDelivery reports whether the code describes a failure to deliver records
func (c Code) IsDelivery() bool {
	switch c {
	case CodeNetworkError, CodeDeliveryAbandoned, CodePermanentFailure:
		return true
	default:
		return false
	}
}
