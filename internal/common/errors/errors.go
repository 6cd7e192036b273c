// internal/common/errors/errors.go

// Package errors provides the standardized error taxonomy of the matching
// pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest is the only error surfaced to callers: a match
	// request missing its required requestId or searchQuery.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeAdapterUnavailable marks a single source (internal or external)
	// that failed or timed out; non-fatal, contributes zero candidates.
	ErrCodeAdapterUnavailable ErrorCode = "ADAPTER_UNAVAILABLE"

	// ErrCodeMalformedCandidate marks a candidate missing expected fields;
	// non-fatal, the candidate is scored with zero-similarity defaults.
	ErrCodeMalformedCandidate ErrorCode = "MALFORMED_CANDIDATE"

	// ErrCodeStorageUnavailable marks an unreachable persistence sink;
	// non-fatal to the caller-visible result, logged only.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	ErrCodeCatalogSearchFailed    ErrorCode = "CATALOG_SEARCH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fatal     bool                   `json:"fatal"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidRequestError creates the fatal per-request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Match request is missing required fields",
		Details:   details,
		Fatal:     true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterUnavailableError creates a non-fatal source failure error.
func NewAdapterUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterUnavailable,
		Message:   fmt.Sprintf("Source '%s' failed or timed out", source),
		Details:   err.Error(),
		Fatal:     false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedCandidateError creates a non-fatal candidate shape error.
func NewMalformedCandidateError(source, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedCandidate,
		Message:   "Candidate is missing expected fields",
		Details:   details,
		Fatal:     false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnavailableError creates a non-fatal persistence sink error.
func NewStorageUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "Match persistence sink unreachable",
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogSearchFailedError creates a non-fatal internal catalog error.
func NewCatalogSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogSearchFailed,
		Message:   "Internal catalog search failed",
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a non-fatal notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsFatal reports whether err should surface as a caller-visible failure.
// Only INVALID_REQUEST errors are fatal; everything else degrades to partial
// or default behavior.
func IsFatal(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Fatal
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}
