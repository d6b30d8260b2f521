// Package errors defines stable error codes for the map engine's
// failure modes. Only setup failures propagate to callers; everything
// else is recovered locally, so most codes appear in logs rather than
// returned errors.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RootInvalid indicates the repository root does not exist or is not a directory
	RootInvalid ErrorCode = "ROOT_INVALID"
	// TokenizerUnavailable indicates the configured tokenizer could not be initialized
	TokenizerUnavailable ErrorCode = "TOKENIZER_UNAVAILABLE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// CacheUnavailable indicates the on-disk tag cache could not be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// CacheCorrupt indicates a tag cache record could not be decoded
	CacheCorrupt ErrorCode = "CACHE_CORRUPT"
	// ExtractFailed indicates tag extraction failed for a file
	ExtractFailed ErrorCode = "EXTRACT_FAILED"
	// RenderFailed indicates snippet rendering failed for a file
	RenderFailed ErrorCode = "RENDER_FAILED"
	// RankDegenerate indicates PageRank fell back to a flat distribution
	RankDegenerate ErrorCode = "RANK_DEGENERATE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// MapError represents a map engine error with a stable code
type MapError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a MapError
func New(code ErrorCode, message string, cause error) *MapError {
	return &MapError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *MapError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MapError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MapError) WithDetails(details interface{}) *MapError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from an error chain, or InternalError
// when no MapError is present.
func CodeOf(err error) ErrorCode {
	var mapErr *MapError
	if errors.As(err, &mapErr) {
		return mapErr.Code
	}
	return InternalError
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var mapErr *MapError
	return errors.As(err, &mapErr) && mapErr.Code == code
}
