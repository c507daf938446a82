// Package errors provides standardized error handling for the quote
// orchestrator pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeAdvisoryUnavailable ErrorCode = "ADVISORY_UNAVAILABLE"
	ErrCodeAdvisorySchema      ErrorCode = "ADVISORY_SCHEMA_MISMATCH"

	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeStoreWriteFailed  ErrorCode = "STORE_WRITE_FAILED"

	ErrCodeProbeTransportFailed     ErrorCode = "PROBE_TRANSPORT_FAILED"
	ErrCodeExpansionTransportFailed ErrorCode = "EXPANSION_TRANSPORT_FAILED"
	ErrCodeTransportTimeout         ErrorCode = "TRANSPORT_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Quote run request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdvisoryUnavailableError marks an advisory-service failure. It is never
// surfaced to the caller; the pipeline falls back deterministically.
func NewAdvisoryUnavailableError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdvisoryUnavailable,
		Message:   fmt.Sprintf("Advisory service '%s' unavailable", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdvisorySchemaError marks an advisory response that violated the strict
// schema contract. Treated identically to unavailability.
func NewAdvisorySchemaError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdvisorySchema,
		Message:   fmt.Sprintf("Advisory service '%s' returned malformed payload", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError marks a catalog read failure; scoring degrades
// to defaults instead of aborting the run.
func NewCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Site catalog load failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteFailedError marks a best-effort persistence failure.
func NewStoreWriteFailedError(target string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   fmt.Sprintf("Write to '%s' failed", target),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProbeTransportError marks a fatal probe-wave transport failure.
func NewProbeTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProbeTransportFailed,
		Message:   "Probe transport failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExpansionTransportError marks a fatal expansion-wave transport failure.
func NewExpansionTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExpansionTransportFailed,
		Message:   "Expansion transport failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportTimeoutError marks an exceeded wave deadline.
func NewTransportTimeoutError(wave string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportTimeout,
		Message:   fmt.Sprintf("Wave '%s' exceeded its deadline", wave),
		Details:   "outbound transport call timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsFatal reports whether an error code aborts the run. Advisory and store
// failures degrade; transport failures end the run.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ErrCodeProbeTransportFailed, ErrCodeExpansionTransportFailed, ErrCodeTransportTimeout, ErrCodeInvalidRequest:
		return true
	default:
		return false
	}
}
