package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Aegis core errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Approval error codes
const (
	APPROVAL_NOT_FOUND      ErrorCode = "APPROVAL_NOT_FOUND"
	APPROVAL_TERMINAL       ErrorCode = "APPROVAL_TERMINAL"
	APPROVAL_CONFLICT       ErrorCode = "APPROVAL_CONFLICT"
	APPROVAL_STORE_FAILED   ErrorCode = "APPROVAL_STORE_FAILED"
	APPROVAL_INVALID_STATUS ErrorCode = "APPROVAL_INVALID_STATUS"
)

// Limiter error codes
const (
	LIMITER_STORE_FAILED ErrorCode = "LIMITER_STORE_FAILED"
)

// AegisError is a structured error carrying a code, message, and optional
// cause. Retryable marks transient failures (store conflicts, transport
// errors) that callers may safely retry.
type AegisError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
func (e *AegisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *AegisError) Unwrap() error {
	return e.Cause
}

// Is matches target by error code.
func (e *AegisError) Is(target error) bool {
	var ae *AegisError
	if errors.As(target, &ae) {
		return e.Code == ae.Code
	}
	return false
}

// NewError creates a non-retryable AegisError.
func NewError(code ErrorCode, message string) *AegisError {
	return &AegisError{Code: code, Message: message}
}

// NewRetryableError creates a retryable AegisError for transient failures.
func NewRetryableError(code ErrorCode, message string) *AegisError {
	return &AegisError{Code: code, Message: message, Retryable: true}
}

// WrapError creates a non-retryable AegisError wrapping an existing error.
func WrapError(code ErrorCode, message string, cause error) *AegisError {
	return &AegisError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var ae *AegisError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
