// Package insights implements the medical-report analysis pipeline:
// input normalization, schema-driven extraction via a generative model,
// and tri-state outcome classification.
package insights

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a specific analysis failure kind.
type ErrorCode string

const (
	ErrEmptyInput          ErrorCode = "EMPTY_INPUT"
	ErrUnsupportedMedia    ErrorCode = "UNSUPPORTED_MEDIA"
	ErrUnknownTask         ErrorCode = "UNKNOWN_TASK"
	ErrModelUnavailable    ErrorCode = "MODEL_UNAVAILABLE"
	ErrModelTimeout        ErrorCode = "MODEL_TIMEOUT"
	ErrModelRateLimited    ErrorCode = "MODEL_RATE_LIMITED"
	ErrEmptyModelOutput    ErrorCode = "EMPTY_MODEL_OUTPUT"
	ErrSchemaValidation    ErrorCode = "SCHEMA_VALIDATION"
	ErrInconsistentOutcome ErrorCode = "INCONSISTENT_OUTCOME"
	ErrPersistence         ErrorCode = "PERSISTENCE"
)

// Category is the stable, user-presentable error classification exposed at
// the service boundary. Clients use it to decide whether a retry is useful.
type Category string

const (
	CategoryInvalidInput       Category = "invalid-input"
	CategoryUnsupported        Category = "unsupported"
	CategoryServiceUnavailable Category = "service-unavailable"
	CategoryInternal           Category = "internal"
)

// AnalysisError is a structured error for pipeline failures.
type AnalysisError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the failure is transient.
func (e *AnalysisError) IsRetryable() bool {
	return e.Retryable
}

// Category maps the error code to its user-facing classification.
func (e *AnalysisError) Category() Category {
	switch e.Code {
	case ErrEmptyInput:
		return CategoryInvalidInput
	case ErrUnsupportedMedia:
		return CategoryUnsupported
	case ErrModelUnavailable, ErrModelTimeout, ErrModelRateLimited:
		return CategoryServiceUnavailable
	default:
		return CategoryInternal
	}
}

// HTTPStatus returns the HTTP status code for the error category.
func (e *AnalysisError) HTTPStatus() int {
	switch e.Category() {
	case CategoryInvalidInput:
		return http.StatusBadRequest
	case CategoryUnsupported:
		return http.StatusUnsupportedMediaType
	case CategoryServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns a clear message safe to show to the caller.
// Raw provider/network detail stays inside Cause and is only logged.
func (e *AnalysisError) UserMessage() string {
	switch e.Code {
	case ErrEmptyInput:
		return "Report text cannot be empty."
	case ErrUnsupportedMedia:
		return "Images and scanned documents are not supported. Please upload a text-based PDF or paste the report text."
	case ErrModelUnavailable, ErrModelRateLimited:
		return "The analysis service is temporarily unavailable. Please try again in a moment."
	case ErrModelTimeout:
		return "The analysis took too long to complete. Please try again."
	case ErrEmptyModelOutput, ErrSchemaValidation, ErrInconsistentOutcome:
		return "The analysis could not be completed. Please try again or contact support if the problem persists."
	default:
		return "An internal error occurred during analysis."
	}
}

// newError builds an AnalysisError without a cause.
func newError(code ErrorCode, msg string) *AnalysisError {
	return &AnalysisError{Code: code, Message: msg}
}

// AsAnalysisError unwraps err to an *AnalysisError, or wraps it as an
// internal MODEL_UNAVAILABLE if it is some other error kind.
func AsAnalysisError(err error) *AnalysisError {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return &AnalysisError{
		Code:      ErrModelUnavailable,
		Message:   "unexpected failure",
		Retryable: false,
		Cause:     err,
	}
}
