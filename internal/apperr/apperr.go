// Package apperr defines the coded errors the pipeline and its
// collaborators report, and their mapping onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	// Client errors (4xx)
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	// Server and upstream errors (5xx)
	CodeInternal                Code = "INTERNAL_ERROR"
	CodeConfiguration           Code = "CONFIGURATION_ERROR"
	CodeGenerationFormat        Code = "GENERATION_FORMAT_ERROR"
	CodeEnrichmentLookupFailure Code = "ENRICHMENT_LOOKUP_FAILURE"
	CodeCacheBackend            Code = "CACHE_BACKEND_ERROR"
)

// AppError is an error with a category code, a caller-facing message,
// and an optional cause chain.
type AppError struct {
	Code     Code                   `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status the error maps to.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeGenerationFormat, CodeEnrichmentLookupFailure:
		return http.StatusBadGateway
	case CodeCacheBackend:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata attaches a key/value pair to the error.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause attaches the underlying cause.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates an AppError with the given code.
func New(code Code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewValidation reports a malformed or incomplete request.
func NewValidation(message string) *AppError {
	return New(CodeValidationFailed, message, "")
}

// NewUnauthorized reports a missing or invalid credential.
func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, "")
}

// NewConfiguration reports a missing or contradictory setting detected
// at startup or first use.
func NewConfiguration(setting, details string) *AppError {
	return New(CodeConfiguration, fmt.Sprintf("configuration error: %s", setting), details)
}

// NewRateLimit reports a denied request with the caller's usage attached.
func NewRateLimit(used, limit int) *AppError {
	e := New(CodeRateLimitExceeded, "daily request limit reached", "")
	return e.WithMetadata("used_today", used).WithMetadata("limit", limit)
}

// NewGenerationFormat reports generation output that no salvage
// strategy could turn into recipes.
func NewGenerationFormat(details string) *AppError {
	return New(CodeGenerationFormat, "generation output is not parseable", details)
}

// NewEnrichmentLookup reports one failed nutrition lookup. These are
// recorded per ingredient and never fail a pipeline run.
func NewEnrichmentLookup(ingredientID string, cause error) *AppError {
	e := New(CodeEnrichmentLookupFailure, "nutrition lookup failed", ingredientID)
	return e.WithCause(cause)
}

// NewCacheBackend reports a shared-cache failure. The cache layer logs
// these and proceeds; they never escalate to callers.
func NewCacheBackend(op string, cause error) *AppError {
	e := New(CodeCacheBackend, "cache backend unavailable", op)
	return e.WithCause(cause)
}

// CodeOf extracts the category of err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given category.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FromError coerces err into an AppError, wrapping plain errors as
// internal ones so the transport always has a status to map.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(CodeInternal, "internal error", "").WithCause(err)
}
