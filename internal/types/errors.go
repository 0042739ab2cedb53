package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

const (
	// Validation (400): malformed inbound callbacks and payloads.
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationBadEvent     ErrorCode = "validation_unknown_event_type"
	ErrCodeValidationBadPayload   ErrorCode = "validation_malformed_payload"

	// Content/document faults are fatal for the affected letter, never retried.
	ErrCodeContentMissingAttachment  ErrorCode = "content_missing_attachment"
	ErrCodeContentUnreadableDocument ErrorCode = "content_unreadable_document"
	ErrCodeContentMergeFailed        ErrorCode = "content_merge_failed"
	ErrCodeContentMalformedTemplate  ErrorCode = "content_malformed_template"

	// Upstream provider failures are transient and retried per channel policy.
	ErrCodeUpstreamEmailProvider  ErrorCode = "upstream_email_provider_unavailable"
	ErrCodeUpstreamSmsProvider    ErrorCode = "upstream_sms_provider_unavailable"
	ErrCodeUpstreamLetterProvider ErrorCode = "upstream_letter_provider_unavailable"
	ErrCodeUpstreamDocumentStore  ErrorCode = "upstream_document_store_unavailable"
	ErrCodeUpstreamRateLimited    ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamUnavailable    ErrorCode = "upstream_unavailable"

	// Configuration gaps: unroutable events reaching dispatch.
	ErrCodeConfigUnroutableEvent ErrorCode = "config_unroutable_event"
	ErrCodeConfigMissingTemplate ErrorCode = "config_missing_template"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its HTTP status code. Used by the callback
// API to translate AppErrors into responses. Unrecognized codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	case strings.HasPrefix(s, "content_"), strings.HasPrefix(s, "config_"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Domain errors are
// expressed as AppError so failures stay attributable to a case and mappable
// to consistent log fields and HTTP statuses.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewCaseError creates an AppError attributed to a case. Every content and
// dispatch fault carries the case id this way.
func NewCaseError(code ErrorCode, caseID string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: map[string]any{"case_id": caseID},
	}
}

// CaseID extracts the case id an error is attributed to, or "" when the
// error carries none.
func CaseID(err error) string {
	var appErr *AppError
	if !asAppError(err, &appErr) {
		return ""
	}
	if id, ok := appErr.Details["case_id"].(string); ok {
		return id
	}
	return ""
}

// IsRetryable reports whether the error represents a transient provider
// failure. Content faults, configuration gaps, and validation errors are
// terminal.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !asAppError(err, &appErr) {
		// Unclassified errors are treated as transient so provider hiccups
		// that bypass error mapping still get retried.
		return err != nil
	}
	return strings.HasPrefix(string(appErr.Code), "upstream_")
}

func asAppError(err error, target **AppError) bool {
	return errors.As(err, target)
}
