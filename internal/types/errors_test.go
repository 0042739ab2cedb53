package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_UnwrapSupportsErrorsIs(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := NewAppError(ErrCodeUpstreamLetterProvider, "letter provider unreachable", underlying)

	wrapped := fmt.Errorf("dispatch: %w", appErr)
	if !errors.Is(wrapped, underlying) {
		t.Error("expected errors.Is to find the underlying error")
	}

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to find the AppError")
	}
	if target.Code != ErrCodeUpstreamLetterProvider {
		t.Errorf("unexpected code %s", target.Code)
	}
}

func TestNewCaseError_CarriesCaseID(t *testing.T) {
	err := NewCaseError(ErrCodeContentMissingAttachment, "98765", "direction text not found", nil)

	if got := CaseID(err); got != "98765" {
		t.Errorf("expected case id 98765, got %q", got)
	}
	if got := CaseID(errors.New("plain")); got != "" {
		t.Errorf("expected empty case id for plain error, got %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"upstream rate limited", NewAppError(ErrCodeUpstreamRateLimited, "429", nil), true},
		{"upstream provider", NewCaseError(ErrCodeUpstreamSmsProvider, "1", "timeout", nil), true},
		{"content fault", NewCaseError(ErrCodeContentMergeFailed, "1", "bad pdf", nil), false},
		{"config gap", NewAppError(ErrCodeConfigUnroutableEvent, "gap", nil), false},
		{"unclassified defaults to transient", errors.New("socket closed"), true},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.retryable {
			t.Errorf("%s: expected retryable=%v, got %v", tt.name, tt.retryable, got)
		}
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidationBadPayload, http.StatusBadRequest},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamDocumentStore, http.StatusBadGateway},
		{ErrCodeContentMergeFailed, http.StatusUnprocessableEntity},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.code, tt.expected, got)
		}
	}
}
