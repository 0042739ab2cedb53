package external

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"casenotify/internal/types"
)

func newTestLetterClient(t *testing.T, serverURL string) *LetterClient {
	t.Helper()
	return NewLetterClient(&http.Client{Timeout: 5 * time.Second}, serverURL, "secret-key",
		nopLogger{}, WithSleepFunc(noopSleep))
}

func TestGenerateCover_ReturnsRenderedPDF(t *testing.T) {
	var gotReq renderRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("path = %q, want /render", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(renderResponse{PDF: []byte("%PDF-cover")})
	}))
	defer server.Close()

	client := newTestLetterClient(t, server.URL)
	pdf, err := client.GenerateCover(context.Background(), "letter-lapsed", types.Placeholders{"name": "Ana"})
	if err != nil {
		t.Fatalf("GenerateCover() error = %v", err)
	}

	if string(pdf) != "%PDF-cover" {
		t.Errorf("pdf = %q", pdf)
	}
	if gotReq.TemplateID != "letter-lapsed" || gotReq.Placeholders["name"] != "Ana" {
		t.Errorf("request = %+v", gotReq)
	}
	if auth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestGenerateCover_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode types.ErrorCode
	}{
		{"missing template", http.StatusNotFound, types.ErrCodeConfigMissingTemplate},
		{"rejected template", http.StatusUnprocessableEntity, types.ErrCodeContentMalformedTemplate},
		{"bad request", http.StatusBadRequest, types.ErrCodeContentMalformedTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestLetterClient(t, server.URL).GenerateCover(context.Background(), "tmpl", nil)

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error is not an AppError: %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", appErr.Code, tt.wantCode)
			}
			if types.IsRetryable(err) {
				t.Error("content and config faults must be terminal")
			}
		})
	}
}

func TestSendLetter_SubmitsEncodedPDFWithReference(t *testing.T) {
	var gotReq sendLetterRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/letters" {
			t.Errorf("path = %q, want /letters", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	addr := types.Address{Line1: "1 Park Row", Town: "Leeds", Postcode: "LS1 1AA"}
	err := newTestLetterClient(t, server.URL).SendLetter(context.Background(), addr,
		[]byte("%PDF-final"), nil, "1002.appealLapsed.appellant")
	if err != nil {
		t.Fatalf("SendLetter() error = %v", err)
	}

	decoded, decErr := base64.StdEncoding.DecodeString(gotReq.PDFBase64)
	if decErr != nil || string(decoded) != "%PDF-final" {
		t.Errorf("pdf_base64 did not round-trip: %q", gotReq.PDFBase64)
	}
	if gotReq.Reference != "1002.appealLapsed.appellant" {
		t.Errorf("reference = %q", gotReq.Reference)
	}
	if gotReq.Address.Postcode != "LS1 1AA" {
		t.Errorf("address = %+v", gotReq.Address)
	}
}

func TestSendLetter_RejectionIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("address line 1 missing"))
	}))
	defer server.Close()

	err := newTestLetterClient(t, server.URL).SendLetter(context.Background(),
		types.Address{}, []byte("%PDF"), nil, "ref")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != types.ErrCodeContentMalformedTemplate {
		t.Errorf("code = %q", appErr.Code)
	}
	if types.IsRetryable(err) {
		t.Error("a 4xx rejection must not be retried")
	}
}

func TestSendLetter_OutageRetriesThenMapsProviderCode(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newTestLetterClient(t, server.URL).SendLetter(context.Background(),
		types.Address{}, []byte("%PDF"), nil, "ref")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != types.ErrCodeUpstreamLetterProvider {
		t.Errorf("code = %q, want upstream_letter_provider_unavailable", appErr.Code)
	}
	if got := attempts.Load(); got != 4 {
		t.Errorf("attempts = %d, want 4", got)
	}
}
