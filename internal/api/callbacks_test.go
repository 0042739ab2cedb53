package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"casenotify/internal/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)      {}
func (nopLogger) Error(string, ...any)     {}
func (nopLogger) Warn(string, ...any)      {}
func (nopLogger) With(...any) types.Logger { return nopLogger{} }

type fakePublisher struct {
	mu       sync.Mutex
	messages []types.EventMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg types.EventMessage, _ time.Duration, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newTestRouter(pub *fakePublisher) http.Handler {
	return NewRouter(NewCallbackHandler(pub, nopLogger{}), nopLogger{})
}

func postCallback(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/callbacks", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validBody() map[string]any {
	return map[string]any{
		"event_type": "appealLapsed",
		"new_snapshot": map[string]any{
			"case_id":         "1002",
			"wants_to_attend": true,
			"subscriptions":   map[string]any{},
		},
	}
}

func TestReceiveCallback_AcceptsAndQueues(t *testing.T) {
	pub := &fakePublisher{}
	rec := postCallback(t, newTestRouter(pub), validBody())

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.EventType != types.EventAppealLapsed {
		t.Errorf("EventType = %q, want appealLapsed", msg.EventType)
	}
	if msg.New == nil || msg.New.CaseID != "1002" {
		t.Errorf("snapshot not carried through: %+v", msg.New)
	}
	if msg.TraceID == "" {
		t.Error("TraceID not assigned")
	}

	var resp struct {
		Status  string `json:"status"`
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "accepted" || resp.TraceID != msg.TraceID {
		t.Errorf("response = %+v, want accepted with trace %q", resp, msg.TraceID)
	}
}

func TestReceiveCallback_EchoesCallerRequestID(t *testing.T) {
	pub := &fakePublisher{}
	router := newTestRouter(pub)

	raw, _ := json.Marshal(validBody())
	req := httptest.NewRequest(http.MethodPost, "/callbacks", bytes.NewReader(raw))
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
		t.Errorf("X-Request-ID = %q, want trace-42", got)
	}
	if len(pub.messages) != 1 || pub.messages[0].TraceID != "trace-42" {
		t.Errorf("message trace id not taken from header: %+v", pub.messages)
	}
}

func TestReceiveCallback_RejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"no event type", map[string]any{
			"new_snapshot": map[string]any{"case_id": "1", "wants_to_attend": false, "subscriptions": map[string]any{}},
		}},
		{"no snapshot", map[string]any{"event_type": "appealLapsed"}},
		{"no case id", map[string]any{
			"event_type":   "appealLapsed",
			"new_snapshot": map[string]any{"wants_to_attend": false, "subscriptions": map[string]any{}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			rec := postCallback(t, newTestRouter(pub), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(pub.messages) != 0 {
				t.Error("invalid callback must not be queued")
			}
		})
	}
}

func TestReceiveCallback_RejectsUnknownEvent(t *testing.T) {
	body := validBody()
	body["event_type"] = "somethingElseEntirely"

	pub := &fakePublisher{}
	rec := postCallback(t, newTestRouter(pub), body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "validation_unknown_event_type") {
		t.Errorf("body = %s, want unknown-event code", rec.Body.String())
	}
}

func TestReceiveCallback_RejectsReissueWithoutTarget(t *testing.T) {
	body := validBody()
	body["event_type"] = "reissueDocument"

	pub := &fakePublisher{}
	rec := postCallback(t, newTestRouter(pub), body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	if len(pub.messages) != 0 {
		t.Error("unresolvable reissue must not be queued")
	}
}

func TestReceiveCallback_RejectsMalformedJSON(t *testing.T) {
	pub := &fakePublisher{}
	req := httptest.NewRequest(http.MethodPost, "/callbacks", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	newTestRouter(pub).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReceiveCallback_RejectsUnknownFields(t *testing.T) {
	body := validBody()
	body["surprise"] = true

	pub := &fakePublisher{}
	rec := postCallback(t, newTestRouter(pub), body)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReceiveCallback_PublishFailureSurfaces(t *testing.T) {
	pub := &fakePublisher{err: types.NewAppError(types.ErrCodeUpstreamUnavailable, "queue unavailable", errors.New("boom"))}
	rec := postCallback(t, newTestRouter(pub), validBody())

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&fakePublisher{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
