// Package api exposes the inbound callback HTTP surface. The case management
// system posts a lifecycle event with the new and old case snapshots; the
// handler validates the payload, resolves the event type, and enqueues the
// event for the notification worker. Nothing is dispatched synchronously.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"casenotify/internal/types"
)

// eventPublisher is the slice of the queue layer the handler needs.
type eventPublisher interface {
	Publish(ctx context.Context, msg types.EventMessage, delay time.Duration, reason string) error
}

// CallbackHandler accepts case lifecycle callbacks and hands them to the
// event queue.
type CallbackHandler struct {
	publisher eventPublisher
	validate  *validator.Validate
	logger    types.Logger
}

// NewCallbackHandler creates a CallbackHandler.
func NewCallbackHandler(publisher eventPublisher, logger types.Logger) *CallbackHandler {
	return &CallbackHandler{
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the callback endpoints on the given router.
func (h *CallbackHandler) RegisterRoutes(r chi.Router) {
	r.Route("/callbacks", func(r chi.Router) {
		r.Post("/", h.ReceiveCallback)
	})
	r.Get("/health", h.Health)
}

// callbackRequest is the inbound callback payload.
type callbackRequest struct {
	EventType types.EventType     `json:"event_type" validate:"required"`
	New       *types.CaseSnapshot `json:"new_snapshot" validate:"required"`
	Old       *types.CaseSnapshot `json:"old_snapshot"`
}

// callbackResponse acknowledges acceptance; the trace id lets the caller
// correlate downstream worker logs.
type callbackResponse struct {
	Status  string `json:"status"`
	TraceID string `json:"trace_id"`
}

// ReceiveCallback handles POST /callbacks. The event is validated and
// queued; a 202 means the engine owns it from here.
func (h *CallbackHandler) ReceiveCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req callbackRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"event_type and new_snapshot are required", err))
		return
	}
	if req.New.CaseID == "" {
		Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"new_snapshot.case_id is required", nil))
		return
	}

	// Reject unknown and unresolvable events at the door so they never
	// occupy the queue. Reissue triggers resolve against the snapshot.
	resolved, err := types.ResolveConcreteType(req.EventType, req.New)
	if err != nil {
		Error(w, r, types.NewAppError(types.ErrCodeValidationBadEvent, err.Error(), err))
		return
	}
	if _, known := resolved.Type.Policy(); !known {
		Error(w, r, types.NewAppError(types.ErrCodeValidationBadEvent,
			"unknown event type "+string(req.EventType), nil))
		return
	}

	traceID := types.GetRequestID(ctx)
	msg := types.EventMessage{
		EventType: req.EventType,
		New:       req.New,
		Old:       req.Old,
		TraceID:   traceID,
	}
	if err := h.publisher.Publish(ctx, msg, 0, "callback"); err != nil {
		h.logger.Error("enqueue failed",
			"event", string(req.EventType),
			"case_id", req.New.CaseID,
			"error", err,
		)
		Error(w, r, err)
		return
	}

	h.logger.Info("callback accepted",
		"event", string(req.EventType),
		"case_id", req.New.CaseID,
		"trace_id", traceID,
	)
	JSON(w, http.StatusAccepted, callbackResponse{Status: "accepted", TraceID: traceID})
}

// Health handles GET /health.
func (h *CallbackHandler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter assembles the full callback router with the standard middleware
// chain.
func NewRouter(handler *CallbackHandler, logger types.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	handler.RegisterRoutes(r)
	return r
}
