package types

// EventMessage is the queue payload for one case lifecycle event. Old is nil
// on case creation. The same shape is used for first delivery, out-of-hours
// redelivery, and scheduled reminder firing, so a deferred event preserves
// everything already resolved.
type EventMessage struct {
	EventType EventType     `json:"event_type"`
	New       *CaseSnapshot `json:"new_snapshot"`
	Old       *CaseSnapshot `json:"old_snapshot,omitempty"`

	// TraceID correlates log lines across the callback API, queue, and
	// worker for one logical event.
	TraceID string `json:"trace_id,omitempty"`

	// RetryCount is incremented by the publisher before each redelivery.
	RetryCount int `json:"retry_count,omitempty"`
}
