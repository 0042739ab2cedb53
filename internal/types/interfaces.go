package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used throughout the engine.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// TemplateLookup resolves the per-channel template ids for an event, role,
// hearing classification, and benefit category. Template configuration is
// owned by an external collaborator; the engine only consumes the ids.
type TemplateLookup interface {
	Lookup(ctx context.Context, event EventType, role PartyRole, hearing HearingKind, benefitCode string) (Template, error)

	// FallbackLetter returns the role-specific template used when a
	// fallback-letter-eligible event finds no usable electronic channel.
	FallbackLetter(ctx context.Context, role PartyRole) (string, error)
}

// EmailSender transmits a templated email through the external provider.
// The reference enables provider-side deduplication, which is what makes
// at-least-once redelivery safe.
type EmailSender interface {
	SendEmail(ctx context.Context, templateID, address string, placeholders Placeholders, reference string) error
}

// SmsSender transmits a templated SMS through the external provider.
type SmsSender interface {
	SendSMS(ctx context.Context, templateID, number string, placeholders Placeholders, reference string) error
}

// LetterSender transmits a physical letter. The pdf bytes are the fully
// assembled letter (cover page plus any bundled attachment).
type LetterSender interface {
	SendLetter(ctx context.Context, address Address, pdf []byte, placeholders Placeholders, reference string) error
}

// LetterGenerator renders the cover document for a letter template. PDF
// rendering itself is external; the engine only merges the returned bytes.
type LetterGenerator interface {
	GenerateCover(ctx context.Context, templateID string, placeholders Placeholders) ([]byte, error)
}

// DocumentStore fetches stored document bytes by reference.
type DocumentStore interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ScheduledJob is one deferred unit of work held by the external scheduler.
type ScheduledJob struct {
	ID string `json:"id"`
	// Group keys jobs for cancellation: "{caseID}.{eventFamily}".
	Group   string    `json:"group"`
	Type    EventType `json:"type"`
	Payload []byte    `json:"payload"`
	DueAt   time.Time `json:"due_at"`
}

// Scheduler is the bridge to the external job scheduler. Enqueue hands off a
// deferred send or reminder; CancelGroup removes a previously scheduled job
// group when it becomes moot (e.g. a postponed hearing).
type Scheduler interface {
	Enqueue(ctx context.Context, job ScheduledJob) error
	CancelGroup(ctx context.Context, group string) error
}

// EventPublisher re-queues an event message for later redelivery. Used by
// the job runner and the callback API.
type EventPublisher interface {
	Publish(ctx context.Context, msg EventMessage, delay time.Duration, reason string) error
}
