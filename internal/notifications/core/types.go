// Package core implements the recipient resolution and dispatch engine for
// case event notifications. It centralizes party resolution, event validity
// checks, business-hours deferral, retry logic, and observability so that
// every delivery channel (email, SMS, letter) behaves consistently.
package core

import (
	"context"
	"time"

	"casenotify/internal/types"
)

// Candidate is a recipient produced by the Resolver. The subscription may be
// nil: mandatory letters are posted to parties who never subscribed to
// anything.
type Candidate struct {
	Role         types.PartyRole
	Subscription *types.Subscription
}

// Content carries everything the Dispatcher needs to render and send a single
// candidate's notifications.
type Content struct {
	Template     types.Template
	Placeholders types.Placeholders
	Reference    string
}

// ChannelOutcome records what happened on one delivery channel.
type ChannelOutcome struct {
	Result types.DeliveryResult
	Err    error
}

// Outcome aggregates per-channel results for a single candidate dispatch.
type Outcome struct {
	Email  ChannelOutcome
	SMS    ChannelOutcome
	Letter ChannelOutcome
}

// Failed reports whether any channel ended in a failure.
func (o Outcome) Failed() bool {
	return o.Email.Result == types.DeliveryFailed ||
		o.SMS.Result == types.DeliveryFailed ||
		o.Letter.Result == types.DeliveryFailed
}

// NotificationMetrics abstracts CloudWatch/telemetry operations for the
// dispatch engine.
type NotificationMetrics interface {
	RecordDispatch(ctx context.Context, channel types.ChannelType, result types.DeliveryResult)
	RecordLatency(ctx context.Context, channel types.ChannelType, duration time.Duration)
	RecordDeferral(ctx context.Context, event types.EventType)
}

// ReminderPlanner schedules and cancels follow-up notifications triggered by
// case events (acknowledgement delays, evidence reminders, hearing reminders).
type ReminderPlanner interface {
	Plan(ctx context.Context, event types.ResolvedEvent, snapshot *types.CaseSnapshot) error
}

// RetryPolicy defines the exponential backoff parameters for delivery retries
// within a single worker invocation.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Standard retry policies per channel. Letters go through a slower HTTP
// provider and tolerate longer gaps between attempts.
var (
	EmailRetryPolicy = RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
	SMSRetryPolicy = RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
	LetterRetryPolicy = RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 3.0,
	}
)

// CalculateNextRetry computes the delay before the next retry attempt using
// exponential backoff: delay = min(BaseDelay * BackoffFactor^attempt, MaxDelay).
func CalculateNextRetry(policy RetryPolicy, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(policy.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffFactor
	}

	d := time.Duration(delay)
	if d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	if d < 0 {
		// Guard against overflow
		d = policy.MaxDelay
	}

	return d
}
