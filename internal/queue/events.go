// Package queue publishes case event messages onto the SQS event queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"casenotify/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Compile-time assertion that EventPublisher implements types.EventPublisher.
var _ types.EventPublisher = (*EventPublisher)(nil)

// EventPublisher puts event messages on the SQS queue for first delivery and
// redelivery. Publish increments msg.RetryCount BEFORE serializing, so the
// next consumer sees an accurate attempt number.
type EventPublisher struct {
	client   SQSSender
	queueURL string
	logger   types.Logger
}

// NewEventPublisher creates a publisher targeting the given SQS queue.
func NewEventPublisher(client SQSSender, queueURL string, logger types.Logger) *EventPublisher {
	return &EventPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Publish serializes the message and sends it with the given delay. SQS caps
// DelaySeconds at 900; longer delays belong in the scheduler's job store, not
// on the queue, so anything above the cap is clamped.
func (p *EventPublisher) Publish(ctx context.Context, msg types.EventMessage, delay time.Duration, reason string) error {
	msg.RetryCount++

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("event publisher: failed to marshal message: %w", err)
	}

	delaySec := int32(delay.Seconds())
	if delaySec > 900 {
		delaySec = 900
	}
	if delaySec < 0 {
		delaySec = 0
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(p.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: delaySec,
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("event publisher: failed to send message to %s: %w", p.queueURL, err)
	}

	caseID := ""
	if msg.New != nil {
		caseID = msg.New.CaseID
	}
	p.logger.Info("event message published",
		"event", string(msg.EventType),
		"case_id", caseID,
		"retry_count", msg.RetryCount,
		"delay_seconds", delaySec,
		"reason", reason,
		"trace_id", msg.TraceID,
	)

	return nil
}
