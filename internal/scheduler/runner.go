package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casenotify/internal/db"
	"casenotify/internal/types"
)

// Runner polls the job store for due work and republishes each job's event
// message onto the queue. The worker then processes the redelivered message
// exactly like a fresh one.
type Runner struct {
	store     JobStore
	publisher types.EventPublisher
	clock     types.Clock
	logger    types.Logger

	batchSize int
	interval  time.Duration
}

func NewRunner(store JobStore, publisher types.EventPublisher, clock types.Clock, logger types.Logger, batchSize int, interval time.Duration) *Runner {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run polls until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("job poll failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due jobs and republishes them. Claimed jobs
// that fail to publish are logged and lost from the store; the publish path
// has its own retries, so this is a deliberate at-most-once trade on the
// runner side against re-firing reminders forever.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	jobs, err := r.store.Due(ctx, r.clock.Now(), r.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, job := range jobs {
		if err := r.publish(ctx, job); err != nil {
			r.logger.Error("failed to republish scheduled job",
				"job_id", job.ID, "group", job.Group, "type", string(job.Type),
				"error", err.Error())
			continue
		}
		published++
	}

	if len(jobs) > 0 {
		r.logger.Info("scheduled jobs fired", "claimed", len(jobs), "published", published)
	}
	return published, nil
}

func (r *Runner) publish(ctx context.Context, job db.StoredJob) error {
	payload := job.Payload
	if job.Compressed {
		var err error
		payload, err = decompress(payload)
		if err != nil {
			return fmt.Errorf("decompress job %s: %w", job.ID, err)
		}
	}

	var msg types.EventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode job %s: %w", job.ID, err)
	}

	return r.publisher.Publish(ctx, msg, 0, "scheduled:"+string(job.Type))
}
