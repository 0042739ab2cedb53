// Package scheduler bridges the dispatch engine to durable deferred work.
// Deferred sends and reminders are rows in Postgres; the Runner polls due
// rows and republishes them onto the event queue. SQS alone cannot serve
// this because queued messages cannot be cancelled, and cancellation on
// postponement is a hard requirement.
package scheduler

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"casenotify/internal/db"
	"casenotify/internal/types"
)

// compressThreshold is the payload size above which job payloads are
// gzip-compressed before storage. Case snapshots with long document lists
// routinely cross this.
const compressThreshold = 4096

// JobStore is the persistence surface the bridge and runner need.
type JobStore interface {
	Insert(ctx context.Context, job db.StoredJob) error
	DeleteGroup(ctx context.Context, group string) (int64, error)
	Due(ctx context.Context, now time.Time, limit int) ([]db.StoredJob, error)
}

// Compile-time assertion that Bridge implements types.Scheduler.
var _ types.Scheduler = (*Bridge)(nil)

// Bridge implements types.Scheduler over the Postgres job store.
type Bridge struct {
	store  JobStore
	logger types.Logger
}

func NewBridge(store JobStore, logger types.Logger) *Bridge {
	return &Bridge{store: store, logger: logger}
}

// Enqueue persists one deferred job. Jobs without an id get one assigned.
func (b *Bridge) Enqueue(ctx context.Context, job types.ScheduledJob) error {
	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}

	payload, compressed, err := maybeCompress(job.Payload)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "compress job payload", err)
	}

	stored := db.StoredJob{
		ID:         id,
		Group:      job.Group,
		Type:       job.Type,
		Payload:    payload,
		Compressed: compressed,
		DueAt:      job.DueAt.UTC(),
	}
	if err := b.store.Insert(ctx, stored); err != nil {
		return err
	}

	b.logger.Info("scheduled job enqueued",
		"job_id", id, "group", job.Group, "type", string(job.Type),
		"due_at", stored.DueAt, "compressed", compressed)
	return nil
}

// CancelGroup removes every pending job in the group. Cancelling a group
// with nothing pending succeeds with a warning.
func (b *Bridge) CancelGroup(ctx context.Context, group string) error {
	removed, err := b.store.DeleteGroup(ctx, group)
	if err != nil {
		return err
	}
	if removed == 0 {
		b.logger.Warn("cancel requested for group with no pending jobs", "group", group)
		return nil
	}
	b.logger.Info("scheduled job group cancelled", "group", group, "removed", removed)
	return nil
}

func maybeCompress(payload []byte) ([]byte, bool, error) {
	if len(payload) < compressThreshold {
		return payload, false, nil
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, false, err
	}
	if err := w.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func decompress(payload []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
