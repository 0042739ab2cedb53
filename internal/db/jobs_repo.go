package db

import (
	"context"
	"time"

	"casenotify/internal/types"
)

// StoredJob is a scheduled job row. Payload holds the serialized event
// message, gzip-compressed when Compressed is set.
type StoredJob struct {
	ID         string
	Group      string
	Type       types.EventType
	Payload    []byte
	Compressed bool
	DueAt      time.Time
}

// ScheduledJobRepository persists deferred sends and reminders in the
// scheduled_jobs table. Cancellation works on the job group, so postponing a
// hearing removes every pending reminder for that case's hearing family in
// one statement.
type ScheduledJobRepository struct {
	db DBTX
}

func NewScheduledJobRepository(db DBTX) *ScheduledJobRepository {
	return &ScheduledJobRepository{db: db}
}

// Insert stores one job. The id is caller-generated so the scheduler bridge
// can log it before the row exists.
func (r *ScheduledJobRepository) Insert(ctx context.Context, job StoredJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO scheduled_jobs (id, job_group, event_type, payload, compressed, due_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		job.ID, job.Group, string(job.Type), job.Payload, job.Compressed, job.DueAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert scheduled job", err)
	}
	return nil
}

// DeleteGroup removes every pending job in the group and returns how many
// rows were removed.
func (r *ScheduledJobRepository) DeleteGroup(ctx context.Context, group string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM scheduled_jobs WHERE job_group = $1`, group)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to cancel job group", err)
	}
	return tag.RowsAffected(), nil
}

// Due claims up to limit jobs whose due time has passed, deleting them in the
// same statement. FOR UPDATE SKIP LOCKED keeps concurrent runner instances
// from double-firing a job.
func (r *ScheduledJobRepository) Due(ctx context.Context, now time.Time, limit int) ([]StoredJob, error) {
	rows, err := r.db.Query(ctx,
		`DELETE FROM scheduled_jobs
		 WHERE id IN (
		   SELECT id FROM scheduled_jobs
		   WHERE due_at <= $1
		   ORDER BY due_at
		   LIMIT $2
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, job_group, event_type, payload, compressed, due_at`,
		now, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to claim due jobs", err)
	}
	defer rows.Close()

	var jobs []StoredJob
	for rows.Next() {
		var job StoredJob
		var eventType string
		if err := rows.Scan(&job.ID, &job.Group, &eventType, &job.Payload, &job.Compressed, &job.DueAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan scheduled job", err)
		}
		job.Type = types.EventType(eventType)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read due jobs", err)
	}
	return jobs, nil
}
