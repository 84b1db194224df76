package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store persists jobs in postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new job store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnqueueTx inserts a pending job inside the caller's transaction, so the
// job exists if and only if the triggering domain transaction commits.
func (s *Store) EnqueueTx(ctx context.Context, tx *sql.Tx, job Job) error {
	query := `
		INSERT INTO jobs (type, target_id, state, next_run_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := tx.ExecContext(ctx, query, job.Type, job.TargetID, StatePending); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Enqueue inserts a pending job outside any transaction.
func (s *Store) Enqueue(ctx context.Context, job Job) error {
	query := `
		INSERT INTO jobs (type, target_id, state, next_run_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := s.db.ExecContext(ctx, query, job.Type, job.TargetID, StatePending); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

const jobColumns = `id, type, target_id, state, retries, COALESCE(last_error, ''), last_attempt_at, next_run_at, created_at`

// Claim atomically flips every due pending job to processing and returns
// the claimed rows. The single UPDATE ... RETURNING is the storage-level
// compare-and-set that keeps a second scheduler tick, or a second process,
// from claiming the same job.
func (s *Store) Claim(ctx context.Context, now time.Time) ([]Job, error) {
	query := `
		UPDATE jobs
		SET state = $1, last_attempt_at = $2
		WHERE state = $3 AND next_run_at <= $2
		RETURNING ` + jobColumns
	rows, err := s.db.QueryContext(ctx, query, StateProcessing, now, StatePending)
	if err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// MarkDone records terminal success.
func (s *Store) MarkDone(ctx context.Context, jobID int64) error {
	query := `UPDATE jobs SET state = $1, last_error = NULL WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, StateDone, jobID); err != nil {
		return fmt.Errorf("failed to mark job done: %w", err)
	}
	return nil
}

// MarkRetry puts a job back to pending with an incremented failure count
// and its next eligibility time.
func (s *Store) MarkRetry(ctx context.Context, jobID int64, retries int, nextRunAt time.Time, lastError string) error {
	query := `
		UPDATE jobs SET state = $1, retries = $2, next_run_at = $3, last_error = $4
		WHERE id = $5
	`
	if _, err := s.db.ExecContext(ctx, query, StatePending, retries, nextRunAt, lastError, jobID); err != nil {
		return fmt.Errorf("failed to mark job for retry: %w", err)
	}
	return nil
}

// MarkFailed records terminal failure after retries are exhausted or a
// permanent error.
func (s *Store) MarkFailed(ctx context.Context, jobID int64, lastError string) error {
	query := `UPDATE jobs SET state = $1, last_error = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, StateFailed, lastError, jobID); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// ReapStale returns jobs stuck in processing (a claimant crashed between
// executing and recording the outcome) to pending so the next tick re-runs
// them. Actions are idempotent, so at-least-once re-execution is safe.
func (s *Store) ReapStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE jobs SET state = $1
		WHERE state = $2 AND last_attempt_at < $3
	`
	result, err := s.db.ExecContext(ctx, query, StatePending, StateProcessing, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CountPending returns the number of jobs waiting to run, for the queue
// depth gauge.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE state = $1`, StatePending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return n, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var j Job
		var lastAttempt sql.NullTime
		if err := rows.Scan(&j.ID, &j.Type, &j.TargetID, &j.State, &j.Retries, &j.LastError, &lastAttempt, &j.NextRunAt, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		if lastAttempt.Valid {
			t := lastAttempt.Time
			j.LastAttemptAt = &t
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return out, nil
}
