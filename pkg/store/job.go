package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"holdemsim-server/pkg/db"
)

// JobStatus is the lifecycle state of a simulator job
type JobStatus string

// job statuses
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// SimulatorJob is a row in the durable bot work queue. A nil PlayerID means
// "whichever eligible player holds the turn".
type SimulatorJob struct {
	ID       int64           `json:"id"`
	GameID   string          `json:"gameId"`
	PlayerID *int64          `json:"playerId"`
	HandID   int64           `json:"handId"`
	RunAt    time.Time       `json:"runAt"`
	Status   JobStatus       `json:"status"`
	Attempts int             `json:"attempts"`
	LockedAt *time.Time      `json:"lockedAt"`
	Error    string          `json:"error"`
	Payload  json.RawMessage `json:"payload"`
}

const jobColumns = `
simulator_jobs.id,
simulator_jobs.game_id,
simulator_jobs.player_id,
simulator_jobs.hand_id,
simulator_jobs.run_at,
simulator_jobs.status,
simulator_jobs.attempts,
simulator_jobs.locked_at,
simulator_jobs.error,
simulator_jobs.payload`

func jobByRow(row db.Scanner) (*SimulatorJob, error) {
	var j SimulatorJob
	var playerID sql.NullInt64
	var lockedAt sql.NullTime
	var jobErr sql.NullString

	if err := row.Scan(
		&j.ID,
		&j.GameID,
		&playerID,
		&j.HandID,
		&j.RunAt,
		&j.Status,
		&j.Attempts,
		&lockedAt,
		&jobErr,
		&j.Payload,
	); err != nil {
		return nil, err
	}

	if playerID.Valid {
		j.PlayerID = &playerID.Int64
	}

	if lockedAt.Valid {
		j.LockedAt = &lockedAt.Time
	}

	j.Error = jobErr.String

	return &j, nil
}

// EnqueueJob inserts a pending simulator job. Enqueueing is idempotent: a
// second pending job for the same (game, hand, player) is silently dropped.
func (s *Store) EnqueueJob(ctx context.Context, gameID string, playerID *int64, handID int64, runAt time.Time, payload json.RawMessage) error {
	return enqueueJob(ctx, s.db.ExecContext, gameID, playerID, handID, runAt, payload)
}

// EnqueueJob enqueues inside the hand transaction, so a bot's follow-up job
// commits atomically with the action that made it necessary
func (h *HandTx) EnqueueJob(ctx context.Context, gameID string, playerID *int64, handID int64, runAt time.Time, payload json.RawMessage) error {
	return enqueueJob(ctx, h.tx.ExecContext, gameID, playerID, handID, runAt, payload)
}

type execContextFn func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

func enqueueJob(ctx context.Context, execContext execContextFn, gameID string, playerID *int64, handID int64, runAt time.Time, payload json.RawMessage) error {
	const query = `
INSERT INTO simulator_jobs (game_id, player_id, hand_id, run_at, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id, hand_id, player_key) WHERE status = 'pending' DO NOTHING`

	var pid sql.NullInt64
	if playerID != nil {
		pid = sql.NullInt64{Int64: *playerID, Valid: true}
	}

	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	_, err := execContext(ctx, query, gameID, pid, handID, runAt.UTC(), []byte(payload))
	return err
}

// ClaimDue atomically claims up to limit due jobs: pending rows whose run_at
// has passed, plus processing rows whose lease expired because a worker died.
// Each claimed row has its attempt counter bumped and a fresh lease; SKIP
// LOCKED guarantees two claimers never take the same row.
func (s *Store) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]*SimulatorJob, error) {
	const query = `
UPDATE simulator_jobs
SET status = 'processing', locked_at = NOW(), attempts = attempts + 1
WHERE id IN (
    SELECT id
    FROM simulator_jobs
    WHERE (status = 'pending' AND run_at <= NOW())
       OR (status = 'processing' AND locked_at <= NOW() - ($2 * INTERVAL '1 second'))
    ORDER BY run_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns

	rows, err := s.db.QueryContext(ctx, query, limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*SimulatorJob, 0, limit)
	for rows.Next() {
		j, err := jobByRow(rows)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// CompleteJob marks a processing job as done
func (s *Store) CompleteJob(ctx context.Context, id int64) error {
	const query = `
UPDATE simulator_jobs
SET status = 'completed', locked_at = NULL
WHERE id = $1 AND status = 'processing'`

	return s.finishJob(ctx, query, id)
}

// RetryJob releases a processing job back to pending with a later run time
func (s *Store) RetryJob(ctx context.Context, id int64, jobErr string, runAt time.Time) error {
	const query = `
UPDATE simulator_jobs
SET status = 'pending', locked_at = NULL, error = $2, run_at = $3
WHERE id = $1 AND status = 'processing'`

	res, err := s.db.ExecContext(ctx, query, id, jobErr, runAt.UTC())
	if err != nil {
		return err
	}

	return requireRow(res)
}

// FailJob marks a job as permanently failed
func (s *Store) FailJob(ctx context.Context, id int64, jobErr string) error {
	const query = `
UPDATE simulator_jobs
SET status = 'failed', locked_at = NULL, error = $2
WHERE id = $1 AND status = 'processing'`

	res, err := s.db.ExecContext(ctx, query, id, jobErr)
	if err != nil {
		return err
	}

	return requireRow(res)
}

func (s *Store) finishJob(ctx context.Context, query string, id int64) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrConflict
	}

	return nil
}
