package postgres

import (
	"context"
	"fmt"

	"github.com/chessmate/chessmate/internal/domain"
)

// JobRepository drives the embedding_jobs state machine: atomic claim,
// completion (paired with the position's vector_id back-write in the
// same transaction), and failure recording (spec §4.D).
type JobRepository struct {
	db DB
}

func NewJobRepository(db DB) *JobRepository {
	return &JobRepository{db: db}
}

// Claim atomically claims up to k pending jobs: SELECT ... FOR UPDATE
// SKIP LOCKED ordered by enqueued_at, then marks them in_progress with
// attempts incremented (spec §4.D Claim protocol). k must already be
// validated into [1, 256] by the caller at startup.
func (r *JobRepository) Claim(ctx context.Context, k int) ([]domain.EmbeddingJob, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, game_id, ply, fen, attempts, enqueued_at
		FROM embedding_jobs
		WHERE status = 'pending'
		ORDER BY enqueued_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, k)
	if err != nil {
		return nil, fmt.Errorf("select pending jobs: %w", err)
	}

	var claimed []domain.EmbeddingJob
	for rows.Next() {
		var j domain.EmbeddingJob
		if err := rows.Scan(&j.ID, &j.GameID, &j.Ply, &j.FEN, &j.Attempts, &j.EnqueuedAt); err != nil {
			rows.Close()
			return nil, err
		}
		j.Status = domain.JobInProgress
		j.Attempts++
		claimed = append(claimed, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, j := range claimed {
		_, err := tx.Exec(ctx, `
			UPDATE embedding_jobs
			SET status = 'in_progress', started_at = now(), attempts = attempts + 1
			WHERE id = $1`, j.ID)
		if err != nil {
			return nil, fmt.Errorf("claim job %d: %w", j.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return claimed, nil
}

// Complete transitions a job to completed and back-writes the
// position's vector_id in one transaction (spec §4.D State transition).
func (r *JobRepository) Complete(ctx context.Context, job domain.EmbeddingJob, vectorID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE positions SET vector_id = $1 WHERE game_id = $2 AND ply = $3`,
		vectorID, job.GameID, job.Ply,
	); err != nil {
		return fmt.Errorf("write vector_id: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE embedding_jobs SET status = 'completed', completed_at = now() WHERE id = $1`,
		job.ID,
	); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	return tx.Commit(ctx)
}

// Fail marks a job failed with a sanitised error message.
func (r *JobRepository) Fail(ctx context.Context, jobID int64, sanitisedErr string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE embedding_jobs SET status = 'failed', last_error = $1 WHERE id = $2`,
		sanitisedErr, jobID,
	)
	return err
}

// CountPending implements the queue-pressure guard's count query (spec
// §4.D Queue-pressure guard).
func (r *JobRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM embedding_jobs WHERE status = 'pending'`).Scan(&n)
	return n, err
}

// ReclaimOrphaned resets jobs stuck in_progress for longer than
// graceSeconds back to pending, for the reconciler (spec §12 supplement;
// not specified by the source — see DESIGN.md). Attempts is not
// incremented here: that only happens at the next real Claim.
func (r *JobRepository) ReclaimOrphaned(ctx context.Context, graceSeconds int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE embedding_jobs
		SET status = 'pending', started_at = NULL
		WHERE status = 'in_progress'
		  AND started_at < now() - ($1 || ' seconds')::interval`,
		graceSeconds,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Enqueue inserts one pending embedding job for a position.
func (r *JobRepository) Enqueue(ctx context.Context, gameID int64, ply int, fen string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO embedding_jobs (game_id, ply, fen, status, attempts, enqueued_at)
		VALUES ($1, $2, $3, 'pending', 0, now())`,
		gameID, ply, fen,
	)
	return err
}
