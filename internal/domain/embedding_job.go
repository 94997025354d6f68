package domain

import "time"

// EmbeddingJobStatus is the state machine driving one embedding job.
type EmbeddingJobStatus string

const (
	JobPending    EmbeddingJobStatus = "pending"
	JobInProgress EmbeddingJobStatus = "in_progress"
	JobCompleted  EmbeddingJobStatus = "completed"
	JobFailed     EmbeddingJobStatus = "failed"
)

// EmbeddingJob is one queued unit of work to embed a position's FEN and
// upsert the resulting vector, one row per Position.
type EmbeddingJob struct {
	ID          int64
	GameID      int64
	Ply         int
	Status      EmbeddingJobStatus
	FEN         string
	Attempts    int
	LastError   *string
	EnqueuedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// CanClaim reports whether the job is eligible to be picked up by a worker.
func (j *EmbeddingJob) CanClaim() bool {
	return j.Status == JobPending
}
