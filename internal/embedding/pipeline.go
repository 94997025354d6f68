package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/metrics"
	"github.com/chessmate/chessmate/internal/reliability"
	"github.com/chessmate/chessmate/internal/vectorstore"
)

// JobStore is the subset of postgres.JobRepository the pipeline and its
// reconciler/pending-guard depend on.
type JobStore interface {
	Claim(ctx context.Context, k int) ([]domain.EmbeddingJob, error)
	Complete(ctx context.Context, job domain.EmbeddingJob, vectorID string) error
	Fail(ctx context.Context, jobID int64, sanitisedErr string) error
	CountPending(ctx context.Context) (int, error)
	ReclaimOrphaned(ctx context.Context, graceSeconds int) (int64, error)
}

// PayloadStore is the subset of postgres.PositionRepository the pipeline
// depends on to build vector-store payloads.
type PayloadStore interface {
	FetchJoinedPayloads(ctx context.Context, gameIDs []int64) ([]PositionPayload, error)
}

// PositionPayload mirrors postgres.JoinedPayload; kept as a local type
// so this package does not depend on the repository package directly.
type PositionPayload struct {
	GameID      int64
	Ply         int
	FEN         string
	White       string
	Black       string
	OpeningSlug *string
	ECOCode     *string
}

// Embedder is the subset of llm.EmbeddingsClient the pipeline depends on.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Config tunes one Pipeline instance.
type Config struct {
	BatchSize int // k jobs claimed per cycle, default 16, bounded [1,256]
	ChunkSize int
	MaxChars  int

	EmbeddingRetry reliability.RetryConfig
	UpsertRetry    reliability.RetryConfig

	PollInterval time.Duration
}

func (c *Config) withDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.BatchSize > 256 {
		c.BatchSize = 256
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
}

// Pipeline drives one worker loop: claim, chunk, embed, upsert, transition.
type Pipeline struct {
	Jobs      JobStore
	Payloads  PayloadStore
	Embedder  Embedder
	Store     vectorstore.Store
	Metrics   *metrics.Registry
	Config    Config
}

// RunOnce claims up to Config.BatchSize jobs and drives them through the
// full pipeline. It returns the number of jobs processed (completed or
// failed), so callers can decide whether to poll again immediately.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	p.Config.withDefaults()

	jobs, err := p.Jobs.Claim(ctx, p.Config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	chunks := Chunk(jobs, p.Config.ChunkSize, p.Config.MaxChars)
	for _, chunk := range chunks {
		p.processChunk(ctx, chunk)
	}
	return len(jobs), nil
}

func (p *Pipeline) processChunk(ctx context.Context, chunk []domain.EmbeddingJob) {
	fens := make([]string, len(chunk))
	for i, j := range chunk {
		fens[i] = j.FEN
	}

	embeddings, err := reliability.Retry(func(attempt int) ([][]float32, error) {
		return p.Embedder.Embed(ctx, fens)
	}, p.Config.EmbeddingRetry)
	if err != nil {
		p.failAll(ctx, chunk, "embedding call failed: "+reliability.Sanitize(err.Error()))
		return
	}

	gameIDs := make([]int64, 0, len(chunk))
	seen := make(map[int64]bool, len(chunk))
	for _, j := range chunk {
		if !seen[j.GameID] {
			seen[j.GameID] = true
			gameIDs = append(gameIDs, j.GameID)
		}
	}
	payloads, err := p.Payloads.FetchJoinedPayloads(ctx, gameIDs)
	if err != nil {
		p.failAll(ctx, chunk, "payload fetch failed: "+reliability.Sanitize(err.Error()))
		return
	}
	payloadByKey := make(map[positionKey]PositionPayload, len(payloads))
	for _, pl := range payloads {
		payloadByKey[positionKey{pl.GameID, pl.Ply}] = pl
	}

	points := make([]vectorstore.Point, 0, len(chunk))
	ids := make([]string, len(chunk))
	for i, j := range chunk {
		id := VectorID(j.FEN)
		ids[i] = id
		pl := payloadByKey[positionKey{j.GameID, j.Ply}]
		points = append(points, vectorstore.Point{
			ID:      id,
			Vector:  embeddings[i],
			GameID:  j.GameID,
			Ply:     j.Ply,
			White:   pl.White,
			Black:   pl.Black,
			Opening: pl.OpeningSlug,
			ECOCode: pl.ECOCode,
		})
	}

	_, err = reliability.Retry(func(attempt int) (struct{}, error) {
		return struct{}{}, p.Store.Upsert(ctx, points)
	}, p.Config.UpsertRetry)
	if err != nil {
		p.failAll(ctx, chunk, "vector upsert failed: "+reliability.Sanitize(err.Error()))
		return
	}

	for i, j := range chunk {
		if err := p.Jobs.Complete(ctx, j, ids[i]); err != nil {
			p.failAll(ctx, []domain.EmbeddingJob{j}, "state transition failed: "+reliability.Sanitize(err.Error()))
			continue
		}
		if p.Metrics != nil {
			p.Metrics.EmbeddingWorkerProcessedTotal.Inc()
		}
	}
}

func (p *Pipeline) failAll(ctx context.Context, jobs []domain.EmbeddingJob, msg string) {
	for _, j := range jobs {
		_ = p.Jobs.Fail(ctx, j.ID, msg)
		if p.Metrics != nil {
			p.Metrics.EmbeddingWorkerFailedTotal.Inc()
		}
	}
}

type positionKey struct {
	gameID int64
	ply    int
}

// Run polls RunOnce forever until ctx is cancelled, sleeping
// Config.PollInterval whenever a cycle claims nothing.
func (p *Pipeline) Run(ctx context.Context) {
	p.Config.withDefaults()
	ticker := time.NewTicker(p.Config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := p.RunOnce(ctx)
		if err != nil || n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}
