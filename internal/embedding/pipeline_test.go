package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/reliability"
	"github.com/chessmate/chessmate/internal/vectorstore"
)

type stubJobStore struct {
	mu        sync.Mutex
	toClaim   []domain.EmbeddingJob
	completed []string
	failed    []string
}

func (s *stubJobStore) Claim(ctx context.Context, k int) ([]domain.EmbeddingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.toClaim) == 0 {
		return nil, nil
	}
	n := k
	if n > len(s.toClaim) {
		n = len(s.toClaim)
	}
	claimed := s.toClaim[:n]
	s.toClaim = s.toClaim[n:]
	return claimed, nil
}

func (s *stubJobStore) Complete(ctx context.Context, job domain.EmbeddingJob, vectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, vectorID)
	return nil
}

func (s *stubJobStore) Fail(ctx context.Context, jobID int64, sanitisedErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, sanitisedErr)
	return nil
}

func (s *stubJobStore) CountPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.toClaim), nil
}

func (s *stubJobStore) ReclaimOrphaned(ctx context.Context, graceSeconds int) (int64, error) {
	return 0, nil
}

type stubPayloadStore struct{}

func (stubPayloadStore) FetchJoinedPayloads(ctx context.Context, gameIDs []int64) ([]PositionPayload, error) {
	out := make([]PositionPayload, 0, len(gameIDs))
	for _, id := range gameIDs {
		out = append(out, PositionPayload{GameID: id, Ply: 1, White: "Carlsen", Black: "Caruana"})
	}
	return out, nil
}

type stubEmbedder struct {
	err error
}

func (s stubEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type stubStore struct {
	err    error
	points []vectorstore.Point
}

func (s *stubStore) Search(ctx context.Context, embedding []float32, limit int) ([]domain.VectorHit, error) {
	return nil, nil
}

func (s *stubStore) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if s.err != nil {
		return s.err
	}
	s.points = append(s.points, points...)
	return nil
}

func (s *stubStore) HealthCheck(ctx context.Context) error { return nil }

func noRetry() reliability.RetryConfig {
	return reliability.RetryConfig{MaxAttempts: 1, Sleep: func(time.Duration) {}}
}

func TestPipeline_RunOnce_HappyPath(t *testing.T) {
	jobs := &stubJobStore{toClaim: []domain.EmbeddingJob{
		{ID: 1, GameID: 10, Ply: 1, FEN: "fen-a"},
		{ID: 2, GameID: 10, Ply: 2, FEN: "fen-b"},
	}}
	store := &stubStore{}
	p := &Pipeline{
		Jobs:     jobs,
		Payloads: stubPayloadStore{},
		Embedder: stubEmbedder{},
		Store:    store,
		Config:   Config{ChunkSize: 10, MaxChars: 1000, EmbeddingRetry: noRetry(), UpsertRetry: noRetry()},
	}

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, jobs.completed, 2)
	assert.Empty(t, jobs.failed)
	assert.Len(t, store.points, 2)
}

func TestPipeline_RunOnce_NoJobsClaimed(t *testing.T) {
	jobs := &stubJobStore{}
	p := &Pipeline{Jobs: jobs, Payloads: stubPayloadStore{}, Embedder: stubEmbedder{}, Store: &stubStore{}}
	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPipeline_EmbeddingFailureFailsJobs(t *testing.T) {
	jobs := &stubJobStore{toClaim: []domain.EmbeddingJob{{ID: 1, GameID: 10, Ply: 1, FEN: "fen-a"}}}
	p := &Pipeline{
		Jobs:     jobs,
		Payloads: stubPayloadStore{},
		Embedder: stubEmbedder{err: errors.New("embedding down")},
		Store:    &stubStore{},
		Config:   Config{EmbeddingRetry: noRetry(), UpsertRetry: noRetry()},
	}

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, jobs.completed)
	require.Len(t, jobs.failed, 1)
}

func TestPipeline_UpsertFailureFailsJobs(t *testing.T) {
	jobs := &stubJobStore{toClaim: []domain.EmbeddingJob{{ID: 1, GameID: 10, Ply: 1, FEN: "fen-a"}}}
	store := &stubStore{err: errors.New("qdrant down")}
	p := &Pipeline{
		Jobs:     jobs,
		Payloads: stubPayloadStore{},
		Embedder: stubEmbedder{},
		Store:    store,
		Config:   Config{EmbeddingRetry: noRetry(), UpsertRetry: noRetry()},
	}

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, jobs.completed)
	require.Len(t, jobs.failed, 1)
}
