package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/domain"
)

func TestPendingGuard_UnderThreshold(t *testing.T) {
	jobs := &stubJobStore{toClaim: make([]domain.EmbeddingJob, 2)}
	g := &PendingGuard{Jobs: jobs, MaxPending: 5}
	require.NoError(t, g.Check(context.Background()))
}

func TestPendingGuard_AtThreshold(t *testing.T) {
	jobs := &stubJobStore{toClaim: make([]domain.EmbeddingJob, 5)}
	g := &PendingGuard{Jobs: jobs, MaxPending: 5}
	require.NoError(t, g.Check(context.Background()))
}

func TestPendingGuard_OverThreshold(t *testing.T) {
	jobs := &stubJobStore{toClaim: make([]domain.EmbeddingJob, 6)}
	g := &PendingGuard{Jobs: jobs, MaxPending: 5}
	assert.ErrorIs(t, g.Check(context.Background()), domain.ErrQueuePressure)
}

func TestPendingGuard_DisabledWhenZero(t *testing.T) {
	jobs := &stubJobStore{toClaim: make([]domain.EmbeddingJob, 1000)}
	g := &PendingGuard{Jobs: jobs, MaxPending: 0}
	require.NoError(t, g.Check(context.Background()))
}

func TestPendingGuard_PropagatesCountError(t *testing.T) {
	g := &PendingGuard{Jobs: &errJobStore{stubJobStore: &stubJobStore{}}, MaxPending: 5}
	assert.Error(t, g.Check(context.Background()))
}

type errJobStore struct{ *stubJobStore }

func (*errJobStore) CountPending(ctx context.Context) (int, error) {
	return 0, errors.New("db down")
}
