package embedding

import (
	"context"

	"github.com/chessmate/chessmate/internal/domain"
)

// PendingGuard refuses new ingestion when the pending-job backlog exceeds
// a configured ceiling (MAX_PENDING_EMBEDDINGS).
type PendingGuard struct {
	Jobs       JobStore
	MaxPending int
}

// Check returns domain.ErrQueuePressure if the pending count exceeds
// MaxPending. A MaxPending of 0 disables the guard.
func (g *PendingGuard) Check(ctx context.Context) error {
	if g.MaxPending <= 0 {
		return nil
	}
	n, err := g.Jobs.CountPending(ctx)
	if err != nil {
		return err
	}
	if n > g.MaxPending {
		return domain.ErrQueuePressure
	}
	return nil
}
