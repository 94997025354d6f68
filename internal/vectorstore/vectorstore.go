// Package vectorstore abstracts the vector index behind the hybrid
// executor and embedding pipeline. The production implementation talks
// to Qdrant over gRPC; tests use an in-memory stub satisfying the same
// interface.
package vectorstore

import (
	"context"

	"github.com/chessmate/chessmate/internal/domain"
)

// Point is one vector-store record: a stable id, its embedding, and the
// metadata payload the embedding pipeline attaches (spec §4.D Upsert).
type Point struct {
	ID       string
	Vector   []float32
	GameID   int64
	Ply      int
	White    string
	Black    string
	Opening  *string
	ECOCode  *string
	Phases   []string
	Themes   []string
}

// Store is the interface the hybrid executor and embedding pipeline
// depend on. Implementations must honour ctx cancellation promptly
// (spec §5 Cooperative cancellation).
type Store interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]domain.VectorHit, error)
	Upsert(ctx context.Context, points []Point) error
	HealthCheck(ctx context.Context) error
}
