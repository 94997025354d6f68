package vectorstore

import (
	"context"
	"sync"

	"github.com/chessmate/chessmate/internal/domain"
)

// MemoryStore is an in-memory Store whose points live only in this
// process. Not safe to share across processes.
type MemoryStore struct {
	mu     sync.Mutex
	points map[string]Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]Point)}
}

func (m *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

// Search returns stored points, up to limit, as hits with a constant
// score of 1.0; the embedding is ignored and no similarity is computed.
func (m *MemoryStore) Search(ctx context.Context, embedding []float32, limit int) ([]domain.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]domain.VectorHit, 0, len(m.points))
	for _, p := range m.points {
		hits = append(hits, domain.VectorHit{
			GameID: p.GameID,
			Score:  1.0,
			Phases: p.Phases,
			Themes: p.Themes,
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func (m *MemoryStore) HealthCheck(ctx context.Context) error { return nil }
