// Package cache implements the agent-evaluation cache (spec §4.C
// Caching): a key-value store keyed on (plan_digest, game_id) with TTL,
// supporting batched get/put so the executor can resolve a whole
// candidate batch in one round trip.
package cache

import (
	"context"

	"github.com/chessmate/chessmate/internal/domain"
)

// Cache is the abstract interface hybrid.AgentCache is satisfied by.
type Cache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.AgentEvaluation, error)
	PutMany(ctx context.Context, values map[string]domain.AgentEvaluation) error
}
