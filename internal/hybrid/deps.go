// Package hybrid implements the hybrid query executor (spec §4.B): it
// drives metadata and vector retrieval, fuses scores, optionally
// consults an LLM agent, and paginates the result.
package hybrid

import (
	"context"

	"github.com/chessmate/chessmate/internal/domain"
)

// Default tunables (spec §4.B), overridable per Deps.
const (
	DefaultAgentCandidateMultiplier = 5
	DefaultAgentCandidateMax        = 25
)

// AgentStatus reports whether and why the agent evaluator ran.
type AgentStatus string

const (
	AgentDisabled    AgentStatus = "disabled"
	AgentEnabled     AgentStatus = "enabled"
	AgentTimeout     AgentStatus = "timeout"
	AgentError       AgentStatus = "error"
	AgentCircuitOpen AgentStatus = "circuit_open"
)

// CandidatePGN is a game's body text, fetched lazily only for the ids an
// agent evaluator will actually see.
type CandidatePGN struct {
	GameID int64
	PGN    string
}

// AgentCache is the abstract key-value cache an agent evaluator consults
// before calling the LLM (spec §4.C).
type AgentCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.AgentEvaluation, error)
	PutMany(ctx context.Context, values map[string]domain.AgentEvaluation) error
}

// CircuitBreaker is the subset of the breaker's interface the executor
// needs to decide whether to attempt an agent call at all.
type CircuitBreaker interface {
	Allow() bool
	Success()
	Failure()
}

// AgentEvaluator scores a bounded batch of candidates for a plan.
// Implementations build prompts, call the LLM, and parse its response
// (spec §4.C); the executor only needs the final scored rows.
type AgentEvaluator interface {
	Evaluate(ctx context.Context, plan domain.QueryPlan, candidates []CandidatePGN) ([]domain.AgentEvaluation, error)
}

// Deps bundles the executor's collaborators. Only FetchGames and
// FetchVectorHits are required; the rest are optional and the executor
// degrades gracefully when they are nil.
type Deps struct {
	FetchGames       func(ctx context.Context, plan domain.QueryPlan, limit, offset int) ([]domain.Game, int, error)
	FetchVectorHits  func(ctx context.Context, plan domain.QueryPlan, limit int) ([]domain.VectorHit, error)
	FetchGamePGNs    func(ctx context.Context, gameIDs []int64) ([]CandidatePGN, error)

	AgentEvaluator            AgentEvaluator
	AgentCache                AgentCache
	AgentTimeoutSeconds       float64
	AgentCandidateMultiplier  int
	AgentCandidateMax         int
	AgentCircuitBreaker       CircuitBreaker

	// PlanDigest computes the stable cache-key prefix for a plan. Callers
	// normally pass intent.Digest.
	PlanDigest func(domain.QueryPlan) string

	// Sanitize redacts secrets from error strings before they are
	// surfaced in a warning. Defaults to a conservative inline fallback
	// when nil; callers normally pass reliability.Sanitize.
	Sanitize func(string) string
}

func (d Deps) multiplier() int {
	if d.AgentCandidateMultiplier > 0 {
		return d.AgentCandidateMultiplier
	}
	return DefaultAgentCandidateMultiplier
}

func (d Deps) candidateMax() int {
	if d.AgentCandidateMax > 0 {
		return d.AgentCandidateMax
	}
	return DefaultAgentCandidateMax
}

func (d Deps) sanitize(s string) string {
	if d.Sanitize != nil {
		return d.Sanitize(s)
	}
	return fallbackSanitize(s)
}
