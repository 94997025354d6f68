package hybrid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/domain"
)

func ratingPtr(n int) *int { return &n }

func kingsIndianPlan() domain.QueryPlan {
	return domain.QueryPlan{
		CleanedText: "king's indian games where white is rated at least 2800",
		Filters: []domain.Filter{
			{Field: domain.FilterOpening, Value: "kings-indian"},
		},
		Rating:   domain.RatingConstraint{WhiteMin: ratingPtr(2800)},
		Keywords: []string{"indian", "tactics"},
		Limit:    50,
	}
}

func candidateGame(id int64, whiteRating int) domain.Game {
	openingSlug := "kings-indian"
	return domain.Game{
		ID:          id,
		WhiteName:   "Alpha",
		BlackName:   "Beta",
		OpeningSlug: &openingSlug,
		WhiteRating: &whiteRating,
	}
}

func TestExecute_HybridMergeHappyPath(t *testing.T) {
	plan := kingsIndianPlan()
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2870)}, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return []domain.VectorHit{{
				GameID:   1,
				Score:    0.92,
				Phases:   []string{"middlegame"},
				Themes:   []string{"tactics"},
				Keywords: []string{"indian", "attack"},
			}}, nil
		},
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Contains(t, out.Results[0].Themes, "tactics")
	assert.Contains(t, out.Results[0].Phases, "middlegame")
	assert.Equal(t, []string{"attack", "indian"}, out.Results[0].Keywords)
	assert.InDelta(t, 0.92, out.Results[0].VectorComponent, 1e-9)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 1, out.Pagination.Total)
	assert.False(t, out.Pagination.HasMore)
}

func TestExecute_VectorFailureFallback(t *testing.T) {
	plan := kingsIndianPlan()
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2870)}, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Greater(t, out.Results[0].VectorComponent, 0.0)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "vector search unavailable")
}

type stubEvaluator struct {
	evals []domain.AgentEvaluation
	err   error
	delay time.Duration
}

func (s stubEvaluator) Evaluate(ctx context.Context, plan domain.QueryPlan, candidates []CandidatePGN) ([]domain.AgentEvaluation, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.evals, nil
}

type noopBreaker struct {
	failures  int
	successes int
}

func (b *noopBreaker) Allow() bool  { return true }
func (b *noopBreaker) Success()     { b.successes++ }
func (b *noopBreaker) Failure()     { b.failures++ }

func TestExecute_AgentAgreesAndReorders(t *testing.T) {
	plan := domain.QueryPlan{CleanedText: "equal games", Limit: 50}
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2000), candidateGame(2, 2000)}, 2, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, nil
		},
		FetchGamePGNs: func(ctx context.Context, ids []int64) ([]CandidatePGN, error) {
			out := make([]CandidatePGN, len(ids))
			for i, id := range ids {
				out[i] = CandidatePGN{GameID: id, PGN: "1. e4 e5"}
			}
			return out, nil
		},
		AgentEvaluator: stubEvaluator{evals: []domain.AgentEvaluation{
			{GameID: 2, Score: 0.9, Explanation: "strong attack"},
			{GameID: 1, Score: 0.2},
		}},
		AgentCircuitBreaker: &noopBreaker{},
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, int64(2), out.Results[0].Game.ID)
	assert.Greater(t, out.Results[0].FinalScore, out.Results[1].FinalScore)
	assert.Equal(t, "strong attack", out.Results[0].Explanation)
}

func TestExecute_AgentTimeoutDegrades(t *testing.T) {
	plan := domain.QueryPlan{CleanedText: "slow", Limit: 50}
	breaker := &noopBreaker{}
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2000)}, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, nil
		},
		FetchGamePGNs: func(ctx context.Context, ids []int64) ([]CandidatePGN, error) {
			return []CandidatePGN{{GameID: 1, PGN: "1. e4"}}, nil
		},
		AgentEvaluator:      stubEvaluator{delay: 200 * time.Millisecond},
		AgentTimeoutSeconds: 0.05,
		AgentCircuitBreaker: breaker,
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Nil(t, out.Results[0].AgentScore)
	assert.Equal(t, AgentTimeout, out.AgentStatus)
	assert.Equal(t, 1, breaker.failures)
}

func TestExecute_OffsetBeyondTotalIsEmptyPage(t *testing.T) {
	plan := domain.QueryPlan{CleanedText: "x", Limit: 10, Offset: 50}
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2000)}, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, nil
		},
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.False(t, out.Pagination.HasMore)
}

func TestExecute_CircuitOpenSkipsAgent(t *testing.T) {
	plan := domain.QueryPlan{CleanedText: "x", Limit: 10}
	deps := Deps{
		FetchGames: func(ctx context.Context, p domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return []domain.Game{candidateGame(1, 2000)}, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, p domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, nil
		},
		AgentEvaluator:      stubEvaluator{},
		AgentCircuitBreaker: openBreaker{},
	}

	out, err := Execute(context.Background(), plan, deps)
	require.NoError(t, err)
	assert.Equal(t, AgentCircuitOpen, out.AgentStatus)
}

type openBreaker struct{}

func (openBreaker) Allow() bool { return false }
func (openBreaker) Success()    {}
func (openBreaker) Failure()    {}
