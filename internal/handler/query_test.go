package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/hybrid"
	"github.com/chessmate/chessmate/internal/reliability"
)

func stubDeps(games []domain.Game, total int) hybrid.Deps {
	return hybrid.Deps{
		FetchGames: func(ctx context.Context, plan domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return games, total, nil
		},
		FetchVectorHits: func(ctx context.Context, plan domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return nil, nil
		},
	}
}

func TestQueryHandler_POST_HappyPath(t *testing.T) {
	games := []domain.Game{{ID: 1, WhiteName: "Carlsen", BlackName: "Caruana"}}
	h := &QueryHandler{Deps: stubDeps(games, 1)}

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"games where white wins"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"game_id":1`)
}

func TestQueryHandler_POST_SurfacesVectorHitKeywords(t *testing.T) {
	games := []domain.Game{{ID: 1, WhiteName: "Carlsen", BlackName: "Caruana"}}
	deps := hybrid.Deps{
		FetchGames: func(ctx context.Context, plan domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return games, 1, nil
		},
		FetchVectorHits: func(ctx context.Context, plan domain.QueryPlan, limit int) ([]domain.VectorHit, error) {
			return []domain.VectorHit{{GameID: 1, Score: 0.8, Keywords: []string{"gambit", "sacrifice"}}}, nil
		},
	}
	h := &QueryHandler{Deps: deps}

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"games with sacrifices"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keywords":["gambit","sacrifice"]`)
}

func TestQueryHandler_POST_MissingQuestion(t *testing.T) {
	h := &QueryHandler{Deps: stubDeps(nil, 0)}
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_POST_MalformedJSON(t *testing.T) {
	h := &QueryHandler{Deps: stubDeps(nil, 0)}
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_GET_QueryString(t *testing.T) {
	games := []domain.Game{{ID: 2, WhiteName: "Nakamura", BlackName: "So"}}
	h := &QueryHandler{Deps: stubDeps(games, 1)}

	req := httptest.NewRequest(http.MethodGet, "/query?q=sicilian+defense&limit=5", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"game_id":2`)
}

func TestQueryHandler_GET_BadLimit(t *testing.T) {
	h := &QueryHandler{Deps: stubDeps(nil, 0)}
	req := httptest.NewRequest(http.MethodGet, "/query?q=test&limit=abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_BreakerGuardFreshPerRequest(t *testing.T) {
	games := []domain.Game{{ID: 3, WhiteName: "Ding", BlackName: "Nepo"}}
	breaker := reliability.NewCircuitBreaker(reliability.BreakerConfig{Name: "agent", Threshold: 1, Cooloff: time.Minute})
	h := &QueryHandler{Deps: stubDeps(games, 1), Breaker: breaker}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"games where white wins"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestQueryHandler_UpstreamError(t *testing.T) {
	deps := hybrid.Deps{
		FetchGames: func(ctx context.Context, plan domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
			return nil, 0, errors.New("db down")
		},
	}
	h := &QueryHandler{Deps: deps}
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"test"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
