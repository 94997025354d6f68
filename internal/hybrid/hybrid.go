package hybrid

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/chessmate/chessmate/internal/domain"
)

// Output is the full result of one executor run (spec §4.B).
type Output struct {
	Results     []Result
	Warnings    []string
	Pagination  Pagination
	AgentStatus AgentStatus
}

// Execute runs the hybrid retrieval pipeline for plan against deps.
func Execute(ctx context.Context, plan domain.QueryPlan, deps Deps) (Output, error) {
	var warnings []string

	budget := clamp(plan.Limit*deps.multiplier(), plan.Limit, deps.candidateMax())

	games, totalMatching, err := deps.FetchGames(ctx, plan, budget, 0)
	if err != nil {
		return Output{}, fmt.Errorf("fetch games: %w", err)
	}

	var hits []domain.VectorHit
	rawHits, vecErr := deps.FetchVectorHits(ctx, plan, budget)
	if vecErr != nil {
		warnings = append(warnings, "vector search unavailable: "+deps.sanitize(vecErr.Error()))
	} else {
		hits = rawHits
	}
	merged := domain.MergeVectorHits(hits)
	hitByGame := make(map[int64]domain.VectorHit, len(merged))
	for _, h := range merged {
		hitByGame[h.GameID] = h
	}

	results := make([]Result, 0, len(games))
	for _, g := range games {
		r := Result{Game: g}
		if hit, ok := hitByGame[g.ID]; ok {
			r.VectorComponent = hit.Score
			r.Phases = hit.Phases
			r.Themes = hit.Themes
			r.Keywords = hit.Keywords
			r.KeywordComponent = keywordComponent(plan, hit.Keywords, metadataTerms(g))
		} else {
			r.VectorComponent = fallbackVectorComponent(plan, g)
			r.KeywordComponent = keywordComponent(plan, nil, metadataTerms(g))
		}
		r.BaseScore = baseScore(r.VectorComponent, r.KeywordComponent)
		r.FinalScore = r.BaseScore
		results = append(results, r)
	}

	agentStatus := AgentDisabled
	if deps.AgentEvaluator != nil {
		var evals map[int64]domain.AgentEvaluation
		agentStatus, warnings, evals = runAgent(ctx, plan, deps, results, warnings)
		applyAgentScores(results, evals)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		pi, pj := playedOnKey(results[i].Game), playedOnKey(results[j].Game)
		if pi != pj {
			return pi > pj
		}
		return results[i].Game.ID < results[j].Game.ID
	})

	page, pagination := paginate(results, plan.Offset, plan.Limit, totalMatching)

	return Output{
		Results:     page,
		Warnings:    warnings,
		Pagination:  pagination,
		AgentStatus: agentStatus,
	}, nil
}

// clamp bounds n to [lo, hi]. If hi is below lo (an agent candidate ceiling
// configured smaller than the page limit) the floor wins: the overfetch
// budget must never drop below lo regardless of how hi is configured.
func clamp(n, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func playedOnKey(g domain.Game) int64 {
	if g.PlayedOn == nil {
		return 0
	}
	return g.PlayedOn.Unix()
}

var secretLikeRe = regexp.MustCompile(`sk-[A-Za-z0-9]+|[a-z]+://[^@\s]+@[^\s]+`)

// fallbackSanitize is the conservative default used when no reliability
// sanitiser is wired in; it is intentionally narrower than the fabric's
// own sanitizer and exists only so hybrid.Execute never panics on nil Deps.
func fallbackSanitize(s string) string {
	return secretLikeRe.ReplaceAllString(s, "[redacted]")
}

// CacheKey derives the (plan_digest, game_id) cache key (spec §4.B step 5).
func CacheKey(planDigest string, gameID int64) string {
	h := sha256.New()
	h.Write([]byte(planDigest))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatInt(gameID, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
