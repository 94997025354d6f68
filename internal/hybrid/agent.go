package hybrid

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/chessmate/chessmate/internal/domain"
)

// runAgent implements spec §4.B step 5: select a bounded candidate budget,
// consult the cache, call the evaluator for misses, and record the
// outcome on the circuit breaker. Returns the resolved agent status, the
// (possibly extended) warnings slice, and the per-game evaluations found.
func runAgent(ctx context.Context, plan domain.QueryPlan, deps Deps, results []Result, warnings []string) (AgentStatus, []string, map[int64]domain.AgentEvaluation) {
	if deps.AgentCircuitBreaker != nil && !deps.AgentCircuitBreaker.Allow() {
		return AgentCircuitOpen, warnings, nil
	}

	budget := clamp(plan.Limit*deps.multiplier(), plan.Limit, deps.candidateMax())
	ordered := make([]Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BaseScore > ordered[j].BaseScore
	})
	if budget > len(ordered) {
		budget = len(ordered)
	}
	chosen := ordered[:budget]
	if len(chosen) == 0 {
		return AgentEnabled, warnings, nil
	}

	digest := ""
	if deps.PlanDigest != nil {
		digest = deps.PlanDigest(plan)
	}

	keys := make([]string, len(chosen))
	keyToGame := make(map[string]int64, len(chosen))
	for i, c := range chosen {
		k := CacheKey(digest, c.Game.ID)
		keys[i] = k
		keyToGame[k] = c.Game.ID
	}

	evals := make(map[int64]domain.AgentEvaluation, len(chosen))
	var missingIDs []int64

	if deps.AgentCache != nil {
		cached, err := deps.AgentCache.GetMany(ctx, keys)
		if err == nil {
			for k, ev := range cached {
				evals[keyToGame[k]] = ev
			}
		}
	}
	for _, c := range chosen {
		if _, ok := evals[c.Game.ID]; !ok {
			missingIDs = append(missingIDs, c.Game.ID)
		}
	}

	if len(missingIDs) == 0 {
		return AgentEnabled, warnings, evals
	}

	if deps.FetchGamePGNs == nil {
		status, warnings := recordFailure(deps, warnings, "agent evaluation unavailable: no game PGN source configured")
		return status, warnings, evals
	}
	pgns, err := deps.FetchGamePGNs(ctx, missingIDs)
	if err != nil {
		status, warnings := recordFailure(deps, warnings, "agent evaluation unavailable: "+deps.sanitize(err.Error()))
		return status, warnings, evals
	}

	timeout := time.Duration(deps.AgentTimeoutSeconds * float64(time.Second))
	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fresh, err := deps.AgentEvaluator.Evaluate(callCtx, plan, pgns)
	if err != nil {
		status := AgentError
		if errors.Is(err, context.DeadlineExceeded) {
			status = AgentTimeout
		}
		warnings = append(warnings, "agent evaluation failed: "+deps.sanitize(err.Error()))
		if deps.AgentCircuitBreaker != nil {
			deps.AgentCircuitBreaker.Failure()
		}
		return status, warnings, evals
	}

	if deps.AgentCircuitBreaker != nil {
		deps.AgentCircuitBreaker.Success()
	}

	toCache := make(map[string]domain.AgentEvaluation, len(fresh))
	for _, ev := range fresh {
		evals[ev.GameID] = ev
		toCache[CacheKey(digest, ev.GameID)] = ev
	}
	if deps.AgentCache != nil && len(toCache) > 0 {
		_ = deps.AgentCache.PutMany(ctx, toCache)
	}

	return AgentEnabled, warnings, evals
}

func recordFailure(deps Deps, warnings []string, msg string) (AgentStatus, []string) {
	warnings = append(warnings, msg)
	if deps.AgentCircuitBreaker != nil {
		deps.AgentCircuitBreaker.Failure()
	}
	return AgentError, warnings
}

// applyAgentScores merges per-game evaluations into results in place,
// setting FinalScore, Themes (union with vector themes), and Explanation.
func applyAgentScores(results []Result, evals map[int64]domain.AgentEvaluation) {
	if len(evals) == 0 {
		return
	}
	for i := range results {
		ev, ok := evals[results[i].Game.ID]
		if !ok {
			continue
		}
		score := ev.Score
		results[i].AgentScore = &score
		results[i].FinalScore = finalScore(results[i].BaseScore, &score)
		results[i].Explanation = ev.Explanation
		results[i].Themes = unionThemes(results[i].Themes, ev.Themes)
	}
}

func unionThemes(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		key := v
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
