package agent

import (
	"context"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/hybrid"
	"github.com/chessmate/chessmate/internal/llm"
	"github.com/chessmate/chessmate/internal/reliability"
)

// ChatCompleter is the subset of llm.ChatClient the evaluator depends
// on, so tests can substitute a stub.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Evaluator implements hybrid.AgentEvaluator: it builds a prompt from
// the candidate batch, invokes the chat model with a retry envelope
// (capped at 2 extra attempts per spec §4.C step 4), and parses the
// strict JSON schema. Circuit-breaker acquisition/recording is owned by
// the caller (hybrid.Execute via Deps.AgentCircuitBreaker), not here:
// this keeps exactly one breaker state transition per evaluation call
// instead of the evaluator and executor racing to record outcomes.
type Evaluator struct {
	chat ChatCompleter
}

func NewEvaluator(chat ChatCompleter) *Evaluator {
	return &Evaluator{chat: chat}
}

func (e *Evaluator) Evaluate(ctx context.Context, plan domain.QueryPlan, candidates []hybrid.CandidatePGN) ([]domain.AgentEvaluation, error) {
	userPrompt := BuildUserPrompt(plan, candidates)

	cfg := reliability.RetryConfig{
		MaxAttempts:  3, // initial attempt + 2 retries, per spec §4.C step 4
		InitialDelay: 0,
		Classify:     llm.ClassifyOpenAIError,
	}

	raw, err := reliability.Retry(func(attempt int) (string, error) {
		return e.chat.CompleteJSON(ctx, systemPrompt, userPrompt)
	}, cfg)
	if err != nil {
		return nil, err
	}

	return ParseResponse(raw)
}
