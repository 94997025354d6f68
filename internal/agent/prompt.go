// Package agent builds prompts for, invokes, and parses responses from
// the LLM re-ranking step (spec §4.C Agent Evaluator).
package agent

import (
	"fmt"
	"strings"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/hybrid"
)

const systemPrompt = `You evaluate chess games against a user's question. ` +
	`Respond with exactly one JSON object: {"evaluations": [{"game_id": int, "score": number in [0,1], "explanation": string, "themes": [string]}...]}. ` +
	`Do not include any text outside the JSON object.`

// BuildUserPrompt renders the bounded-size prompt body from a plan and
// its candidate (game id, pgn) pairs.
func BuildUserPrompt(plan domain.QueryPlan, candidates []hybrid.CandidatePGN) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", plan.CleanedText)
	if len(plan.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(plan.Keywords, ", "))
	}
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- game_id=%d\n%s\n", c.GameID, truncate(c.PGN, 4000))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
