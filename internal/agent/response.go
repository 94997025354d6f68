package agent

import (
	"encoding/json"
	"fmt"

	"github.com/chessmate/chessmate/internal/domain"
)

// rawResponse mirrors the strict prompt contract (spec §4.C): parsers
// must reject a non-array evaluations field, non-numeric scores, or a
// missing game_id. Unknown extra fields are ignored by json.Unmarshal's
// default behaviour.
type rawResponse struct {
	Evaluations []rawEvaluation `json:"evaluations"`
}

type rawEvaluation struct {
	GameID      *int64   `json:"game_id"`
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
	Themes      []string `json:"themes"`
}

// ParseResponse validates and converts the model's raw JSON text into
// domain.AgentEvaluation values. Any schema violation is a hard error:
// the caller treats it the same as a transport failure (spec §4.C step 5).
func ParseResponse(raw string) ([]domain.AgentEvaluation, error) {
	var resp rawResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSchemaViolation, err)
	}

	out := make([]domain.AgentEvaluation, 0, len(resp.Evaluations))
	for i, e := range resp.Evaluations {
		if e.GameID == nil {
			return nil, fmt.Errorf("%w: evaluation %d missing game_id", domain.ErrSchemaViolation, i)
		}
		if e.Score == nil {
			return nil, fmt.Errorf("%w: evaluation %d missing score", domain.ErrSchemaViolation, i)
		}
		if !domain.ValidScore(*e.Score) {
			return nil, fmt.Errorf("%w: evaluation %d score %v out of [0,1]", domain.ErrSchemaViolation, i, *e.Score)
		}
		out = append(out, domain.AgentEvaluation{
			GameID:      *e.GameID,
			Score:       *e.Score,
			Explanation: e.Explanation,
			Themes:      e.Themes,
		})
	}
	return out, nil
}
