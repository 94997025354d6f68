package hybrid

import (
	"strings"

	"github.com/chessmate/chessmate/internal/domain"
)

// maxFallbackVectorScore bounds the deterministic fallback vector_component
// used when no vector hit exists for a candidate, so pure metadata matches
// can still rank; the fallback never exceeds this value (spec §4.B step 4).
const maxFallbackVectorScore = 0.65

// Result is one scored, fused candidate row.
type Result struct {
	Game            domain.Game
	VectorComponent float64
	KeywordComponent float64
	BaseScore       float64
	AgentScore      *float64
	FinalScore      float64
	Themes          []string
	Phases          []string
	Keywords        []string
	Explanation     string
}

// metadataTerms derives the lexical terms a candidate's metadata
// contributes to keyword matching: opening name/slug, ECO code, player
// names. These count alongside vector-hit keywords (spec §4.B step 4).
func metadataTerms(g domain.Game) []string {
	terms := make([]string, 0, 4)
	if g.OpeningSlug != nil {
		terms = append(terms, strings.ToLower(*g.OpeningSlug))
	}
	if g.OpeningName != nil {
		terms = append(terms, tokenizeLower(*g.OpeningName)...)
	}
	if g.ECOCode != nil {
		terms = append(terms, strings.ToLower(*g.ECOCode))
	}
	terms = append(terms, tokenizeLower(g.WhiteName)...)
	terms = append(terms, tokenizeLower(g.BlackName)...)
	return terms
}

func tokenizeLower(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return fields
}

// fallbackVectorComponent computes the deterministic score used when no
// vector hit exists for a candidate: half credit for a rating match,
// half credit for an opening match, scaled into [0, maxFallbackVectorScore].
func fallbackVectorComponent(plan domain.QueryPlan, g domain.Game) float64 {
	var score float64

	ratingMatches := true
	if plan.Rating.WhiteMin != nil {
		if g.WhiteRating == nil || *g.WhiteRating < *plan.Rating.WhiteMin {
			ratingMatches = false
		}
	}
	if plan.Rating.BlackMin != nil {
		if g.BlackRating == nil || *g.BlackRating < *plan.Rating.BlackMin {
			ratingMatches = false
		}
	}
	if plan.Rating.MaxRatingDelta != nil {
		delta, ok := g.RatingDelta()
		if !ok || delta > *plan.Rating.MaxRatingDelta {
			ratingMatches = false
		}
	}
	if ratingMatches {
		score += maxFallbackVectorScore / 2
	}

	openingMatches := false
	for _, f := range plan.Filters {
		if f.Field != domain.FilterOpening {
			continue
		}
		if g.OpeningSlug != nil && strings.EqualFold(*g.OpeningSlug, f.Value) {
			openingMatches = true
		}
	}
	if !plan.HasFilter(domain.FilterOpening) {
		// no opening filter requested: don't penalise, grant half credit
		openingMatches = true
	}
	if openingMatches {
		score += maxFallbackVectorScore / 2
	}

	if score > maxFallbackVectorScore {
		score = maxFallbackVectorScore
	}
	return score
}

// keywordComponent computes |plan.keywords ∩ (candidate.keywords ∪
// metadata_terms)| / max(1, |plan.keywords|) (spec §4.B step 4).
func keywordComponent(plan domain.QueryPlan, candidateKeywords []string, metadata []string) float64 {
	if len(plan.Keywords) == 0 {
		return 0
	}
	pool := make(map[string]bool, len(candidateKeywords)+len(metadata))
	for _, k := range candidateKeywords {
		pool[strings.ToLower(k)] = true
	}
	for _, m := range metadata {
		pool[strings.ToLower(m)] = true
	}

	matched := 0
	for _, k := range plan.Keywords {
		if pool[strings.ToLower(k)] {
			matched++
		}
	}
	return float64(matched) / float64(len(plan.Keywords))
}

func baseScore(vectorComponent, keywordComponent float64) float64 {
	return 0.7*vectorComponent + 0.3*keywordComponent
}

func finalScore(base float64, agent *float64) float64 {
	if agent == nil {
		return base
	}
	return 0.5*base + 0.5*(*agent)
}
