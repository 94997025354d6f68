// Package intent turns a natural-language chess question into a
// deterministic domain.QueryPlan. Analyse never fails: ambiguous or
// unparseable input simply yields a plan with fewer filters.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chessmate/chessmate/internal/domain"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenRe      = regexp.MustCompile(`[a-z0-9]+`)

	limitVerbRe  = regexp.MustCompile(`\b(?:top|first|show|find|give|return)\s+(\d{1,4})\b`)
	limitNounRe  = regexp.MustCompile(`\b(\d{1,4})\s+games\b`)

	whiteMinRe = regexp.MustCompile(`\bwhite\s*(?:is|rated)?\s*(?:at least|>=|above|over)?\s*(\d{3,4})\b`)
	blackMinRe = regexp.MustCompile(`\bblack\s*(?:is|rated)?\s*(?:at least|>=|above|over)?\s*(\d{3,4})\b`)
	deltaRe    = regexp.MustCompile(`\b(\d{1,4})\s+points?\s+(?:lower|apart|delta|gap)\b`)

	whitePlusRe = regexp.MustCompile(`\bwhite\D{0,12}?(\d{3,4})\+`)
	blackPlusRe = regexp.MustCompile(`\bblack\D{0,12}?(\d{3,4})\+`)

	drawRe      = regexp.MustCompile(`\bdraw(?:n)?\b`)
	whiteWinRe  = regexp.MustCompile(`\bwhite wins\b|\b1-0\b`)
	blackWinRe  = regexp.MustCompile(`\bblack wins\b|\b0-1\b`)
)

// Analyse parses free text into a structured QueryPlan. requestedLimit and
// requestedOffset (both optional, nil when absent) are the fallbacks the
// HTTP layer passes through from explicit query parameters.
func Analyse(text string, catalogue OpeningCatalogue, requestedLimit, requestedOffset *int) domain.QueryPlan {
	if catalogue == nil {
		catalogue = NoCatalogue{}
	}

	cleaned := clean(text)

	plan := domain.QueryPlan{
		CleanedText: cleaned,
		Offset:      0,
	}

	consumed := make([]string, 0, 4)

	plan.Limit = extractLimit(cleaned, requestedLimit)
	if requestedOffset != nil && *requestedOffset > 0 {
		plan.Offset = *requestedOffset
	}

	plan.Rating = extractRating(cleaned)

	for _, m := range catalogue.Match(cleaned) {
		plan.Filters = append(plan.Filters, domain.Filter{Field: domain.FilterOpening, Value: m.Slug})
		if m.HasRange {
			plan.Filters = append(plan.Filters, domain.Filter{
				Field: domain.FilterECORange,
				Value: m.ECOLow + "-" + m.ECOHigh,
			})
		}
	}

	if r, consumedPhrase := extractResult(cleaned); r != "" {
		plan.Filters = append(plan.Filters, domain.Filter{Field: domain.FilterResult, Value: r})
		consumed = append(consumed, consumedPhrase)
	}

	for _, phase := range phaseVocabulary {
		if strings.Contains(cleaned, phase) {
			plan.Filters = append(plan.Filters, domain.Filter{Field: domain.FilterPhase, Value: phase})
			consumed = append(consumed, phase)
		}
	}
	for _, theme := range themeVocabulary {
		phrase := strings.ReplaceAll(theme, "_", " ")
		if strings.Contains(cleaned, phrase) {
			plan.Filters = append(plan.Filters, domain.Filter{Field: domain.FilterTheme, Value: theme})
			consumed = append(consumed, phrase)
		}
	}

	plan.Keywords = extractKeywords(cleaned, consumed)

	return plan
}

// clean lower-cases and collapses whitespace (spec §4.A step 1).
func clean(text string) string {
	lowered := strings.ToLower(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(lowered, " "))
}

func extractLimit(cleaned string, requested *int) int {
	if m := limitVerbRe.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return domain.ClampLimit(n)
		}
	}
	if m := limitNounRe.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return domain.ClampLimit(n)
		}
	}
	if requested != nil {
		return domain.ClampLimit(*requested)
	}
	return domain.DefaultLimit
}

func extractRating(cleaned string) domain.RatingConstraint {
	var rc domain.RatingConstraint

	if m := whiteMinRe.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rc.WhiteMin = &n
		}
	}
	if m := blackMinRe.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rc.BlackMin = &n
		}
	}
	if rc.WhiteMin == nil {
		if m := whitePlusRe.FindStringSubmatch(cleaned); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				rc.WhiteMin = &n
			}
		}
	}
	if rc.BlackMin == nil {
		if m := blackPlusRe.FindStringSubmatch(cleaned); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				rc.BlackMin = &n
			}
		}
	}
	if m := deltaRe.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rc.MaxRatingDelta = &n
		}
	}
	return rc
}

// extractResult returns the normalised PGN result token and the phrase
// that matched, so the keyword extractor can exclude it.
func extractResult(cleaned string) (string, string) {
	switch {
	case drawRe.MatchString(cleaned):
		return string(domain.ResultDraw), "draw"
	case whiteWinRe.MatchString(cleaned):
		return string(domain.ResultWhiteWin), "white wins"
	case blackWinRe.MatchString(cleaned):
		return string(domain.ResultBlackWin), "black wins"
	default:
		return "", ""
	}
}

func extractKeywords(cleaned string, consumedPhrases []string) []string {
	text := cleaned
	for _, phrase := range consumedPhrases {
		text = strings.ReplaceAll(text, phrase, " ")
	}

	tokens := tokenRe.FindAllString(text, -1)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
