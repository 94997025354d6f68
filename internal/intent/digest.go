package intent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/chessmate/chessmate/internal/domain"
)

// digestPlan is the canonical, order-independent JSON shape hashed by
// Digest. Filters and keywords are sorted before marshalling so that two
// plans differing only in extraction order hash identically.
type digestPlan struct {
	CleanedText string   `json:"cleaned_text"`
	Filters     []string `json:"filters"`
	WhiteMin    string   `json:"white_min"`
	BlackMin    string   `json:"black_min"`
	MaxDelta    string   `json:"max_rating_delta"`
	Keywords    []string `json:"keywords"`
	Limit       int      `json:"limit"`
	Offset      int      `json:"offset"`
}

// Digest computes a stable hex-encoded SHA-256 digest of a query plan, used
// as the agent-evaluation cache key (spec §4.C, SPEC_FULL.md §12.1).
func Digest(plan domain.QueryPlan) string {
	filters := make([]string, 0, len(plan.Filters))
	for _, f := range plan.Filters {
		filters = append(filters, string(f.Field)+"="+f.Value)
	}
	sort.Strings(filters)

	keywords := make([]string, len(plan.Keywords))
	copy(keywords, plan.Keywords)
	sort.Strings(keywords)

	dp := digestPlan{
		CleanedText: plan.CleanedText,
		Filters:     filters,
		WhiteMin:    intPtrString(plan.Rating.WhiteMin),
		BlackMin:    intPtrString(plan.Rating.BlackMin),
		MaxDelta:    intPtrString(plan.Rating.MaxRatingDelta),
		Keywords:    keywords,
		Limit:       plan.Limit,
		Offset:      plan.Offset,
	}

	// json.Marshal on a struct with fixed field order already produces a
	// stable byte sequence; no map types are involved here.
	b, err := json.Marshal(dp)
	if err != nil {
		// dp contains only strings and ints: marshalling cannot fail.
		panic(err)
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
