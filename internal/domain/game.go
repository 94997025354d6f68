package domain

import "time"

// Result is the outcome of a finished (or ongoing) chess game.
type Result string

const (
	ResultWhiteWin Result = "1-0"
	ResultBlackWin Result = "0-1"
	ResultDraw     Result = "1/2-1/2"
	ResultUnknown  Result = "*"
)

// ValidResult reports whether s is one of the recognised PGN result tokens.
func ValidResult(s string) bool {
	switch Result(s) {
	case ResultWhiteWin, ResultBlackWin, ResultDraw, ResultUnknown:
		return true
	default:
		return false
	}
}

// Game is a single ingested chess game and its PGN headers.
type Game struct {
	ID            int64
	WhiteName     string
	BlackName     string
	Result        *Result
	Event         *string
	Site          *string
	Round         *string
	PlayedOn      *time.Time
	ECOCode       *string
	OpeningSlug   *string
	OpeningName   *string
	WhiteRating   *int
	BlackRating   *int
	PGN           string
}

// RatingDelta returns the absolute rating gap, and whether both ratings are known.
func (g *Game) RatingDelta() (int, bool) {
	if g.WhiteRating == nil || g.BlackRating == nil {
		return 0, false
	}
	d := *g.WhiteRating - *g.BlackRating
	if d < 0 {
		d = -d
	}
	return d, true
}
