package pgn

import (
	"strings"
	"time"

	"github.com/chessmate/chessmate/internal/domain"
)

// ToGame builds a domain.Game header record from one parsed Game's PGN
// tags and its original raw text, ready for GameRepository.Insert.
func (g Game) ToGame(rawPGN string) domain.Game {
	game := domain.Game{
		WhiteName: g.Headers["White"],
		BlackName: g.Headers["Black"],
		PGN:       rawPGN,
	}

	if r, ok := g.Headers["Result"]; ok && domain.ValidResult(r) {
		result := domain.Result(r)
		game.Result = &result
	}
	if v, ok := g.Headers["Event"]; ok && v != "" && v != "?" {
		game.Event = &v
	}
	if v, ok := g.Headers["Site"]; ok && v != "" && v != "?" {
		game.Site = &v
	}
	if v, ok := g.Headers["Round"]; ok && v != "" && v != "?" {
		game.Round = &v
	}
	if v, ok := g.Headers["ECO"]; ok && v != "" {
		game.ECOCode = &v
	}
	if v, ok := g.Headers["Opening"]; ok && v != "" {
		game.OpeningName = &v
		slug := slugify(v)
		game.OpeningSlug = &slug
	}
	game.WhiteRating = ExtractRating(g.Headers, "WhiteElo")
	game.BlackRating = ExtractRating(g.Headers, "BlackElo")

	if v, ok := g.Headers["Date"]; ok {
		if t, err := time.Parse("2006.01.02", v); err == nil {
			game.PlayedOn = &t
		}
	}

	return game
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
