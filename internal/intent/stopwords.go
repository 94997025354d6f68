package intent

// stopwords is the fixed vocabulary dropped during keyword extraction
// (spec §4.A step 7). Deliberately small and unsurprising: articles,
// auxiliary verbs, and question words that carry no retrieval signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "did": true, "do": true, "does": true,
	"for": true, "from": true, "give": true, "has": true, "have": true,
	"how": true, "i": true, "in": true, "is": true, "it": true, "me": true,
	"of": true, "on": true, "or": true, "return": true, "show": true,
	"that": true, "the": true, "their": true, "there": true, "this": true,
	"to": true, "was": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "will": true, "with": true,
	"you": true, "find": true, "games": true, "game": true, "top": true,
	"first": true, "points": true, "rated": true, "rating": true,
}

// phaseVocabulary is the fixed set of recognised game-phase tokens
// (spec §4.A step 6).
var phaseVocabulary = []string{"opening", "middlegame", "endgame"}

// themeVocabulary is the fixed set of recognised tactical/strategic theme
// tokens (spec §4.A step 6). Non-exhaustive by design; the catalogue of
// themes is a tunable, not a contract.
var themeVocabulary = []string{
	"queenside_majority", "kingside_attack", "sacrifice", "fork", "pin",
	"skewer", "zugzwang", "opposition", "passed_pawn", "back_rank",
	"fortress", "perpetual_check", "discovered_attack",
}
