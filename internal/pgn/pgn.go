// Package pgn implements the PGN/FEN parser contract SPEC_FULL.md carves
// out as an external collaborator: ParseFile splits a multi-game PGN
// file into games and replays each game's movetext into one
// domain.Position per ply, assumed-correct input (no legality
// verification beyond what's needed to compute the resulting FEN).
package pgn

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chessmate/chessmate/internal/domain"
)

// Game is one parsed PGN game: its header tags and the positions it
// produces (one per ply, FEN after the move, SAN of the move played).
// ToGame maps the headers the game repository persists.
type Game struct {
	Headers   map[string]string
	Positions []domain.Position // GameID left zero; caller fills it in after insert
}

var tagRe = regexp.MustCompile(`^\[(\w+)\s+"(.*)"\]\s*$`)

// ParseFile splits data into games with SplitGames (a new game starts at
// each "[Event " tag), and parses each in turn. A parse failure on
// any one game fails the whole file (spec's ingest exit code 1).
func ParseFile(data []byte) ([]Game, error) {
	blocks := SplitGames(string(data))

	games := make([]Game, 0, len(blocks))
	for i, block := range blocks {
		g, err := parseGame(block)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}
		games = append(games, g)
	}
	return games, nil
}

// SplitGames breaks a PGN file into per-game raw text blocks, in the
// same order ParseFile parses them. Each game starts with a "[Event "
// tag; everything up to (but not including) the next such tag belongs
// to the same game. Exposed so callers that need each game's original
// source text (e.g. to store alongside its parsed form) don't have to
// re-implement the split.
func SplitGames(data string) []string {
	text := strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	var blocks []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[Event ") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func parseGame(block string) (Game, error) {
	lines := strings.Split(block, "\n")
	headers := make(map[string]string)
	var movetextLines []string

	inHeader := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if inHeader && strings.HasPrefix(trimmed, "[") {
			if m := tagRe.FindStringSubmatch(trimmed); m != nil {
				headers[m[1]] = m[2]
				continue
			}
		}
		if trimmed == "" {
			continue
		}
		inHeader = false
		movetextLines = append(movetextLines, trimmed)
	}

	if len(headers) == 0 {
		return Game{}, fmt.Errorf("no PGN tags found")
	}

	sans, err := tokenizeMovetext(strings.Join(movetextLines, " "))
	if err != nil {
		return Game{}, err
	}

	b := newInitialBoard()
	positions := make([]domain.Position, 0, len(sans))
	for ply, san := range sans {
		side := b.turn
		if err := applySAN(b, san); err != nil {
			return Game{}, fmt.Errorf("move %d (%s): %w", ply+1, san, err)
		}
		sideToMove := domain.SideWhite
		if side == 'b' {
			sideToMove = domain.SideBlack
		}
		positions = append(positions, domain.Position{
			Ply:        ply + 1,
			SAN:        san,
			FEN:        b.FEN(),
			SideToMove: sideToMove,
		})
	}

	return Game{Headers: headers, Positions: positions}, nil
}

var moveNumberRe = regexp.MustCompile(`^\d+\.(\.\.)?$`)

// tokenizeMovetext strips move numbers, comments, NAGs, and variations,
// and returns the ordered list of SAN tokens, stopping at a result
// marker.
func tokenizeMovetext(s string) ([]string, error) {
	s = stripBraces(s)
	s = stripVariations(s)

	fields := strings.Fields(s)
	var sans []string
	for _, f := range fields {
		if domain.ValidResult(f) {
			break
		}
		if moveNumberRe.MatchString(f) {
			continue
		}
		if strings.HasPrefix(f, "$") {
			continue
		}
		sans = append(sans, f)
	}
	return sans, nil
}

func stripBraces(s string) string {
	var out strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

func stripVariations(s string) string {
	var out strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

var sanRe = regexp.MustCompile(`^([KQRBN]?)([a-h]?)([1-8]?)(x?)([a-h][1-8])(=[QRBN])?[+#]?$`)

// applySAN resolves one SAN token against b's current position and
// mutates b to reflect the move.
func applySAN(b *board, san string) error {
	clean := strings.TrimRight(san, "!?")

	if clean == "O-O" || clean == "0-0" {
		return applyCastle(b, b.turn, true)
	}
	if clean == "O-O-O" || clean == "0-0-0" {
		return applyCastle(b, b.turn, false)
	}

	m := sanRe.FindStringSubmatch(clean)
	if m == nil {
		return fmt.Errorf("unrecognised SAN token %q", san)
	}
	pieceLetter, disambigFile, disambigRank, captureFlag, destStr, promo := m[1], m[2], m[3], m[4], m[5], m[6]

	dest, ok := parseSquareName(destStr)
	if !ok {
		return fmt.Errorf("invalid destination square in %q", san)
	}

	pieceType := pieceTypeFor(pieceLetter, b.turn)
	isCapture := captureFlag == "x"
	candidates := b.candidateSources(pieceType, b.turn, dest, isCapture)
	candidates = filterDisambiguation(candidates, disambigFile, disambigRank)
	if len(candidates) == 0 {
		return fmt.Errorf("no source square found for %q", san)
	}
	from := candidates[0]

	return applyMove(b, from, dest, pieceType, isCapture, promo)
}

func filterDisambiguation(candidates []int, file, rank string) []int {
	if file == "" && rank == "" {
		return candidates
	}
	var out []int
	for _, c := range candidates {
		if file != "" && fileOf(c) != int(file[0]-'a') {
			continue
		}
		if rank != "" && rankOf(c) != int(rank[0]-'1') {
			continue
		}
		out = append(out, c)
	}
	return out
}

func applyMove(b *board, from, dest int, pieceType byte, isCapture bool, promo string) error {
	mover := b.squares[from]
	capturedEnPassant := false

	if upper(pieceType) == 'P' && isCapture && b.squares[dest] == 0 {
		capturedEnPassant = true
	}

	wasPawnMove := upper(pieceType) == 'P'
	wasCapture := isCapture || b.squares[dest] != 0

	b.squares[from] = 0
	if capturedEnPassant {
		captureRank := rankOf(dest)
		if b.turn == 'w' {
			captureRank = rankOf(dest) - 1
		} else {
			captureRank = rankOf(dest) + 1
		}
		b.squares[sq(fileOf(dest), captureRank)] = 0
	}

	placed := mover
	if promo != "" {
		letter := strings.TrimPrefix(promo, "=")
		placed = pieceTypeFor(letter, b.turn)
	}
	b.squares[dest] = placed

	updateCastlingRights(b, from, dest, mover)

	if wasPawnMove && abs(rankOf(dest)-rankOf(from)) == 2 {
		epRank := (rankOf(from) + rankOf(dest)) / 2
		b.enPassant = squareName(sq(fileOf(from), epRank))
	} else {
		b.enPassant = "-"
	}

	if wasPawnMove || wasCapture {
		b.halfmove = 0
	} else {
		b.halfmove++
	}

	if b.turn == 'b' {
		b.fullmove++
	}
	if b.turn == 'w' {
		b.turn = 'b'
	} else {
		b.turn = 'w'
	}
	return nil
}

func applyCastle(b *board, side byte, kingside bool) error {
	rank := 0
	if side == 'b' {
		rank = 7
	}
	kingFrom := sq(4, rank)
	var kingTo, rookFrom, rookTo int
	if kingside {
		kingTo = sq(6, rank)
		rookFrom = sq(7, rank)
		rookTo = sq(5, rank)
	} else {
		kingTo = sq(2, rank)
		rookFrom = sq(0, rank)
		rookTo = sq(3, rank)
	}

	king := b.squares[kingFrom]
	rook := b.squares[rookFrom]
	b.squares[kingFrom] = 0
	b.squares[rookFrom] = 0
	b.squares[kingTo] = king
	b.squares[rookTo] = rook

	if side == 'w' {
		b.castling = strings.Map(dropRune("KQ"), b.castling)
	} else {
		b.castling = strings.Map(dropRune("kq"), b.castling)
	}
	if b.castling == "" {
		b.castling = "-"
	}
	b.enPassant = "-"
	b.halfmove++
	if side == 'b' {
		b.fullmove++
	}
	if side == 'w' {
		b.turn = 'b'
	} else {
		b.turn = 'w'
	}
	return nil
}

func dropRune(drop string) func(rune) rune {
	return func(r rune) rune {
		if strings.ContainsRune(drop, r) {
			return -1
		}
		return r
	}
}

func updateCastlingRights(b *board, from, dest int, mover byte) {
	switch mover {
	case 'K':
		b.castling = strings.Map(dropRune("KQ"), b.castling)
	case 'k':
		b.castling = strings.Map(dropRune("kq"), b.castling)
	}
	corner := map[int]string{
		sq(0, 0): "Q", sq(7, 0): "K",
		sq(0, 7): "q", sq(7, 7): "k",
	}
	if r, ok := corner[from]; ok {
		b.castling = strings.Map(dropRune(r), b.castling)
	}
	if r, ok := corner[dest]; ok {
		b.castling = strings.Map(dropRune(r), b.castling)
	}
	if b.castling == "" {
		b.castling = "-"
	}
}

// ExtractRating parses a PGN rating header (e.g. "WhiteElo"), returning
// nil when absent or non-numeric ("-" is common for unrated events).
func ExtractRating(headers map[string]string, key string) *int {
	v, ok := headers[key]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}
