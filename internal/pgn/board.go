package pgn

import (
	"fmt"
	"strings"
)

// board is a minimal 8x8 chess board sufficient to replay well-formed
// SAN movetext into FEN strings per ply. It tracks occupancy, side to
// move, castling rights, and the en-passant target, but does not verify
// check/checkmate or full move legality: PGN input is assumed correct
// (spec's PGN/FEN parser contract), so this only needs to resolve each
// SAN token to the square it moves from and apply it.
type board struct {
	squares  [64]byte // 0 = a1 ... 63 = h8; 0 means empty
	turn     byte     // 'w' or 'b'
	castling string   // subset of "KQkq", "-" if none
	enPassant string  // target square (e.g. "e3") or "-"
	halfmove int
	fullmove int
}

func sq(file, rank int) int { return rank*8 + file }

func fileOf(s int) int { return s % 8 }
func rankOf(s int) int { return s / 8 }

func squareName(s int) string {
	return fmt.Sprintf("%c%d", 'a'+fileOf(s), rankOf(s)+1)
}

func parseSquareName(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return sq(file, rank), true
}

// newInitialBoard returns the standard chess starting position.
func newInitialBoard() *board {
	b := &board{turn: 'w', castling: "KQkq", enPassant: "-", fullmove: 1}
	back := []byte{'R', 'N', 'B', 'Q', 'K', 'B', 'N', 'R'}
	for f := 0; f < 8; f++ {
		b.squares[sq(f, 0)] = back[f]
		b.squares[sq(f, 1)] = 'P'
		b.squares[sq(f, 6)] = 'p'
		b.squares[sq(f, 7)] = back[f] + ('a' - 'A')
	}
	return b
}

func isWhite(p byte) bool { return p >= 'A' && p <= 'Z' }
func isBlack(p byte) bool { return p >= 'a' && p <= 'z' }

func (b *board) sideOf(p byte) byte {
	if isWhite(p) {
		return 'w'
	}
	return 'b'
}

// FEN renders the current position as a FEN string.
func (b *board) FEN() string {
	var placement strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[sq(file, rank)]
			if p == 0 {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&placement, "%d", empty)
				empty = 0
			}
			placement.WriteByte(p)
		}
		if empty > 0 {
			fmt.Fprintf(&placement, "%d", empty)
		}
		if rank > 0 {
			placement.WriteByte('/')
		}
	}

	castling := b.castling
	if castling == "" {
		castling = "-"
	}
	enPassant := b.enPassant
	if enPassant == "" {
		enPassant = "-"
	}

	return fmt.Sprintf("%s %c %s %s %d %d", placement.String(), b.turn, castling, enPassant, b.halfmove, b.fullmove)
}

// pieceTypeFor maps a SAN piece letter (or "" for pawn) plus side to the
// board's piece byte.
func pieceTypeFor(letter string, side byte) byte {
	var p byte
	switch letter {
	case "N":
		p = 'N'
	case "B":
		p = 'B'
	case "R":
		p = 'R'
	case "Q":
		p = 'Q'
	case "K":
		p = 'K'
	default:
		p = 'P'
	}
	if side == 'b' {
		p += 'a' - 'A'
	}
	return p
}

// candidateSources returns every square occupied by a piece of the given
// type/side that could pseudo-legally reach dest, given current
// occupancy (sliding pieces must have a clear path; pawns honour
// capture vs. forward-move rules and the en-passant target).
func (b *board) candidateSources(pieceType byte, side byte, dest int, isCapture bool) []int {
	var out []int
	for from := 0; from < 64; from++ {
		p := b.squares[from]
		if p == 0 || b.sideOf(p) != side {
			continue
		}
		if upper(p) != upper(pieceType) {
			continue
		}
		if b.canReach(from, dest, p, isCapture) {
			out = append(out, from)
		}
	}
	return out
}

func upper(p byte) byte {
	if p >= 'a' && p <= 'z' {
		return p - ('a' - 'A')
	}
	return p
}

func (b *board) canReach(from, dest int, piece byte, isCapture bool) bool {
	ff, fr := fileOf(from), rankOf(from)
	tf, tr := fileOf(dest), rankOf(dest)
	df, dr := tf-ff, tr-fr

	switch upper(piece) {
	case 'N':
		ad, ar := abs(df), abs(dr)
		return (ad == 1 && ar == 2) || (ad == 2 && ar == 1)
	case 'K':
		return abs(df) <= 1 && abs(dr) <= 1
	case 'B':
		return abs(df) == abs(dr) && abs(df) != 0 && b.pathClear(from, dest)
	case 'R':
		return (df == 0 || dr == 0) && (df != 0 || dr != 0) && b.pathClear(from, dest)
	case 'Q':
		return ((df == 0 || dr == 0) || abs(df) == abs(dr)) && (df != 0 || dr != 0) && b.pathClear(from, dest)
	case 'P':
		return b.pawnCanReach(from, dest, piece, isCapture)
	}
	return false
}

func (b *board) pawnCanReach(from, dest int, piece byte, isCapture bool) bool {
	ff, fr := fileOf(from), rankOf(from)
	tf, tr := fileOf(dest), rankOf(dest)
	dir := 1
	startRank := 1
	if isBlack(piece) {
		dir = -1
		startRank = 6
	}

	if isCapture {
		if tr-fr != dir || abs(tf-ff) != 1 {
			return false
		}
		if b.squares[dest] != 0 {
			return true
		}
		// en passant
		return b.enPassant != "-" && squareName(dest) == b.enPassant
	}

	if tf != ff {
		return false
	}
	if tr-fr == dir && b.squares[dest] == 0 {
		return true
	}
	if fr == startRank && tr-fr == 2*dir && b.squares[dest] == 0 && b.squares[sq(ff, fr+dir)] == 0 {
		return true
	}
	return false
}

func (b *board) pathClear(from, dest int) bool {
	ff, fr := fileOf(from), rankOf(from)
	tf, tr := fileOf(dest), rankOf(dest)
	stepF, stepR := sign(tf-ff), sign(tr-fr)
	f, r := ff+stepF, fr+stepR
	for f != tf || r != tr {
		if b.squares[sq(f, r)] != 0 {
			return false
		}
		f += stepF
		r += stepR
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
