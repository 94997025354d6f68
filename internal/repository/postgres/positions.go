package postgres

import (
	"context"
	"fmt"

	"github.com/chessmate/chessmate/internal/domain"
)

// PositionRepository reads and writes the positions table: one row per
// (game_id, ply), carrying the back-written vector_id once embedded.
type PositionRepository struct {
	db DB
}

func NewPositionRepository(db DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// InsertBatch inserts every position for a freshly ingested game, one
// INSERT statement per position in input order, and stops at the first
// failing insert.
func (r *PositionRepository) InsertBatch(ctx context.Context, positions []domain.Position) error {
	for _, p := range positions {
		_, err := r.db.Exec(ctx, `
			INSERT INTO positions (game_id, ply, san, fen, side_to_move, vector_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.GameID, p.Ply, p.SAN, p.FEN, p.SideToMove, p.VectorID,
		)
		if err != nil {
			return fmt.Errorf("insert position (game=%d ply=%d): %w", p.GameID, p.Ply, err)
		}
	}
	return nil
}

// SetVectorID back-writes the stable vector id for one position, as the
// second half of the embedding pipeline's state transition (spec §4.D).
func (r *PositionRepository) SetVectorID(ctx context.Context, gameID int64, ply int, vectorID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE positions SET vector_id = $1 WHERE game_id = $2 AND ply = $3`,
		vectorID, gameID, ply,
	)
	return err
}

// JoinedPayload is the denormalised row the embedding pipeline reads in
// one joined query to build a vector-store payload per position (spec
// §4.D Upsert: {game_id, ply, white, black, opening_slug, eco_code}).
type JoinedPayload struct {
	GameID      int64
	Ply         int
	FEN         string
	White       string
	Black       string
	OpeningSlug *string
	ECOCode     *string
}

// FetchJoinedPayloads reads position+game metadata for every position of
// the given games in a single joined query, cached by the caller
// across the embedding batch (spec §4.D Upsert).
func (r *PositionRepository) FetchJoinedPayloads(ctx context.Context, gameIDs []int64) ([]JoinedPayload, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT p.game_id, p.ply, p.fen, g.white_name, g.black_name, g.opening_slug, g.eco_code
		FROM positions p
		JOIN games g ON g.id = p.game_id
		WHERE p.game_id = ANY($1)`, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("query joined payloads: %w", err)
	}
	defer rows.Close()

	var out []JoinedPayload
	for rows.Next() {
		var j JoinedPayload
		if err := rows.Scan(&j.GameID, &j.Ply, &j.FEN, &j.White, &j.Black, &j.OpeningSlug, &j.ECOCode); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
