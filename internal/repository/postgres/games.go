package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/hybrid"
)

// GameRepository reads and writes the games table, and builds the
// metadata-filtered candidate query the hybrid executor drives (spec
// §4.B step 1). Phase and theme filters are resolved against position
// embeddings by the vector store, not here; this repository only
// applies the filters expressible directly over game metadata: opening,
// eco_range, result, and rating.
type GameRepository struct {
	db DB
}

func NewGameRepository(db DB) *GameRepository {
	return &GameRepository{db: db}
}

// FetchCandidates implements hybrid.Deps.FetchGames: returns up to limit
// games matching plan's metadata filters, plus the total matching count
// for pagination.
func (r *GameRepository) FetchCandidates(ctx context.Context, plan domain.QueryPlan, limit, offset int) ([]domain.Game, int, error) {
	where, args := buildWhere(plan)

	countQuery := "SELECT COUNT(*) FROM games" + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	query := `
		SELECT id, white_name, black_name, result, event, site, round, played_on,
		       eco_code, opening_slug, opening_name, white_rating, black_rating, pgn
		FROM games` + where + `
		ORDER BY played_on DESC NULLS LAST, id ASC
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

// FetchPGNs implements hybrid.Deps.FetchGamePGNs.
func (r *GameRepository) FetchPGNs(ctx context.Context, gameIDs []int64) ([]hybrid.CandidatePGN, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, pgn FROM games WHERE id = ANY($1)`, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("query game pgns: %w", err)
	}
	defer rows.Close()

	var out []hybrid.CandidatePGN
	for rows.Next() {
		var p hybrid.CandidatePGN
		if err := rows.Scan(&p.GameID, &p.PGN); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns a single game, or domain.ErrGameNotFound.
func (r *GameRepository) GetByID(ctx context.Context, id int64) (domain.Game, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, white_name, black_name, result, event, site, round, played_on,
		       eco_code, opening_slug, opening_name, white_rating, black_rating, pgn
		FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// Insert creates a new game row and returns its assigned id.
func (r *GameRepository) Insert(ctx context.Context, g domain.Game) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO games (white_name, black_name, result, event, site, round, played_on,
		                    eco_code, opening_slug, opening_name, white_rating, black_rating, pgn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		g.WhiteName, g.BlackName, g.Result, g.Event, g.Site, g.Round, g.PlayedOn,
		g.ECOCode, g.OpeningSlug, g.OpeningName, g.WhiteRating, g.BlackRating, g.PGN,
	).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID, &g.WhiteName, &g.BlackName, &g.Result, &g.Event, &g.Site, &g.Round, &g.PlayedOn,
		&g.ECOCode, &g.OpeningSlug, &g.OpeningName, &g.WhiteRating, &g.BlackRating, &g.PGN,
	)
	return g, err
}

// buildWhere translates the metadata-expressible subset of a QueryPlan's
// filters and rating constraint into a parameterised SQL WHERE clause.
func buildWhere(plan domain.QueryPlan) (string, []any) {
	var clauses []string
	var args []any

	for _, f := range plan.Filters {
		switch f.Field {
		case domain.FilterOpening:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("opening_slug = $%d", len(args)))
		case domain.FilterECORange:
			lo, hi, ok := splitRange(f.Value)
			if ok {
				args = append(args, lo, hi)
				clauses = append(clauses, fmt.Sprintf("eco_code BETWEEN $%d AND $%d", len(args)-1, len(args)))
			}
		case domain.FilterResult:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("result = $%d", len(args)))
		}
	}

	if plan.Rating.WhiteMin != nil {
		args = append(args, *plan.Rating.WhiteMin)
		clauses = append(clauses, fmt.Sprintf("white_rating >= $%d", len(args)))
	}
	if plan.Rating.BlackMin != nil {
		args = append(args, *plan.Rating.BlackMin)
		clauses = append(clauses, fmt.Sprintf("black_rating >= $%d", len(args)))
	}
	if plan.Rating.MaxRatingDelta != nil {
		args = append(args, *plan.Rating.MaxRatingDelta)
		clauses = append(clauses, fmt.Sprintf("abs(white_rating - black_rating) <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func splitRange(s string) (string, string, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
