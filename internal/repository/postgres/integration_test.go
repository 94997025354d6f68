// Exercises the repositories against a real Postgres instance. Skipped by
// default.
//
// To run:
//
//	INTEGRATION_TEST=1 DATABASE_URL=postgres://... go test ./internal/repository/postgres/... -v -run Integration
package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/testutil"
	"github.com/chessmate/chessmate/pkg/database"
)

func TestIntegration_GameRepository_InsertAndFetch(t *testing.T) {
	testutil.LoadTestEnv(t)
	testutil.SkipIfNotIntegration(t)
	dbURL := testutil.RequireEnvVar(t, "DATABASE_URL")

	testutil.SetupFixtureDatabase(t, dbURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, database.DefaultConfig(dbURL))
	require.NoError(t, err)
	defer pool.Close()

	games := NewGameRepository(pool)
	positions := NewPositionRepository(pool)

	result := domain.ResultWhiteWin
	gameID, err := games.Insert(ctx, domain.Game{
		WhiteName: "Carlsen",
		BlackName: "Caruana",
		Result:    &result,
		PGN:       "1. e4 e5 2. Nf3 Nc6 3. Bb5 1-0",
	})
	require.NoError(t, err)
	assert.Positive(t, gameID)

	err = positions.InsertBatch(ctx, []domain.Position{
		{GameID: gameID, Ply: 1, SAN: "e4", FEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", SideToMove: domain.SideBlack},
		{GameID: gameID, Ply: 2, SAN: "e5", FEN: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", SideToMove: domain.SideWhite},
	})
	require.NoError(t, err)

	fetched, err := games.GetByID(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, "Carlsen", fetched.WhiteName)
	assert.Equal(t, "Caruana", fetched.BlackName)
}
