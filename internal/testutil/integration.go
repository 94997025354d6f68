// Package testutil provides common scaffolding for Chessmate's integration
// tests: env-file loading, a skip guard gated on INTEGRATION_TEST, and a
// fixture-database helper used to reset games/positions/embedding_jobs
// between runs via a raw database/sql connection, kept deliberately
// separate from the application's own pgxpool.
package testutil

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/lib/pq"
)

// loadEnvFile reads KEY=VALUE pairs from path into the process environment.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		os.Setenv(key, value)
	}
	return scanner.Err()
}

// SkipIfNotIntegration skips the calling test unless INTEGRATION_TEST=1 is
// set, so `go test ./...` never dials a real Postgres/Qdrant/OpenAI backend.
func SkipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("skipping integration test (set INTEGRATION_TEST=1 to run)")
	}
}

// LoadTestEnv loads .env.test.local from the first ancestor directory that
// has one, falling back silently to whatever is already in the environment.
func LoadTestEnv(t *testing.T) {
	t.Helper()
	paths := []string{
		".env.test.local",
		"../.env.test.local",
		"../../.env.test.local",
		"../../../.env.test.local",
		"../../../../.env.test.local",
		filepath.Join(os.Getenv("HOME"), ".env.test.local"),
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := loadEnvFile(path); err != nil {
				t.Logf("warning: failed to load %s: %v", path, err)
			} else {
				t.Logf("loaded environment from %s", path)
				return
			}
		}
	}
	t.Log("no .env.test.local found, using existing environment variables")
}

// RequireEnvVar fails fast (by skipping) if key is unset, returning its value
// otherwise.
func RequireEnvVar(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("skipping: %s not set", key)
	}
	return value
}

var (
	dbSetupOnce sync.Once
	dbSetupErr  error
	fixtureDB   *sql.DB
)

// SetupFixtureDatabase opens a database/sql connection to dbURL via the
// lib/pq driver and truncates the ingestion tables, giving repository
// integration tests (internal/repository/postgres) a clean, idempotent
// starting point regardless of what a previous run left behind. It is
// intentionally a second, driver-distinct connection from the
// application's pgxpool: fixture reset belongs to the test harness, not
// to the code under test.
func SetupFixtureDatabase(t *testing.T, dbURL string) *sql.DB {
	t.Helper()
	dbSetupOnce.Do(func() {
		fixtureDB, dbSetupErr = openAndResetFixtures(dbURL)
	})
	if dbSetupErr != nil {
		t.Fatalf("failed to set up fixture database: %v", dbSetupErr)
	}
	return fixtureDB
}

func openAndResetFixtures(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open fixture database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping fixture database: %w", err)
	}
	if _, err := db.Exec(`TRUNCATE embedding_jobs, positions, games RESTART IDENTITY CASCADE`); err != nil {
		return nil, fmt.Errorf("truncate fixture tables: %w", err)
	}
	return db, nil
}
