// README: Shared Postgres fixture for store tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"carrental/internal/infra"
)

// DB connects to CARRENTAL_TEST_DSN and applies migrations. The test is skipped
// when the variable is unset. Packages run in parallel against the same database,
// so each test cleans up only the rows it owns (see Cleanup).
func DB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("CARRENTAL_TEST_DSN")
	if dsn == "" {
		t.Skip("CARRENTAL_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := infra.NewDB(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	if err := infra.Migrate(ctx, db, filepath.Join(root, "migrations")); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return db
}

// Cleanup runs the delete statements now and again when the test ends.
func Cleanup(t *testing.T, db *pgxpool.Pool, stmts ...string) {
	t.Helper()
	run := func() {
		for _, stmt := range stmts {
			if _, err := db.Exec(context.Background(), stmt); err != nil {
				t.Errorf("cleanup %q: %v", stmt, err)
			}
		}
	}
	run()
	t.Cleanup(run)
}

// RepoRoot walks up from the working directory to the directory holding go.mod.
func RepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}
