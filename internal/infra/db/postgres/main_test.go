//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
)

var testPool *pgxpool.Pool

// TestMain connects to DATABASE_URL and applies the schema. Without it the package is skipped.
func TestMain(m *testing.M) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set; skipping postgres integration tests")
		os.Exit(0)
	}
	ctx := context.Background()
	var err error
	testPool, err = NewPgxPool(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("Unable to connect to test database: %v", err)
	}
	if err := NewScheduledUploadRepo(testPool, NewTxManager(testPool)).EnsureSchema(ctx); err != nil {
		log.Fatalf("could not apply schema: %v", err)
	}

	exitCode := m.Run()
	testPool.Close()
	os.Exit(exitCode)
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE scheduled_uploads RESTART IDENTITY`); err != nil {
		t.Fatalf("Failed to clean up database: %v", err)
	}
}
