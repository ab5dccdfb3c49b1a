// Package testdb provides database setup for tests.
//
// Every call to Open returns a fresh, fully migrated store: an in-memory
// SQLite database by default, or the PostgreSQL database named by
// DATABASE_URL when that variable is set. PostgreSQL tables are truncated
// on open and tests sharing it must not run in parallel.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.Open(t)
//	    projects := sqlstore.NewProjectStore(db.SQL, db.Dialect, nil)
//	    ...
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/platform/database"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup work against the database.
const TestTimeout = 10 * time.Second

// IsIntegrationTestEnvironment reports whether DATABASE_URL points at a
// PostgreSQL instance for integration tests.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// Open returns a migrated database and registers its cleanup on t.
func Open(t testing.TB) *database.DB {
	t.Helper()
	if IsIntegrationTestEnvironment() {
		return OpenPostgres(t)
	}
	return OpenSQLite(t)
}

// OpenSQLite returns a private in-memory SQLite database with the schema
// applied.
func OpenSQLite(t testing.TB) *database.DB {
	t.Helper()
	url := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	return open(t, database.Options{Driver: database.DriverSQLite, URL: url})
}

// OpenPostgres connects to DATABASE_URL, applies the schema and empties
// the tables. The test is skipped when DATABASE_URL is unset.
func OpenPostgres(t testing.TB) *database.DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set - skipping PostgreSQL test")
	}

	db := open(t, database.Options{Driver: database.DriverPostgres, URL: url, MaxOpenConns: 5})

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	_, err := db.SQL.ExecContext(ctx, `TRUNCATE tasks, projects RESTART IDENTITY`)
	require.NoError(t, err, "failed to truncate tables")
	return db
}

func open(t testing.TB, opts database.Options) *database.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := database.Open(ctx, opts, logger.Discard())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err, "failed to apply migrations")
	return db
}
