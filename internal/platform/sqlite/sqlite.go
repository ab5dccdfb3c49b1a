// Package sqlite provides the SQLite dialect, connection setup, error
// mapping and embedded schema migrations used by the SQL stores in
// internal/platform/sqlstore. It uses the cgo-free modernc.org/sqlite
// driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the SQLite schema migrations rooted at the directory
// containing the .sql files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}

// Dialect is the sqlstore.Dialect for SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "sqlite" }

// Rebind implements sqlstore.Dialect. SQLite accepts '?' natively.
func (Dialect) Rebind(query string) string { return query }

// MapError implements sqlstore.Dialect.
func (Dialect) MapError(err error) error { return MapError(err) }

// requiredPragmas are applied to every connection.
var requiredPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// DSN appends the pragmas every connection needs to url unless the caller
// already set them.
func DSN(url string) string {
	var extra []string
	for _, p := range requiredPragmas {
		name := p[:strings.IndexByte(p, '(')]
		if !strings.Contains(url, "_pragma="+name) {
			extra = append(extra, "_pragma="+p)
		}
	}
	if len(extra) == 0 {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strings.Join(extra, "&")
}

// Open opens a SQLite database. The pool is limited to a single
// connection: SQLite serializes writers anyway, and in-memory databases
// only live as long as their connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, DSN(url))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", MapError(err))
	}
	return db, nil
}
