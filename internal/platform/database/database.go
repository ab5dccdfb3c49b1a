// Package database opens the configured relational store and runs its
// schema migrations. It hides the choice between SQLite and PostgreSQL
// behind a single handle that also carries the matching sqlstore.Dialect.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/platform/sqlite"
	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/pressly/goose/v3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the store.
type Options struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is an open store together with its dialect and migrations.
type DB struct {
	SQL        *sql.DB
	Dialect    sqlstore.Dialect
	Driver     string
	migrations fs.FS
	goose      goose.Dialect
	logger     *slog.Logger
}

// Open connects to the store described by opts.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "database"), slog.String("driver", opts.Driver))

	start := time.Now()
	db := &DB{Driver: opts.Driver, logger: logger}

	var err error
	switch opts.Driver {
	case DriverSQLite, "sqlite3":
		db.Driver = DriverSQLite
		db.SQL, err = sqlite.Open(ctx, opts.URL)
		db.Dialect = sqlite.Dialect{}
		db.migrations = sqlite.Migrations()
		db.goose = goose.DialectSQLite3
	case DriverPostgres, "postgresql", "pgx":
		db.Driver = DriverPostgres
		db.SQL, err = postgres.Open(ctx, opts.URL, postgres.PoolOptions{
			MaxOpenConns:    opts.MaxOpenConns,
			MaxIdleConns:    opts.MaxIdleConns,
			ConnMaxLifetime: opts.ConnMaxLifetime,
		})
		db.Dialect = postgres.Dialect{}
		db.migrations = postgres.Migrations()
		db.goose = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		logger.Error("failed to open database",
			slog.String("url", redact.URL(opts.URL)),
			slog.String("error", redact.Error(err)))
		return nil, err
	}

	logger.Info("database connection established",
		slog.String("url", redact.URL(opts.URL)),
		slog.Duration("duration", time.Since(start)))
	return db, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.SQL.Close()
}

func (d *DB) provider() (*goose.Provider, error) {
	return goose.NewProvider(d.goose, d.SQL, d.migrations,
		goose.WithLogger(&slogGooseLogger{logger: d.logger}))
}

// Migrate applies all pending migrations and returns how many ran.
func (d *DB) Migrate(ctx context.Context) (int, error) {
	p, err := d.provider()
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		d.logger.Info("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			slog.Duration("duration", r.Duration))
	}
	return len(results), nil
}

// MigrateDown rolls back the most recent migration.
func (d *DB) MigrateDown(ctx context.Context) error {
	p, err := d.provider()
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := p.Down(ctx); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationState describes one known migration.
type MigrationState struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// MigrationStatus lists every known migration and whether it is applied.
func (d *DB) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	p, err := d.provider()
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// slogGooseLogger routes goose output through slog. Fatalf logs at error
// level and does not exit; failures are returned to the caller instead.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
