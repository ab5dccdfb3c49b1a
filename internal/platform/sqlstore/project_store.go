package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

const projectColumns = `p.id, p.name, p.description, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count`

// ProjectStore implements store.ProjectStore.
type ProjectStore struct {
	db      store.DBTX
	pool    *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ store.ProjectStore = (*ProjectStore)(nil)

// NewProjectStore creates a ProjectStore on the given pool.
// If logger is nil, slog.Default() is used.
func NewProjectStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *ProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectStore{
		db:      db,
		pool:    db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "project_store")),
	}
}

// WithTx implements store.ProjectStore.
func (s *ProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &ProjectStore{db: tx, pool: s.pool, dialect: s.dialect, logger: s.logger}
}

// DB implements store.ProjectStore.
func (s *ProjectStore) DB() *sql.DB {
	return s.pool
}

// Add implements store.Repository. Created/updated timestamps are taken
// from the entity as set by the caller.
func (s *ProjectStore) Add(ctx context.Context, p *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	p.CreatedAt = domain.NormalizeTime(p.CreatedAt)
	p.UpdatedAt = domain.NormalizeTime(p.UpdatedAt)

	query := s.dialect.Rebind(`
		INSERT INTO projects (name, name_key, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.db.QueryRowContext(ctx, query,
		p.Name, domain.NameKey(p.Name), p.Description, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		log.Error("failed to add project", slog.String("error", err.Error()))
		return store.NewStoreError("project", "add", "insert failed", s.dialect.MapError(err))
	}

	p.TaskCount = 0
	log.Debug("project added", slog.Int64("project_id", p.ID))
	return nil
}

// Get implements store.Repository.
func (s *ProjectStore) Get(ctx context.Context, id int64) (*domain.Project, error) {
	query := s.dialect.Rebind(`SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ?`)

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get project",
			slog.Int64("project_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("project", "get", "query failed", s.dialect.MapError(err))
	}
	return p, nil
}

// List implements store.Repository.
func (s *ProjectStore) List(ctx context.Context, filter store.ProjectFilter) ([]*domain.Project, error) {
	var (
		where []string
		args  []any
	)
	if filter.NameEquals != "" {
		where = append(where, "p.name_key = ?")
		args = append(args, domain.NameKey(filter.NameEquals))
	}

	query := `SELECT ` + projectColumns + ` FROM projects p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at ASC, p.id ASC`

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list projects",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("project", "list", "query failed", s.dialect.MapError(err))
	}
	defer func() { _ = rows.Close() }()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, store.NewStoreError("project", "list", "scan failed", s.dialect.MapError(err))
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("project", "list", "iteration failed", s.dialect.MapError(err))
	}
	return projects, nil
}

// Update implements store.ProjectStore.
func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) error {
	p.UpdatedAt = domain.NormalizeTime(p.UpdatedAt)

	query := s.dialect.Rebind(`
		UPDATE projects SET name = ?, name_key = ?, description = ?, updated_at = ?
		WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, p.Name, domain.NameKey(p.Name), p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update project",
			slog.Int64("project_id", p.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("project", "update", "update failed", s.dialect.MapError(err))
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// Delete implements store.Repository. Tasks are not touched; callers
// remove them first with TaskStore.DeleteByProject in the same transaction.
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete project",
			slog.Int64("project_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("project", "delete", "delete failed", s.dialect.MapError(err))
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// Count implements store.ProjectStore.
func (s *ProjectStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, store.NewStoreError("project", "count", "query failed", s.dialect.MapError(err))
	}
	return n, nil
}

// ExistsByName implements store.ProjectStore.
func (s *ProjectStore) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := s.dialect.Rebind(`
		SELECT COUNT(*) FROM projects
		WHERE name_key = ? AND id <> ?`)

	var n int
	if err := s.db.QueryRowContext(ctx, query, domain.NameKey(name), excludeID).Scan(&n); err != nil {
		return false, store.NewStoreError("project", "exists_by_name", "query failed", s.dialect.MapError(err))
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p           domain.Project
		description sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt, &p.TaskCount); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// CheckRowsAffected returns notFound when result reports zero affected rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
