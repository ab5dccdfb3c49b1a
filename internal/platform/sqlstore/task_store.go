package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

const taskColumns = `id, title, description, status, deadline, project_id, created_at, updated_at`

// TaskStore implements store.TaskStore.
type TaskStore struct {
	db      store.DBTX
	pool    *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore on the given pool.
// If logger is nil, slog.Default() is used.
func NewTaskStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:      db,
		pool:    db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
	}
}

// WithTx implements store.TaskStore.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, pool: s.pool, dialect: s.dialect, logger: s.logger}
}

// DB implements store.TaskStore.
func (s *TaskStore) DB() *sql.DB {
	return s.pool
}

// Add implements store.Repository.
func (s *TaskStore) Add(ctx context.Context, t *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !t.Status.Valid() {
		return store.NewStoreError("task", "add", fmt.Sprintf("invalid status %q", t.Status), store.ErrInvalidEntity)
	}
	t.CreatedAt = domain.NormalizeTime(t.CreatedAt)
	t.UpdatedAt = domain.NormalizeTime(t.UpdatedAt)
	t.Deadline = normalizeDeadline(t.Deadline)

	query := s.dialect.Rebind(`
		INSERT INTO tasks (title, description, status, deadline, project_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.db.QueryRowContext(ctx, query,
		t.Title, t.Description, string(t.Status), t.Deadline, t.ProjectID, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		log.Error("failed to add task",
			slog.Int64("project_id", t.ProjectID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "add", "insert failed", s.dialect.MapError(err))
	}

	log.Debug("task added",
		slog.Int64("task_id", t.ID),
		slog.Int64("project_id", t.ProjectID),
		slog.String("status", string(t.Status)))
	return nil
}

// Get implements store.Repository.
func (s *TaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	query := s.dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", "query failed", s.dialect.MapError(err))
	}
	return t, nil
}

// List implements store.Repository.
func (s *TaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	where, args := taskPredicates(filter)

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "query failed", s.dialect.MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "scan failed", s.dialect.MapError(err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "iteration failed", s.dialect.MapError(err))
	}
	return tasks, nil
}

// Update implements store.TaskStore. project_id and created_at are never
// written.
func (s *TaskStore) Update(ctx context.Context, t *domain.Task) error {
	if !t.Status.Valid() {
		return store.NewStoreError("task", "update", fmt.Sprintf("invalid status %q", t.Status), store.ErrInvalidEntity)
	}
	t.UpdatedAt = domain.NormalizeTime(t.UpdatedAt)
	t.Deadline = normalizeDeadline(t.Deadline)

	query := s.dialect.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, deadline = ?, updated_at = ?
		WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		t.Title, t.Description, string(t.Status), t.Deadline, t.UpdatedAt, t.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.Int64("task_id", t.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "update", "update failed", s.dialect.MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.Repository.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", "delete failed", s.dialect.MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// DeleteByProject implements store.TaskStore.
func (s *TaskStore) DeleteByProject(ctx context.Context, projectID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM tasks WHERE project_id = ?`), projectID)
	if err != nil {
		return 0, store.NewStoreError("task", "delete_by_project", "delete failed", s.dialect.MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CloseOverdue implements store.TaskStore.
func (s *TaskStore) CloseOverdue(ctx context.Context, now time.Time) (int64, error) {
	now = domain.NormalizeTime(now)

	query := s.dialect.Rebind(`
		UPDATE tasks
		SET status = ?, updated_at = ?
		WHERE deadline IS NOT NULL AND deadline < ? AND status <> ?`)
	result, err := s.db.ExecContext(ctx, query,
		string(domain.TaskStatusDone), now, now, string(domain.TaskStatusDone))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to close overdue tasks",
			slog.Time("now", now),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("task", "close_overdue", "update failed", s.dialect.MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func taskPredicates(f store.TaskFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if f.ProjectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.StatusNot != "" {
		where = append(where, "status <> ?")
		args = append(args, string(f.StatusNot))
	}
	if f.DeadlineBefore != nil {
		where = append(where, "deadline IS NOT NULL AND deadline < ?")
		args = append(args, domain.NormalizeTime(*f.DeadlineBefore))
	}
	return where, args
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		status      string
		deadline    sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &description, &status, &deadline, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	if !t.Status.Valid() {
		return nil, fmt.Errorf("%w: stored status %q", store.ErrInvalidEntity, status)
	}
	if description.Valid {
		t.Description = &description.String
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		t.Deadline = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func normalizeDeadline(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	n := domain.NormalizeTime(*d)
	return &n
}
