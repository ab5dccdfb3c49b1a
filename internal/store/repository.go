package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
)

// Repository is the data access contract shared by every entity store.
// F is the entity-specific filter; the zero value of F matches everything.
type Repository[T any, F any] interface {
	// Add persists entity and populates its store-assigned ID.
	Add(ctx context.Context, entity *T) error

	// Get returns the entity with the given ID or ErrNotFound.
	Get(ctx context.Context, id int64) (*T, error)

	// List returns entities matching every predicate in filter, in creation
	// order ascending.
	List(ctx context.Context, filter F) ([]*T, error)

	// Delete removes the entity with the given ID or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// ProjectFilter narrows ProjectStore.List. Zero fields are ignored.
type ProjectFilter struct {
	// NameEquals matches names by domain.NameKey.
	NameEquals string
}

// ProjectStore persists projects. Get and List populate TaskCount.
type ProjectStore interface {
	Repository[domain.Project, ProjectFilter]

	// Update writes name, description and updated_at of an existing project.
	// Returns ErrNotFound if the project does not exist.
	Update(ctx context.Context, project *domain.Project) error

	// Count returns the number of stored projects.
	Count(ctx context.Context) (int, error)

	// ExistsByName reports whether a project other than excludeID has the
	// given name, compared case-insensitively. Pass 0 to exclude nothing.
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)

	// WithTx returns a ProjectStore that executes against tx.
	WithTx(tx *sql.Tx) ProjectStore

	// DB returns the underlying connection pool for starting transactions.
	DB() *sql.DB
}

// TaskFilter narrows TaskStore.List. Zero fields are ignored and all set
// predicates are ANDed.
type TaskFilter struct {
	ProjectID      int64
	Status         domain.TaskStatus
	StatusNot      domain.TaskStatus
	DeadlineBefore *time.Time
}

// TaskStore persists tasks.
type TaskStore interface {
	Repository[domain.Task, TaskFilter]

	// Update writes every mutable field of an existing task.
	// Returns ErrNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// DeleteByProject removes all tasks of a project and returns how many
	// were removed.
	DeleteByProject(ctx context.Context, projectID int64) (int64, error)

	// CloseOverdue marks done every task with deadline < now and
	// status != done, setting updated_at = now, in a single statement.
	// Returns the number of tasks closed.
	CloseOverdue(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a TaskStore that executes against tx.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the underlying connection pool for starting transactions.
	DB() *sql.DB
}
