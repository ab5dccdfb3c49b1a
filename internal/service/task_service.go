package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// CreateTaskInput describes a new task. Status defaults to todo when
// blank; Deadline is an ISO-8601 date or date-time and may be nil.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      string
	Deadline    *string
}

// EditTaskInput carries the fields to change. Nil fields are left
// untouched. A blank Description or Deadline clears the field.
type EditTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Deadline    *string
}

// TaskService provides task operations.
type TaskService interface {
	// CreateTask validates and stores a new task in an existing project.
	CreateTask(ctx context.Context, projectID int64, input CreateTaskInput) (*domain.Task, error)

	// EditTask changes the provided fields of a task owned by projectID.
	EditTask(ctx context.Context, projectID, taskID int64, input EditTaskInput) (*domain.Task, error)

	// DeleteTask removes a task owned by projectID.
	DeleteTask(ctx context.Context, projectID, taskID int64) error

	// ListTasks returns the project's tasks in creation order.
	ListTasks(ctx context.Context, projectID int64) ([]*domain.Task, error)

	// GetTask returns the task if it exists and belongs to projectID.
	// Absence is reported as found=false, not as an error.
	GetTask(ctx context.Context, projectID, taskID int64) (task *domain.Task, found bool, err error)

	// AutoCloseOverdue marks done every task whose deadline has passed and
	// which is not done yet, as one atomic batch. It returns how many
	// tasks were closed.
	AutoCloseOverdue(ctx context.Context) (int, error)
}

type taskServiceImpl struct {
	projects store.ProjectStore
	tasks    store.TaskStore
	emitter  events.EventEmitter
	clock    domain.Clock
	limits   validation.Limits
	logger   *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	projects store.ProjectStore,
	tasks store.TaskStore,
	emitter events.EventEmitter,
	clock domain.Clock,
	limits validation.Limits,
	logger *slog.Logger,
) (TaskService, error) {
	if projects == nil {
		return nil, missingDependency("projects")
	}
	if tasks == nil {
		return nil, missingDependency("tasks")
	}
	if emitter == nil {
		return nil, missingDependency("emitter")
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		projects: projects,
		tasks:    tasks,
		emitter:  emitter,
		clock:    clock,
		limits:   limits.WithDefaults(),
		logger:   logger.With("component", "task_service"),
	}, nil
}

// CreateTask validates title, description, status and deadline in that
// order and returns the first failure.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	projectID int64,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var task *domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.requireProject(ctx, s.projects.WithTx(tx), projectID); err != nil {
			return err
		}

		title := strings.TrimSpace(input.Title)
		if err := validation.ValidateName("title", title, s.limits.TaskTitleMaxWords); err != nil {
			return err
		}
		if err := validation.ValidateDescription(input.Description, s.limits.DescriptionMaxWords); err != nil {
			return err
		}
		status := domain.TaskStatusTodo
		if strings.TrimSpace(input.Status) != "" {
			parsed, err := validation.ValidateStatus(input.Status)
			if err != nil {
				return err
			}
			status = parsed
		}
		deadline, err := parseOptionalDeadline(input.Deadline)
		if err != nil {
			return err
		}

		now := domain.NormalizeTime(s.clock.Now())
		task = &domain.Task{
			Title:       title,
			Description: trimmedOrNil(input.Description),
			Status:      status,
			Deadline:    deadline,
			ProjectID:   projectID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tasks.WithTx(tx).Add(ctx, task); err != nil {
			return repositoryError("create_task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task created", "task_id", task.ID, "project_id", projectID, "status", task.Status)
	publish(ctx, s.emitter, log, events.TaskCreated,
		events.TaskPayload{TaskID: task.ID, ProjectID: projectID, Status: string(task.Status)}, task.CreatedAt)
	return task, nil
}

// EditTask rejects a task that belongs to a different project as not
// found; tasks never move between projects.
func (s *taskServiceImpl) EditTask(
	ctx context.Context,
	projectID, taskID int64,
	input EditTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var task *domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		owned, err := s.ownedTask(ctx, s.projects.WithTx(tx), tasks, projectID, taskID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if err := validation.ValidateName("title", title, s.limits.TaskTitleMaxWords); err != nil {
				return err
			}
			owned.Title = title
		}
		if input.Description != nil {
			if err := validation.ValidateDescription(input.Description, s.limits.DescriptionMaxWords); err != nil {
				return err
			}
			owned.Description = trimmedOrNil(input.Description)
		}
		if input.Status != nil {
			status, err := validation.ValidateStatus(*input.Status)
			if err != nil {
				return err
			}
			owned.Status = status
		}
		if input.Deadline != nil {
			deadline, err := parseOptionalDeadline(input.Deadline)
			if err != nil {
				return err
			}
			owned.Deadline = deadline
		}

		owned.Touch(s.clock.Now())
		if err := tasks.Update(ctx, owned); err != nil {
			return repositoryError("edit_task", err)
		}
		task = owned
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task updated", "task_id", taskID, "project_id", projectID, "status", task.Status)
	publish(ctx, s.emitter, log, events.TaskUpdated,
		events.TaskPayload{TaskID: taskID, ProjectID: projectID, Status: string(task.Status)}, task.UpdatedAt)
	return task, nil
}

// DeleteTask applies the same existence and ownership checks as EditTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, projectID, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		if _, err := s.ownedTask(ctx, s.projects.WithTx(tx), tasks, projectID, taskID); err != nil {
			return err
		}
		if err := tasks.Delete(ctx, taskID); err != nil {
			if store.IsNotFoundError(err) {
				return &domain.NotFoundError{Entity: "Task", ID: taskID}
			}
			return repositoryError("delete_task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task deleted", "task_id", taskID, "project_id", projectID)
	publish(ctx, s.emitter, log, events.TaskDeleted,
		events.TaskPayload{TaskID: taskID, ProjectID: projectID}, domain.NormalizeTime(s.clock.Now()))
	return nil
}

// ListTasks fails with NotFoundError for an unknown project rather than
// returning an empty list.
func (s *taskServiceImpl) ListTasks(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.requireProject(ctx, s.projects.WithTx(tx), projectID); err != nil {
			return err
		}
		list, err := s.tasks.WithTx(tx).List(ctx, store.TaskFilter{ProjectID: projectID})
		if err != nil {
			return repositoryError("list_tasks", err)
		}
		tasks = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask reports found=false for a missing task or one owned by another
// project.
func (s *taskServiceImpl) GetTask(ctx context.Context, projectID, taskID int64) (*domain.Task, bool, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, repositoryError("get_task", err)
	}
	if task.ProjectID != projectID {
		return nil, false, nil
	}
	return task, true, nil
}

// AutoCloseOverdue closes every task with deadline < now and status !=
// done in a single statement inside one transaction, so either all
// candidates are closed or none are.
func (s *taskServiceImpl) AutoCloseOverdue(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := domain.NormalizeTime(s.clock.Now())

	var closed int64
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.tasks.WithTx(tx).CloseOverdue(ctx, now)
		if err != nil {
			return err
		}
		closed = n
		return nil
	})
	if err != nil {
		log.Error("auto-close failed", "error", err, "now", now)
		return 0, repositoryError("auto_close_overdue", err)
	}

	if closed > 0 {
		log.Info("closed overdue tasks", "closed", closed, "now", now)
		publish(ctx, s.emitter, log, events.TasksAutoClosed,
			events.AutoClosePayload{Closed: int(closed), Now: now}, now)
	} else {
		log.Debug("no overdue tasks", "now", now)
	}
	return int(closed), nil
}

func (s *taskServiceImpl) requireProject(ctx context.Context, projects store.ProjectStore, projectID int64) error {
	if _, err := projects.Get(ctx, projectID); err != nil {
		if store.IsNotFoundError(err) {
			return &domain.NotFoundError{Entity: "Project", ID: projectID}
		}
		return repositoryError("get_project", err)
	}
	return nil
}

// ownedTask resolves the project, then the task, then checks ownership.
func (s *taskServiceImpl) ownedTask(
	ctx context.Context,
	projects store.ProjectStore,
	tasks store.TaskStore,
	projectID, taskID int64,
) (*domain.Task, error) {
	if err := s.requireProject(ctx, projects, projectID); err != nil {
		return nil, err
	}
	task, err := tasks.Get(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, &domain.NotFoundError{Entity: "Task", ID: taskID}
		}
		return nil, repositoryError("get_task", err)
	}
	if task.ProjectID != projectID {
		return nil, &domain.NotFoundError{Entity: "Task", ID: taskID, ParentID: projectID}
	}
	return task, nil
}

func parseOptionalDeadline(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := validation.ParseDeadline(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
