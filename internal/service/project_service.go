package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// DefaultMaxProjects is the project limit used when none is configured.
const DefaultMaxProjects = 10

// EditProjectInput carries the fields to change. Nil fields are left
// untouched; a blank Description clears it.
type EditProjectInput struct {
	Name        *string
	Description *string
}

// ProjectService provides project operations.
type ProjectService interface {
	// CreateProject validates and stores a new project.
	CreateProject(ctx context.Context, name string, description *string) (*domain.Project, error)

	// EditProject changes the provided fields of an existing project.
	EditProject(ctx context.Context, id int64, input EditProjectInput) (*domain.Project, error)

	// DeleteProject removes a project together with all of its tasks.
	DeleteProject(ctx context.Context, id int64) error

	// ListProjects returns all projects in creation order with task counts.
	ListProjects(ctx context.Context) ([]*domain.Project, error)

	// GetProject returns one project with its task count.
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
}

// ProjectServiceConfig holds the tunable project rules.
type ProjectServiceConfig struct {
	MaxProjects int
	Limits      validation.Limits
}

type projectServiceImpl struct {
	projects store.ProjectStore
	tasks    store.TaskStore
	emitter  events.EventEmitter
	clock    domain.Clock
	cfg      ProjectServiceConfig
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService.
// It returns an error if any of the required dependencies are nil.
// A nil clock defaults to domain.SystemClock and zero config values to
// their defaults.
func NewProjectService(
	projects store.ProjectStore,
	tasks store.TaskStore,
	emitter events.EventEmitter,
	clock domain.Clock,
	cfg ProjectServiceConfig,
	logger *slog.Logger,
) (ProjectService, error) {
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
	if cfg.MaxProjects <= 0 {
		cfg.MaxProjects = DefaultMaxProjects
	}
	cfg.Limits = cfg.Limits.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &projectServiceImpl{
		projects: projects,
		tasks:    tasks,
		emitter:  emitter,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With("component", "project_service"),
	}, nil
}

// CreateProject checks, in order: the project limit, the name, name
// uniqueness and the description. The first failure is returned.
//
// The limit check and the insert share one transaction but no lock, so two
// concurrent creates at the boundary may both pass the count check. The
// unique name index still rejects duplicate names under the same race.
func (s *projectServiceImpl) CreateProject(
	ctx context.Context,
	name string,
	description *string,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	name = strings.TrimSpace(name)

	now := s.clock.Now()
	project := &domain.Project{
		Name:        name,
		Description: trimmedOrNil(description),
		CreatedAt:   domain.NormalizeTime(now),
		UpdatedAt:   domain.NormalizeTime(now),
	}

	err := store.RunInTransaction(ctx, s.projects.DB(), func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		count, err := projects.Count(ctx)
		if err != nil {
			return repositoryError("create_project", err)
		}
		if count >= s.cfg.MaxProjects {
			return domain.NewLimitExceededError(
				fmt.Sprintf("Maximum number of projects (%d) reached", s.cfg.MaxProjects))
		}

		if err := validation.ValidateName("name", name, s.cfg.Limits.ProjectNameMaxWords); err != nil {
			return err
		}
		if err := s.checkNameAvailable(ctx, projects, name, 0); err != nil {
			return err
		}
		if err := validation.ValidateDescription(description, s.cfg.Limits.DescriptionMaxWords); err != nil {
			return err
		}

		if err := projects.Add(ctx, project); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return duplicateNameError(name)
			}
			return repositoryError("create_project", err)
		}
		return nil
	})
	if err != nil {
		log.Debug("create project rejected", "error", err, "code", domain.CodeOf(err))
		return nil, err
	}

	log.Info("project created", "project_id", project.ID)
	publish(ctx, s.emitter, log, events.ProjectCreated,
		events.ProjectPayload{ProjectID: project.ID, Name: project.Name}, project.CreatedAt)
	return project, nil
}

// EditProject validates every provided field before writing anything.
func (s *projectServiceImpl) EditProject(
	ctx context.Context,
	id int64,
	input EditProjectInput,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Project
	err := store.RunInTransaction(ctx, s.projects.DB(), func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		project, err := s.getProject(ctx, projects, id)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if err := validation.ValidateName("name", name, s.cfg.Limits.ProjectNameMaxWords); err != nil {
				return err
			}
			if err := s.checkNameAvailable(ctx, projects, name, id); err != nil {
				return err
			}
			project.Name = name
		}
		if input.Description != nil {
			if err := validation.ValidateDescription(input.Description, s.cfg.Limits.DescriptionMaxWords); err != nil {
				return err
			}
			project.Description = trimmedOrNil(input.Description)
		}

		project.Touch(s.clock.Now())
		if err := projects.Update(ctx, project); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return duplicateNameError(project.Name)
			}
			return repositoryError("edit_project", err)
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("project updated", "project_id", id)
	publish(ctx, s.emitter, log, events.ProjectUpdated,
		events.ProjectPayload{ProjectID: updated.ID, Name: updated.Name}, updated.UpdatedAt)
	return updated, nil
}

// DeleteProject removes the project's tasks and then the project in one
// transaction.
func (s *projectServiceImpl) DeleteProject(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var removed int64
	err := store.RunInTransaction(ctx, s.projects.DB(), func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		if _, err := s.getProject(ctx, projects, id); err != nil {
			return err
		}

		n, err := s.tasks.WithTx(tx).DeleteByProject(ctx, id)
		if err != nil {
			return repositoryError("delete_project", err)
		}
		removed = n

		if err := projects.Delete(ctx, id); err != nil {
			if store.IsNotFoundError(err) {
				return &domain.NotFoundError{Entity: "Project", ID: id}
			}
			return repositoryError("delete_project", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("project deleted", "project_id", id, "tasks_deleted", removed)
	publish(ctx, s.emitter, log, events.ProjectDeleted,
		events.ProjectPayload{ProjectID: id, TasksDeleted: removed}, domain.NormalizeTime(s.clock.Now()))
	return nil
}

// ListProjects returns every project in creation order.
func (s *projectServiceImpl) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	projects, err := s.projects.List(ctx, store.ProjectFilter{})
	if err != nil {
		return nil, repositoryError("list_projects", err)
	}
	return projects, nil
}

// GetProject returns the project or a NotFoundError.
func (s *projectServiceImpl) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return s.getProject(ctx, s.projects, id)
}

func (s *projectServiceImpl) getProject(ctx context.Context, projects store.ProjectStore, id int64) (*domain.Project, error) {
	project, err := projects.Get(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, &domain.NotFoundError{Entity: "Project", ID: id}
		}
		return nil, repositoryError("get_project", err)
	}
	return project, nil
}

func (s *projectServiceImpl) checkNameAvailable(ctx context.Context, projects store.ProjectStore, name string, excludeID int64) error {
	taken, err := projects.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return repositoryError("check_project_name", err)
	}
	if taken {
		return duplicateNameError(name)
	}
	return nil
}

func duplicateNameError(name string) error {
	return domain.NewDuplicateError("name", fmt.Sprintf("Project with name '%s' already exists", name))
}
