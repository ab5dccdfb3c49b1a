// Package app wires configuration, storage, services and the auto-close
// scheduler into one application value shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/phrazzld/todo-api/internal/metrics"
	"github.com/phrazzld/todo-api/internal/platform/database"
	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// Application holds the long-lived dependencies of a process.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB

	ProjectStore store.ProjectStore
	TaskStore    store.TaskStore

	Emitter  *events.InMemoryEventEmitter
	Metrics  *metrics.Metrics
	Projects service.ProjectService
	Tasks    service.TaskService

	Scheduler *jobs.Scheduler
}

// Options adjusts how New builds the application.
type Options struct {
	// Clock overrides the wall clock, mainly for tests.
	Clock domain.Clock
	// SkipMigrations leaves the schema untouched. The migrate command uses
	// it to control migrations itself.
	SkipMigrations bool
}

// New opens the database, applies pending migrations and builds the
// services. The caller must call Close.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{Config: cfg, Logger: logger}

	db, err := database.Open(ctx, database.Options{
		Driver:       cfg.Database.Driver,
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = db

	if !opts.SkipMigrations {
		applied, err := db.Migrate(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database schema up to date", "applied", applied)
	}

	app.ProjectStore = sqlstore.NewProjectStore(db.SQL, db.Dialect, logger)
	app.TaskStore = sqlstore.NewTaskStore(db.SQL, db.Dialect, logger)

	app.Metrics = metrics.New()
	app.Emitter = events.NewInMemoryEventEmitter(logger)
	app.Emitter.Subscribe(app.Metrics)

	limits := cfg.Validation.Limits()
	app.Projects, err = service.NewProjectService(
		app.ProjectStore,
		app.TaskStore,
		app.Emitter,
		opts.Clock,
		service.ProjectServiceConfig{MaxProjects: cfg.Projects.MaxCount, Limits: limits},
		logger,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create project service: %w", err)
	}

	app.Tasks, err = service.NewTaskService(
		app.ProjectStore,
		app.TaskStore,
		app.Emitter,
		opts.Clock,
		limits,
		logger,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.Scheduler = jobs.NewScheduler(app.Tasks, jobs.Config{
		Interval:   cfg.Scheduler.Interval,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, logger)
	app.Scheduler.SetObserver(app.Metrics.ObserveAutoClose)

	logger.Info("application initialized",
		"driver", db.Driver,
		"max_projects", cfg.Projects.MaxCount,
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"scheduler_interval", app.Scheduler.Interval())
	return app, nil
}

// Router returns the HTTP handler serving the API, health and metrics.
func (a *Application) Router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Projects:              a.Projects,
		Tasks:                 a.Tasks,
		AutoClose:             a.Scheduler,
		ManualTriggerInterval: a.Config.Scheduler.ManualTriggerInterval,
		DB:                    a.DB.SQL,
		Metrics:               a.Metrics,
		Logger:                a.Logger,
	})
}

// Close stops the scheduler and releases the database.
func (a *Application) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("error closing database connection", "error", err)
		}
	}
	a.Logger.Debug("application shutdown completed")
}
