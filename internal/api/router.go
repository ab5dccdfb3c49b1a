package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/metrics"
	"github.com/phrazzld/todo-api/internal/service"
)

// APIPrefix is the path prefix of every versioned endpoint.
const APIPrefix = "/api/v1"

// RouterDeps holds everything NewRouter wires into handlers.
type RouterDeps struct {
	Projects service.ProjectService
	Tasks    service.TaskService
	// AutoClose may be nil, in which case the trigger endpoint is not
	// registered.
	AutoClose             AutoCloseRunner
	ManualTriggerInterval time.Duration
	DB                    Pinger
	// Metrics may be nil to disable instrumentation and /metrics.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))
	r.Use(apiMiddleware.RequestLogger)
	if deps.Metrics != nil {
		r.Use(apiMiddleware.Prometheus(deps.Metrics))
	}

	projectHandler := NewProjectHandler(deps.Projects, log)
	taskHandler := NewTaskHandler(deps.Tasks, log)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.CreateProject)
			r.Get("/", projectHandler.ListProjects)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.GetProject)
				r.Patch("/", projectHandler.EditProject)
				r.Delete("/", projectHandler.DeleteProject)

				r.Post("/tasks", taskHandler.CreateTask)
				r.Get("/tasks", taskHandler.ListTasks)
				r.Get("/tasks/{taskID}", taskHandler.GetTask)
				r.Patch("/tasks/{taskID}", taskHandler.EditTask)
				r.Delete("/tasks/{taskID}", taskHandler.DeleteTask)
			})
		})

		if deps.AutoClose != nil {
			autoClose := NewAutoCloseHandler(deps.AutoClose, deps.ManualTriggerInterval, log)
			r.Post("/tasks/autoclose", autoClose.Trigger)
		}
	})

	if deps.DB != nil {
		r.Get("/health", HealthHandler(deps.DB, log))
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
