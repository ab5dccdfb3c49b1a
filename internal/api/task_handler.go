package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With("component", "task_handler"),
	}
}

// CreateTask handles POST /projects/{projectID}/tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), projectID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/projects/%d/tasks/%d", APIPrefix, projectID, task.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /projects/{projectID}/tasks requests. The optional
// status parameter accepts the same tokens as task input.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	q, ok := getPageQuery(w, r)
	if !ok {
		return
	}

	var status domain.TaskStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := validation.ValidateStatus(raw)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		status = parsed
	}

	tasks, err := h.tasks.ListTasks(r.Context(), projectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	items := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && t.Status != status {
			continue
		}
		items = append(items, taskToResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page(items, q))
}

// GetTask handles GET /projects/{projectID}/tasks/{taskID} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "taskID")
	if !ok {
		return
	}

	task, found, err := h.tasks.GetTask(r.Context(), projectID, taskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if !found {
		HandleAPIError(w, r, &domain.NotFoundError{Entity: "Task", ID: taskID, ParentID: projectID})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// EditTask handles PATCH /projects/{projectID}/tasks/{taskID} requests
func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "taskID")
	if !ok {
		return
	}
	var req EditTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.EditTask(r.Context(), projectID, taskID, service.EditTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /projects/{projectID}/tasks/{taskID} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), projectID, taskID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task removed via API",
		"project_id", projectID, "task_id", taskID)
	w.WriteHeader(http.StatusNoContent)
}
