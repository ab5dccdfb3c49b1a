package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projects service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With("component", "project_handler"),
	}
}

// CreateProject handles POST /projects requests
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/projects/%d", APIPrefix, project.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, projectToResponse(project))
}

// ListProjects handles GET /projects requests. The optional q parameter
// keeps projects whose name contains it, case-insensitively.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q, ok := getPageQuery(w, r)
	if !ok {
		return
	}

	projects, err := h.projects.ListProjects(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		items = append(items, projectToResponse(p))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page(items, q))
}

// GetProject handles GET /projects/{projectID} requests
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// EditProject handles PATCH /projects/{projectID} requests
func (h *ProjectHandler) EditProject(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}
	var req EditProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.EditProject(r.Context(), id, service.EditProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// DeleteProject handles DELETE /projects/{projectID} requests
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathID(w, r, "projectID")
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(r.Context(), id); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("project removed via API", "project_id", id)
	w.WriteHeader(http.StatusNoContent)
}
