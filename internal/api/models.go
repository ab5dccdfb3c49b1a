package api

import (
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
)

// Request bodies carry only structural limits. Business rules such as word
// counts and status tokens are enforced by the services so that their
// ordering and messages stay the same for every transport.

// CreateProjectRequest defines the payload for creating a project.
type CreateProjectRequest struct {
	Name        string  `json:"name"        validate:"max=4000"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
}

// EditProjectRequest defines the payload for editing a project. Omitted
// fields are left unchanged.
type EditProjectRequest struct {
	Name        *string `json:"name"        validate:"omitempty,max=4000"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"       validate:"max=4000"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
	Status      string  `json:"status"      validate:"max=32"`
	Deadline    *string `json:"deadline"    validate:"omitempty,max=64"`
}

// EditTaskRequest defines the payload for editing a task. Omitted fields
// are left unchanged; an empty deadline or description clears it.
type EditTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=4000"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
	Status      *string `json:"status"      validate:"omitempty,max=32"`
	Deadline    *string `json:"deadline"    validate:"omitempty,max=64"`
}

// PageQuery holds the limit/offset query parameters of list endpoints.
// A zero Limit means no limit.
type PageQuery struct {
	Limit  int `validate:"gte=0,lte=1000"`
	Offset int `validate:"gte=0"`
}

// ProjectResponse represents a project in responses.
type ProjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	TaskCount   int       `json:"task_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskResponse represents a task in responses.
type TaskResponse struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListResponse wraps list results with the total before paging.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset"`
}

// AutoCloseResponse is returned by the auto-close trigger.
type AutoCloseResponse struct {
	Closed int    `json:"closed"`
	RunID  string `json:"run_id"`
}

func projectToResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TaskCount:   p.TaskCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Deadline:    t.Deadline,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// page slices items according to q and wraps them in a ListResponse.
func page[T any](items []T, q PageQuery) ListResponse[T] {
	total := len(items)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	return ListResponse[T]{Items: out, Total: total, Limit: q.Limit, Offset: q.Offset}
}
