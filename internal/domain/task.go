package domain

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task. Only the four constants
// below are valid values.
type TaskStatus string

// Task status values.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every valid status in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusDone,
	TaskStatusCancelled,
}

// ParseTaskStatus maps an input token to its canonical status.
// Matching is case-insensitive and ignores surrounding whitespace.
// "doing" is accepted as a synonym for in_progress.
func ParseTaskStatus(token string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "todo", "to-do":
		return TaskStatusTodo, true
	case "in_progress", "in-progress", "doing":
		return TaskStatusInProgress, true
	case "done":
		return TaskStatusDone, true
	case "cancelled":
		return TaskStatusCancelled, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the enumerated statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

func (s TaskStatus) String() string {
	return string(s)
}

// Task is a unit of work belonging to exactly one project for its whole
// lifetime.
type Task struct {
	ID          int64      `json:"id"          yaml:"id"`
	Title       string     `json:"title"       yaml:"title"`
	Description *string    `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status"      yaml:"status"`
	Deadline    *time.Time `json:"deadline"    yaml:"deadline"`
	ProjectID   int64      `json:"project_id"  yaml:"project_id"`
	CreatedAt   time.Time  `json:"created_at"  yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"  yaml:"updated_at"`
}

// IsOverdue reports whether the task's deadline is strictly before now and
// it is not yet done.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != TaskStatusDone
}

// Touch refreshes UpdatedAt.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = NormalizeTime(now)
}
