package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the services after a successful commit.
const (
	ProjectCreated  = "project.created"
	ProjectUpdated  = "project.updated"
	ProjectDeleted  = "project.deleted"
	TaskCreated     = "task.created"
	TaskUpdated     = "task.updated"
	TaskDeleted     = "task.deleted"
	TasksAutoClosed = "tasks.auto_closed"
)

// Event is a record of a state change that already happened.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the event type constants
	Type string `json:"type"`

	// Payload carries the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is when the change was committed
	OccurredAt time.Time `json:"occurred_at"`
}

// ProjectPayload is the payload of project.* events.
type ProjectPayload struct {
	ProjectID    int64  `json:"project_id"`
	Name         string `json:"name,omitempty"`
	TasksDeleted int64  `json:"tasks_deleted,omitempty"`
}

// TaskPayload is the payload of task.* events.
type TaskPayload struct {
	TaskID    int64  `json:"task_id"`
	ProjectID int64  `json:"project_id"`
	Status    string `json:"status,omitempty"`
}

// AutoClosePayload is the payload of tasks.auto_closed events.
type AutoClosePayload struct {
	Closed int       `json:"closed"`
	Now    time.Time `json:"now"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type with a serialized payload.
func NewEvent(eventType string, payload interface{}, occurredAt time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payloadBytes,
		OccurredAt: occurredAt,
	}, nil
}

// EventHandler processes events. Handlers run synchronously on the
// emitting goroutine and must not block for long.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events without knowledge of the handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
