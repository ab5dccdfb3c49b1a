package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/store"
)

// ServiceError reports a misconfigured service, e.g. a nil dependency
// passed to a constructor.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_service")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func missingDependency(name string) error {
	return &ServiceError{Operation: "create_service", Message: name + " cannot be nil"}
}

// repositoryError converts a store failure into a *domain.RepositoryError.
// Errors that already carry a domain code pass through unchanged so that
// validation and not-found results returned from inside a transaction keep
// their kind.
func repositoryError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var coded domain.CodedError
	if errors.As(err, &coded) {
		return err
	}
	kind := domain.CodeDatabaseOperation
	if errors.Is(err, store.ErrConnection) {
		kind = domain.CodeDatabaseConnection
	}
	return &domain.RepositoryError{Kind: kind, Operation: operation, Err: err}
}

// publish emits an event after a committed change. Delivery failures are
// logged and never reported to the caller.
func publish(ctx context.Context, emitter events.EventEmitter, log *slog.Logger, eventType string, payload any, now time.Time) {
	event, err := events.NewEvent(eventType, payload, now)
	if err != nil {
		log.Error("failed to build event", "event_type", eventType, "error", err)
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event delivery failed", "event_type", eventType, "event_id", event.ID, "error", err)
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
