// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable identifier attached to every
// error the services return. Transports map codes to their own failure
// representation without parsing message text.
type ErrorCode string

// Error codes.
const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeDuplicateEntity    ErrorCode = "DUPLICATE_ENTITY"
	CodeLimitExceeded      ErrorCode = "LIMIT_EXCEEDED"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION_ERROR"
	CodeDatabaseOperation  ErrorCode = "DATABASE_OPERATION_ERROR"
)

// Sentinel errors matched with errors.Is. Every ValidationError matches
// ErrValidation, every NotFoundError matches ErrNotFound and every
// RepositoryError matches ErrRepository.
var (
	// ErrValidation is returned when caller input fails a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced project or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRepository is returned when the data store fails to execute an operation.
	ErrRepository = errors.New("repository failure")
)

// CodedError is implemented by all domain error variants.
type CodedError interface {
	error
	Code() ErrorCode
}

// ValidationError reports caller input that violates a business rule.
// Kind distinguishes plain validation failures from duplicate names and
// the project limit.
type ValidationError struct {
	Kind    ErrorCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Code returns the error kind, defaulting to VALIDATION_ERROR.
func (e *ValidationError) Code() ErrorCode {
	if e.Kind == "" {
		return CodeValidation
	}
	return e.Kind
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a VALIDATION_ERROR for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Kind: CodeValidation, Field: field, Message: message}
}

// NewDuplicateError creates a DUPLICATE_ENTITY error for the given field.
func NewDuplicateError(field, message string) *ValidationError {
	return &ValidationError{Kind: CodeDuplicateEntity, Field: field, Message: message}
}

// NewLimitExceededError creates a LIMIT_EXCEEDED error.
func NewLimitExceededError(message string) *ValidationError {
	return &ValidationError{Kind: CodeLimitExceeded, Message: message}
}

// NotFoundError reports a missing project or task. ParentID is set when a
// task exists but belongs to a different project than the one requested.
type NotFoundError struct {
	Entity   string
	ID       int64
	ParentID int64
}

func (e *NotFoundError) Error() string {
	if e.ParentID != 0 {
		return fmt.Sprintf("%s with ID %d not found in project %d", e.Entity, e.ID, e.ParentID)
	}
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// Code always returns NOT_FOUND.
func (e *NotFoundError) Code() ErrorCode {
	return CodeNotFound
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RepositoryError wraps a data store failure with the operation that
// triggered it. Kind is either DATABASE_CONNECTION_ERROR or
// DATABASE_OPERATION_ERROR.
type RepositoryError struct {
	Kind      ErrorCode
	Operation string
	Err       error
}

func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("repository error during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("repository error during %s", e.Operation)
}

// Code returns the error kind, defaulting to DATABASE_OPERATION_ERROR.
func (e *RepositoryError) Code() ErrorCode {
	if e.Kind == "" {
		return CodeDatabaseOperation
	}
	return e.Kind
}

// Unwrap returns the underlying store error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRepository.
func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}

// CodeOf extracts the error code from err. Errors that carry no domain
// code are reported as DATABASE_OPERATION_ERROR since only the store layer
// produces them.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeDatabaseOperation
}
