package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
)

// Transport-only error codes. Domain codes come from domain.CodeOf.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeRateLimited = "RATE_LIMITED"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

// MapErrorToStatusCode maps service errors to HTTP status codes by their
// domain code. Message text is never inspected.
func MapErrorToStatusCode(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch domain.CodeOf(err) {
	case domain.CodeValidation, domain.CodeLimitExceeded:
		return http.StatusBadRequest
	case domain.CodeDuplicateEntity:
		return http.StatusConflict
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeDatabaseConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message that is safe to show to clients.
// Validation and not-found messages are built from caller input and are
// passed through; repository failures get a generic message so driver
// details never leak.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var nfErr *domain.NotFoundError
	if errors.As(err, &nfErr) {
		return nfErr.Error()
	}

	switch domain.CodeOf(err) {
	case domain.CodeDatabaseConnection:
		return "Service temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// errorField returns the input field a validation error refers to.
func errorField(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Field
	}
	return ""
}

// HandleAPIError writes the error response for a service error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status,
		string(domain.CodeOf(err)), errorField(err), GetSafeErrorMessage(err), err)
}

// handleBadRequest reports a malformed request that never reached a service.
func handleBadRequest(w http.ResponseWriter, r *http.Request, field, message string, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
		string(domain.CodeValidation), field, message, err)
}

// SanitizeValidationError turns a validator error into a short message and
// the JSON field it refers to.
func SanitizeValidationError(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "Validation error"
	}
	fe := verrs[0]
	field = jsonFieldName(fe.Field())
	return field, fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// jsonFieldName converts a Go field name like DeadlineDate to deadline_date.
func jsonFieldName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "max":
		return "too long"
	case "min", "gte", "gt", "lte", "lt":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
