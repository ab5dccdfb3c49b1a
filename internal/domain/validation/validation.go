// Package validation holds the pure input checks run by the services before
// any write. Every function reports failure as a *domain.ValidationError and
// never panics on bad input.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
)

// Default word limits.
const (
	DefaultNameMaxWords        = 30
	DefaultDescriptionMaxWords = 150
)

// DateLayout is the only layout ValidateDate accepts.
const DateLayout = "2006-01-02"

// Limits configures the word limits applied by the services.
type Limits struct {
	ProjectNameMaxWords int
	TaskTitleMaxWords   int
	DescriptionMaxWords int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		ProjectNameMaxWords: DefaultNameMaxWords,
		TaskTitleMaxWords:   DefaultNameMaxWords,
		DescriptionMaxWords: DefaultDescriptionMaxWords,
	}
}

// WithDefaults fills zero fields with their default values.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.ProjectNameMaxWords <= 0 {
		l.ProjectNameMaxWords = d.ProjectNameMaxWords
	}
	if l.TaskTitleMaxWords <= 0 {
		l.TaskTitleMaxWords = d.TaskTitleMaxWords
	}
	if l.DescriptionMaxWords <= 0 {
		l.DescriptionMaxWords = d.DescriptionMaxWords
	}
	return l
}

// ValidateName fails when name is blank or has more than maxWords words.
// field names the input in the returned error ("name", "title").
func ValidateName(field, name string, maxWords int) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError(field, "Name cannot be empty")
	}
	if n := wordCount(name); n > maxWords {
		return domain.NewValidationError(field,
			fmt.Sprintf("Name must be less than %d words (current: %d)", maxWords, n))
	}
	return nil
}

// ValidateDescription accepts nil or blank descriptions and otherwise fails
// when the text has more than maxWords words.
func ValidateDescription(description *string, maxWords int) error {
	if description == nil || strings.TrimSpace(*description) == "" {
		return nil
	}
	if n := wordCount(*description); n > maxWords {
		return domain.NewValidationError("description",
			fmt.Sprintf("Description must be less than %d words (current: %d)", maxWords, n))
	}
	return nil
}

// ValidateDate parses a strict YYYY-MM-DD calendar date as midnight UTC.
func ValidateDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, domain.NewValidationError("deadline",
			"Invalid date format. Use YYYY-MM-DD (e.g., 2025-12-31)")
	}
	return t, nil
}

// ValidateStatus maps a status token to its canonical value.
func ValidateStatus(token string) (domain.TaskStatus, error) {
	status, ok := domain.ParseTaskStatus(token)
	if !ok {
		return "", domain.NewValidationError("status",
			"Invalid status. Must be one of: to-do, doing, in-progress, done, cancelled")
	}
	return status, nil
}

// dateTimeLayouts are tried in order by ParseDeadline. Layouts without a
// zone are interpreted as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseDeadline accepts an ISO-8601 date or date-time. The result is
// normalized to UTC.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NormalizeTime(t), nil
		}
	}
	return time.Time{}, domain.NewValidationError("deadline",
		"Invalid date format. Use YYYY-MM-DD (e.g., 2025-12-31) or an ISO-8601 date-time")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
