package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Project is a named container of tasks. TaskCount is populated on reads
// and is never persisted.
type Project struct {
	ID          int64     `json:"id"          yaml:"id"`
	Name        string    `json:"name"        yaml:"name"`
	Description *string   `json:"description" yaml:"description"`
	TaskCount   int       `json:"task_count"  yaml:"task_count"`
	CreatedAt   time.Time `json:"created_at"  yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  yaml:"updated_at"`
}

// Touch refreshes UpdatedAt.
func (p *Project) Touch(now time.Time) {
	p.UpdatedAt = NormalizeTime(now)
}

// NameKey returns the form under which project names are compared for
// uniqueness: trimmed and Unicode case-folded, so "Équipe" and "équipe"
// share a key.
func NameKey(name string) string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Fold().String(strings.TrimSpace(name))
}
