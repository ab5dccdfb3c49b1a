// Package sqlstore implements store.ProjectStore and store.TaskStore on top
// of database/sql. Queries are written once with '?' placeholders and
// adapted to the target database through a Dialect.
package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures what differs between the supported databases.
type Dialect interface {
	// Name identifies the dialect in logs ("postgres", "sqlite").
	Name() string

	// Rebind rewrites '?' placeholders into the dialect's native form.
	Rebind(query string) string

	// MapError translates a driver error into the store error taxonomy
	// (store.ErrNotFound, store.ErrDuplicate, store.ErrInvalidEntity,
	// store.ErrConnection). Unknown errors are returned unchanged.
	MapError(err error) error
}

// RebindDollar rewrites '?' placeholders as $1, $2, ... and leaves
// question marks inside single-quoted literals alone.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
