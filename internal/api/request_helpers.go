package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
)

// getPathID extracts a positive integer id from the URL path parameters.
// It writes a 400 response and returns false when the value is missing or
// malformed.
func getPathID(w http.ResponseWriter, r *http.Request, paramName string) (int64, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		handleBadRequest(w, r, paramName, "Invalid "+paramName, err)
		return 0, false
	}
	return id, true
}

// getPageQuery parses and validates limit and offset.
func getPageQuery(w http.ResponseWriter, r *http.Request) (PageQuery, bool) {
	var q PageQuery
	params := []struct {
		name string
		dst  *int
	}{{"limit", &q.Limit}, {"offset", &q.Offset}}
	for _, p := range params {
		name := p.name
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			handleBadRequest(w, r, name, "Invalid "+name+": must be an integer", err)
			return q, false
		}
		*p.dst = v
	}
	if err := shared.ValidateRequest(&q); err != nil {
		field, msg := SanitizeValidationError(err)
		handleBadRequest(w, r, field, msg, err)
		return q, false
	}
	return q, true
}

// decodeAndValidate reads the JSON body into v and validates it. It writes
// a 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		handleBadRequest(w, r, "", "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		field, msg := SanitizeValidationError(err)
		handleBadRequest(w, r, field, msg, err)
		return false
	}
	return true
}
