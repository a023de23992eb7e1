package devserver

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 50
)

// parsePage reads "limit" and "cursor" query parameters from the request.
// Missing or invalid limits fall back to defaultPageLimit; limit is capped
// at maxPageLimit.
func parsePage(r *http.Request) (limit int, cursor string) {
	q := r.URL.Query()

	limit = defaultPageLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit, q.Get("cursor")
}
