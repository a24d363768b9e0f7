package shared

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// TableQuery is the search-and-page request shared by list endpoints.
type TableQuery struct {
	Search  string
	Page    int
	PerPage int
}

var folder = cases.Fold()

// TableQueryFromRequest reads q, page and per_page from the query string.
func TableQueryFromRequest(r *http.Request) TableQuery {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	perPage, _ := strconv.Atoi(values.Get("per_page"))
	return TableQuery{Search: strings.TrimSpace(values.Get("q")), Page: page, PerPage: perPage}
}

// Fold returns s case-folded for comparisons.
func Fold(s string) string {
	return folder.String(s)
}

// Matches reports whether text contains search, ignoring case. Empty search matches everything.
func Matches(text, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(Fold(text), Fold(search))
}

// FilterPage filters rows whose key contains q.Search and returns the requested page.
func FilterPage[T any](rows []T, q TableQuery, key func(T) string) ([]T, Pagination) {
	filtered := rows
	if strings.TrimSpace(q.Search) != "" {
		filtered = make([]T, 0, len(rows))
		for _, row := range rows {
			if Matches(key(row), q.Search) {
				filtered = append(filtered, row)
			}
		}
	}
	meta := NewPagination(q.Page, q.PerPage, len(filtered))
	start := meta.Offset()
	if start < 0 || start >= len(filtered) {
		return []T{}, meta
	}
	end := start + meta.PerPage
	if end < start || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], meta
}
