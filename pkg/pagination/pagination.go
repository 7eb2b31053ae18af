package pagination

import (
	"net/http"
	"strconv"
)

// Page sizes are tuned for the job listing: small pages by default, with a
// hard cap so one request cannot pull the whole board.
const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// Params holds the page window requested through the query string.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// FromRequest reads page and per_page from the query string. Absent,
// malformed, or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	perPage := queryInt(r, "per_page", DefaultPerPage)
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}

	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Result wraps one page of data with the counters clients need to render
// paging controls.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult assembles a page of rows and the total row count into a Result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	perPage := params.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (totalCount + perPage - 1) / perPage

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
