// FilePath: internal/query/query.pagination.go
package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/itsatony/envmon/internal/errors"
)

const (
	DefaultLimit   = 100
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Window tells the store which slice of the timestamp-descending result
// set to return. Limit 0 means unbounded.
type Window struct {
	Skip  int
	Limit int
}

// Unbounded returns every matching record
func Unbounded() Window {
	return Window{}
}

// Latest returns only the most recent record
func Latest() Window {
	return Window{Limit: 1}
}

// NewLimitWindow builds the flat, non-paginated listing window
func NewLimitWindow(limit int) (Window, error) {
	if limit <= 0 {
		return Window{}, errors.NewFieldError("limit", "limit must be greater than zero", nil)
	}
	return Window{Limit: limit}, nil
}

// Pagination holds 1-based page arithmetic
type Pagination struct {
	Page    int
	PerPage int
}

// NewPagination validates page and per_page
func NewPagination(page, perPage int) (Pagination, error) {
	if perPage <= 0 {
		return Pagination{}, errors.NewFieldError("per_page", "per_page must be greater than zero", nil)
	}
	if page < 1 {
		return Pagination{}, errors.NewFieldError("page", "page must be 1 or greater", nil)
	}
	if page-1 > math.MaxInt/perPage {
		return Pagination{}, errors.NewFieldError("page", "page is out of range", nil)
	}
	return Pagination{Page: page, PerPage: perPage}, nil
}

// Skip is the number of records before the requested page
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.PerPage
}

// Window converts the page into a store window
func (p Pagination) Window() Window {
	return Window{Skip: p.Skip(), Limit: p.PerPage}
}

// TotalPages is ceil(total / per_page)
func (p Pagination) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// ParseInt parses an optional integer parameter, falling back to def
func ParseInt(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewFieldError(field, "invalid "+field+": must be an integer", err)
	}
	return v, nil
}

// ParseFloat parses an optional float parameter. Empty input yields nil.
func ParseFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.NewFieldError(field, "invalid "+field+": must be a number", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.NewFieldError(field, "invalid "+field+": must be a finite number", nil)
	}
	return &v, nil
}
