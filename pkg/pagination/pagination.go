package pagination

import (
	"fmt"
	"strings"
)

const (
	// DefaultSize is the standard page size when a size is not provided.
	DefaultSize = 12
	// MaxSize caps how many rows any page query can request.
	MaxSize = 100
)

// Params holds offset pagination inputs from controllers or services. Page is
// zero-based.
type Params struct {
	Page int
	Size int
}

// Normalize enforces the default and maximum sizes and a non-negative page.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	p.Size = NormalizeSize(p.Size)
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// NormalizeSize enforces the configured default and maximum sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Page is one page of results plus the totals the UI needs for navigation.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPage assembles a page from the rows, the request and the total count.
func NewPage[T any](items []T, params Params, total int64) Page[T] {
	params = params.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = int((total + int64(params.Size) - 1) / int64(params.Size))
	}
	return Page[T]{
		Items:      items,
		Page:       params.Page,
		Size:       params.Size,
		Total:      total,
		TotalPages: pages,
	}
}

// Sort is a single ordering key.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort decodes "field,dir" (dir asc|desc, default asc). Allowed maps the
// public field name to its column; unknown fields are rejected. An empty value
// yields fallback.
func ParseSort(value string, allowed map[string]string, fallback Sort) (Sort, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}

	parts := strings.SplitN(value, ",", 2)
	field := strings.TrimSpace(parts[0])
	column, ok := allowed[field]
	if !ok {
		return Sort{}, fmt.Errorf("unsupported sort field %q", field)
	}

	out := Sort{Field: column}
	if len(parts) == 2 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "", "asc":
		case "desc":
			out.Desc = true
		default:
			return Sort{}, fmt.Errorf("unsupported sort direction %q", parts[1])
		}
	}
	return out, nil
}

// Clause renders the ORDER BY expression for the sort.
func (s Sort) Clause() string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}
