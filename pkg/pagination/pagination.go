package pagination

import "strings"

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any listing can request.
	MaxPageSize = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page          int
	Size          int
	SortField     string
	SortDirection string
}

// Page describes one page of results plus the totals needed by clients.
type Page struct {
	Number     int   `json:"page_number"`
	Size       int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps page/size into range and fills sort defaults. Sort fields
// are validated by callers against an allow-list before reaching SQL.
func Normalize(p Params) Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if strings.TrimSpace(p.SortField) == "" {
		p.SortField = "created_at"
	}
	switch strings.ToLower(strings.TrimSpace(p.SortDirection)) {
	case "asc":
		p.SortDirection = "asc"
	default:
		p.SortDirection = "desc"
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	return p.Page * p.Size
}

// OrderClause renders the ORDER BY fragment for the normalized params.
func (p Params) OrderClause() string {
	return p.SortField + " " + p.SortDirection
}

// NewPage derives page metadata from the normalized params and a total count.
func NewPage(p Params, total int64) Page {
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Page{
		Number:     p.Page,
		Size:       p.Size,
		TotalItems: total,
		TotalPages: pages,
	}
}
