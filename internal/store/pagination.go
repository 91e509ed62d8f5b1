package store

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest is an offset-based pagination request. Zero values are clamped
// to sane defaults by Normalize.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps page and page size into valid ranges.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset returns the SQL offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OffsetPage is a page of results plus totals.
type OffsetPage struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// NewOffsetPage assembles a page envelope from a result slice and the total
// row count.
func NewOffsetPage(items interface{}, total int64, p PageRequest) *OffsetPage {
	totalPages := int(total) / p.PageSize
	if int(total)%p.PageSize != 0 {
		totalPages++
	}
	return &OffsetPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
