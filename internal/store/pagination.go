package store

// PaginationParams contains page-number pagination request parameters.
type PaginationParams struct {
	Page    int // 1-based page number
	PerPage int // Items per page
}

// Page contains one page of results and its metadata.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate(defaultPerPage int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
}

// Offset returns the SQL offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewPage assembles a result page from items and the total row count.
func NewPage[T any](items []T, params PaginationParams, total int) Page[T] {
	pages := 0
	if params.PerPage > 0 {
		pages = (total + params.PerPage - 1) / params.PerPage
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Page:    params.Page,
		PerPage: params.PerPage,
		Total:   total,
		Pages:   pages,
	}
}
