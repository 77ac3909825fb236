package models

// RecordStatus is the shared active/inactive lifecycle flag.
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
)

// List page size bounds shared by every paginated endpoint.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps page and size into the served range so the query and
// the pagination metadata always agree on what one page holds.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives pagination metadata. Total pages is ceil(total/size).
func NewPagination(page, size, total int) *Pagination {
	page, size = NormalizePage(page, size)
	pages := (total + size - 1) / size
	return &Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}
