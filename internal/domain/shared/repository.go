package shared

// Filter bounds list queries. Movement history is the only paged read in
// this service, so the filter stays minimal.
type Filter struct {
	Page     int
	PageSize int
}

// DefaultFilter returns the first page with a sane page size
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20}
}

// Normalize clamps out-of-range values to the defaults
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 20
	}
	return f
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
