package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page normalises a 1-based page and a size and returns the row offset.
// Out-of-range sizes fall back to DefaultPageSize.
func Page(page, size int) (offset, limit, normPage int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size, page
}
