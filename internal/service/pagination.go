package service

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage приводит параметры пагинации к допустимым значениям.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
