package dataview

// Page is one slice of the filtered and sorted sequence.
type Page[T any] struct {
	Records    []T
	Number     int
	Size       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
}

// TotalPages returns ceil(count/pageSize), never less than one.
func TotalPages(count, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (count + pageSize - 1) / pageSize
	return max(pages, 1)
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	return min(max(page, 1), max(totalPages, 1))
}

// Paginate returns the requested page with the page number clamped to valid bounds.
// A page size below one is treated as one.
func Paginate[T any](records []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := TotalPages(len(records), pageSize)
	number := ClampPage(page, totalPages)

	start := min((number-1)*pageSize, len(records))
	end := min(number*pageSize, len(records))

	return Page[T]{
		Records:    records[start:end:end],
		Number:     number,
		Size:       pageSize,
		TotalPages: totalPages,
		Total:      len(records),
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
	}
}
