// Package page maps page numbers onto contiguous ranges of row
// indices.
package page

// Count returns how many pages of pageSize rows it takes to show
// total rows. An empty table still has one (empty) page.
func Count(pageSize, total int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Clamp keeps a 1-indexed page number within [1, Count(pageSize, total)].
func Clamp(pageNumber, pageSize, total int) int {
	last := Count(pageSize, total)
	switch {
	case pageNumber < 1:
		return 1
	case pageNumber > last:
		return last
	}
	return pageNumber
}

// Range returns the half-open row range [start, end) shown on the
// given 1-indexed page. Out of range page numbers are clamped.
func Range(pageNumber, pageSize, total int) (start, end int) {
	if pageSize < 1 {
		pageSize = 1
	}
	if total < 0 {
		total = 0
	}
	pageNumber = Clamp(pageNumber, pageSize, total)
	start = (pageNumber - 1) * pageSize
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
