// Package pagination computes page counts and the compact page-number widget.
package pagination

// fullWindow is the largest page count rendered without ellipses.
const fullWindow = 7

// edgeSpan is how many pages are shown together at either end of a long range.
const edgeSpan = 5

// Slot is one cell of the page-number widget: a page or an ellipsis.
type Slot struct {
	Page     int // 0 for an ellipsis
	Ellipsis bool
}

// Gap is the ellipsis slot.
var Gap = Slot{Ellipsis: true}

// TotalPages returns the number of pages for total items split into pages of
// pageSize. It is never less than 1.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// InRange reports whether page is a valid page of a range ending at last.
func InRange(page, last int) bool {
	return page >= 1 && page <= last
}

// Clamp forces page into [1, last].
func Clamp(page, last int) int {
	if last < 1 {
		last = 1
	}
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// Window returns the page-number widget for the given result shape.
//
// Up to seven pages are listed in full. Longer ranges keep the first and last
// page visible: near the start they show 1..5, near the end last-4..last, and
// in the middle the current page with one neighbour on each side.
func Window(total, pageSize, current int) []Slot {
	last := TotalPages(total, pageSize)
	current = Clamp(current, last)

	if last <= fullWindow {
		return span(1, last)
	}

	switch {
	case current <= edgeSpan-1:
		return append(span(1, edgeSpan), Gap, Slot{Page: last})
	case current >= last-(edgeSpan-2):
		return append([]Slot{{Page: 1}, Gap}, span(last-edgeSpan+1, last)...)
	default:
		out := []Slot{{Page: 1}, Gap}
		out = append(out, span(current-1, current+1)...)
		return append(out, Gap, Slot{Page: last})
	}
}

// Pages returns the page numbers of a window, 0 marking each ellipsis.
func Pages(w []Slot) []int {
	out := make([]int, len(w))
	for i, s := range w {
		out[i] = s.Page
	}
	return out
}

func span(from, to int) []Slot {
	out := make([]Slot, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, Slot{Page: p})
	}
	return out
}
