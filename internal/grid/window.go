package grid

import "math"

// Window is the derived virtualization range. Indices are inclusive; a
// zero-row grid yields Empty=true.
type Window struct {
	ScrollTop     int
	VisibleStart  int
	VisibleEnd    int
	OverscanStart int
	OverscanEnd   int
	Empty         bool
}

// ComputeRange converts a scroll offset into visible and overscan row indices
// assuming uniform rowHeight.
func ComputeRange(scrollTop, containerHeight, rowHeight, overscan, rowCount int) Window {
	if rowCount <= 0 {
		return Window{Empty: true, VisibleEnd: -1, OverscanEnd: -1}
	}
	if rowHeight <= 0 {
		rowHeight = MinRowHeight
	}
	scrollTop = max(scrollTop, 0)
	containerHeight = max(containerHeight, 0)
	overscan = max(overscan, 0)
	last := rowCount - 1

	visibleStart := min(scrollTop/rowHeight, last)
	visibleEnd := int(math.Ceil(float64(scrollTop+containerHeight) / float64(rowHeight)))
	visibleEnd = max(visibleStart, min(last, visibleEnd))

	return Window{
		ScrollTop:     scrollTop,
		VisibleStart:  visibleStart,
		VisibleEnd:    visibleEnd,
		OverscanStart: max(0, visibleStart-overscan),
		OverscanEnd:   min(last, visibleEnd+overscan),
	}
}

// Align selects where ScrollToItem places the target row.
type Align string

// Align values.
const (
	AlignStart  Align = "start"
	AlignEnd    Align = "end"
	AlignCenter Align = "center"
	AlignAuto   Align = "auto"
)

// ScrollToItem returns the scroll offset that brings row index into view.
// AlignAuto keeps scrollTop when the row is already fully visible.
func ScrollToItem(index int, align Align, scrollTop, containerHeight, rowHeight, rowCount int) int {
	if rowCount <= 0 {
		return 0
	}
	if rowHeight <= 0 {
		rowHeight = MinRowHeight
	}
	index = max(0, min(index, rowCount-1))
	maxTop := max(0, rowCount*rowHeight-containerHeight)
	itemTop := index * rowHeight
	itemBottom := itemTop + rowHeight

	var next int
	switch align {
	case AlignStart:
		next = itemTop
	case AlignEnd:
		next = itemBottom - containerHeight
	case AlignCenter:
		next = itemTop - (containerHeight-rowHeight)/2
	default:
		switch {
		case itemTop >= scrollTop && itemBottom <= scrollTop+containerHeight:
			next = scrollTop
		case itemTop < scrollTop:
			next = itemTop
		default:
			next = itemBottom - containerHeight
		}
	}
	return max(0, min(next, maxTop))
}

// ScrollCoalescer folds a burst of scroll offsets into one recomputation per
// frame, keeping only the final offset.
type ScrollCoalescer struct {
	pending bool
	top     int
}

// Push records top and reports whether a flush must be scheduled.
func (c *ScrollCoalescer) Push(top int) bool {
	c.top = top
	if c.pending {
		return false
	}
	c.pending = true
	return true
}

// Flush returns the last pushed offset once per burst.
func (c *ScrollCoalescer) Flush() (int, bool) {
	if !c.pending {
		return 0, false
	}
	c.pending = false
	return c.top, true
}

// Reset drops a pending offset superseded by a direct scroll.
func (c *ScrollCoalescer) Reset() {
	c.pending = false
}

// Pending reports whether a flush is outstanding.
func (c *ScrollCoalescer) Pending() bool {
	return c.pending
}
