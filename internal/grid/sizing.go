package grid

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/hylla/hoshu/internal/domain"
)

// Sizing constants. Widths are terminal cells; heights are units with
// LineHeight units per rendered line.
const (
	CellPadding  = 2
	LineHeight   = 30
	MaxRowHeight = LineHeight * 8
)

// AutoColumnWidth measures header and values, adds padding and clamps to
// [minWidth, maxWidth].
func AutoColumnWidth(header string, values []string, minWidth, maxWidth int) int {
	widest := textWidth(header)
	for _, value := range values {
		widest = max(widest, textWidth(value))
	}
	return clampInt(widest+CellPadding, minWidth, maxWidth)
}

// SizedCell is one cell's display text and the column width it renders in.
type SizedCell struct {
	Text  string
	Width int
}

// AutoRowHeight wraps every cell to its column width and returns the tallest
// line count in height units, clamped to [minHeight, maxHeight].
func AutoRowHeight(cells []SizedCell, minHeight, maxHeight int) int {
	minHeight = max(minHeight, MinRowHeight)
	if maxHeight < minHeight {
		maxHeight = minHeight
	}
	lines := 1
	for _, cell := range cells {
		lines = max(lines, WrappedLineCount(cell.Text, cell.Width-CellPadding))
	}
	return clampInt(lines*LineHeight, minHeight, maxHeight)
}

// WrappedLineCount returns how many lines text occupies when wrapped to width.
func WrappedLineCount(text string, width int) int {
	if text == "" {
		return 1
	}
	if width <= 0 {
		width = 1
	}
	return len(WrapText(text, width))
}

// WrapText word-wraps text to width, hard-breaking words longer than width.
func WrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	wrapped := wrap.String(wordwrap.String(text, width), width)
	return strings.Split(wrapped, "\n")
}

// ColumnContentWidth auto-sizes col over the display values of records.
func ColumnContentWidth(col domain.Column, records []domain.Record) int {
	values := make([]string, 0, len(records))
	for _, rec := range records {
		values = append(values, Get(rec, col).Display())
	}
	return AutoColumnWidth(col.Label, values, col.MinWidth, col.MaxWidth)
}

// RowContentHeight auto-sizes rec across columns using widthOf for each
// column's current width.
func RowContentHeight(rec domain.Record, columns []domain.Column, widthOf func(domain.Column) int, minHeight, maxHeight int) int {
	cells := make([]SizedCell, 0, len(columns))
	for _, col := range columns {
		cells = append(cells, SizedCell{Text: Get(rec, col).Display(), Width: widthOf(col)})
	}
	return AutoRowHeight(cells, minHeight, maxHeight)
}

// textWidth returns the widest line of s in terminal cells.
func textWidth(s string) int {
	widest := 0
	for _, line := range strings.Split(s, "\n") {
		widest = max(widest, ansi.StringWidth(line))
	}
	return widest
}

// clampInt bounds v to [lo, hi]; hi below lo is ignored.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi >= lo && v > hi {
		return hi
	}
	return v
}
