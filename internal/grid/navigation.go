package grid

import "slices"

// Direction is a navigation command.
type Direction string

// Direction values.
const (
	DirUp       Direction = "up"
	DirDown     Direction = "down"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
	DirTab      Direction = "tab"
	DirShiftTab Direction = "shift-tab"
	DirEnter    Direction = "enter"
)

// Navigate returns the cell reached from current by dir. When current cannot
// be located, or the grid is empty, current is returned with ok=false.
func Navigate(current CellRef, dir Direction, rowIDs, colIDs []string) (CellRef, bool) {
	row := slices.Index(rowIDs, current.RowID)
	col := slices.Index(colIDs, current.ColumnID)
	if row < 0 || col < 0 {
		return current, false
	}
	lastRow, lastCol := len(rowIDs)-1, len(colIDs)-1

	switch dir {
	case DirUp:
		row = max(row-1, 0)
	case DirDown, DirEnter:
		row = min(row+1, lastRow)
	case DirLeft:
		col = max(col-1, 0)
	case DirRight:
		col = min(col+1, lastCol)
	case DirTab:
		switch {
		case col < lastCol:
			col++
		case row < lastRow:
			row++
			col = 0
		}
	case DirShiftTab:
		switch {
		case col > 0:
			col--
		case row > 0:
			row--
			col = lastCol
		}
	default:
		return current, false
	}
	return CellRef{RowID: rowIDs[row], ColumnID: colIDs[col]}, true
}

// ExtendRange moves the End corner of r by dir, keeping Start as the anchor.
func ExtendRange(r Range, dir Direction, rowIDs, colIDs []string) (Range, bool) {
	switch dir {
	case DirUp, DirDown, DirLeft, DirRight:
	default:
		return r, false
	}
	end, ok := Navigate(r.End, dir, rowIDs, colIDs)
	if !ok {
		return r, false
	}
	return Range{Start: r.Start, End: end}, true
}

// NavigatePage moves current by delta rows, clamped; delta may be negative.
func NavigatePage(current CellRef, delta int, rowIDs, colIDs []string) (CellRef, bool) {
	row := slices.Index(rowIDs, current.RowID)
	if row < 0 || !slices.Contains(colIDs, current.ColumnID) {
		return current, false
	}
	row = max(0, min(row+delta, len(rowIDs)-1))
	return CellRef{RowID: rowIDs[row], ColumnID: current.ColumnID}, true
}

// RangeBounds resolves r into inclusive index bounds over rowIDs and colIDs.
func RangeBounds(r Range, rowIDs, colIDs []string) (top, left, bottom, right int, ok bool) {
	r1 := slices.Index(rowIDs, r.Start.RowID)
	r2 := slices.Index(rowIDs, r.End.RowID)
	c1 := slices.Index(colIDs, r.Start.ColumnID)
	c2 := slices.Index(colIDs, r.End.ColumnID)
	if r1 < 0 || r2 < 0 || c1 < 0 || c2 < 0 {
		return 0, 0, 0, 0, false
	}
	return min(r1, r2), min(c1, c2), max(r1, r2), max(c1, c2), true
}
