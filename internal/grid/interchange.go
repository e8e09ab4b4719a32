package grid

import (
	"strings"
	"time"

	"github.com/hylla/hoshu/internal/domain"
)

// Cell is one captured or parsed clipboard cell. Raw is the interchange text
// for the cell; Value is its typed form for the column named by ColumnID.
type Cell struct {
	RowID    string
	ColumnID string
	Value    Value
	Type     domain.ValueType
	Raw      string
}

// Buffer is a rectangular block of cells plus its source area and capture time.
// Dropped holds the offsets of parsed cells that fell outside the grid.
type Buffer struct {
	Cells      [][]Cell
	Area       string
	CapturedAt time.Time
	Dropped    []Offset
}

// Offset is a cell position relative to a buffer's top-left cell.
type Offset struct {
	Row int
	Col int
}

// Rows returns the buffer height.
func (b *Buffer) Rows() int {
	if b == nil {
		return 0
	}
	return len(b.Cells)
}

// Cols returns the widest row of the buffer.
func (b *Buffer) Cols() int {
	if b == nil {
		return 0
	}
	widest := 0
	for _, row := range b.Cells {
		widest = max(widest, len(row))
	}
	return widest
}

// Extract captures the cells covered by sel. It returns nil when either
// corner of sel cannot be resolved.
func Extract(sel Range, records []domain.Record, columns []domain.Column, area string) *Buffer {
	top, left, bottom, right, ok := RangeBounds(sel, RowIDs(records), ColumnIDs(columns))
	if !ok {
		return nil
	}
	cells := make([][]Cell, 0, bottom-top+1)
	for r := top; r <= bottom; r++ {
		row := make([]Cell, 0, right-left+1)
		for c := left; c <= right; c++ {
			col := columns[c]
			value := Get(records[r], col)
			row = append(row, Cell{
				RowID:    records[r].ID,
				ColumnID: col.ID,
				Value:    value,
				Type:     col.Type,
				Raw:      CellText(value),
			})
		}
		cells = append(cells, row)
	}
	return &Buffer{Cells: cells, Area: area, CapturedAt: time.Now().UTC()}
}

// Serialize renders buf as tab-separated rows joined by newlines.
func Serialize(buf *Buffer) string {
	if buf == nil {
		return ""
	}
	lines := make([]string, 0, len(buf.Cells))
	for _, row := range buf.Cells {
		fields := make([]string, 0, len(row))
		for _, cell := range row {
			fields = append(fields, CellText(cell.Value))
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	return strings.Join(lines, "\n")
}

// CellText renders one value in interchange form. Status and cost values use
// their bracketed literal; tabs and newlines inside scalars become spaces.
func CellText(v Value) string {
	switch v.Kind {
	case domain.ValueStatus:
		return encodeLiteral(v.Status)
	case domain.ValueCost:
		return encodeLiteral(v.Cost)
	default:
		return scalarReplacer.Replace(v.Display())
	}
}

var scalarReplacer = strings.NewReplacer("\r\n", " ", "\t", " ", "\n", " ", "\r", " ")

// Deserialize parses interchange text onto the grid at anchor. Cells that
// fall outside the grid are recorded in Dropped; the rest carry the target
// identity and a value coerced for the target column. Unparsable cells keep
// their raw text for Validate to report.
func Deserialize(text, area string, anchor CellRef, columns []domain.Column, records []domain.Record) *Buffer {
	buf := &Buffer{Area: area, CapturedAt: time.Now().UTC()}
	ar, ac, ok := resolveAnchor(anchor, records, columns)
	if !ok {
		return buf
	}
	for i, fields := range SplitInterchange(text) {
		r := ar + i
		row := make([]Cell, 0, len(fields))
		for j, raw := range fields {
			c := ac + j
			if r >= len(records) || c >= len(columns) {
				buf.Dropped = append(buf.Dropped, Offset{Row: i, Col: j})
				continue
			}
			col := columns[c]
			value, err := ParseCell(col, raw)
			if err != nil {
				value = TextValue(raw)
			}
			row = append(row, Cell{
				RowID:    records[r].ID,
				ColumnID: col.ID,
				Value:    value,
				Type:     col.Type,
				Raw:      raw,
			})
		}
		if len(row) > 0 {
			buf.Cells = append(buf.Cells, row)
		}
	}
	return buf
}

// SplitInterchange splits text on newlines then tabs. A trailing carriage
// return per line and a single trailing empty line are dropped.
func SplitInterchange(text string) [][]string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.TrimSuffix(lines[len(lines)-1], "\r") == "" {
		lines = lines[:len(lines)-1]
	}
	out := make([][]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Split(strings.TrimSuffix(line, "\r"), "\t"))
	}
	return out
}

// resolveAnchor locates anchor's row and column indices.
func resolveAnchor(anchor CellRef, records []domain.Record, columns []domain.Column) (int, int, bool) {
	r := domain.RecordIndex(records, anchor.RowID)
	c := domain.ColumnIndex(columns, anchor.ColumnID)
	if r < 0 || c < 0 {
		return 0, 0, false
	}
	return r, c, true
}

// RowIDs lists record ids in grid order.
func RowIDs(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}

// ColumnIDs lists column ids in grid order.
func ColumnIDs(columns []domain.Column) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		out = append(out, col.ID)
	}
	return out
}
