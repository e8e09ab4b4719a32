package grid

import (
	"fmt"
	"slices"

	"github.com/hylla/hoshu/internal/domain"
)

// Validate classifies every buffer cell against the grid at anchor. Cell
// [i][j] targets anchor + (i, j). A read-only grid or an unresolvable anchor
// yields exactly one error and no per-cell checks.
func Validate(buf *Buffer, anchor CellRef, records []domain.Record, columns []domain.Column, readOnly bool) ValidationResult {
	if readOnly {
		return ValidationResult{Errors: []Issue{{
			Kind:    IssueReadOnly,
			Message: "grid is read-only",
		}}}
	}
	ar, ac, ok := resolveAnchor(anchor, records, columns)
	if !ok {
		return ValidationResult{Errors: []Issue{{
			Kind:     IssueUnresolvableAnchor,
			RowID:    anchor.RowID,
			ColumnID: anchor.ColumnID,
			Message:  "paste anchor is not in the grid",
		}}}
	}

	result := ValidationResult{}
	if buf == nil {
		result.IsValid = true
		return result
	}
	for _, off := range buf.Dropped {
		result.Warnings = append(result.Warnings, outOfBounds(off.Row, off.Col))
	}
	for i, row := range buf.Cells {
		for j, cell := range row {
			r, c := ar+i, ac+j
			if r >= len(records) || c >= len(columns) {
				result.Warnings = append(result.Warnings, outOfBounds(i, j))
				continue
			}
			rec, col := records[r], columns[c]
			if !Editable(rec, col) {
				result.Warnings = append(result.Warnings, Issue{
					Kind:     IssueNotEditable,
					Row:      i,
					Col:      j,
					RowID:    rec.ID,
					ColumnID: col.ID,
					Message:  fmt.Sprintf("column %q is not editable", col.Label),
				})
				continue
			}
			if _, err := resolveCell(rec, col, cell); err != nil {
				result.Errors = append(result.Errors, Issue{
					Kind:     IssueTypeMismatch,
					Row:      i,
					Col:      j,
					RowID:    rec.ID,
					ColumnID: col.ID,
					Message:  err.Error(),
				})
			}
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// Apply writes every valid buffer cell onto a copy of records at anchor and
// returns the copy plus the number of cells applied. Invalid, out-of-bounds
// and non-editable cells are skipped. Rollups are not recomputed.
func Apply(buf *Buffer, anchor CellRef, records []domain.Record, columns []domain.Column) ([]domain.Record, int) {
	out := slices.Clone(records)
	ar, ac, ok := resolveAnchor(anchor, records, columns)
	if !ok || buf == nil {
		return out, 0
	}
	applied := 0
	for i, row := range buf.Cells {
		for j, cell := range row {
			r, c := ar+i, ac+j
			if r >= len(out) || c >= len(columns) {
				continue
			}
			col := columns[c]
			if !Editable(out[r], col) {
				continue
			}
			updated, err := resolveCell(out[r], col, cell)
			if err != nil {
				continue
			}
			out[r] = updated
			applied++
		}
	}
	return out, applied
}

// resolveCell parses cell for col and returns rec with the value set. Typed
// cells captured from a column of the same type keep their value.
func resolveCell(rec domain.Record, col domain.Column, cell Cell) (domain.Record, error) {
	value := cell.Value
	if UsesExtra(col) {
		return Set(rec, col, value)
	}
	if cell.Type != col.Type || value.Kind != col.Type {
		parsed, err := ParseForColumn(col, cell.Raw)
		if err != nil {
			return rec, err
		}
		value = parsed
	}
	return Set(rec, col, value)
}

func outOfBounds(row, col int) Issue {
	return Issue{
		Kind:    IssueOutOfBounds,
		Row:     row,
		Col:     col,
		Message: fmt.Sprintf("cell %d,%d falls outside the grid", row, col),
	}
}
