package grid

import (
	"maps"
	"sync"

	"github.com/hylla/hoshu/internal/domain"
)

// MinRowHeight is the floor for stored row heights, in height units.
const MinRowHeight = 30

// CellRef addresses one cell by row and column identity.
type CellRef struct {
	RowID    string
	ColumnID string
}

// Range is a rectangular selection between two corner cells. Either corner
// may be the anchor.
type Range struct {
	Start CellRef
	End   CellRef
}

// EditCursor is the cell currently being edited plus its pre-edit value.
type EditCursor struct {
	Cell     CellRef
	Original Value
}

// State is one snapshot of grid interaction state. At most one of
// SelectedCell and SelectedRange is set.
type State struct {
	SelectedCell  *CellRef
	SelectedRange *Range
	Editing       *EditCursor
	ColumnWidths  map[string]int
	RowHeights    map[string]int
}

// Store owns the grid interaction state and guards it for concurrent readers.
type Store struct {
	mu        sync.RWMutex
	state     State
	minWidths map[string]int
}

// NewStore constructs a store seeded with the column widths in columns.
func NewStore(columns []domain.Column) *Store {
	s := &Store{
		state: State{
			ColumnWidths: map[string]int{},
			RowHeights:   map[string]int{},
		},
	}
	s.SetColumns(columns)
	return s
}

// SetColumns refreshes the min-width table and seeds widths for new columns.
func (s *Store) SetColumns(columns []domain.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.minWidths = make(map[string]int, len(columns))
	for _, col := range columns {
		s.minWidths[col.ID] = col.MinWidth
		if _, ok := s.state.ColumnWidths[col.ID]; !ok {
			s.state.ColumnWidths[col.ID] = max(col.Width, col.MinWidth)
		}
	}
}

// SetSelectedCell selects ref (or clears with nil), dropping any range. The
// edit cursor survives only when it targets the same cell.
func (s *Store) SetSelectedCell(ref *CellRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SelectedRange = nil
	if ref == nil {
		s.state.SelectedCell = nil
		s.state.Editing = nil
		return
	}
	cell := *ref
	s.state.SelectedCell = &cell
	if s.state.Editing != nil && s.state.Editing.Cell != cell {
		s.state.Editing = nil
	}
}

// SetSelectedRange selects r, dropping the single-cell selection and any edit.
func (s *Store) SetSelectedRange(r Range) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SelectedCell = nil
	s.state.Editing = nil
	s.state.SelectedRange = &r
}

// SetEditingCell enters edit mode on ref, selecting the same cell, or leaves
// edit mode when ref is nil.
func (s *Store) SetEditingCell(ref *CellRef, original Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref == nil {
		s.state.Editing = nil
		return
	}
	cell := *ref
	s.state.SelectedRange = nil
	s.state.SelectedCell = &cell
	s.state.Editing = &EditCursor{Cell: cell, Original: original}
}

// CommitEdit leaves edit mode and returns the cursor that was active.
func (s *Store) CommitEdit() (EditCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Editing == nil {
		return EditCursor{}, false
	}
	cursor := *s.state.Editing
	s.state.Editing = nil
	return cursor, true
}

// CancelEdit leaves edit mode and returns the captured original value.
func (s *Store) CancelEdit() (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Editing == nil {
		return Value{}, false
	}
	original := s.state.Editing.Original
	s.state.Editing = nil
	return original, true
}

// UpdateColumnWidth stores width clamped to the column's minimum and returns it.
func (s *Store) UpdateColumnWidth(id string, width int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	minWidth, ok := s.minWidths[id]
	if !ok || minWidth <= 0 {
		minWidth = domain.DefaultMinColumnWidth
	}
	width = max(width, minWidth)
	s.state.ColumnWidths[id] = width
	return width
}

// UpdateRowHeight stores height clamped to MinRowHeight and returns it.
func (s *Store) UpdateRowHeight(id string, height int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	height = max(height, MinRowHeight)
	s.state.RowHeights[id] = height
	return height
}

// ColumnWidth returns the stored width for id or fallback.
func (s *Store) ColumnWidth(id string, fallback int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if width, ok := s.state.ColumnWidths[id]; ok {
		return width
	}
	return fallback
}

// RowHeight returns the stored height for id, defaulting to MinRowHeight.
func (s *Store) RowHeight(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if height, ok := s.state.RowHeights[id]; ok {
		return height
	}
	return MinRowHeight
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := State{
		ColumnWidths: maps.Clone(s.state.ColumnWidths),
		RowHeights:   maps.Clone(s.state.RowHeights),
	}
	if s.state.SelectedCell != nil {
		cell := *s.state.SelectedCell
		snap.SelectedCell = &cell
	}
	if s.state.SelectedRange != nil {
		r := *s.state.SelectedRange
		snap.SelectedRange = &r
	}
	if s.state.Editing != nil {
		cursor := *s.state.Editing
		snap.Editing = &cursor
	}
	return snap
}

// Selection returns the current selection as a range; a single cell becomes
// a 1x1 range.
func (s State) Selection() (Range, bool) {
	switch {
	case s.SelectedRange != nil:
		return *s.SelectedRange, true
	case s.SelectedCell != nil:
		return Range{Start: *s.SelectedCell, End: *s.SelectedCell}, true
	default:
		return Range{}, false
	}
}

// Cursor returns the active cell: the selected cell, or the moving end of a range.
func (s State) Cursor() (CellRef, bool) {
	switch {
	case s.SelectedCell != nil:
		return *s.SelectedCell, true
	case s.SelectedRange != nil:
		return s.SelectedRange.End, true
	default:
		return CellRef{}, false
	}
}
