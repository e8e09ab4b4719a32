package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
)

// Service represents service data used by this package.
type Service interface {
	LoadGrid(context.Context) (app.GridData, error)
	UpdateCell(context.Context, grid.CellRef, string) (domain.Record, error)
	SaveRecords(context.Context, []domain.Record, []domain.Record, domain.ChangeOperation) (int, error)
	ReadOnly() bool
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEdit
	modeDetail
)

// layout and interaction constants.
const (
	gridTop       = 2
	footerLines   = 3
	frameInterval = time.Second / 60
	wheelRows     = 3
	resizeStep    = 2
)

// Model is the grid screen.
type Model struct {
	svc    Service
	title  string
	status string
	err    error

	ready  bool
	width  int
	height int

	records  []domain.Record
	columns  []domain.Column
	rowIDs   []string
	colIDs   []string
	readOnly bool

	store     *grid.Store
	clipboard *grid.Clipboard
	termClip  bool
	gridCfg   GridConfig

	scrollTop int
	colOffset int
	window    grid.Window
	scroll    grid.ScrollCoalescer
	wheelTop  int

	mode     inputMode
	input    textinput.Model
	help     help.Model
	keys     keyMap
	markdown *markdownRenderer
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	data     app.GridData
	readOnly bool
	err      error
}

// cellSavedMsg reports one committed inline edit.
type cellSavedMsg struct {
	cell grid.CellRef
	err  error
}

// copiedMsg reports one completed copy.
type copiedMsg struct {
	rows int
	cols int
	text string
	err  error
}

// pastedMsg reports one paste and how many records were persisted.
type pastedMsg struct {
	anchor grid.CellRef
	result grid.PasteResult
	saved  int
	err    error
}

// scrollFlushMsg fires once per frame while wheel scrolling is pending.
type scrollFlushMsg struct{}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 512
	m := Model{
		svc:       svc,
		title:     "hoshu",
		status:    "loading...",
		help:      h,
		keys:      newKeyMap(),
		input:     input,
		store:     grid.NewStore(nil),
		clipboard: grid.NewClipboard(nil),
		gridCfg:   DefaultGridConfig(),
		markdown:  &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applyGrid(msg.data, msg.readOnly)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case cellSavedMsg:
		if msg.err != nil {
			m.status = "edit failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "saved " + m.cellLabel(msg.cell)
		return m, m.loadData

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("copied %dx%d", msg.rows, msg.cols)
		if m.termClip {
			return m, tea.SetClipboard(msg.text)
		}
		return m, nil

	case pastedMsg:
		return m.applyPaste(msg)

	case scrollFlushMsg:
		if top, ok := m.scroll.Flush(); ok {
			m.scrollTop = top
			m.refreshWindow()
		}
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeEdit:
			return m.handleEditKey(msg)
		case modeDetail:
			return m.handleDetailKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		if m.mode == modeEdit {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	data, err := m.svc.LoadGrid(context.Background())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{data: data, readOnly: m.svc.ReadOnly()}
}

// applyGrid installs freshly loaded records and keeps the selection when it
// still resolves.
func (m *Model) applyGrid(data app.GridData, readOnly bool) {
	m.records = data.Records
	m.columns = data.Columns
	m.rowIDs = grid.RowIDs(data.Records)
	m.colIDs = grid.ColumnIDs(data.Columns)
	m.readOnly = readOnly
	m.store.SetColumns(data.Columns)

	snap := m.store.Snapshot()
	sel, ok := snap.Selection()
	if ok {
		_, _, _, _, ok = grid.RangeBounds(sel, m.rowIDs, m.colIDs)
	}
	switch {
	case ok:
	case len(m.rowIDs) > 0 && len(m.colIDs) > 0:
		m.store.SetSelectedCell(&grid.CellRef{RowID: m.rowIDs[0], ColumnID: m.colIDs[0]})
	default:
		m.store.SetSelectedCell(nil)
	}
	m.colOffset = clamp(m.colOffset, 1, max(1, len(m.columns)-1))
	m.ensureCursorVisible()
}

// handleNormalModeKey handles grid navigation and commands.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.help.ShowAll {
		if msg.String() == "esc" {
			m.help.ShowAll = false
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.reload) {
		m.status = "reloading..."
		return m, m.loadData
	}
	if m.err != nil || len(m.records) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(grid.DirUp)
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(grid.DirDown)
	case key.Matches(msg, m.keys.moveLeft):
		m.moveCursor(grid.DirLeft)
	case key.Matches(msg, m.keys.moveRight):
		m.moveCursor(grid.DirRight)
	case key.Matches(msg, m.keys.nextCell):
		m.moveCursor(grid.DirTab)
	case key.Matches(msg, m.keys.prevCell):
		m.moveCursor(grid.DirShiftTab)
	case key.Matches(msg, m.keys.extendUp):
		m.extendSelection(grid.DirUp)
	case key.Matches(msg, m.keys.extendDown):
		m.extendSelection(grid.DirDown)
	case key.Matches(msg, m.keys.extendLeft):
		m.extendSelection(grid.DirLeft)
	case key.Matches(msg, m.keys.extendRight):
		m.extendSelection(grid.DirRight)
	case key.Matches(msg, m.keys.pageUp):
		m.movePage(-m.pageRows())
	case key.Matches(msg, m.keys.pageDown):
		m.movePage(m.pageRows())
	case key.Matches(msg, m.keys.firstRow):
		m.movePage(-len(m.rowIDs))
	case key.Matches(msg, m.keys.lastRow):
		m.movePage(len(m.rowIDs))
	case key.Matches(msg, m.keys.clearRange):
		if cur, ok := m.store.Snapshot().Cursor(); ok {
			m.store.SetSelectedCell(&cur)
		}
	case key.Matches(msg, m.keys.edit):
		return m.startEdit()
	case key.Matches(msg, m.keys.copy):
		return m.copySelection()
	case key.Matches(msg, m.keys.paste):
		return m.pasteAtSelection()
	case key.Matches(msg, m.keys.autoSizeCol):
		m.autoSizeColumn()
	case key.Matches(msg, m.keys.autoSizeRow):
		m.autoSizeRow()
	case key.Matches(msg, m.keys.widenColumn):
		m.resizeColumn(resizeStep)
	case key.Matches(msg, m.keys.narrowColumn):
		m.resizeColumn(-resizeStep)
	case key.Matches(msg, m.keys.growRow):
		m.resizeRow(grid.LineHeight)
	case key.Matches(msg, m.keys.shrinkRow):
		m.resizeRow(-grid.LineHeight)
	case key.Matches(msg, m.keys.recordDetail):
		if _, ok := m.cursorRecord(); ok {
			m.mode = modeDetail
		}
	}
	return m, nil
}

// handleEditKey routes keys to the inline editor.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancelEdit):
		if original, ok := m.store.CancelEdit(); ok {
			m.input.SetValue(grid.CellText(original))
		}
		m.input.Blur()
		m.mode = modeNone
		m.status = "edit canceled"
		return m, nil
	case key.Matches(msg, m.keys.commitEdit), key.Matches(msg, m.keys.commitEditTab):
		dir := grid.DirEnter
		if key.Matches(msg, m.keys.commitEditTab) {
			dir = grid.DirTab
		}
		cursor, ok := m.store.CommitEdit()
		raw := m.input.Value()
		m.input.Blur()
		m.mode = modeNone
		if !ok {
			return m, nil
		}
		m.moveCursor(dir)
		if raw == grid.CellText(cursor.Original) {
			m.status = "unchanged"
			return m, nil
		}
		m.status = "saving..."
		return m, m.saveCellCmd(cursor.Cell, raw)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleDetailKey closes the record detail overlay.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case msg.String() == "esc", key.Matches(msg, m.keys.recordDetail):
		m.mode = modeNone
	}
	return m, nil
}

// startEdit opens the inline editor on the cursor cell.
func (m Model) startEdit() (tea.Model, tea.Cmd) {
	cursor, ok := m.store.Snapshot().Cursor()
	if !ok {
		return m, nil
	}
	if m.readOnly {
		m.status = "grid is read-only"
		return m, nil
	}
	rec, col, ok := m.cellAt(cursor)
	if !ok {
		return m, nil
	}
	if !grid.Editable(rec, col) {
		m.status = col.Label + " is not editable on group rows"
		return m, nil
	}
	value := grid.Get(rec, col)
	m.store.SetEditingCell(&cursor, value)
	m.input.SetValue(grid.CellText(value))
	m.input.CursorEnd()
	m.input.SetWidth(max(1, m.columnWidth(m.store.Snapshot(), col)-grid.CellPadding))
	m.input.Focus()
	m.mode = modeEdit
	m.status = "editing " + m.cellLabel(cursor)
	return m, nil
}

// saveCellCmd persists one edited cell.
func (m Model) saveCellCmd(cell grid.CellRef, raw string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.UpdateCell(context.Background(), cell, raw)
		return cellSavedMsg{cell: cell, err: err}
	}
}

// copySelection copies the current selection through the clipboard port.
func (m Model) copySelection() (tea.Model, tea.Cmd) {
	sel, ok := m.store.Snapshot().Selection()
	if !ok {
		m.status = "nothing selected"
		return m, nil
	}
	clip, records, columns := m.clipboard, m.records, m.columns
	m.status = "copying..."
	return m, func() tea.Msg {
		res, err := clip.Copy(context.Background(), sel, records, columns, "grid")
		if err != nil {
			return copiedMsg{err: err}
		}
		return copiedMsg{rows: res.Buffer.Rows(), cols: res.Buffer.Cols(), text: res.Text}
	}
}

// pasteAtSelection pastes the clipboard at the top-left of the selection and
// persists the applied records.
func (m Model) pasteAtSelection() (tea.Model, tea.Cmd) {
	sel, ok := m.store.Snapshot().Selection()
	if !ok {
		m.status = "nothing selected"
		return m, nil
	}
	top, left, _, _, ok := grid.RangeBounds(sel, m.rowIDs, m.colIDs)
	if !ok {
		return m, nil
	}
	anchor := grid.CellRef{RowID: m.rowIDs[top], ColumnID: m.colIDs[left]}
	req := grid.PasteRequest{
		Anchor:   anchor,
		Records:  m.records,
		Columns:  m.columns,
		ReadOnly: m.readOnly,
		Area:     "grid",
	}
	clip, svc := m.clipboard, m.svc
	m.status = "pasting..."
	return m, func() tea.Msg {
		ctx := context.Background()
		res, err := clip.Paste(ctx, req)
		if err != nil {
			return pastedMsg{anchor: anchor, err: err}
		}
		if res.Outcome() == grid.OutcomeBlocked || res.Applied == 0 {
			return pastedMsg{anchor: anchor, result: res}
		}
		saved, err := svc.SaveRecords(ctx, req.Records, res.Records, domain.ChangeOperationPaste)
		return pastedMsg{anchor: anchor, result: res, saved: saved, err: err}
	}
}

// applyPaste reports a paste outcome and selects the pasted block.
func (m Model) applyPaste(msg pastedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, grid.ErrNothingToPaste):
		m.status = "clipboard is empty"
		return m, nil
	case msg.err != nil:
		m.status = "paste failed: " + msg.err.Error()
		return m, nil
	}
	validation := msg.result.Validation
	switch msg.result.Outcome() {
	case grid.OutcomeBlocked:
		m.status = "paste blocked: " + summarizeIssues(validation.Errors)
		return m, nil
	case grid.OutcomeQualified:
		m.status = fmt.Sprintf("pasted %d cells, %d skipped: %s", msg.result.Applied, len(validation.Warnings), summarizeIssues(validation.Warnings))
	default:
		m.status = fmt.Sprintf("pasted %d cells", msg.result.Applied)
	}
	m.selectBlock(msg.anchor, msg.result.Buffer.Rows(), msg.result.Buffer.Cols())
	if msg.saved == 0 {
		return m, nil
	}
	return m, m.loadData
}

// selectBlock selects rows x cols cells from anchor, clipped to the grid.
func (m *Model) selectBlock(anchor grid.CellRef, rows, cols int) {
	top := domain.RecordIndex(m.records, anchor.RowID)
	left := domain.ColumnIndex(m.columns, anchor.ColumnID)
	if top < 0 || left < 0 || rows <= 0 || cols <= 0 {
		return
	}
	bottom := min(top+rows-1, len(m.rowIDs)-1)
	right := min(left+cols-1, len(m.colIDs)-1)
	end := grid.CellRef{RowID: m.rowIDs[bottom], ColumnID: m.colIDs[right]}
	if end == anchor {
		m.store.SetSelectedCell(&anchor)
		return
	}
	m.store.SetSelectedRange(grid.Range{Start: anchor, End: end})
}

// moveCursor collapses any range and moves the cursor by dir.
func (m *Model) moveCursor(dir grid.Direction) {
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		return
	}
	next, _ := grid.Navigate(cur, dir, m.rowIDs, m.colIDs)
	m.store.SetSelectedCell(&next)
	m.ensureCursorVisible()
}

// extendSelection moves the free corner of the selection by dir.
func (m *Model) extendSelection(dir grid.Direction) {
	sel, ok := m.store.Snapshot().Selection()
	if !ok {
		return
	}
	next, ok := grid.ExtendRange(sel, dir, m.rowIDs, m.colIDs)
	if !ok {
		return
	}
	if next.Start == next.End {
		m.store.SetSelectedCell(&next.Start)
	} else {
		m.store.SetSelectedRange(next)
	}
	m.ensureCursorVisible()
}

// movePage moves the cursor by delta rows.
func (m *Model) movePage(delta int) {
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		return
	}
	next, _ := grid.NavigatePage(cur, delta, m.rowIDs, m.colIDs)
	m.store.SetSelectedCell(&next)
	m.ensureCursorVisible()
}

// pageRows returns how many default-height rows fit in the body.
func (m Model) pageRows() int {
	return max(1, m.containerHeight()/m.gridCfg.DefaultRowHeight)
}

// autoSizeColumn fits the cursor column to its content.
func (m *Model) autoSizeColumn() {
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		return
	}
	_, col, ok := m.cellAt(cur)
	if !ok {
		return
	}
	width := m.store.UpdateColumnWidth(col.ID, grid.ColumnContentWidth(col, m.records))
	m.status = fmt.Sprintf("%s width %d", col.Label, width)
	m.ensureCursorVisible()
}

// autoSizeRow fits the cursor row to its wrapped content.
func (m *Model) autoSizeRow() {
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		return
	}
	rec, _, ok := m.cellAt(cur)
	if !ok {
		return
	}
	snap := m.store.Snapshot()
	height := grid.RowContentHeight(rec, m.columns, func(col domain.Column) int {
		return m.columnWidth(snap, col)
	}, m.gridCfg.MinRowHeight, m.gridCfg.MaxRowHeight)
	height = m.store.UpdateRowHeight(rec.ID, height)
	m.status = fmt.Sprintf("row height %d", height)
}

// resizeColumn changes the cursor column width by delta cells.
func (m *Model) resizeColumn(delta int) {
	snap := m.store.Snapshot()
	cur, ok := snap.Cursor()
	if !ok {
		return
	}
	_, col, ok := m.cellAt(cur)
	if !ok {
		return
	}
	width := m.columnWidth(snap, col) + delta
	if col.MaxWidth > 0 {
		width = min(width, col.MaxWidth)
	}
	width = m.store.UpdateColumnWidth(col.ID, width)
	m.status = fmt.Sprintf("%s width %d", col.Label, width)
	m.ensureCursorVisible()
}

// resizeRow changes the cursor row height by delta units.
func (m *Model) resizeRow(delta int) {
	snap := m.store.Snapshot()
	cur, ok := snap.Cursor()
	if !ok {
		return
	}
	height := clamp(m.rowHeight(snap, cur.RowID)+delta, m.gridCfg.MinRowHeight, m.gridCfg.MaxRowHeight)
	height = m.store.UpdateRowHeight(cur.RowID, height)
	m.status = fmt.Sprintf("row height %d", height)
}

// handleMouseWheel queues a scroll offset and flushes it on the next frame.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || len(m.records) == 0 {
		return m, nil
	}
	base := m.scrollTop
	if m.scroll.Pending() {
		base = m.wheelTop
	}
	step := wheelRows * m.gridCfg.DefaultRowHeight
	switch msg.Button {
	case tea.MouseWheelUp:
		base -= step
	case tea.MouseWheelDown:
		base += step
	default:
		return m, nil
	}
	m.wheelTop = clamp(base, 0, m.maxScrollTop())
	if !m.scroll.Push(m.wheelTop) {
		return m, nil
	}
	return m, tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return scrollFlushMsg{}
	})
}

// handleMouseClick selects the clicked cell; shift extends the selection.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	snap := m.store.Snapshot()
	row, ok := m.rowAtLine(snap, msg.Y-gridTop)
	if !ok {
		return m, nil
	}
	col, ok := m.columnAtX(snap, msg.X)
	if !ok {
		return m, nil
	}
	ref := grid.CellRef{RowID: m.rowIDs[row], ColumnID: m.colIDs[col]}
	if msg.Mod&tea.ModShift != 0 {
		if sel, ok := snap.Selection(); ok && sel.Start != ref {
			m.store.SetSelectedRange(grid.Range{Start: sel.Start, End: ref})
			return m, nil
		}
	}
	m.store.SetSelectedCell(&ref)
	return m, nil
}

// rowAtLine maps a body line offset to a record index.
func (m Model) rowAtLine(snap grid.State, line int) (int, bool) {
	if line < 0 || m.window.Empty {
		return 0, false
	}
	offset := 0
	for i := m.window.VisibleStart; i <= m.window.VisibleEnd; i++ {
		offset += m.rowLines(snap, m.rowIDs[i])
		if line < offset {
			return i, true
		}
	}
	return 0, false
}

// columnAtX maps a screen column to a column index.
func (m Model) columnAtX(snap grid.State, x int) (int, bool) {
	if x < 0 {
		return 0, false
	}
	offset := 0
	for _, idx := range m.visibleColumns(snap) {
		offset += m.columnWidth(snap, m.columns[idx])
		if x < offset {
			return idx, true
		}
	}
	return 0, false
}

// ensureCursorVisible scrolls rows and columns so the cursor is on screen.
// It supersedes any wheel offset still waiting for its frame.
func (m *Model) ensureCursorVisible() {
	m.scroll.Reset()
	snap := m.store.Snapshot()
	cur, ok := snap.Cursor()
	if ok {
		if row := domain.RecordIndex(m.records, cur.RowID); row >= 0 {
			m.scrollTop = grid.ScrollToItem(row, grid.AlignAuto, m.scrollTop, m.containerHeight(), m.gridCfg.DefaultRowHeight, len(m.records))
		}
		if col := domain.ColumnIndex(m.columns, cur.ColumnID); col > 0 {
			if col < m.colOffset {
				m.colOffset = col
			}
			for m.colOffset < col && !containsInt(m.visibleColumns(snap), col) {
				m.colOffset++
			}
		}
	}
	m.scrollTop = clamp(m.scrollTop, 0, m.maxScrollTop())
	m.refreshWindow()
}

// refreshWindow recomputes the virtualization window.
func (m *Model) refreshWindow() {
	m.window = grid.ComputeRange(m.scrollTop, m.containerHeight(), m.gridCfg.DefaultRowHeight, m.gridCfg.Overscan, len(m.records))
}

// bodyLines returns the number of terminal lines available for rows.
func (m Model) bodyLines() int {
	if m.height <= 0 {
		return 10
	}
	return max(1, m.height-gridTop-footerLines)
}

// containerHeight returns the body height in grid units.
func (m Model) containerHeight() int {
	return m.bodyLines() * grid.LineHeight
}

// maxScrollTop returns the largest useful scroll offset.
func (m Model) maxScrollTop() int {
	return max(0, len(m.records)*m.gridCfg.DefaultRowHeight-m.containerHeight())
}

// visibleColumns lists the column indexes that fit the terminal width. The
// first column stays frozen; the rest start at colOffset.
func (m Model) visibleColumns(snap grid.State) []int {
	if len(m.columns) == 0 {
		return nil
	}
	limit := m.width
	if limit <= 0 {
		limit = 120
	}
	out := []int{0}
	used := m.columnWidth(snap, m.columns[0])
	for idx := max(1, m.colOffset); idx < len(m.columns); idx++ {
		width := m.columnWidth(snap, m.columns[idx])
		if used+width > limit && len(out) > 1 {
			break
		}
		out = append(out, idx)
		used += width
	}
	return out
}

// columnWidth returns the stored width of col in cells.
func (m Model) columnWidth(snap grid.State, col domain.Column) int {
	if width, ok := snap.ColumnWidths[col.ID]; ok {
		return width
	}
	return max(col.Width, col.MinWidth)
}

// rowHeight returns the stored height of a row in grid units.
func (m Model) rowHeight(snap grid.State, id string) int {
	if height, ok := snap.RowHeights[id]; ok {
		return height
	}
	return m.gridCfg.DefaultRowHeight
}

// rowLines returns how many terminal lines a row occupies.
func (m Model) rowLines(snap grid.State, id string) int {
	return max(1, m.rowHeight(snap, id)/grid.LineHeight)
}

// cellAt resolves a cell reference.
func (m Model) cellAt(ref grid.CellRef) (domain.Record, domain.Column, bool) {
	r := domain.RecordIndex(m.records, ref.RowID)
	c := domain.ColumnIndex(m.columns, ref.ColumnID)
	if r < 0 || c < 0 {
		return domain.Record{}, domain.Column{}, false
	}
	return m.records[r], m.columns[c], true
}

// cursorRecord returns the record under the cursor.
func (m Model) cursorRecord() (domain.Record, bool) {
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		return domain.Record{}, false
	}
	rec, _, ok := m.cellAt(cur)
	return rec, ok
}

// cellLabel names a cell for status lines.
func (m Model) cellLabel(ref grid.CellRef) string {
	rec, col, ok := m.cellAt(ref)
	if !ok {
		return ref.RowID + "/" + ref.ColumnID
	}
	return rec.Name + " · " + col.Label
}

// View handles view.
func (m Model) View() tea.View {
	return newView(m.viewContent())
}

// viewContent renders the full screen as text.
func (m Model) viewContent() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render(m.title) + statusStyle.Render(fmt.Sprintf("  %d records", len(m.records)))
	if m.readOnly {
		header += statusStyle.Render("  [read-only]")
	}
	if m.mode == modeEdit {
		header += statusStyle.Render("  [edit]")
	}

	snap := m.store.Snapshot()
	var body string
	if len(m.records) == 0 {
		body = "\n" + lipgloss.NewStyle().Foreground(muted).Render("No records yet. Run `hoshu seed` or press r to reload.")
		body = fitLines(body, m.bodyLines()+1)
	} else {
		body = m.renderColumnHeader(snap, accent) + "\n" + m.renderBody(snap, muted)
	}

	statusLine := statusStyle.Render(m.cursorSummary(snap))
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		statusLine += statusStyle.Render("  " + m.status)
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := strings.Join([]string{
		ansi.Truncate(header, max(1, m.width), "…"),
		body,
		ansi.Truncate(statusLine, max(1, m.width), "…"),
	}, "\n")
	fullContent := content + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	case m.mode == modeDetail:
		overlay = m.renderDetailOverlay(dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// newView wraps content in an alt-screen view with mouse reporting.
func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderColumnHeader renders the visible column labels.
func (m Model) renderColumnHeader(snap grid.State, accent color.Color) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	cur, _ := snap.Cursor()
	var b strings.Builder
	for _, idx := range m.visibleColumns(snap) {
		col := m.columns[idx]
		text := padCell(col.Label, m.columnWidth(snap, col))
		if col.ID == cur.ColumnID {
			b.WriteString(activeStyle.Render(text))
			continue
		}
		b.WriteString(headerStyle.Render(text))
	}
	return b.String()
}

// renderBody renders the visible window of rows.
func (m Model) renderBody(snap grid.State, muted color.Color) string {
	height := m.bodyLines()
	if m.window.Empty {
		return fitLines("", height)
	}
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	rangeStyle := lipgloss.NewStyle().Background(lipgloss.Color("237"))
	rollupStyle := lipgloss.NewStyle().Foreground(muted)

	cur, _ := snap.Cursor()
	top, left, bottom, right := -1, -1, -2, -2
	if sel, ok := snap.Selection(); ok {
		if t, l, b, r, ok := grid.RangeBounds(sel, m.rowIDs, m.colIDs); ok {
			top, left, bottom, right = t, l, b, r
		}
	}
	columns := m.visibleColumns(snap)

	lines := make([]string, 0, height)
	for row := m.window.VisibleStart; row <= m.window.VisibleEnd && len(lines) < height; row++ {
		rec := m.records[row]
		n := m.rowLines(snap, rec.ID)
		rowLines := make([]strings.Builder, n)
		for _, idx := range columns {
			col := m.columns[idx]
			width := m.columnWidth(snap, col)
			ref := grid.CellRef{RowID: rec.ID, ColumnID: col.ID}
			var cells []string
			if snap.Editing != nil && snap.Editing.Cell == ref && m.mode == modeEdit {
				cells = wrapCell(m.input.View(), width, n, false)
			} else {
				cells = wrapCell(m.cellDisplay(rec, col), width, n, n > 1)
			}
			style := lipgloss.NewStyle()
			switch {
			case ref == cur:
				style = cursorStyle
			case row >= top && row <= bottom && idx >= left && idx <= right:
				style = rangeStyle
			case rec.HasChildren && col.Accessor.Kind == domain.AccessorPeriod:
				style = rollupStyle
			}
			for i, text := range cells {
				rowLines[i].WriteString(style.Render(text))
			}
		}
		for i := range rowLines {
			lines = append(lines, rowLines[i].String())
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return fitLines(strings.Join(lines, "\n"), height)
}

// cellDisplay returns the rendered text of one cell; names are indented by depth.
func (m Model) cellDisplay(rec domain.Record, col domain.Column) string {
	text := grid.Get(rec, col).Display()
	if col.Accessor.Kind == domain.AccessorScalar && col.Accessor.Field == domain.FieldName {
		marker := "  "
		if rec.HasChildren {
			marker = "▾ "
		}
		return strings.Repeat("  ", rec.Depth) + marker + text
	}
	return text
}

// cursorSummary describes the cursor cell or the selected range.
func (m Model) cursorSummary(snap grid.State) string {
	sel, ok := snap.Selection()
	if !ok {
		return ""
	}
	top, left, bottom, right, ok := grid.RangeBounds(sel, m.rowIDs, m.colIDs)
	if !ok {
		return ""
	}
	if top == bottom && left == right {
		rec, col := m.records[top], m.columns[left]
		return fmt.Sprintf("%s · %s = %s", rec.Name, col.Label, grid.Get(rec, col).Display())
	}
	return fmt.Sprintf("%d×%d selected", bottom-top+1, right-left+1)
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("hoshu help")
	notes := []string{
		"status cells: " + grid.SymbolPlan + " planned  " + grid.SymbolActual + " done  " + grid.SymbolBoth + " planned and done",
		`cost cells edit as {"planCost":120,"actualCost":0}`,
		"group rows show period rollups and are read-only there",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(notes, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderDetailOverlay renders the cursor record as markdown.
func (m Model) renderDetailOverlay(dim color.Color, maxWidth int) string {
	rec, ok := m.cursorRecord()
	if !ok {
		return ""
	}
	width := clamp(maxWidth, 40, 96)
	body := m.markdown.render(recordMarkdown(rec, m.columns), width-4)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(body + "\n\n" + lipgloss.NewStyle().Foreground(dim).Render("esc close"))
}

// summarizeIssues renders the first issue and a count of the rest.
func summarizeIssues(issues []grid.Issue) string {
	switch len(issues) {
	case 0:
		return ""
	case 1:
		return issues[0].String()
	default:
		return fmt.Sprintf("%s (+%d more)", issues[0].String(), len(issues)-1)
	}
}

// wrapCell renders text into exactly lines rows of width cells.
func wrapCell(text string, width, lines int, wrap bool) []string {
	out := make([]string, lines)
	parts := []string{text}
	if wrap {
		parts = grid.WrapText(text, max(1, width-grid.CellPadding))
	}
	for i := range out {
		line := ""
		if i < len(parts) {
			line = parts[i]
		}
		out[i] = padCell(line, width)
	}
	return out
}

// padCell truncates and pads text to width cells with one leading space.
func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	inner := width - 1
	text = ansi.Truncate(text, max(0, width-grid.CellPadding), "…")
	return " " + text + strings.Repeat(" ", max(0, inner-ansi.StringWidth(text)))
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// containsInt reports whether values holds v.
func containsInt(values []int, v int) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}
