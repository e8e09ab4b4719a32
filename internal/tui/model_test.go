package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
)

type cellUpdate struct {
	cell grid.CellRef
	raw  string
}

type fakeService struct {
	records  []domain.Record
	columns  []domain.Column
	readOnly bool
	err      error
	updates  []cellUpdate
	saves    int
}

func newFakeService(records []domain.Record, columns []domain.Column) *fakeService {
	return &fakeService{records: records, columns: columns}
}

func (f *fakeService) LoadGrid(context.Context) (app.GridData, error) {
	if f.err != nil {
		return app.GridData{}, f.err
	}
	return app.GridData{
		Records: domain.BuildHierarchy(f.records),
		Columns: append([]domain.Column(nil), f.columns...),
	}, nil
}

func (f *fakeService) ReadOnly() bool {
	return f.readOnly
}

func (f *fakeService) UpdateCell(ctx context.Context, ref grid.CellRef, raw string) (domain.Record, error) {
	if f.readOnly {
		return domain.Record{}, app.ErrReadOnly
	}
	data, err := f.LoadGrid(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	r := domain.RecordIndex(data.Records, ref.RowID)
	c := domain.ColumnIndex(data.Columns, ref.ColumnID)
	if r < 0 || c < 0 {
		return domain.Record{}, app.ErrNotFound
	}
	value, err := grid.ParseForColumn(data.Columns[c], raw)
	if err != nil {
		return domain.Record{}, err
	}
	updated, err := grid.Set(data.Records[r], data.Columns[c], value)
	if err != nil {
		return domain.Record{}, err
	}
	f.updates = append(f.updates, cellUpdate{cell: ref, raw: raw})
	f.replace(updated)
	return updated, nil
}

func (f *fakeService) SaveRecords(_ context.Context, before, after []domain.Record, _ domain.ChangeOperation) (int, error) {
	if f.readOnly {
		return 0, app.ErrReadOnly
	}
	prev := make(map[string]domain.Record, len(before))
	for _, rec := range before {
		prev[rec.ID] = rec
	}
	saved := 0
	for _, rec := range after {
		if old, ok := prev[rec.ID]; ok && reflect.DeepEqual(old, rec) {
			continue
		}
		f.replace(rec)
		saved++
	}
	f.saves += saved
	return saved, nil
}

func (f *fakeService) replace(rec domain.Record) {
	for idx := range f.records {
		if f.records[idx].ID == rec.ID {
			f.records[idx] = rec.Clone()
			return
		}
	}
}

type memoryPort struct {
	mu   sync.Mutex
	text string
	err  error
}

func (p *memoryPort) Read(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, p.err
}

func (p *memoryPort) Write(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.text = text
	return nil
}

var (
	statusCol2026 = domain.PeriodColumnID("2026", domain.ValueStatus)
	costCol2026   = domain.PeriodColumnID("2026", domain.ValueCost)
)

func mustColumn(t *testing.T, in domain.ColumnInput) domain.Column {
	t.Helper()
	col, err := domain.NewColumn(in)
	if err != nil {
		t.Fatalf("NewColumn(%q) error = %v", in.ID, err)
	}
	return col
}

func sampleColumns(t *testing.T) []domain.Column {
	t.Helper()
	return []domain.Column{
		mustColumn(t, domain.ColumnInput{ID: "name", Label: "Name", Width: 20, Type: domain.ValueText, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldName)}),
		mustColumn(t, domain.ColumnInput{ID: "code", Label: "Code", Width: 8, Type: domain.ValueText, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldCode)}),
		mustColumn(t, domain.ColumnInput{ID: "cycle", Label: "Cycle", Width: 7, Type: domain.ValueNumber, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldCycle)}),
		mustColumn(t, domain.ColumnInput{ID: "installed", Label: "Installed", Width: 12, Type: domain.ValueDate, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldInstalled)}),
		mustColumn(t, domain.ColumnInput{ID: domain.SpecColumnID("power"), Label: "power", Width: 10, Type: domain.ValueText, Editable: true, Accessor: domain.SpecAccessor("power")}),
		mustColumn(t, domain.ColumnInput{ID: statusCol2026, Label: "2026", Width: 6, Type: domain.ValueStatus, Editable: true, Accessor: domain.PeriodAccessor("2026")}),
		mustColumn(t, domain.ColumnInput{ID: costCol2026, Label: "2026 cost", Width: 14, Type: domain.ValueCost, Editable: true, Accessor: domain.PeriodAccessor("2026")}),
	}
}

func sampleRecords(t *testing.T) []domain.Record {
	t.Helper()
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	inputs := []domain.RecordInput{
		{ID: "plant", Name: "Main Plant", Code: "PL-01"},
		{ID: "pumpA", ParentID: "plant", Name: "Pump A", Code: "P-101", Cycle: 2, Installed: "2016-04-01",
			Specs:   []domain.Spec{{Key: "power", Value: "15kW"}},
			Results: map[string]domain.PeriodResult{"2026": {Planned: true, PlanCost: 180}}},
		{ID: "pumpB", ParentID: "plant", Position: 1, Name: "Pump B", Code: "P-102", Cycle: 2, Installed: "2016-04-01",
			Specs: []domain.Spec{{Key: "power", Value: "15kW"}}},
		{ID: "office", Position: 1, Name: "Office Building", Code: "OB-01"},
	}
	records := make([]domain.Record, 0, len(inputs))
	for _, in := range inputs {
		rec, err := domain.NewRecord(in, now)
		if err != nil {
			t.Fatalf("NewRecord(%q) error = %v", in.ID, err)
		}
		records = append(records, rec)
	}
	return records
}

func flatRecords(t *testing.T, n int) []domain.Record {
	t.Helper()
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	records := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		rec, err := domain.NewRecord(domain.RecordInput{
			ID:       fmt.Sprintf("r%02d", i),
			Position: i,
			Name:     fmt.Sprintf("Unit %02d", i),
		}, now)
		if err != nil {
			t.Fatalf("NewRecord() error = %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func cursorOf(t *testing.T, m Model) grid.CellRef {
	t.Helper()
	cur, ok := m.store.Snapshot().Cursor()
	if !ok {
		t.Fatal("expected a cursor cell")
	}
	return cur
}

func TestModelLoadAndNavigation(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	if len(m.records) != 4 || len(m.columns) != 7 {
		t.Fatalf("unexpected loaded model: %d records, %d columns", len(m.records), len(m.columns))
	}
	if got := m.rowIDs; !reflect.DeepEqual(got, []string{"plant", "pumpA", "pumpB", "office"}) {
		t.Fatalf("expected tree order, got %#v", got)
	}
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: "plant", ColumnID: "name"}) {
		t.Fatalf("expected cursor at first cell, got %#v", cur)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: "pumpA", ColumnID: "code"}) {
		t.Fatalf("expected pumpA/code, got %#v", cur)
	}
	m = applyMsg(t, m, keyRune('k'))
	m = applyMsg(t, m, keyRune('h'))
	m = applyMsg(t, m, keyRune('h'))
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: "plant", ColumnID: "name"}) {
		t.Fatalf("expected navigation to stay in bounds, got %#v", cur)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnd})
	if cur := cursorOf(t, m); cur.RowID != "office" {
		t.Fatalf("expected end to reach last row, got %#v", cur)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyPgUp})
	if cur := cursorOf(t, m); cur.RowID != "plant" {
		t.Fatalf("expected page up to clamp at first row, got %#v", cur)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if cur := cursorOf(t, m); cur.ColumnID != "code" {
		t.Fatalf("expected tab to move right, got %#v", cur)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if cur := cursorOf(t, m); cur.ColumnID != "name" {
		t.Fatalf("expected shift+tab to move left, got %#v", cur)
	}
}

func TestModelRendersHierarchy(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	out := m.viewContent()
	for _, want := range []string{"hoshu", "4 records", "▾ Main Plant", "Pump A", "P-101", "15kW", grid.SymbolPlan, "Installed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q\n%s", want, out)
		}
	}
	if !strings.Contains(m.cursorSummary(m.store.Snapshot()), "Main Plant · Name") {
		t.Fatalf("unexpected cursor summary %q", m.cursorSummary(m.store.Snapshot()))
	}
}

func TestModelExtendRangeAndCopy(t *testing.T) {
	port := &memoryPort{}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port)))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown, Mod: tea.ModShift})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight, Mod: tea.ModShift})
	sel, ok := m.store.Snapshot().Selection()
	if !ok || m.store.Snapshot().SelectedRange == nil {
		t.Fatal("expected a range selection")
	}
	want := grid.Range{
		Start: grid.CellRef{RowID: "pumpA", ColumnID: "name"},
		End:   grid.CellRef{RowID: "pumpB", ColumnID: "code"},
	}
	if sel != want {
		t.Fatalf("unexpected range %#v", sel)
	}
	if got := m.cursorSummary(m.store.Snapshot()); got != "2×2 selected" {
		t.Fatalf("unexpected range summary %q", got)
	}

	m = applyMsg(t, m, keyRune('y'))
	if port.text != "Pump A\tP-101\nPump B\tP-102" {
		t.Fatalf("unexpected clipboard text %q", port.text)
	}
	if m.status != "copied 2x2" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if snap := m.store.Snapshot(); snap.SelectedRange != nil || snap.SelectedCell == nil || *snap.SelectedCell != want.End {
		t.Fatalf("expected esc to collapse the range to its moving end, got %#v", snap)
	}
}

func TestModelCopyFailureReportsStatus(t *testing.T) {
	port := &memoryPort{err: errors.New("no display")}
	m := loadReadyModel(t, NewModel(newFakeService(sampleRecords(t), sampleColumns(t)), WithClipboard(port)))

	m = applyMsg(t, m, keyRune('y'))
	if !strings.Contains(m.status, "copy failed") || !strings.Contains(m.status, grid.ErrClipboardUnavailable.Error()) {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelPasteSavesAndReloads(t *testing.T) {
	port := &memoryPort{text: "P-201\nP-202\n"}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port)))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('p'))

	if m.status != "pasted 2 cells" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if svc.saves != 2 {
		t.Fatalf("expected 2 saved records, got %d", svc.saves)
	}
	if m.records[1].Code != "P-201" || m.records[2].Code != "P-202" {
		t.Fatalf("expected reloaded codes, got %q and %q", m.records[1].Code, m.records[2].Code)
	}
	sel, _ := m.store.Snapshot().Selection()
	if sel.Start != (grid.CellRef{RowID: "pumpA", ColumnID: "code"}) || sel.End != (grid.CellRef{RowID: "pumpB", ColumnID: "code"}) {
		t.Fatalf("expected pasted block to be selected, got %#v", sel)
	}
}

func TestModelPasteBlockedLeavesRecords(t *testing.T) {
	port := &memoryPort{text: "ok\t4\t2020-01-01\tbig\t" + grid.SymbolBoth + "\t180"}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port)))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('p'))

	if !strings.HasPrefix(m.status, "paste blocked") {
		t.Fatalf("expected blocked paste, got %q", m.status)
	}
	if svc.saves != 0 || m.records[1].Code != "P-101" {
		t.Fatalf("expected records untouched, saves=%d code=%q", svc.saves, m.records[1].Code)
	}
}

func TestModelPasteReadOnlyAndEmptyClipboard(t *testing.T) {
	port := &memoryPort{text: "x"}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	svc.readOnly = true
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port)))

	m = applyMsg(t, m, keyRune('p'))
	if !strings.Contains(m.status, string(grid.IssueReadOnly)) {
		t.Fatalf("expected read-only issue, got %q", m.status)
	}

	port.text = ""
	svc.readOnly = false
	m = loadReadyModel(t, NewModel(svc, WithClipboard(port)))
	m = applyMsg(t, m, keyRune('p'))
	if m.status != "clipboard is empty" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune('p'))
	if !strings.Contains(m.status, "paste failed") {
		t.Fatalf("expected missing clipboard failure, got %q", m.status)
	}
}

func TestModelInlineEditCommit(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeEdit {
		t.Fatalf("expected edit mode, got %v", m.mode)
	}
	if got := m.input.Value(); got != "2" {
		t.Fatalf("expected editor to start with current value, got %q", got)
	}
	snap := m.store.Snapshot()
	if snap.Editing == nil || snap.Editing.Cell != (grid.CellRef{RowID: "pumpA", ColumnID: "cycle"}) {
		t.Fatalf("expected edit cursor on pumpA/cycle, got %#v", snap.Editing)
	}

	m.input.SetValue("4")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeNone {
		t.Fatalf("expected edit mode to close, got %v", m.mode)
	}
	if len(svc.updates) != 1 || svc.updates[0].raw != "4" {
		t.Fatalf("unexpected updates %#v", svc.updates)
	}
	if m.records[1].Cycle != 4 {
		t.Fatalf("expected reloaded cycle 4, got %v", m.records[1].Cycle)
	}
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: "pumpB", ColumnID: "cycle"}) {
		t.Fatalf("expected enter to move down after commit, got %#v", cur)
	}
	if !strings.HasPrefix(m.status, "saved Pump A") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelInlineEditCancelRestores(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	updated, _ := m.Update(keyRune('9'))
	m = updated.(Model)
	if got := m.input.Value(); got != "Pump A9" {
		t.Fatalf("expected typed text in editor, got %q", got)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.status != "edit canceled" {
		t.Fatalf("expected canceled edit, mode=%v status=%q", m.mode, m.status)
	}
	if got := m.input.Value(); got != "Pump A" {
		t.Fatalf("expected editor to restore original value, got %q", got)
	}
	if len(svc.updates) != 0 || m.store.Snapshot().Editing != nil {
		t.Fatal("expected no persisted update and no edit cursor")
	}
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: "pumpA", ColumnID: "name"}) {
		t.Fatalf("expected cursor to stay on edited cell, got %#v", cur)
	}
}

func TestModelInlineEditRejections(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	m.store.SetSelectedCell(&grid.CellRef{RowID: "plant", ColumnID: statusCol2026})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeNone || !strings.Contains(m.status, "not editable") {
		t.Fatalf("expected rollup cell to reject editing, mode=%v status=%q", m.mode, m.status)
	}

	m.store.SetSelectedCell(&grid.CellRef{RowID: "pumpA", ColumnID: costCol2026})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m.input.SetValue("250")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(m.status, "edit failed") || !strings.Contains(m.status, grid.ErrInvalidCostValue.Error()) {
		t.Fatalf("expected bare cost to fail, got %q", m.status)
	}

	svc.readOnly = true
	m = loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeNone || m.status != "grid is read-only" {
		t.Fatalf("expected read-only rejection, mode=%v status=%q", m.mode, m.status)
	}
	if !strings.Contains(m.viewContent(), "[read-only]") {
		t.Fatal("expected read-only marker in header")
	}
}

func TestModelAutoSizeAndResize(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	nameCol := m.columns[0]
	m = applyMsg(t, m, keyRune('='))
	want := grid.ColumnContentWidth(nameCol, m.records)
	if got := m.store.ColumnWidth("name", 0); got != want {
		t.Fatalf("expected auto width %d, got %d", want, got)
	}
	m = applyMsg(t, m, keyRune('>'))
	if got := m.store.ColumnWidth("name", 0); got != want+resizeStep {
		t.Fatalf("expected widened column %d, got %d", want+resizeStep, got)
	}
	m = applyMsg(t, m, keyRune('<'))
	m = applyMsg(t, m, keyRune('<'))
	if got := m.store.ColumnWidth("name", 0); got != want-resizeStep {
		t.Fatalf("expected narrowed column %d, got %d", want-resizeStep, got)
	}

	m = applyMsg(t, m, keyRune('}'))
	if got := m.store.RowHeight("plant"); got != 2*grid.LineHeight {
		t.Fatalf("expected taller row, got %d", got)
	}
	if got := m.rowLines(m.store.Snapshot(), "plant"); got != 2 {
		t.Fatalf("expected two rendered lines, got %d", got)
	}
	m = applyMsg(t, m, keyRune('+'))
	if got := m.store.RowHeight("plant"); got != grid.LineHeight {
		t.Fatalf("expected row to fit its single line, got %d", got)
	}
	m = applyMsg(t, m, keyRune('{'))
	if got := m.store.RowHeight("plant"); got != grid.MinRowHeight {
		t.Fatalf("expected row height to stay at the floor, got %d", got)
	}
}

func TestModelHorizontalScrollKeepsCursorVisible(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})

	if got := m.visibleColumns(m.store.Snapshot()); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("unexpected initial visible columns %#v", got)
	}
	for i := 0; i < 4; i++ {
		m = applyMsg(t, m, keyRune('l'))
	}
	visible := m.visibleColumns(m.store.Snapshot())
	if !containsInt(visible, 4) || visible[0] != 0 {
		t.Fatalf("expected frozen name column and power column visible, got %#v", visible)
	}
	if m.colOffset != 4 {
		t.Fatalf("expected column offset 4, got %d", m.colOffset)
	}
}

func TestModelMouseWheelCoalescesAndClickSelects(t *testing.T) {
	svc := newFakeService(flatRecords(t, 40), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	updated, first := m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	m = updated.(Model)
	if first == nil {
		t.Fatal("expected first wheel event to schedule a frame flush")
	}
	for i := 0; i < 2; i++ {
		var cmd tea.Cmd
		updated, cmd = m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
		m = updated.(Model)
		if cmd != nil {
			t.Fatal("expected follow-up wheel events to coalesce")
		}
	}
	if m.scrollTop != 0 {
		t.Fatalf("expected scroll to wait for the frame, got %d", m.scrollTop)
	}

	m = applyMsg(t, m, first())
	maxTop := 40*grid.LineHeight - m.containerHeight()
	if m.scrollTop != maxTop {
		t.Fatalf("expected final clamped offset %d, got %d", maxTop, m.scrollTop)
	}
	if m.window.VisibleStart != maxTop/grid.LineHeight {
		t.Fatalf("unexpected window %#v", m.window)
	}

	start := m.window.VisibleStart
	m = applyMsg(t, m, tea.MouseClickMsg{X: 1, Y: gridTop, Button: tea.MouseLeft})
	if cur := cursorOf(t, m); cur != (grid.CellRef{RowID: m.rowIDs[start], ColumnID: "name"}) {
		t.Fatalf("expected click to select first visible row, got %#v", cur)
	}
	m = applyMsg(t, m, tea.MouseClickMsg{X: 21, Y: gridTop + 2, Button: tea.MouseLeft, Mod: tea.ModShift})
	sel, _ := m.store.Snapshot().Selection()
	if sel.End != (grid.CellRef{RowID: m.rowIDs[start+2], ColumnID: "code"}) {
		t.Fatalf("expected shift-click to extend the range, got %#v", sel)
	}
}

func TestModelKeyMoveAfterWheelKeepsCursorVisible(t *testing.T) {
	svc := newFakeService(flatRecords(t, 40), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	updated, flush := m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	m = updated.(Model)
	if flush == nil {
		t.Fatal("expected wheel event to schedule a frame flush")
	}
	m = applyMsg(t, m, keyRune('G'))
	afterKey := m.scrollTop
	last := len(m.rowIDs) - 1
	if cur := cursorOf(t, m); cur.RowID != m.rowIDs[last] {
		t.Fatalf("expected cursor on last row, got %#v", cur)
	}

	m = applyMsg(t, m, flush())
	if m.scrollTop != afterKey {
		t.Fatalf("expected stale wheel frame to keep offset %d, got %d", afterKey, m.scrollTop)
	}
	if last < m.window.VisibleStart || last > m.window.VisibleEnd {
		t.Fatalf("cursor row %d outside window %d..%d", last, m.window.VisibleStart, m.window.VisibleEnd)
	}
}

func TestModelDetailAndHelpOverlays(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('i'))
	if m.mode != modeDetail {
		t.Fatalf("expected detail mode, got %v", m.mode)
	}
	if !strings.Contains(m.viewContent(), "esc close") {
		t.Fatal("expected detail overlay in view")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected detail overlay to close, got %v", m.mode)
	}

	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll || !strings.Contains(m.viewContent(), "hoshu help") {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, keyRune('j'))
	if cur := cursorOf(t, m); cur.RowID != "pumpA" {
		t.Fatalf("expected navigation to pause under help, got %#v", cur)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
}

func TestRecordMarkdownListsSpecsAndPeriods(t *testing.T) {
	records := domain.BuildHierarchy(sampleRecords(t))
	md := recordMarkdown(records[1], sampleColumns(t))
	for _, want := range []string{"# Pump A", "**Code:** P-101", "| power | 15kW |", "| 2026 | " + grid.SymbolPlan + " | 180 | 0 |"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected markdown to contain %q\n%s", want, md)
		}
	}
	group := recordMarkdown(records[0], sampleColumns(t))
	if !strings.Contains(group, "roll up") || !strings.Contains(group, "| 2026 |") {
		t.Fatalf("expected group markdown with rollup periods\n%s", group)
	}
}

func TestModelErrorAndReload(t *testing.T) {
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	svc.err = errors.New("database locked")
	m := loadReadyModel(t, NewModel(svc))
	if m.err == nil || !strings.HasPrefix(m.viewContent(), "error: database locked") {
		t.Fatalf("expected error view, got %q", m.viewContent())
	}

	svc.err = nil
	m = applyMsg(t, m, keyRune('r'))
	if m.err != nil || len(m.records) != 4 {
		t.Fatalf("expected reload to recover, err=%v records=%d", m.err, len(m.records))
	}
}

func TestModelViewStates(t *testing.T) {
	m := NewModel(newFakeService(nil, nil))
	v := m.View()
	if v.MouseMode != tea.MouseModeCellMotion || !v.AltScreen {
		t.Fatal("expected loading view with mouse enabled")
	}
	if m.viewContent() != "loading..." {
		t.Fatalf("unexpected loading content %q", m.viewContent())
	}

	m = loadReadyModel(t, NewModel(newFakeService(nil, sampleColumns(t))))
	if !strings.Contains(m.viewContent(), "No records yet") {
		t.Fatal("expected empty grid hint")
	}
	if _, ok := m.store.Snapshot().Cursor(); ok {
		t.Fatal("expected no cursor on an empty grid")
	}
}

func TestModelQuitKey(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService(sampleRecords(t), sampleColumns(t))))
	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestWithOptions(t *testing.T) {
	m := NewModel(newFakeService(nil, nil),
		WithTitle("plant grid"),
		WithKeyConfig(KeyConfig{Copy: "c"}),
		WithGridConfig(GridConfig{Overscan: 2, DefaultRowHeight: 60, MinRowHeight: 30, MaxRowHeight: 90}),
	)
	if m.title != "plant grid" {
		t.Fatalf("unexpected title %q", m.title)
	}
	if got := m.keys.copy.Keys(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("unexpected copy keys %#v", got)
	}
	if m.gridCfg.Overscan != 2 || m.gridCfg.DefaultRowHeight != 60 || m.gridCfg.MaxRowHeight != 90 {
		t.Fatalf("unexpected grid config %#v", m.gridCfg)
	}
}

func TestCellHelpers(t *testing.T) {
	for _, tc := range []struct {
		text  string
		width int
	}{
		{text: "abcdef", width: 5},
		{text: "", width: 4},
		{text: "Pump A", width: 20},
		{text: "ポンプ", width: 6},
	} {
		if got := ansi.StringWidth(padCell(tc.text, tc.width)); got != tc.width {
			t.Fatalf("padCell(%q, %d) width = %d", tc.text, tc.width, got)
		}
	}
	lines := wrapCell("cooling water pump", 10, 3, true)
	if len(lines) != 3 || !strings.Contains(lines[0], "cooling") || !strings.Contains(lines[1], "water") {
		t.Fatalf("unexpected wrapped cell %#v", lines)
	}
	issues := []grid.Issue{{Kind: grid.IssueTypeMismatch, Message: "a"}, {Kind: grid.IssueOutOfBounds, Message: "b"}}
	if got := summarizeIssues(issues); !strings.HasSuffix(got, "(+1 more)") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
