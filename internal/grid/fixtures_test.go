package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/hoshu/internal/domain"
)

// mustColumn builds a column or fails the test.
func mustColumn(t *testing.T, in domain.ColumnInput) domain.Column {
	t.Helper()
	col, err := domain.NewColumn(in)
	if err != nil {
		t.Fatalf("NewColumn(%q) error = %v", in.ID, err)
	}
	return col
}

// sampleColumns returns one column per accessor kind and value type.
func sampleColumns(t *testing.T) []domain.Column {
	t.Helper()
	return []domain.Column{
		mustColumn(t, domain.ColumnInput{ID: "name", Label: "Name", Type: domain.ValueText, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldName)}),
		mustColumn(t, domain.ColumnInput{ID: "code", Label: "Code", Type: domain.ValueText, Editable: false, Accessor: domain.ScalarAccessor(domain.FieldCode)}),
		mustColumn(t, domain.ColumnInput{ID: "cycle", Label: "Cycle", Type: domain.ValueNumber, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldCycle)}),
		mustColumn(t, domain.ColumnInput{ID: "installed", Label: "Installed", Type: domain.ValueDate, Editable: true, Accessor: domain.ScalarAccessor(domain.FieldInstalled)}),
		mustColumn(t, domain.ColumnInput{ID: domain.SpecColumnID("power"), Label: "power", Type: domain.ValueText, Editable: true, Accessor: domain.SpecAccessor("power")}),
		mustColumn(t, domain.ColumnInput{ID: domain.PeriodColumnID("2026", domain.ValueStatus), Label: "2026", Type: domain.ValueStatus, Editable: true, Accessor: domain.PeriodAccessor("2026")}),
		mustColumn(t, domain.ColumnInput{ID: domain.PeriodColumnID("2026", domain.ValueCost), Label: "2026 cost", Type: domain.ValueCost, Editable: true, Accessor: domain.PeriodAccessor("2026")}),
		mustColumn(t, domain.ColumnInput{ID: "note", Label: "Note", Type: domain.ValueText, Editable: true}),
	}
}

// sampleRecords returns a small hierarchy in tree order.
func sampleRecords(t *testing.T) []domain.Record {
	t.Helper()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	inputs := []domain.RecordInput{
		{ID: "plant", Name: "Plant", Code: "PL"},
		{ID: "pump", ParentID: "plant", Name: "Pump", Code: "P-1", Cycle: 2, Installed: "2019-04-01",
			Specs:   []domain.Spec{{Key: "power", Value: "5kW"}},
			Results: map[string]domain.PeriodResult{"2026": {Planned: true, Actual: true, PlanCost: 120, ActualCost: 110}}},
		{ID: "fan", ParentID: "plant", Position: 1, Name: "Fan", Code: "F-1", Cycle: 1,
			Results: map[string]domain.PeriodResult{"2026": {Planned: true, PlanCost: 40}}},
		{ID: "valve", Name: "Valve", Position: 1, Code: "V-1",
			Results: map[string]domain.PeriodResult{"2026": {Actual: true, ActualCost: 15}}},
	}
	records := make([]domain.Record, 0, len(inputs))
	for _, in := range inputs {
		rec, err := domain.NewRecord(in, now)
		if err != nil {
			t.Fatalf("NewRecord(%q) error = %v", in.ID, err)
		}
		records = append(records, rec)
	}
	return domain.BuildHierarchy(records)
}

// textGrid returns an n x n grid of Extra-backed text columns.
func textGrid(t *testing.T, n int) ([]domain.Record, []domain.Column) {
	t.Helper()
	columns := make([]domain.Column, 0, n)
	for c := 0; c < n; c++ {
		id := string(rune('a' + c))
		columns = append(columns, mustColumn(t, domain.ColumnInput{ID: id, Type: domain.ValueText, Editable: true}))
	}
	records := make([]domain.Record, 0, n)
	for r := 0; r < n; r++ {
		rec := domain.Record{ID: string(rune('0' + r)), Name: "row", Extra: map[string]string{}}
		for c := 0; c < n; c++ {
			rec.Extra[columns[c].ID] = string(rune('A' + r*n + c))
		}
		records = append(records, rec)
	}
	return records, columns
}

// memoryPort is an in-memory ClipboardPort with injectable failures.
type memoryPort struct {
	text     string
	readErr  error
	writeErr error
	writes   int
}

// Read returns the stored text or the configured error.
func (p *memoryPort) Read(context.Context) (string, error) {
	if p.readErr != nil {
		return "", p.readErr
	}
	return p.text, nil
}

// Write stores text or returns the configured error.
func (p *memoryPort) Write(_ context.Context, text string) error {
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes++
	p.text = text
	return nil
}

var errPortDenied = errors.New("permission denied")
