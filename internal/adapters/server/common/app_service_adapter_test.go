package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/hoshu/internal/adapters/storage/sqlite"
	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/domain"
)

// newSeededAdapter builds an adapter over a seeded in-memory repository.
func newSeededAdapter(t *testing.T, cfg app.ServiceConfig) *AppServiceAdapter {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	seq := 0
	idGen := func() string {
		seq++
		return fmt.Sprintf("r%02d", seq)
	}
	now := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC)
	svc := app.NewService(repo, idGen, func() time.Time { return now }, cfg)
	if _, err := svc.EnsureSeedRecords(context.Background()); err != nil {
		t.Fatalf("EnsureSeedRecords() error = %v", err)
	}
	return NewAppServiceAdapter(svc)
}

func TestListRecordsReturnsTreeOrderAndStableHash(t *testing.T) {
	adapter := newSeededAdapter(t, app.ServiceConfig{})
	ctx := context.Background()

	sheet, err := adapter.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(sheet.Rows) != 11 {
		t.Fatalf("expected 11 seeded rows, got %d", len(sheet.Rows))
	}
	first, third := sheet.Rows[0], sheet.Rows[2]
	if first.Cells["name"] != "Main Plant" || first.Depth != 0 || !first.HasChildren {
		t.Fatalf("unexpected first row %#v", first)
	}
	if third.Cells["code"] != "P-101" || third.Depth != 2 || third.ParentID != "r02" {
		t.Fatalf("unexpected third row %#v", third)
	}
	if sheet.StateHash == "" || sheet.ReadOnly {
		t.Fatalf("unexpected sheet header hash=%q read_only=%t", sheet.StateHash, sheet.ReadOnly)
	}

	again, err := adapter.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() second error = %v", err)
	}
	if again.StateHash != sheet.StateHash {
		t.Fatalf("expected stable hash, got %q then %q", sheet.StateHash, again.StateHash)
	}
}

func TestCopyRangeSerializesRectangle(t *testing.T) {
	adapter := newSeededAdapter(t, app.ServiceConfig{})
	got, err := adapter.CopyRange(context.Background(), CopyRangeRequest{
		Start: CellAddress{RowID: "r04", ColumnID: "code"},
		End:   CellAddress{RowID: "r03", ColumnID: "name"},
	})
	if err != nil {
		t.Fatalf("CopyRange() error = %v", err)
	}
	want := "Cooling Water Pump A\tP-101\nCooling Water Pump B\tP-102"
	if got.Text != want || got.Rows != 2 || got.Cols != 2 {
		t.Fatalf("unexpected copy result %#v", got)
	}

	single, err := adapter.CopyRange(context.Background(), CopyRangeRequest{
		Start: CellAddress{RowID: "r05", ColumnID: "code"},
	})
	if err != nil {
		t.Fatalf("CopyRange(single) error = %v", err)
	}
	if single.Text != "CT-01" {
		t.Fatalf("expected single-cell copy, got %q", single.Text)
	}

	if _, err := adapter.CopyRange(context.Background(), CopyRangeRequest{
		Start: CellAddress{RowID: "missing", ColumnID: "code"},
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown row, got %v", err)
	}
}

func TestPasteTextAttributesActorAndSaves(t *testing.T) {
	adapter := newSeededAdapter(t, app.ServiceConfig{})
	ctx := context.Background()

	dry, err := adapter.PasteText(ctx, PasteTextRequest{
		Anchor: CellAddress{RowID: "r03", ColumnID: "code"},
		Text:   "P-201\nP-202",
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("PasteText(dry) error = %v", err)
	}
	if dry.Outcome != "success" || dry.Applied != 2 || dry.Saved != 0 || !dry.DryRun {
		t.Fatalf("unexpected dry-run result %#v", dry)
	}

	res, err := adapter.PasteText(ctx, PasteTextRequest{
		Anchor: CellAddress{RowID: "r03", ColumnID: "code"},
		Text:   "P-201\nP-202",
		Actor:  ActorTuple{ActorID: "agent-7", ActorType: "agent"},
	})
	if err != nil {
		t.Fatalf("PasteText() error = %v", err)
	}
	if res.Saved != 2 {
		t.Fatalf("expected two saved records, got %#v", res)
	}

	changes, err := adapter.ListChanges(ctx, 2)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected two change rows, got %d", len(changes))
	}
	for _, change := range changes {
		if change.Operation != string(domain.ChangeOperationPaste) || change.ActorID != "agent-7" || change.ActorType != "agent" {
			t.Fatalf("unexpected change attribution %#v", change)
		}
	}
}

func TestPasteTextRejectsBadInput(t *testing.T) {
	adapter := newSeededAdapter(t, app.ServiceConfig{})
	ctx := context.Background()

	cases := map[string]PasteTextRequest{
		"missing anchor": {Text: "x"},
		"missing text":   {Anchor: CellAddress{RowID: "r03", ColumnID: "code"}},
		"bad actor type": {
			Anchor: CellAddress{RowID: "r03", ColumnID: "code"},
			Text:   "x",
			Actor:  ActorTuple{ActorID: "a", ActorType: "robot"},
		},
		"agent without id": {
			Anchor: CellAddress{RowID: "r03", ColumnID: "code"},
			Text:   "x",
			Actor:  ActorTuple{ActorType: "agent"},
		},
	}
	for name, req := range cases {
		if _, err := adapter.PasteText(ctx, req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
}

func TestPasteTextBlockedOnReadOnlyGrid(t *testing.T) {
	adapter := newSeededAdapter(t, app.ServiceConfig{ReadOnly: true})
	res, err := adapter.PasteText(context.Background(), PasteTextRequest{
		Anchor: CellAddress{RowID: "r03", ColumnID: "code"},
		Text:   "P-999",
	})
	if !errors.Is(err, ErrPasteBlocked) {
		t.Fatalf("expected ErrPasteBlocked, got %v", err)
	}
	if res.Outcome != "blocked" || len(res.Errors) == 0 || res.Errors[0].Kind != "read_only" {
		t.Fatalf("unexpected blocked result %#v", res)
	}
}
