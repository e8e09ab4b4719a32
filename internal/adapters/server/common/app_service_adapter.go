package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListRecords returns every record in tree order with a content hash.
func (a *AppServiceAdapter) ListRecords(ctx context.Context) (RecordSheet, error) {
	if a == nil || a.service == nil {
		return RecordSheet{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	data, err := a.service.LoadGrid(ctx)
	if err != nil {
		return RecordSheet{}, mapAppError("list records", err)
	}
	sheet := RecordSheet{
		ReadOnly: a.service.ReadOnly(),
		Columns:  toColumnViews(data.Columns),
		Rows:     make([]RecordRow, 0, len(data.Records)),
	}
	for _, rec := range data.Records {
		row := RecordRow{
			ID:          rec.ID,
			ParentID:    rec.ParentID,
			Depth:       rec.Depth,
			HasChildren: rec.HasChildren,
			Cells:       make(map[string]string, len(data.Columns)),
			UpdatedAt:   rec.UpdatedAt,
		}
		for _, col := range data.Columns {
			if text := grid.Get(rec, col).Display(); text != "" {
				row.Cells[col.ID] = text
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	hash, err := computeSheetHash(sheet)
	if err != nil {
		return RecordSheet{}, err
	}
	sheet.StateHash = hash
	return sheet, nil
}

// ListColumns returns the current column set.
func (a *AppServiceAdapter) ListColumns(ctx context.Context) ([]ColumnView, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	data, err := a.service.LoadGrid(ctx)
	if err != nil {
		return nil, mapAppError("list columns", err)
	}
	return toColumnViews(data.Columns), nil
}

// CopyRange serializes one rectangle of the grid.
func (a *AppServiceAdapter) CopyRange(ctx context.Context, in CopyRangeRequest) (CopyRangeResult, error) {
	if a == nil || a.service == nil {
		return CopyRangeResult{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	sel, err := normalizeRange(in)
	if err != nil {
		return CopyRangeResult{}, err
	}
	text, err := a.service.CopyRange(ctx, sel)
	if err != nil {
		return CopyRangeResult{}, mapAppError("copy range", err)
	}
	rows := grid.SplitInterchange(text)
	out := CopyRangeResult{Text: text, Rows: len(rows)}
	if len(rows) > 0 {
		out.Cols = len(rows[0])
	}
	return out, nil
}

// PasteText validates and applies interchange text at an anchor.
func (a *AppServiceAdapter) PasteText(ctx context.Context, in PasteTextRequest) (PasteTextResult, error) {
	if a == nil || a.service == nil {
		return PasteTextResult{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	anchor := grid.CellRef{
		RowID:    strings.TrimSpace(in.Anchor.RowID),
		ColumnID: strings.TrimSpace(in.Anchor.ColumnID),
	}
	if anchor.RowID == "" || anchor.ColumnID == "" {
		return PasteTextResult{}, fmt.Errorf("anchor row_id and column_id are required: %w", ErrInvalidRequest)
	}
	if in.Text == "" {
		return PasteTextResult{}, fmt.Errorf("text is required: %w", ErrInvalidRequest)
	}
	ctx, err := withActorContext(ctx, in.Actor)
	if err != nil {
		return PasteTextResult{}, err
	}
	outcome, err := a.service.PasteText(ctx, app.PasteInput{
		Anchor: anchor,
		Text:   in.Text,
		DryRun: in.DryRun,
	})
	result := PasteTextResult{
		Outcome:  string(outcome.Validation.Outcome()),
		Applied:  outcome.Applied,
		Saved:    outcome.Saved,
		DryRun:   in.DryRun,
		Errors:   toIssueViews(outcome.Validation.Errors),
		Warnings: toIssueViews(outcome.Validation.Warnings),
	}
	if err != nil {
		return result, mapAppError("paste text", err)
	}
	return result, nil
}

// ListChanges returns recent change-log entries, newest first.
func (a *AppServiceAdapter) ListChanges(ctx context.Context, limit int) ([]ChangeView, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", ErrInvalidRequest)
	}
	events, err := a.service.ListChangeEvents(ctx, limit)
	if err != nil {
		return nil, mapAppError("list changes", err)
	}
	out := make([]ChangeView, 0, len(events))
	for _, event := range events {
		out = append(out, ChangeView{
			ID:         event.ID,
			RecordID:   event.RecordID,
			Operation:  string(event.Operation),
			ActorID:    event.ActorID,
			ActorType:  string(event.ActorType),
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

// normalizeRange trims a copy request and defaults a missing end to the start.
func normalizeRange(in CopyRangeRequest) (grid.Range, error) {
	start := grid.CellRef{
		RowID:    strings.TrimSpace(in.Start.RowID),
		ColumnID: strings.TrimSpace(in.Start.ColumnID),
	}
	if start.RowID == "" || start.ColumnID == "" {
		return grid.Range{}, fmt.Errorf("start row_id and column_id are required: %w", ErrInvalidRequest)
	}
	end := grid.CellRef{
		RowID:    strings.TrimSpace(in.End.RowID),
		ColumnID: strings.TrimSpace(in.End.ColumnID),
	}
	if end.RowID == "" {
		end.RowID = start.RowID
	}
	if end.ColumnID == "" {
		end.ColumnID = start.ColumnID
	}
	return grid.Range{Start: start, End: end}, nil
}

// withActorContext validates the actor tuple and attaches it for attribution.
func withActorContext(ctx context.Context, actor ActorTuple) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	actorType := normalizeActorType(actor.ActorType)
	if !isValidActorType(actorType) {
		return nil, fmt.Errorf("actor_type %q is unsupported: %w", actor.ActorType, ErrInvalidRequest)
	}
	actorID := strings.TrimSpace(actor.ActorID)
	if actorID == "" && actorType != domain.ActorTypeUser {
		return nil, fmt.Errorf("actor_id is required for %s mutations: %w", actorType, ErrInvalidRequest)
	}
	if actorID == "" {
		return ctx, nil
	}
	return app.WithMutationActor(ctx, app.MutationActor{
		ActorID:   actorID,
		ActorType: actorType,
	}), nil
}

// normalizeActorType canonicalizes actor type values and defaults to user.
func normalizeActorType(actorType string) domain.ActorType {
	normalized := domain.ActorType(strings.TrimSpace(strings.ToLower(actorType)))
	if normalized == "" {
		return domain.ActorTypeUser
	}
	return normalized
}

// isValidActorType reports whether actor type values are supported.
func isValidActorType(actorType domain.ActorType) bool {
	switch actorType {
	case domain.ActorTypeUser, domain.ActorTypeAgent, domain.ActorTypeSystem:
		return true
	default:
		return false
	}
}

func toColumnViews(columns []domain.Column) []ColumnView {
	out := make([]ColumnView, 0, len(columns))
	for _, col := range columns {
		out = append(out, ColumnView{
			ID:       col.ID,
			Label:    col.Label,
			Type:     string(col.Type),
			Width:    col.Width,
			Editable: col.Editable,
		})
	}
	return out
}

func toIssueViews(issues []grid.Issue) []IssueView {
	if len(issues) == 0 {
		return nil
	}
	out := make([]IssueView, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueView{
			Kind:     string(issue.Kind),
			RowID:    issue.RowID,
			ColumnID: issue.ColumnID,
			Message:  issue.Message,
		})
	}
	return out
}

// computeSheetHash hashes the sheet content, ignoring timestamps.
func computeSheetHash(sheet RecordSheet) (string, error) {
	type hashedRow struct {
		ID       string            `json:"id"`
		ParentID string            `json:"parent_id"`
		Cells    map[string]string `json:"cells"`
	}
	rows := make([]hashedRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, hashedRow{ID: row.ID, ParentID: row.ParentID, Cells: row.Cells})
	}
	encoded, err := json.Marshal(struct {
		Columns []ColumnView `json:"columns"`
		Rows    []hashedRow  `json:"rows"`
	}{Columns: sheet.Columns, Rows: rows})
	if err != nil {
		return "", fmt.Errorf("encode sheet hash payload: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// mapAppError maps app errors onto transport sentinels.
func mapAppError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrReadOnly):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrReadOnly, err))
	case errors.Is(err, app.ErrPasteBlocked):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrPasteBlocked, err))
	case errors.Is(err, app.ErrInvalidRange), errors.Is(err, app.ErrUnknownColumn):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
