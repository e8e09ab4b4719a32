package app

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	ReadOnly       bool
	Periods        []string
	MinColumnWidth int
	MaxColumnWidth int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates the record repository with the grid engine.
type Service struct {
	repo           Repository
	idGen          IDGenerator
	clock          Clock
	readOnly       bool
	periods        []string
	minColumnWidth int
	maxColumnWidth int
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.MinColumnWidth <= 0 {
		cfg.MinColumnWidth = domain.DefaultMinColumnWidth
	}
	if cfg.MaxColumnWidth < cfg.MinColumnWidth {
		cfg.MaxColumnWidth = max(domain.DefaultMaxColumnWidth, cfg.MinColumnWidth)
	}
	periods := make([]string, 0, len(cfg.Periods))
	for _, period := range cfg.Periods {
		period = strings.TrimSpace(period)
		if period != "" && !slices.Contains(periods, period) {
			periods = append(periods, period)
		}
	}

	return &Service{
		repo:           repo,
		idGen:          idGen,
		clock:          clock,
		readOnly:       cfg.ReadOnly,
		periods:        periods,
		minColumnWidth: cfg.MinColumnWidth,
		maxColumnWidth: cfg.MaxColumnWidth,
	}
}

// ReadOnly reports whether the grid rejects mutations.
func (s *Service) ReadOnly() bool {
	return s.readOnly
}

// GridData is one loaded grid: records in tree order plus the column registry.
type GridData struct {
	Records []domain.Record
	Columns []domain.Column
}

// LoadGrid lists records in tree order and builds their columns.
func (s *Service) LoadGrid(ctx context.Context) (GridData, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return GridData{}, err
	}
	return GridData{Records: records, Columns: s.Columns(records)}, nil
}

// Records lists stored records in tree order with rollups.
func (s *Service) Records(ctx context.Context) ([]domain.Record, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildHierarchy(records), nil
}

// CreateRecordInput holds input values for create record operations.
type CreateRecordInput struct {
	ParentID  string
	Name      string
	Code      string
	Cycle     float64
	Installed string
	Specs     []domain.Spec
	Results   map[string]domain.PeriodResult
}

// CreateRecord creates a record appended after its siblings.
func (s *Service) CreateRecord(ctx context.Context, in CreateRecordInput) (domain.Record, error) {
	if s.readOnly {
		return domain.Record{}, ErrReadOnly
	}
	existing, err := s.repo.ListRecords(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	parentID := strings.TrimSpace(in.ParentID)
	position := 0
	parentFound := parentID == ""
	for _, rec := range existing {
		if rec.ID == parentID {
			parentFound = true
		}
		if rec.ParentID == parentID {
			position = max(position, rec.Position+1)
		}
	}
	if !parentFound {
		return domain.Record{}, ErrNotFound
	}

	rec, err := domain.NewRecord(domain.RecordInput{
		ID:        s.idGen(),
		ParentID:  parentID,
		Position:  position,
		Name:      in.Name,
		Code:      in.Code,
		Cycle:     in.Cycle,
		Installed: in.Installed,
		Specs:     in.Specs,
		Results:   in.Results,
	}, s.clock())
	if err != nil {
		return domain.Record{}, err
	}
	actor := actorFor(ctx)
	rec.CreatedByActor = actor.ActorID
	rec.Touch(actor.ActorID, actor.ActorType, s.clock())
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// UpdateCell parses raw for the column and persists the edited record.
func (s *Service) UpdateCell(ctx context.Context, ref grid.CellRef, raw string) (domain.Record, error) {
	if s.readOnly {
		return domain.Record{}, ErrReadOnly
	}
	data, err := s.LoadGrid(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	recIdx := domain.RecordIndex(data.Records, ref.RowID)
	if recIdx < 0 {
		return domain.Record{}, ErrNotFound
	}
	colIdx := domain.ColumnIndex(data.Columns, ref.ColumnID)
	if colIdx < 0 {
		return domain.Record{}, ErrUnknownColumn
	}
	rec, col := data.Records[recIdx], data.Columns[colIdx]
	if !grid.Editable(rec, col) {
		return domain.Record{}, ErrNotEditable
	}
	value, err := grid.ParseCell(col, raw)
	if err != nil {
		return domain.Record{}, err
	}
	updated, err := grid.Set(rec, col, value)
	if err != nil {
		return domain.Record{}, err
	}
	if recordsEqual(rec, updated) {
		return updated, nil
	}
	actor := actorFor(ctx)
	updated.Touch(actor.ActorID, actor.ActorType, s.clock())
	if err := s.repo.UpdateRecord(ctx, updated, domain.ChangeOperationEdit); err != nil {
		return domain.Record{}, err
	}
	return updated, nil
}

// SaveRecords persists every record in after that differs from before and
// returns how many were written.
func (s *Service) SaveRecords(ctx context.Context, before, after []domain.Record, op domain.ChangeOperation) (int, error) {
	if s.readOnly {
		return 0, ErrReadOnly
	}
	prev := make(map[string]domain.Record, len(before))
	for _, rec := range before {
		prev[rec.ID] = rec
	}
	actor := actorFor(ctx)
	now := s.clock()
	changed := make([]domain.Record, 0)
	for _, rec := range after {
		old, ok := prev[rec.ID]
		if ok && recordsEqual(old, rec) {
			continue
		}
		rec = rec.Clone()
		rec.Touch(actor.ActorID, actor.ActorType, now)
		changed = append(changed, rec)
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := s.repo.SaveRecords(ctx, changed, op); err != nil {
		return 0, err
	}
	return len(changed), nil
}

// DeleteRecord removes a record without children.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.ParentID == id {
			return ErrHasChildren
		}
	}
	return s.repo.DeleteRecord(ctx, id)
}

// ListChangeEvents lists recent record activity.
func (s *Service) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	return s.repo.ListChangeEvents(ctx, limit)
}

// CopyRange extracts sel from the stored grid and returns its interchange text.
func (s *Service) CopyRange(ctx context.Context, sel grid.Range) (string, error) {
	data, err := s.LoadGrid(ctx)
	if err != nil {
		return "", err
	}
	buf := grid.Extract(sel, data.Records, data.Columns, "grid")
	if buf == nil {
		return "", ErrInvalidRange
	}
	return grid.Serialize(buf), nil
}

// PasteInput describes a headless paste.
type PasteInput struct {
	Anchor grid.CellRef
	Text   string
	DryRun bool
}

// PasteOutcome reports a headless paste.
type PasteOutcome struct {
	Validation grid.ValidationResult
	Applied    int
	Saved      int
}

// PasteText validates text at the anchor and persists the applied cells. A
// blocked paste returns its validation with ErrPasteBlocked.
func (s *Service) PasteText(ctx context.Context, in PasteInput) (PasteOutcome, error) {
	data, err := s.LoadGrid(ctx)
	if err != nil {
		return PasteOutcome{}, err
	}
	res, err := grid.NewClipboard(nil).PasteText(in.Text, grid.PasteRequest{
		Anchor:   in.Anchor,
		Records:  data.Records,
		Columns:  data.Columns,
		ReadOnly: s.readOnly,
		Area:     "external",
		DryRun:   in.DryRun,
	})
	if err != nil {
		return PasteOutcome{}, err
	}
	out := PasteOutcome{Validation: res.Validation, Applied: res.Applied}
	if res.Outcome() == grid.OutcomeBlocked {
		return out, ErrPasteBlocked
	}
	if in.DryRun {
		return out, nil
	}
	saved, err := s.SaveRecords(ctx, data.Records, res.Records, domain.ChangeOperationPaste)
	if err != nil {
		return out, fmt.Errorf("save pasted records: %w", err)
	}
	out.Saved = saved
	return out, nil
}

// recordsEqual compares the persisted fields of two records.
func recordsEqual(a, b domain.Record) bool {
	if a.ID != b.ID || a.ParentID != b.ParentID || a.Position != b.Position ||
		a.Name != b.Name || a.Code != b.Code || a.Cycle != b.Cycle || a.Installed != b.Installed {
		return false
	}
	if !slices.Equal(a.Specs, b.Specs) {
		return false
	}
	if !equalResults(a.Results, b.Results) {
		return false
	}
	return equalExtra(a.Extra, b.Extra)
}

// equalResults compares result maps, treating nil as empty.
func equalResults(a, b map[string]domain.PeriodResult) bool {
	return len(a) == len(b) && maps.Equal(a, b)
}

// equalExtra compares extra maps, treating nil as empty.
func equalExtra(a, b map[string]string) bool {
	return len(a) == len(b) && maps.Equal(a, b)
}
