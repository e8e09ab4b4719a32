// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrReadOnly reports a mutation against a read-only grid.
var ErrReadOnly = errors.New("grid is read-only")

// ErrPasteBlocked reports a paste rejected by validation.
var ErrPasteBlocked = errors.New("paste blocked")

// GridService is the surface both transports expose.
type GridService interface {
	ListRecords(ctx context.Context) (RecordSheet, error)
	ListColumns(ctx context.Context) ([]ColumnView, error)
	CopyRange(ctx context.Context, req CopyRangeRequest) (CopyRangeResult, error)
	PasteText(ctx context.Context, req PasteTextRequest) (PasteTextResult, error)
	ListChanges(ctx context.Context, limit int) ([]ChangeView, error)
}

// ActorTuple attributes a mutation to a caller.
type ActorTuple struct {
	ActorID   string `json:"actor_id,omitempty"`
	ActorType string `json:"actor_type,omitempty"`
}

// ColumnView describes one grid column.
type ColumnView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Editable bool   `json:"editable"`
}

// RecordRow is one record in tree order with display text per column.
type RecordRow struct {
	ID          string            `json:"id"`
	ParentID    string            `json:"parent_id,omitempty"`
	Depth       int               `json:"depth"`
	HasChildren bool              `json:"has_children"`
	Cells       map[string]string `json:"cells"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// RecordSheet is the full grid as seen by a transport caller.
type RecordSheet struct {
	StateHash string       `json:"state_hash"`
	ReadOnly  bool         `json:"read_only"`
	Columns   []ColumnView `json:"columns"`
	Rows      []RecordRow  `json:"rows"`
}

// CellAddress names one cell by row and column id.
type CellAddress struct {
	RowID    string `json:"row_id"`
	ColumnID string `json:"column_id"`
}

// CopyRangeRequest selects a rectangle between two corners.
type CopyRangeRequest struct {
	Start CellAddress `json:"start"`
	End   CellAddress `json:"end"`
}

// CopyRangeResult carries the interchange text of a copied range.
type CopyRangeResult struct {
	Text string `json:"text"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// PasteTextRequest pastes interchange text at an anchor cell.
type PasteTextRequest struct {
	Anchor CellAddress `json:"anchor"`
	Text   string      `json:"text"`
	DryRun bool        `json:"dry_run,omitempty"`
	Actor  ActorTuple  `json:"actor"`
}

// IssueView is one paste validation finding.
type IssueView struct {
	Kind     string `json:"kind"`
	RowID    string `json:"row_id,omitempty"`
	ColumnID string `json:"column_id,omitempty"`
	Message  string `json:"message"`
}

// PasteTextResult reports a paste attempt.
type PasteTextResult struct {
	Outcome  string      `json:"outcome"`
	Applied  int         `json:"applied"`
	Saved    int         `json:"saved"`
	DryRun   bool        `json:"dry_run"`
	Errors   []IssueView `json:"errors,omitempty"`
	Warnings []IssueView `json:"warnings,omitempty"`
}

// ChangeView is one change-log entry.
type ChangeView struct {
	ID         int64             `json:"id"`
	RecordID   string            `json:"record_id"`
	Operation  string            `json:"operation"`
	ActorID    string            `json:"actor_id"`
	ActorType  string            `json:"actor_type"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
