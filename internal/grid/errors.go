package grid

import (
	"errors"
	"fmt"
)

// ErrClipboardUnavailable and related errors describe grid engine failures.
var (
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
	ErrInvalidNumber        = errors.New("invalid number")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidCostValue     = errors.New("invalid cost value")
	ErrNothingToPaste       = errors.New("nothing to paste")
	ErrNoSelection          = errors.New("no selection")
)

// IssueKind classifies one validation finding.
type IssueKind string

// IssueKind values.
const (
	IssueOutOfBounds        IssueKind = "out_of_bounds"
	IssueTypeMismatch       IssueKind = "type_mismatch"
	IssueReadOnly           IssueKind = "read_only"
	IssueNotEditable        IssueKind = "not_editable"
	IssueUnresolvableAnchor IssueKind = "unresolvable_anchor"
)

// Issue is one validation error or warning. Row and Col are buffer offsets;
// RowID and ColumnID name the target cell when it resolves.
type Issue struct {
	Kind     IssueKind
	Row      int
	Col      int
	RowID    string
	ColumnID string
	Message  string
}

// String renders the issue for status lines and logs.
func (i Issue) String() string {
	if i.RowID == "" && i.ColumnID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s at %s/%s: %s", i.Kind, i.RowID, i.ColumnID, i.Message)
}

// ValidationResult aggregates paste validation findings.
type ValidationResult struct {
	IsValid  bool
	Errors   []Issue
	Warnings []Issue
}

// Outcome names the user-visible paste result.
type Outcome string

// Outcome values.
const (
	OutcomeSuccess   Outcome = "success"
	OutcomeQualified Outcome = "qualified"
	OutcomeBlocked   Outcome = "blocked"
)

// Outcome reports success, qualified success, or blocked.
func (r ValidationResult) Outcome() Outcome {
	switch {
	case !r.IsValid || len(r.Errors) > 0:
		return OutcomeBlocked
	case len(r.Warnings) > 0:
		return OutcomeQualified
	default:
		return OutcomeSuccess
	}
}
