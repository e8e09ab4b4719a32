package domain

import (
	"strings"
)

// ValueType tags the value kind a column holds.
type ValueType string

// ValueType values.
const (
	ValueText   ValueType = "text"
	ValueNumber ValueType = "number"
	ValueDate   ValueType = "date"
	ValueStatus ValueType = "status"
	ValueCost   ValueType = "cost"
)

// AccessorKind selects how a column reads and writes a record.
type AccessorKind int

// AccessorKind values. AccessorUnknown falls back to the record's Extra bag.
const (
	AccessorUnknown AccessorKind = iota
	AccessorScalar
	AccessorSpecification
	AccessorPeriod
)

// ScalarField names a literal record field.
type ScalarField string

// ScalarField values.
const (
	FieldName      ScalarField = "name"
	FieldCode      ScalarField = "code"
	FieldCycle     ScalarField = "cycle"
	FieldInstalled ScalarField = "installed"
)

// ColumnAccessor is the tagged variant resolved once when a column is built.
type ColumnAccessor struct {
	Kind  AccessorKind
	Field ScalarField
	Key   string
}

// Column width defaults in terminal cells.
const (
	DefaultColumnWidth    = 12
	DefaultMinColumnWidth = 4
	DefaultMaxColumnWidth = 60
)

// Column describes one grid column.
type Column struct {
	ID       string
	Label    string
	Width    int
	MinWidth int
	MaxWidth int
	Editable bool
	Type     ValueType
	Accessor ColumnAccessor
}

// ColumnInput holds values for NewColumn.
type ColumnInput struct {
	ID       string
	Label    string
	Width    int
	MinWidth int
	MaxWidth int
	Editable bool
	Type     ValueType
	Accessor ColumnAccessor
}

// NewColumn validates input and constructs a column with clamped widths.
func NewColumn(in ColumnInput) (Column, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Label = strings.TrimSpace(in.Label)
	if in.ID == "" {
		return Column{}, ErrInvalidColumnID
	}
	if in.Label == "" {
		in.Label = in.ID
	}
	switch in.Type {
	case ValueText, ValueNumber, ValueDate, ValueStatus, ValueCost:
	case "":
		in.Type = ValueText
	default:
		return Column{}, ErrInvalidColumnType
	}
	if in.MinWidth <= 0 {
		in.MinWidth = DefaultMinColumnWidth
	}
	if in.MaxWidth <= 0 {
		in.MaxWidth = DefaultMaxColumnWidth
	}
	if in.MaxWidth < in.MinWidth {
		return Column{}, ErrInvalidWidth
	}
	if in.Width <= 0 {
		in.Width = DefaultColumnWidth
	}
	in.Width = max(in.MinWidth, min(in.Width, in.MaxWidth))

	return Column{
		ID:       in.ID,
		Label:    in.Label,
		Width:    in.Width,
		MinWidth: in.MinWidth,
		MaxWidth: in.MaxWidth,
		Editable: in.Editable,
		Type:     in.Type,
		Accessor: in.Accessor,
	}, nil
}

// ScalarAccessor builds the accessor for a literal record field.
func ScalarAccessor(field ScalarField) ColumnAccessor {
	return ColumnAccessor{Kind: AccessorScalar, Field: field}
}

// SpecAccessor builds the accessor for a specification key.
func SpecAccessor(key string) ColumnAccessor {
	return ColumnAccessor{Kind: AccessorSpecification, Key: key}
}

// PeriodAccessor builds the accessor for a period bucket.
func PeriodAccessor(period string) ColumnAccessor {
	return ColumnAccessor{Kind: AccessorPeriod, Key: period}
}

// SpecColumnID returns the stable column id for a specification key.
func SpecColumnID(key string) string {
	return "spec:" + key
}

// PeriodColumnID returns the stable column id for a period and value type.
func PeriodColumnID(period string, valueType ValueType) string {
	return "period:" + period + ":" + string(valueType)
}

// ColumnIndex returns the position of id in columns or -1.
func ColumnIndex(columns []Column, id string) int {
	for idx, col := range columns {
		if col.ID == id {
			return idx
		}
	}
	return -1
}

// RecordIndex returns the position of id in records or -1.
func RecordIndex(records []Record, id string) int {
	for idx, rec := range records {
		if rec.ID == id {
			return idx
		}
	}
	return -1
}
