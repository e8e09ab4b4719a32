package grid

import (
	"strconv"
	"strings"

	"github.com/hylla/hoshu/internal/domain"
)

// Status symbols rendered in status period cells.
const (
	SymbolBoth   = "◎"
	SymbolPlan   = "○"
	SymbolActual = "●"
)

// Status is the planned/actual flag pair of one period bucket.
type Status struct {
	Planned bool `json:"planned"`
	Actual  bool `json:"actual"`
}

// Symbol returns the display symbol for the flag pair, or "" when neither is set.
func (s Status) Symbol() string {
	switch {
	case s.Planned && s.Actual:
		return SymbolBoth
	case s.Planned:
		return SymbolPlan
	case s.Actual:
		return SymbolActual
	default:
		return ""
	}
}

// ParseStatusSymbol maps a symbol back to flags. Anything unrecognized clears.
func ParseStatusSymbol(raw string) Status {
	switch strings.TrimSpace(raw) {
	case SymbolBoth:
		return Status{Planned: true, Actual: true}
	case SymbolPlan:
		return Status{Planned: true}
	case SymbolActual:
		return Status{Actual: true}
	default:
		return Status{}
	}
}

// Cost is the plan/actual cost pair of one period bucket.
type Cost struct {
	Plan   float64 `json:"planCost"`
	Actual float64 `json:"actualCost"`
}

// Value is a typed cell value. Only the field matching Kind is meaningful.
type Value struct {
	Kind   domain.ValueType
	Text   string
	Number float64
	Status Status
	Cost   Cost
}

// TextValue returns a text value.
func TextValue(s string) Value { return Value{Kind: domain.ValueText, Text: s} }

// NumberValue returns a number value.
func NumberValue(n float64) Value { return Value{Kind: domain.ValueNumber, Number: n} }

// DateValue returns a date value in canonical layout.
func DateValue(s string) Value { return Value{Kind: domain.ValueDate, Text: s} }

// StatusValue returns a status value.
func StatusValue(planned, actual bool) Value {
	return Value{Kind: domain.ValueStatus, Status: Status{Planned: planned, Actual: actual}}
}

// CostValue returns a cost value.
func CostValue(plan, actual float64) Value {
	return Value{Kind: domain.ValueCost, Cost: Cost{Plan: plan, Actual: actual}}
}

// Display renders the value as it appears in a grid cell.
func (v Value) Display() string {
	switch v.Kind {
	case domain.ValueNumber:
		return FormatNumber(v.Number)
	case domain.ValueStatus:
		return v.Status.Symbol()
	case domain.ValueCost:
		if v.Cost.Plan == 0 && v.Cost.Actual == 0 {
			return ""
		}
		return FormatNumber(v.Cost.Plan) + " / " + FormatNumber(v.Cost.Actual)
	default:
		return v.Text
	}
}

// FormatNumber renders n with the shortest exact representation.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
