package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hylla/hoshu/internal/domain"
)

// ParseForColumn coerces raw interchange or editor text into the column's
// value type. Status input never fails: unrecognized text clears both flags.
func ParseForColumn(col domain.Column, raw string) (Value, error) {
	switch col.Type {
	case domain.ValueNumber:
		return parseNumber(raw)
	case domain.ValueDate:
		date, err := domain.NormalizeDate(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", ErrInvalidDate, strings.TrimSpace(raw))
		}
		return DateValue(date), nil
	case domain.ValueStatus:
		return parseStatus(raw), nil
	case domain.ValueCost:
		return parseCost(raw)
	default:
		return TextValue(raw), nil
	}
}

// ParseCell parses raw for a write through col. Extra-backed columns keep the
// raw text whatever their declared type.
func ParseCell(col domain.Column, raw string) (Value, error) {
	if UsesExtra(col) {
		return TextValue(raw), nil
	}
	return ParseForColumn(col, raw)
}

// parseNumber accepts finite decimal input; blank input reads as zero.
func parseNumber(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NumberValue(0), nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidNumber, trimmed)
	}
	return NumberValue(n), nil
}

// parseStatus reads a bracketed literal, then a symbol, else clear.
func parseStatus(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var st Status
		if err := decodeLiteral(trimmed, &st); err == nil {
			return StatusValue(st.Planned, st.Actual)
		}
		return StatusValue(false, false)
	}
	st := ParseStatusSymbol(trimmed)
	return StatusValue(st.Planned, st.Actual)
}

// parseCost accepts a bracketed literal or blank input; bare numbers are rejected.
func parseCost(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CostValue(0, 0), nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidCostValue, trimmed)
	}
	var cost Cost
	if err := decodeLiteral(trimmed, &cost); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidCostValue, err)
	}
	if cost.Plan < 0 || cost.Actual < 0 {
		return Value{}, fmt.Errorf("%w: negative cost", ErrInvalidCostValue)
	}
	return CostValue(cost.Plan, cost.Actual), nil
}

// decodeLiteral decodes one bracketed key:value literal with known keys only.
func decodeLiteral(raw string, dst any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after literal")
	}
	return nil
}

// encodeLiteral renders a structured value as its bracketed literal.
func encodeLiteral(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
