package grid

import (
	"math"
	"strings"

	"github.com/hylla/hoshu/internal/domain"
)

// Get reads the typed value of col on rec.
func Get(rec domain.Record, col domain.Column) Value {
	switch col.Accessor.Kind {
	case domain.AccessorScalar:
		switch col.Accessor.Field {
		case domain.FieldName:
			return TextValue(rec.Name)
		case domain.FieldCode:
			return TextValue(rec.Code)
		case domain.FieldCycle:
			return NumberValue(rec.Cycle)
		case domain.FieldInstalled:
			return DateValue(rec.Installed)
		}
		return TextValue(rec.Extra[col.ID])
	case domain.AccessorSpecification:
		value, _ := rec.SpecValue(col.Accessor.Key)
		return TextValue(value)
	case domain.AccessorPeriod:
		res := rec.Result(col.Accessor.Key)
		if col.Type == domain.ValueCost {
			return CostValue(res.PlanCost, res.ActualCost)
		}
		return StatusValue(res.Planned, res.Actual)
	default:
		return TextValue(rec.Extra[col.ID])
	}
}

// Set returns a copy of rec with col set to v. The input record is never
// modified. Values of a different kind are re-parsed from their display text.
// Extra-backed columns store the display text as is. Writes to period cells of
// records with children leave rec unchanged.
func Set(rec domain.Record, col domain.Column, v Value) (domain.Record, error) {
	if UsesExtra(col) {
		out := rec.Clone()
		setExtra(&out, col.ID, v.Display())
		return out, nil
	}
	if col.Accessor.Kind == domain.AccessorPeriod && rec.HasChildren {
		return rec, nil
	}
	v, err := coerce(col, v)
	if err != nil {
		return rec, err
	}
	out := rec.Clone()
	switch col.Accessor.Kind {
	case domain.AccessorScalar:
		switch col.Accessor.Field {
		case domain.FieldName:
			name := strings.TrimSpace(v.Text)
			if name == "" {
				return rec, domain.ErrInvalidName
			}
			out.Name = name
		case domain.FieldCode:
			out.Code = strings.TrimSpace(v.Text)
		case domain.FieldCycle:
			if v.Number < 0 || math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
				return rec, domain.ErrInvalidCycle
			}
			out.Cycle = v.Number
		case domain.FieldInstalled:
			date, err := domain.NormalizeDate(v.Text)
			if err != nil {
				return rec, err
			}
			out.Installed = date
		}
	case domain.AccessorSpecification:
		out = out.WithSpec(col.Accessor.Key, strings.TrimSpace(v.Text))
	case domain.AccessorPeriod:
		res := out.Results[col.Accessor.Key]
		if col.Type == domain.ValueCost {
			if v.Cost.Plan < 0 || v.Cost.Actual < 0 {
				return rec, domain.ErrInvalidCost
			}
			res.PlanCost = v.Cost.Plan
			res.ActualCost = v.Cost.Actual
		} else {
			res.Planned = v.Status.Planned
			res.Actual = v.Status.Actual
		}
		out = out.WithResult(col.Accessor.Key, res)
	}
	return out, nil
}

// UsesExtra reports whether col reads and writes the Extra property bag:
// unknown accessor kinds and unrecognized scalar fields.
func UsesExtra(col domain.Column) bool {
	switch col.Accessor.Kind {
	case domain.AccessorScalar:
		switch col.Accessor.Field {
		case domain.FieldName, domain.FieldCode, domain.FieldCycle, domain.FieldInstalled:
			return false
		}
		return true
	case domain.AccessorSpecification, domain.AccessorPeriod:
		return false
	default:
		return true
	}
}

// Editable reports whether col accepts writes on rec. Period cells of records
// with children show a derived rollup and are not editable.
func Editable(rec domain.Record, col domain.Column) bool {
	if !col.Editable {
		return false
	}
	return col.Accessor.Kind != domain.AccessorPeriod || !rec.HasChildren
}

// coerce converts v to the column's value kind.
func coerce(col domain.Column, v Value) (Value, error) {
	if v.Kind == col.Type {
		return v, nil
	}
	if v.Kind == domain.ValueStatus || v.Kind == domain.ValueCost {
		return ParseForColumn(col, CellText(v))
	}
	return ParseForColumn(col, v.Display())
}

// setExtra writes the fallback property bag.
func setExtra(rec *domain.Record, key, value string) {
	if rec.Extra == nil {
		rec.Extra = map[string]string{}
	}
	rec.Extra[key] = value
}
