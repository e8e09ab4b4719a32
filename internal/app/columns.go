package app

import (
	"slices"
	"strconv"

	"github.com/hylla/hoshu/internal/domain"
)

// defaultPeriodSpan is the number of yearly periods shown when none are configured.
const defaultPeriodSpan = 5

// scalarColumns lists the fixed leading columns.
var scalarColumns = []struct {
	field domain.ScalarField
	label string
	width int
	typ   domain.ValueType
}{
	{field: domain.FieldName, label: "Name", width: 24, typ: domain.ValueText},
	{field: domain.FieldCode, label: "Code", width: 10, typ: domain.ValueText},
	{field: domain.FieldCycle, label: "Cycle", width: 7, typ: domain.ValueNumber},
	{field: domain.FieldInstalled, label: "Installed", width: 12, typ: domain.ValueDate},
}

// Columns builds the ordered column registry for records: scalar fields, one
// column per specification key, then a status and a cost column per period.
func (s *Service) Columns(records []domain.Record) []domain.Column {
	out := make([]domain.Column, 0, len(scalarColumns)+8)
	for _, sc := range scalarColumns {
		out = s.appendColumn(out, domain.ColumnInput{
			ID:       string(sc.field),
			Label:    sc.label,
			Width:    sc.width,
			Type:     sc.typ,
			Editable: true,
			Accessor: domain.ScalarAccessor(sc.field),
		})
	}
	for _, key := range domain.SpecKeys(records) {
		out = s.appendColumn(out, domain.ColumnInput{
			ID:       domain.SpecColumnID(key),
			Label:    key,
			Width:    12,
			Type:     domain.ValueText,
			Editable: true,
			Accessor: domain.SpecAccessor(key),
		})
	}
	for _, period := range s.periodsFor(records) {
		out = s.appendColumn(out, domain.ColumnInput{
			ID:       domain.PeriodColumnID(period, domain.ValueStatus),
			Label:    period,
			Width:    6,
			Type:     domain.ValueStatus,
			Editable: true,
			Accessor: domain.PeriodAccessor(period),
		})
		out = s.appendColumn(out, domain.ColumnInput{
			ID:       domain.PeriodColumnID(period, domain.ValueCost),
			Label:    period + " cost",
			Width:    14,
			Type:     domain.ValueCost,
			Editable: true,
			Accessor: domain.PeriodAccessor(period),
		})
	}
	return out
}

// appendColumn applies configured width bounds and appends a valid column.
func (s *Service) appendColumn(out []domain.Column, in domain.ColumnInput) []domain.Column {
	in.MinWidth = s.minColumnWidth
	in.MaxWidth = s.maxColumnWidth
	col, err := domain.NewColumn(in)
	if err != nil {
		return out
	}
	return append(out, col)
}

// periodsFor returns configured periods, or the periods in use merged with a
// window of years starting at the current year.
func (s *Service) periodsFor(records []domain.Record) []string {
	if len(s.periods) > 0 {
		return slices.Clone(s.periods)
	}
	periods := domain.PeriodKeys(records)
	year := s.clock().Year()
	for offset := range defaultPeriodSpan {
		key := strconv.Itoa(year + offset)
		if !slices.Contains(periods, key) {
			periods = append(periods, key)
		}
	}
	slices.Sort(periods)
	return periods
}
