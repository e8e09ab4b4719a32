package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 24 {
		wrapWidth = 24
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// recordMarkdown describes one record and its period history as markdown.
func recordMarkdown(rec domain.Record, columns []domain.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", markdownCell(rec.Name))
	if rec.Code != "" {
		fmt.Fprintf(&b, "- **Code:** %s\n", markdownCell(rec.Code))
	}
	if rec.Cycle > 0 {
		fmt.Fprintf(&b, "- **Cycle:** %s years\n", grid.FormatNumber(rec.Cycle))
	}
	if rec.Installed != "" {
		fmt.Fprintf(&b, "- **Installed:** %s\n", rec.Installed)
	}
	if rec.HasChildren {
		b.WriteString("- **Group:** period cells roll up from children\n")
	}
	if rec.UpdatedByActor != "" {
		fmt.Fprintf(&b, "- **Updated:** %s by %s (%s)\n", rec.UpdatedAt.UTC().Format("2006-01-02 15:04"), rec.UpdatedByActor, rec.UpdatedByType)
	}

	if len(rec.Specs) > 0 {
		b.WriteString("\n## Specifications\n\n| Key | Value |\n| --- | --- |\n")
		for _, spec := range rec.Specs {
			fmt.Fprintf(&b, "| %s | %s |\n", markdownCell(spec.Key), markdownCell(spec.Value))
		}
	}

	rows := make([]string, 0)
	for _, col := range columns {
		if col.Accessor.Kind != domain.AccessorPeriod || col.Type != domain.ValueCost {
			continue
		}
		period := col.Accessor.Key
		res := rec.Result(period)
		if res.IsZero() {
			continue
		}
		status := grid.StatusValue(res.Planned, res.Actual).Display()
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s |", period, status,
			grid.FormatNumber(res.PlanCost), grid.FormatNumber(res.ActualCost)))
	}
	if len(rows) > 0 {
		b.WriteString("\n## Periods\n\n| Period | Status | Plan | Actual |\n| --- | --- | --- | --- |\n")
		b.WriteString(strings.Join(rows, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// markdownCell escapes table separators in inline text.
func markdownCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}
