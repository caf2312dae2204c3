package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NielsdaWheelz/toth/internal/tools"
)

// Tool table status labels.
const (
	ToolOK      = "ok"
	ToolMissing = "missing"
	ToolTooOld  = "too-old"
	ToolBroken  = "error"
)

// ToolRow is one line of the doctor table.
type ToolRow struct {
	Tool     string
	Version  string
	Minimum  string
	Required bool
	Status   string
}

// ToolRows converts probe results into table rows.
func ToolRows(statuses []tools.Status) []ToolRow {
	rows := make([]ToolRow, 0, len(statuses))
	for _, st := range statuses {
		row := ToolRow{
			Tool:     st.Tool,
			Version:  st.Version,
			Minimum:  st.MinVersion,
			Required: st.Required,
		}
		switch {
		case !st.Installed:
			row.Status = ToolMissing
		case st.OK:
			row.Status = ToolOK
		case st.Err == nil && st.Version != "":
			row.Status = ToolTooOld
		default:
			row.Status = ToolBroken
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteToolTable writes the doctor table. Columns are padded on the
// unstyled text so alignment survives colouring.
func WriteToolTable(w io.Writer, s *Styler, rows []ToolRow) error {
	if s == nil {
		s = PlainStyler()
	}
	header := []string{"TOOL", "VERSION", "MINIMUM", "REQUIRED", "STATUS"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Tool, dash(r.Version), dash(r.Minimum), boolStr(r.Required), r.Status})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			if n := lipgloss.Width(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if _, err := fmt.Fprintln(w, formatRow(header, widths, func(_ int, text string) string { return s.Header(text) })); err != nil {
		return err
	}
	last := len(header) - 1
	for i, row := range cells {
		status := statusStyle(s, rows[i])
		line := formatRow(row, widths, func(col int, text string) string {
			if col == last {
				return status(text)
			}
			return text
		})
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func statusStyle(s *Styler, r ToolRow) func(string) string {
	switch {
	case r.Status == ToolOK:
		return s.OK
	case r.Required:
		return s.Danger
	default:
		return s.Warning
	}
}

func formatRow(cols []string, widths []int, style func(col int, text string) string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		pad := ""
		if i < len(cols)-1 {
			pad = strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		parts[i] = style(i, c) + pad
	}
	return strings.Join(parts, "  ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
