// package formatter renders backup and transfer listings as aligned text tables and exports them to CSV, Markdown and
// plain text.
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultDelimiter separates columns when a [Table] has none set.
const DefaultDelimiter = " | "

// Table lays out rows of cells as left-justified columns.
type Table struct {
	// Delimiter joins cells within a row.
	// Default: " | "
	Delimiter string

	// MinWidths raises the width of the column at the same index. Cells are never truncated.
	MinWidths []int
}

// Render lays out every row of every group with shared column widths.
//
// With more than one group a dashed separator follows the first row and the output ends with a blank line, which is
// how header/body tables are drawn. A single group renders its rows only.
func (t Table) Render(groups ...[][]string) string {
	var rows [][]string
	for _, g := range groups {
		rows = append(rows, g...)
	}
	if len(rows) == 0 {
		return ""
	}

	widths := t.widths(rows)
	delim := t.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	lines := make([]string, 0, len(rows)+2)
	for i, row := range rows {
		lines = append(lines, joinPadded(row, widths, delim))
		if i == 0 && len(groups) > 1 {
			lines = append(lines, separator(widths))
		}
	}
	if len(groups) > 1 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (t Table) widths(rows [][]string) []int {
	cols := len(t.MinWidths)
	for _, row := range rows {
		cols = max(cols, len(row))
	}

	widths := make([]int, cols)
	copy(widths, t.MinWidths)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	return widths
}

func joinPadded(row []string, widths []int, delim string) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = pad(cell, w)
	}
	return strings.Join(cells, delim)
}

func separator(widths []int) string {
	dashes := make([]string, len(widths))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	return strings.Join(dashes, "-+-")
}

func pad(cell string, width int) string {
	if n := width - lipgloss.Width(cell); n > 0 {
		return cell + strings.Repeat(" ", n)
	}
	return cell
}
