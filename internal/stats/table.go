package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one table column. maxWidth of 0 means unbounded.
type column struct {
	title    string
	right    bool
	maxWidth int
}

// formatTable lays out rows under cols, padding each column to its widest
// cell and truncating cells wider than the column limit.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, 0, len(rows)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	cells = append(cells, header)
	for _, row := range rows {
		line := make([]string, len(cols))
		for i := range cols {
			if i < len(row) {
				line[i] = clip(row[i], cols[i].maxWidth)
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(cols))
	for _, line := range cells {
		for i, cell := range line {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	out := make([]string, 0, len(cells))
	for _, line := range cells {
		var b strings.Builder
		for i, cell := range line {
			if i > 0 {
				b.WriteByte(' ')
			}
			if cols[i].right {
				b.WriteString(runewidth.FillLeft(cell, widths[i]))
			} else {
				b.WriteString(runewidth.FillRight(cell, widths[i]))
			}
		}
		out = append(out, b.String())
	}
	return out
}

// clip truncates s to limit terminal cells, marking the cut with an ellipsis.
func clip(s string, limit int) string {
	if limit <= 0 || runewidth.StringWidth(s) <= limit {
		return s
	}
	return runewidth.Truncate(s, limit, "…")
}
