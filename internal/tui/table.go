package tui

import (
	"strings"

	"gemlaunch/internal/resolve"
)

// Column is one column of a table. Its width fits the widest cell, capped at
// Max when Max is positive. Status columns are coloured with StatusStyle.
type Column struct {
	Header string
	Max    int
	Status bool
}

// RenderTable lays out rows (one cell per column) under a bold header.
func RenderTable(columns []Column, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col.Header)
		for _, row := range rows {
			if i < len(row) {
				widths[i] = max(widths[i], len(strings.TrimSpace(row[i])))
			}
		}
		if col.Max > 0 {
			widths[i] = min(widths[i], max(col.Max, len(col.Header)))
		}
	}

	var b strings.Builder
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = HeaderStyle.Render(pad(col.Header, widths[i]))
	}
	writeLine(&b, cells)

	for _, row := range rows {
		for i, col := range columns {
			var val string
			if i < len(row) {
				val = TruncateWithEllipsis(row[i], widths[i])
			}
			cell := pad(val, widths[i])
			if col.Status {
				cell = StatusStyle(resolve.InstallStatus(val)).Render(cell)
			}
			cells[i] = cell
		}
		writeLine(&b, cells)
	}
	return b.String()
}

func writeLine(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	b.WriteByte('\n')
}

func pad(s string, width int) string {
	if n := width - len(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// NonEmptyOrDash returns "-" for blank strings.
func NonEmptyOrDash(value string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return "-"
}

// TruncateWithEllipsis shortens value to at most limit bytes, marking the cut
// with "..." when there is room for it.
func TruncateWithEllipsis(value string, limit int) string {
	value = strings.TrimSpace(value)
	switch {
	case limit <= 0:
		return ""
	case len(value) <= limit:
		return value
	case limit <= 3:
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
