package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
	"github.com/iafilius/HPAScaleGraphs/src/series"
)

var (
	colorRed     = lipgloss.Color("#FF5555")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorMagenta = lipgloss.Color("#FF79C6")
	colorWhite   = lipgloss.Color("#F8F8F2")
	colorGray    = lipgloss.Color("#6272A4")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	headerStyle = lipgloss.NewStyle().Foreground(colorMagenta).Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	critStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

type summaryRow struct {
	label string
	stats hpalog.ScanStats
	sum   series.Summary
}

var summaryHeader = []string{"SOURCE", "LINES", "MARKED", "RECORDS", "DROPPED", "CPU MIN", "CPU MAX", "REPL MIN", "REPL MAX", "SECONDS"}

func (r summaryRow) cells() []string {
	if r.sum.Points == 0 {
		return []string{r.label, itoa(r.stats.Lines), itoa(r.stats.Marked), "0", itoa(r.stats.Dropped), "-", "-", "-", "-", "0"}
	}
	return []string{
		r.label,
		itoa(r.stats.Lines), itoa(r.stats.Marked), itoa(r.stats.Extracted), itoa(r.stats.Dropped),
		itoa(r.sum.MinUtil) + "%", itoa(r.sum.MaxUtil) + "%",
		itoa(r.sum.MinReplicas), itoa(r.sum.MaxReplicas),
		itoa(r.sum.DurationSeconds),
	}
}

// renderSummary lays the rows out as an aligned table; the source column is left aligned,
// numbers right aligned.
func renderSummary(rows []summaryRow) string {
	table := [][]string{summaryHeader}
	for _, r := range rows {
		table = append(table, r.cells())
	}
	widths := make([]int, len(summaryHeader))
	for _, row := range table {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf(" HPA LOG SUMMARY (%d files) ", len(rows))) + "\n")
	for ri, row := range table {
		parts := make([]string, len(row))
		for i, c := range row {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(c))
			if i == 0 {
				c += pad
			} else {
				c = pad + c
			}
			parts[i] = cellStyle(ri, i, rows).Render(c)
		}
		sb.WriteString(strings.Join(parts, dimStyle.Render("  ")) + "\n")
	}
	return sb.String()
}

func cellStyle(row, col int, rows []summaryRow) lipgloss.Style {
	if row == 0 {
		return headerStyle
	}
	r := rows[row-1]
	switch {
	case col == 3 && r.stats.Extracted == 0:
		return critStyle
	case col == 3:
		return okStyle
	case col == 4 && r.stats.Dropped > 0:
		return critStyle
	case col == 0:
		return valueStyle
	}
	return dimStyle
}

func itoa(n int) string { return strconv.Itoa(n) }
