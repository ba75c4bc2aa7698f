package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

// Brand colors of the printed report.
var (
	ColorBrand  = lipgloss.Color("#C1272D")
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBrand)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBrand)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)
)

var _ ports.ReportRenderer = Terminal{}

// Terminal renders the report as a bordered text table.
type Terminal struct{}

func (Terminal) Render(_ context.Context, r core.MonthlyReport) (core.Document, error) {
	return core.Document{
		Name:        FileName(r, "txt"),
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(RenderTable(Build(r))),
	}, nil
}

// RenderTitle renders a title in a rounded box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return border.Render(titleStyle.Render(title))
}

// RenderFields renders label/value pairs one per line.
func RenderFields(fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, runewidth.StringWidth(f.Label))
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(padRight(f.Label+":", width+1)))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(f.Value))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderWarning renders a highlighted single line.
func RenderWarning(msg string) string {
	return warnStyle.Render(msg)
}

// RenderTable renders the whole report: title, fields and the payment
// table. The amount column is right aligned.
func RenderTable(t Table) string {
	numCols := len(t.Columns)
	widths := make([]int, numCols)
	for i, h := range t.Columns {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var b strings.Builder
	b.WriteString(RenderTitle(t.Title))
	b.WriteString("\n\n")
	b.WriteString(RenderFields(t.Fields))
	b.WriteString("\n")

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			var padded string
			if i == numCols-1 {
				padded = " " + padLeft(cell, widths[i]) + " "
			} else {
				padded = " " + padRight(cell, widths[i]) + " "
			}
			b.WriteString(style.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	line(t.Columns, headerStyle)
	rule("├", "┼", "┤")
	for i, row := range t.Rows {
		if t.HasTotal && i == len(t.Rows)-1 {
			rule("├", "┼", "┤")
			line(row, totalStyle)
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

func padRight(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-runewidth.StringWidth(s)))
}

func padLeft(s string, w int) string {
	return strings.Repeat(" ", max(0, w-runewidth.StringWidth(s))) + s
}

// Bar renders a horizontal bar of width cells filled to pct (0-100).
func Bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return totalStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// Percent renders 40.00 as "40%".
func Percent(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}
