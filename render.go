package main

import (
	"fmt"
	"marquee/internal/palette"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderTable(headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var (
	swatchLabelStyle = lipgloss.NewStyle().Width(14).Bold(true)
	swatchNullStyle  = lipgloss.NewStyle().Faint(true)
)

func swatch(color palette.RGB) string {
	hex := color.Hex()
	block := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("      ")
	return fmt.Sprintf("%s %s  %s", block, hex, color.String())
}

// renderSwatches draws each palette slot as a coloured block followed by its
// hex and channel values.
func renderSwatches(p palette.Palette) string {
	var b strings.Builder

	line := func(label string, value string) {
		b.WriteString(swatchLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	if p.Dominants == nil {
		line("dominants", swatchNullStyle.Render("none"))
	} else {
		line("dominant 1", swatch(p.Dominants[0]))
		line("dominant 2", swatch(p.Dominants[1]))
	}

	if p.Corners == nil {
		line("corners", swatchNullStyle.Render("none"))
	} else {
		line("top left", swatch(p.Corners.TL))
		line("top right", swatch(p.Corners.TR))
		line("bottom right", swatch(p.Corners.BR))
		line("bottom left", swatch(p.Corners.BL))
	}

	return b.String()
}

func slotCell(raw string, parsed *palette.RGB) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	if parsed == nil {
		return raw + " (ignored)"
	}
	return parsed.Hex()
}
