package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TerminalTable renders views as color-graded terminal tables.
func TerminalTable(views []sensitivity.View) (string, error) {
	grids, err := viewsToGrids(views)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for k, g := range grids {
		if k > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(g.title))
		b.WriteString("\n")
		b.WriteString(terminalTable(g).String())
		b.WriteString("\n")
	}
	return b.String(), nil
}

func terminalTable(g *grid) *table.Table {
	rows := make([][]string, len(g.rowHeads))
	for i, label := range g.rowHeads {
		row := make([]string, 0, len(g.colHeads)+1)
		row = append(row, label)
		for j := range g.colHeads {
			row = append(row, g.text(i, j))
		}
		rows[i] = row
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(append([]string{g.corner}, g.colHeads...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return headerStyle
			}
			bg, fg, ok := g.colors(row, col-1)
			if !ok {
				return cellStyle
			}
			return cellStyle.
				Background(lipgloss.Color(bg)).
				Foreground(lipgloss.Color(fg))
		})
}
