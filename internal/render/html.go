package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	tablesOnce sync.Once
	tablesTmpl *template.Template
	tablesErr  error
)

func tablesTemplate() (*template.Template, error) {
	tablesOnce.Do(func() {
		tablesTmpl, tablesErr = template.ParseFS(templateFS, "templates/tables.html.tmpl")
	})
	return tablesTmpl, tablesErr
}

type htmlDocument struct {
	Title  string
	Tables []htmlTable
}

type htmlTable struct {
	Title   string
	Corner  string
	Columns []string
	Rows    []htmlRow
}

type htmlRow struct {
	Label string
	Cells []htmlCell
}

type htmlCell struct {
	Text  string
	Style template.CSS
}

// HTMLTable writes views as a standalone HTML document with one
// color-graded table per view.
func HTMLTable(w io.Writer, title string, views []sensitivity.View) error {
	tmpl, err := tablesTemplate()
	if err != nil {
		return fmt.Errorf("parse table template: %w", err)
	}
	grids, err := viewsToGrids(views)
	if err != nil {
		return err
	}

	doc := htmlDocument{Title: title}
	for _, g := range grids {
		t := htmlTable{Title: g.title, Corner: g.corner, Columns: g.colHeads}
		for i, label := range g.rowHeads {
			row := htmlRow{Label: label}
			for j := range g.colHeads {
				cell := htmlCell{Text: g.text(i, j)}
				if bg, fg, ok := g.colors(i, j); ok {
					cell.Style = template.CSS(fmt.Sprintf("background-color: %s; color: %s", bg, fg))
				}
				row.Cells = append(row.Cells, cell)
			}
			t.Rows = append(t.Rows, row)
		}
		doc.Tables = append(doc.Tables, t)
	}

	return tmpl.ExecuteTemplate(w, "tables.html.tmpl", doc)
}
