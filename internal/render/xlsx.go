package render

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	"[", "(", "]", ")", ":", "-", "*", "-", "?", "", "/", "-", "\\", "-",
)

// numVerb matches a single Go float verb with optional literal text around it.
var numVerb = regexp.MustCompile(`^([^%]*)%[+\- #0]*([0-9]*)(?:\.([0-9]+))?([fFeEgGdv])([^%]*)$`)

// excelNumFmt converts a Go fmt verb into an Excel custom number format.
// ok is false when the format has no Excel equivalent and the cell keeps
// the General format.
func excelNumFmt(format string) (string, bool) {
	m := numVerb.FindStringSubmatch(format)
	if m == nil {
		return "", false
	}
	prefix, precision, verb, suffix := m[1], m[3], m[4], m[5]

	var body string
	switch verb {
	case "f", "F":
		body = "0"
		if precision == "" {
			precision = "6"
		}
		if n, _ := strconv.Atoi(precision); n > 0 {
			body += "." + strings.Repeat("0", n)
		}
	case "e", "E":
		body = "0"
		if precision == "" {
			precision = "6"
		}
		if n, _ := strconv.Atoi(precision); n > 0 {
			body += "." + strings.Repeat("0", n)
		}
		body += "E+00"
	case "d":
		body = "0"
	default:
		return "", false
	}
	return quoteLiteral(prefix) + body + quoteLiteral(suffix), true
}

func quoteLiteral(s string) string {
	if s == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sheetName(title string, used map[string]bool) string {
	name := sheetNameReplacer.Replace(title)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		if len(base)+len(suffix) > maxSheetName {
			name = base[:maxSheetName-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[name] = true
	return name
}

// Workbook writes views as an XLSX workbook, one sheet per view. Each data
// range carries a three color scale taken from the view's color map.
func Workbook(w io.Writer, views []sensitivity.View) error {
	grids, err := viewsToGrids(views)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := make(map[string]bool)
	for k, g := range grids {
		name := sheetName(g.title, used)
		if k == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, g); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, g *grid) error {
	if err := f.SetCellValue(sheet, "A1", g.corner); err != nil {
		return err
	}
	for j, h := range g.colHeads {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, label := range g.rowHeads {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return err
		}
		for j := range g.colHeads {
			v := g.values[i][j]
			if !g.present[i][j] || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if len(g.rowHeads) == 0 || len(g.colHeads) == 0 {
		return nil
	}
	topLeft, _ := excelize.CoordinatesToCellName(2, 2)
	bottomRight, _ := excelize.CoordinatesToCellName(len(g.colHeads)+1, len(g.rowHeads)+1)
	dataRange := topLeft + ":" + bottomRight

	if numFmt, ok := excelNumFmt(g.numFmt); ok {
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, topLeft, bottomRight, style); err != nil {
			return err
		}
	}

	stops := g.gradient.HexStops(3)
	return f.SetConditionalFormat(sheet, dataRange, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "min",
		MidType:  "percentile",
		MidValue: "50",
		MaxType:  "max",
		MinColor: stops[0],
		MidColor: stops[1],
		MaxColor: stops[2],
	}})
}
