package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// DefaultNumFmt formats cells when a view carries no number format.
const DefaultNumFmt = "%.6g"

// grid is the rectangular form shared by the table renderers. For a
// pairwise matrix rows are the first input of the pair and columns the
// second; a single-input view has one result column.
type grid struct {
	title    string
	corner   string
	colHeads []string
	rowHeads []string
	values   [][]float64
	present  [][]bool
	min, max float64
	ok       bool
	numFmt   string
	gradient *Gradient
}

func newGrid(v sensitivity.View) (*grid, error) {
	g := &grid{title: v.Title, numFmt: v.Style.NumFmt}
	if g.numFmt == "" {
		g.numFmt = DefaultNumFmt
	}
	switch {
	case v.Matrix != nil:
		m := v.Matrix
		g.corner = m.Pair.A + " \\ " + m.Pair.B
		for _, l := range m.ColLabels {
			g.colHeads = append(g.colHeads, sensitivity.FormatValue(l))
		}
		g.values = make([][]float64, m.Rows())
		g.present = make([][]bool, m.Rows())
		for i, l := range m.RowLabels {
			g.rowHeads = append(g.rowHeads, sensitivity.FormatValue(l))
			g.values[i] = make([]float64, m.Cols())
			g.present[i] = make([]bool, m.Cols())
			for j := range m.ColLabels {
				g.values[i][j], g.present[i][j] = m.At(i, j)
			}
		}
		g.min, g.max, g.ok = m.Extents()
	case v.Table != nil:
		t := v.Table
		cols := t.InputColumns()
		if len(cols) != 1 {
			return nil, &sensitivity.ConfigurationError{
				Msg: fmt.Sprintf("table view needs exactly one input column, got %d", len(cols)),
			}
		}
		g.corner = cols[0]
		g.colHeads = []string{t.ResultName()}
		for i := 0; i < t.Len(); i++ {
			r := t.Row(i)
			g.rowHeads = append(g.rowHeads, sensitivity.FormatValue(r.Inputs[0]))
			g.values = append(g.values, []float64{r.Result})
			g.present = append(g.present, []bool{true})
			if math.IsNaN(r.Result) {
				continue
			}
			if !g.ok || r.Result < g.min {
				g.min = r.Result
			}
			if !g.ok || r.Result > g.max {
				g.max = r.Result
			}
			g.ok = true
		}
	default:
		return nil, &sensitivity.ConfigurationError{Msg: "view has neither a matrix nor a table"}
	}

	grad, err := StyleGradient(v.Style)
	if err != nil {
		return nil, err
	}
	grad.SetMin(g.min)
	grad.SetMax(g.max)
	g.gradient = grad
	return g, nil
}

// text returns the formatted cell value, or "" for an absent cell.
func (g *grid) text(i, j int) string {
	if !g.present[i][j] {
		return ""
	}
	return formatNumber(g.numFmt, g.values[i][j])
}

// colors returns the background and text colors of a cell. Absent and NaN
// cells are left unstyled.
func (g *grid) colors(i, j int) (bg, fg string, ok bool) {
	v := g.values[i][j]
	if !g.present[i][j] || math.IsNaN(v) || !g.ok {
		return "", "", false
	}
	c := g.gradient.Clamped(v)
	return c.Hex(), textColor(c), true
}

func formatNumber(format string, v float64) string {
	return fmt.Sprintf(format, v)
}

// CheckNumFmt reports whether format consumes exactly one float64 argument.
func CheckNumFmt(format string) error {
	if format == "" {
		return nil
	}
	if s := fmt.Sprintf(format, 1.5); strings.Contains(s, "%!") {
		return &sensitivity.ConfigurationError{Msg: fmt.Sprintf("invalid number format %q: %s", format, s)}
	}
	return nil
}

func viewsToGrids(views []sensitivity.View) ([]*grid, error) {
	out := make([]*grid, 0, len(views))
	for _, v := range views {
		g, err := newGrid(v)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
