package render

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Figure layout.
const (
	PanelsPerRow = 3
	FigureWidth  = 15 * vg.Inch
	RowHeight    = 4 * vg.Inch

	colorBarWidth = 0.9 * vg.Inch
)

// HexBin is one occupied hexagonal cell.
type HexBin struct {
	X, Y  float64
	Value float64
	Count int
}

// HexGrid is a set of occupied cells over two interleaved lattices. SX and
// SY are the lattice spacings in data units.
type HexGrid struct {
	Bins                   []HexBin
	SX, SY                 float64
	XMin, XMax, YMin, YMax float64
}

type hexKey struct {
	lattice int
	ix, iy  int
}

// BinHex assigns each (x, y) point to the nearest hexagon center of a grid
// with gridSize cells across x and reduces the c values of each occupied
// cell with agg. Empty cells are omitted.
func BinHex(x, y, c []float64, gridSize int, agg sensitivity.AggFunc) (*HexGrid, error) {
	if len(x) != len(y) || len(x) != len(c) {
		return nil, fmt.Errorf("hexbin: mismatched lengths x=%d y=%d c=%d", len(x), len(y), len(c))
	}
	if gridSize <= 0 {
		gridSize = sensitivity.DefaultGridSize
	}
	if agg == nil {
		agg = sensitivity.Mean
	}
	if len(x) == 0 {
		return &HexGrid{}, nil
	}

	nx := gridSize
	ny := max(int(float64(nx)/math.Sqrt(3)), 1)

	xmin, xmax := nonsingular(extent(x))
	ymin, ymax := nonsingular(extent(y))
	pad := 1e-9 * (xmax - xmin)
	xmin, xmax = xmin-pad, xmax+pad
	pad = 1e-9 * (ymax - ymin)
	ymin, ymax = ymin-pad, ymax+pad

	g := &HexGrid{
		SX:   (xmax - xmin) / float64(nx),
		SY:   (ymax - ymin) / float64(ny),
		XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax,
	}

	groups := make(map[hexKey][]float64)
	for k := range x {
		xs := (x[k] - xmin) / g.SX
		ys := (y[k] - ymin) / g.SY
		ix1, iy1 := math.RoundToEven(xs), math.RoundToEven(ys)
		ix2, iy2 := math.Floor(xs), math.Floor(ys)
		d1 := (xs-ix1)*(xs-ix1) + 3*(ys-iy1)*(ys-iy1)
		d2 := (xs-ix2-0.5)*(xs-ix2-0.5) + 3*(ys-iy2-0.5)*(ys-iy2-0.5)
		key := hexKey{lattice: 1, ix: int(ix2), iy: int(iy2)}
		if d1 < d2 {
			key = hexKey{lattice: 0, ix: int(ix1), iy: int(iy1)}
		}
		groups[key] = append(groups[key], c[k])
	}

	keys := make([]hexKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.lattice != b.lattice {
			return a.lattice < b.lattice
		}
		if a.ix != b.ix {
			return a.ix < b.ix
		}
		return a.iy < b.iy
	})

	for _, key := range keys {
		values := groups[key]
		v, err := agg(values)
		if err != nil {
			return nil, fmt.Errorf("hexbin: aggregating cell (%d, %d): %w", key.ix, key.iy, err)
		}
		off := 0.0
		if key.lattice == 1 {
			off = 0.5
		}
		g.Bins = append(g.Bins, HexBin{
			X:     xmin + (float64(key.ix)+off)*g.SX,
			Y:     ymin + (float64(key.iy)+off)*g.SY,
			Value: v,
			Count: len(values),
		})
	}
	return g, nil
}

// ValueRange returns the smallest and largest non-NaN bin values.
func (g *HexGrid) ValueRange() (lo, hi float64, ok bool) {
	for _, b := range g.Bins {
		if math.IsNaN(b.Value) {
			continue
		}
		if !ok || b.Value < lo {
			lo = b.Value
		}
		if !ok || b.Value > hi {
			hi = b.Value
		}
		ok = true
	}
	return lo, hi, ok
}

func extent(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, f := range v[1:] {
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	return lo, hi
}

// nonsingular widens a zero-width interval by 10% of its magnitude.
func nonsingular(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	d := 0.1 * math.Abs(lo)
	if d == 0 {
		d = 0.1
	}
	return lo - d, hi + d
}

// hexVertices are the hexagon corners in units of (SX, SY/3).
var hexVertices = [6][2]float64{
	{0.5, -0.5}, {0.5, 0.5}, {0, 1}, {-0.5, 0.5}, {-0.5, -0.5}, {0, -1},
}

// hexPlotter draws a HexGrid as filled hexagons.
type hexPlotter struct {
	grid     *HexGrid
	gradient *Gradient
}

// Plot implements plot.Plotter.
func (h *hexPlotter) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, b := range h.grid.Bins {
		if math.IsNaN(b.Value) {
			continue
		}
		pts := make([]vg.Point, len(hexVertices))
		for k, o := range hexVertices {
			pts[k] = vg.Point{
				X: trX(b.X + o[0]*h.grid.SX),
				Y: trY(b.Y + o[1]*h.grid.SY/3),
			}
		}
		c.FillPolygon(h.gradient.Clamped(b.Value), c.ClipPolygonXY(pts))
	}
}

// DataRange implements plot.DataRanger.
func (h *hexPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	g := h.grid
	return g.XMin - g.SX/2, g.XMax + g.SX/2, g.YMin - g.SY/3, g.YMax + g.SY/3
}

// FigureFormat returns the image format implied by a file name.
func FigureFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "svg", "pdf":
		return ext, nil
	}
	return "", &sensitivity.ConfigurationError{Msg: fmt.Sprintf("unsupported figure format %q (want .png, .svg or .pdf)", filepath.Ext(path))}
}

// HexBinFigure draws one hex-bin panel per input pair, three panels to a
// row, each with a color bar labelled with the result name, and writes the
// figure in format ("png", "svg" or "pdf").
func HexBinFigure(w io.Writer, data *sensitivity.PlotData, format string) error {
	if data == nil || len(data.Panels) == 0 {
		return &sensitivity.ConfigurationError{Msg: "no panels to plot"}
	}
	rows := (len(data.Panels) + PanelsPerRow - 1) / PanelsPerRow

	cw, err := draw.NewFormattedCanvas(FigureWidth, RowHeight*vg.Length(rows), format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	dc := draw.New(cw)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      PanelsPerRow,
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}

	for i, panel := range data.Panels {
		main, bar, err := panelPlots(panel, data)
		if err != nil {
			return err
		}
		tile := tiles.At(dc, i%PanelsPerRow, i/PanelsPerRow)
		width := tile.Max.X - tile.Min.X
		main.Draw(draw.Crop(tile, 0, -colorBarWidth, 0, 0))
		bar.Draw(draw.Crop(tile, width-colorBarWidth, 0, 0, 0))
	}

	if _, err := cw.WriteTo(w); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	return nil
}

func panelPlots(panel sensitivity.Panel, data *sensitivity.PlotData) (*plot.Plot, *plot.Plot, error) {
	grid, err := BinHex(panel.X, panel.Y, panel.C, data.GridSize, data.Agg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", panel.Pair, err)
	}
	grad, err := StyleGradient(data.Style)
	if err != nil {
		return nil, nil, err
	}
	lo, hi, ok := grid.ValueRange()
	if !ok {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	grad.SetMin(lo)
	grad.SetMax(hi)

	p := plot.New()
	p.X.Label.Text = panel.Pair.A
	p.Y.Label.Text = panel.Pair.B
	p.Add(&hexPlotter{grid: grid, gradient: grad})
	if panel.XTicks != nil {
		p.X.Tick.Marker = constantTicks(panel.XTicks)
	}
	if panel.YTicks != nil {
		p.Y.Tick.Marker = constantTicks(panel.YTicks)
	}

	bar := plot.New()
	bar.HideX()
	bar.Y.Label.Text = data.ResultName
	bar.Add(&plotter.ColorBar{ColorMap: grad, Vertical: true, Colors: 64})
	return p, bar, nil
}

func constantTicks(ticks []sensitivity.Tick) plot.ConstantTicks {
	out := make(plot.ConstantTicks, len(ticks))
	for i, t := range ticks {
		out[i] = plot.Tick{Value: t.Value, Label: t.Label}
	}
	return out
}
