// Package render turns sensitivity views and plot data into styled tables,
// workbooks, chart pages and figures.
package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot/palette"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// reversedSuffix flips a named color map, e.g. "RdYlGn_r".
const reversedSuffix = "_r"

// Stops are ordered from the low end of the map to the high end.
var colorMaps = map[string][]string{
	"RdYlGn":   {"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee08b", "#ffffbf", "#d9ef8b", "#a6d96a", "#66bd63", "#1a9850", "#006837"},
	"RdYlBu":   {"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee090", "#ffffbf", "#e0f3f8", "#abd9e9", "#74add1", "#4575b4", "#313695"},
	"RdBu":     {"#67001f", "#b2182b", "#d6604d", "#f4a582", "#fddbc7", "#f7f7f7", "#d1e5f0", "#92c5de", "#4393c3", "#2166ac", "#053061"},
	"viridis":  {"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
	"plasma":   {"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"},
	"coolwarm": {"#3b4cc0", "#6788ee", "#9abbff", "#c9d7f0", "#edd1c2", "#f7a889", "#e26952", "#b40426"},
	"Blues":    {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	"Greens":   {"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"},
	"Reds":     {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
	"Greys":    {"#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525", "#000000"},
}

// ColorMapNames lists the known color maps, without reversed variants.
func ColorMapNames() []string {
	names := make([]string, 0, len(colorMaps))
	for name := range colorMaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gradient is a piecewise-linear color map blended in CIE-Lab space. It
// implements palette.ColorMap so it can drive gonum/plot color bars.
type Gradient struct {
	name     string
	stops    []colorful.Color
	min, max float64
	alpha    float64
}

var _ palette.ColorMap = (*Gradient)(nil)

// NewGradient returns the named color map over [0, 1]. A "_r" suffix and
// reverse each flip the direction, so both together cancel out.
func NewGradient(name string, reverse bool) (*Gradient, error) {
	base := name
	if strings.HasSuffix(base, reversedSuffix) {
		base = strings.TrimSuffix(base, reversedSuffix)
		reverse = !reverse
	}
	hexes, ok := colorMaps[base]
	if !ok {
		return nil, &sensitivity.ConfigurationError{Msg: fmt.Sprintf("unknown color map %q", name)}
	}
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("color map %s stop %d: %w", base, i, err)
		}
		stops[i] = c
	}
	if reverse {
		for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
			stops[i], stops[j] = stops[j], stops[i]
		}
	}
	return &Gradient{name: name, stops: stops, max: 1, alpha: 1}, nil
}

// StyleGradient builds the gradient for a view style.
func StyleGradient(style sensitivity.Style) (*Gradient, error) {
	name := style.ColorMap
	if name == "" {
		name = sensitivity.DefaultColorMap
	}
	return NewGradient(name, style.ReverseColors)
}

// Name returns the map name the gradient was built from.
func (g *Gradient) Name() string { return g.name }

// At implements palette.ColorMap.
func (g *Gradient) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v > g.max:
		return nil, palette.ErrOverflow
	case v < g.min:
		return nil, palette.ErrUnderflow
	}
	c := g.blend(g.fraction(v))
	r, gr, b := c.RGB255()
	return color.NRGBA{R: r, G: gr, B: b, A: uint8(math.Round(g.alpha * 255))}, nil
}

// Clamped returns the color for v, pinning out of range values to the ends
// of the map.
func (g *Gradient) Clamped(v float64) colorful.Color {
	return g.blend(g.fraction(v))
}

// Hex returns the clamped color for v as "#rrggbb".
func (g *Gradient) Hex(v float64) string {
	return g.Clamped(v).Hex()
}

// Sample returns n evenly spaced colors from the low end to the high end.
func (g *Gradient) Sample(n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	out := make([]colorful.Color, n)
	for i := range out {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = g.blend(t)
	}
	return out
}

// HexStops returns n evenly spaced colors as hex strings.
func (g *Gradient) HexStops(n int) []string {
	colors := g.Sample(n)
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.Hex()
	}
	return out
}

// fraction maps v into [0, 1]. A degenerate range maps to the midpoint.
func (g *Gradient) fraction(v float64) float64 {
	if g.max <= g.min || math.IsNaN(v) {
		return 0.5
	}
	t := (v - g.min) / (g.max - g.min)
	return math.Max(0, math.Min(1, t))
}

func (g *Gradient) blend(t float64) colorful.Color {
	if len(g.stops) == 1 {
		return g.stops[0]
	}
	pos := t * float64(len(g.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(g.stops)-1 {
		return g.stops[len(g.stops)-1]
	}
	frac := pos - float64(i)
	if frac == 0 {
		return g.stops[i]
	}
	return g.stops[i].BlendLab(g.stops[i+1], frac).Clamped()
}

// Max implements palette.ColorMap.
func (g *Gradient) Max() float64 { return g.max }

// SetMax implements palette.ColorMap.
func (g *Gradient) SetMax(v float64) { g.max = v }

// Min implements palette.ColorMap.
func (g *Gradient) Min() float64 { return g.min }

// SetMin implements palette.ColorMap.
func (g *Gradient) SetMin(v float64) { g.min = v }

// Alpha implements palette.ColorMap.
func (g *Gradient) Alpha() float64 { return g.alpha }

// SetAlpha implements palette.ColorMap.
func (g *Gradient) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic(fmt.Sprintf("render: alpha %v out of range [0, 1]", a))
	}
	g.alpha = a
}

// Palette implements palette.ColorMap.
func (g *Gradient) Palette(colors int) palette.Palette {
	out := make(colorList, 0, colors)
	for _, c := range g.Sample(colors) {
		r, gr, b := c.RGB255()
		out = append(out, color.NRGBA{R: r, G: gr, B: b, A: uint8(math.Round(g.alpha * 255))})
	}
	return out
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

// textColor picks black or white text for legibility on background bg.
func textColor(bg colorful.Color) string {
	l, _, _ := bg.Lab()
	if l < 0.55 {
		return "#ffffff"
	}
	return "#000000"
}
