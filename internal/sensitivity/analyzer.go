package sensitivity

import (
	"context"
	"sort"
)

// Display defaults.
const (
	DefaultGridSize = 8
	DefaultColorMap = "RdYlGn"
)

// Options configures an Analyzer. Zero values select the defaults.
type Options struct {
	// ResultName names the result column (default "Result").
	ResultName string
	// Agg reduces results sharing a grid cell or matrix cell (default Mean).
	Agg AggFunc
	// ReverseColors makes low values green and high values red.
	ReverseColors bool
	// GridSize is the number of hex bins on each plot axis (default 8).
	GridSize int
	// ColorMap names the color gradient (default "RdYlGn").
	ColorMap string
	// Labels maps input names to display names.
	Labels map[string]string
	// NumFmt is a fmt verb applied to displayed numbers, e.g. "%.2f".
	NumFmt string
	// Fixed arguments are passed to every call and never varied.
	Fixed map[string]any
	// Parameters, when set, declares the names the function accepts. Every
	// input and fixed name must be declared and every declared name must be
	// supplied.
	Parameters []string
	// Observer receives evaluation progress.
	Observer ProgressObserver
	// Workers > 1 evaluates concurrently, preserving row order.
	Workers int
}

// ViewOptions overrides session options for a single query. Nil fields keep
// the session value.
type ViewOptions struct {
	Agg           AggFunc
	ColorMap      *string
	ReverseColors *bool
	GridSize      *int
	NumFmt        *string
	Labels        map[string]string
}

// Style is the presentation handed to table and plot renderers.
type Style struct {
	ColorMap      string
	ReverseColors bool
	NumFmt        string
}

// View is one styled table: either a pairwise Matrix or, for a single input,
// the raw (input, result) Table.
type View struct {
	Title  string
	Matrix *Matrix
	Table  *Table
	Style  Style
}

// Analyzer runs the evaluation once at construction and then serves
// repeatable, independent views of the result. It is safe for concurrent
// use after New returns.
type Analyzer struct {
	spec  *InputSpec
	opts  Options
	raw   *Table
	table *Table
}

// New validates the configuration, evaluates fn over every combination of
// spec and returns the evaluated session.
func New(ctx context.Context, spec *InputSpec, fn Func, opts Options) (*Analyzer, error) {
	if spec == nil || spec.Len() == 0 {
		return nil, &ConfigurationError{Err: ErrNoInputs}
	}
	if opts.GridSize < 0 {
		return nil, configErrorf("grid size must be positive, got %d", opts.GridSize)
	}
	if err := checkParameters(spec, opts.Fixed, opts.Parameters); err != nil {
		return nil, err
	}
	if err := checkLabels(spec.Names(), opts.ResultName, opts.Labels); err != nil {
		return nil, err
	}

	raw, err := Evaluate(ctx, spec, fn, EvalOptions{
		ResultName: opts.ResultName,
		Fixed:      opts.Fixed,
		Observer:   opts.Observer,
		Workers:    opts.Workers,
	})
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		spec:  spec,
		opts:  opts,
		raw:   raw,
		table: raw.Rename(opts.Labels),
	}, nil
}

func checkParameters(spec *InputSpec, fixed map[string]any, params []string) error {
	if len(params) == 0 {
		return nil
	}
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p] = true
	}
	supplied := make(map[string]bool, spec.Len()+len(fixed))
	for _, name := range spec.Names() {
		if !declared[name] {
			return configErrorf("input %q is not a parameter of the function", name)
		}
		supplied[name] = true
	}
	names := make([]string, 0, len(fixed))
	for name := range fixed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !declared[name] {
			return configErrorf("fixed argument %q is not a parameter of the function", name)
		}
		supplied[name] = true
	}
	for _, p := range params {
		if !supplied[p] {
			return configErrorf("parameter %q is neither an input nor a fixed argument", p)
		}
	}
	return nil
}

// checkLabels rejects label maps that would make two columns share a name.
func checkLabels(inputs []string, resultName string, labels map[string]string) error {
	if resultName == "" {
		resultName = DefaultResultName
	}
	seen := map[string]string{resultName: resultName}
	for _, name := range inputs {
		display := name
		if l, ok := labels[name]; ok && l != "" {
			display = l
		}
		if prev, dup := seen[display]; dup {
			return configErrorf("label %q for %q collides with column %q", display, name, prev)
		}
		seen[display] = name
	}
	return nil
}

// Spec returns the swept inputs.
func (a *Analyzer) Spec() *InputSpec { return a.spec }

// Options returns the session options.
func (a *Analyzer) Options() Options { return a.opts }

// Table returns the evaluated table with display labels applied.
func (a *Analyzer) Table() *Table { return a.table }

// RawTable returns the evaluated table keyed by input names.
func (a *Analyzer) RawTable() *Table { return a.raw }

type resolved struct {
	agg      AggFunc
	style    Style
	gridSize int
	table    *Table
}

func (a *Analyzer) resolve(v ViewOptions) (resolved, error) {
	r := resolved{
		agg: a.opts.Agg,
		style: Style{
			ColorMap:      a.opts.ColorMap,
			ReverseColors: a.opts.ReverseColors,
			NumFmt:        a.opts.NumFmt,
		},
		gridSize: a.opts.GridSize,
		table:    a.table,
	}
	if v.Agg != nil {
		r.agg = v.Agg
	}
	if r.agg == nil {
		r.agg = Mean
	}
	if v.ColorMap != nil {
		r.style.ColorMap = *v.ColorMap
	}
	if r.style.ColorMap == "" {
		r.style.ColorMap = DefaultColorMap
	}
	if v.ReverseColors != nil {
		r.style.ReverseColors = *v.ReverseColors
	}
	if v.NumFmt != nil {
		r.style.NumFmt = *v.NumFmt
	}
	if v.GridSize != nil {
		r.gridSize = *v.GridSize
	}
	if r.gridSize == 0 {
		r.gridSize = DefaultGridSize
	}
	if r.gridSize < 0 {
		return r, configErrorf("grid size must be positive, got %d", r.gridSize)
	}
	if v.Labels != nil {
		merged := make(map[string]string, len(a.opts.Labels)+len(v.Labels))
		for k, l := range a.opts.Labels {
			merged[k] = l
		}
		for k, l := range v.Labels {
			merged[k] = l
		}
		if err := checkLabels(a.raw.inputs, a.raw.resultName, merged); err != nil {
			return r, err
		}
		r.table = a.raw.Rename(merged)
	}
	return r, nil
}

// StyledViews returns the styled tables for the session: the raw table for
// a single input, one matrix for two inputs and one matrix per unordered
// pair otherwise.
func (a *Analyzer) StyledViews(v ViewOptions) ([]View, error) {
	r, err := a.resolve(v)
	if err != nil {
		return nil, err
	}
	return TableViews(r.table, r.agg, r.style)
}

// TableViews builds styled views directly from a table, e.g. one reloaded
// from storage.
func TableViews(t *Table, agg AggFunc, style Style) ([]View, error) {
	if agg == nil {
		agg = Mean
	}
	if style.ColorMap == "" {
		style.ColorMap = DefaultColorMap
	}
	switch len(t.inputs) {
	case 0:
		return nil, &ConfigurationError{Err: ErrNoInputs}
	case 1:
		return []View{{Title: t.resultName, Table: t, Style: style}}, nil
	}
	proj, err := Pairwise(t, agg)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, proj.Len())
	for _, m := range proj.Matrices() {
		views = append(views, View{Title: m.Pair.String(), Matrix: m, Style: style})
	}
	return views, nil
}

// Panel holds the raw per-combination points of one input pair.
type Panel struct {
	Pair Pair
	X    []float64
	Y    []float64
	C    []float64
	// XTicks and YTicks label positions of non-numeric axes; nil for
	// numeric axes.
	XTicks []Tick
	YTicks []Tick
}

// Tick is an axis position with its label.
type Tick struct {
	Value float64
	Label string
}

// PlotData is everything a plot renderer needs to draw the pairwise figure.
type PlotData struct {
	Panels     []Panel
	ResultName string
	GridSize   int
	Agg        AggFunc
	Style      Style
}

// Plot returns the pairwise plot data for the session. Plots need at least
// two input columns.
func (a *Analyzer) Plot(v ViewOptions) (*PlotData, error) {
	r, err := a.resolve(v)
	if err != nil {
		return nil, err
	}
	return PlotTable(r.table, r.agg, r.gridSize, r.style)
}

// PlotTable builds pairwise plot data directly from a table.
func PlotTable(t *Table, agg AggFunc, gridSize int, style Style) (*PlotData, error) {
	switch len(t.inputs) {
	case 0:
		return nil, &ConfigurationError{Err: ErrNoInputs}
	case 1:
		return nil, configErrorf("plotting needs at least two input columns, got %q", t.inputs[0])
	}
	if agg == nil {
		agg = Mean
	}
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	if style.ColorMap == "" {
		style.ColorMap = DefaultColorMap
	}

	axes := make([][]float64, len(t.inputs))
	ticks := make([][]Tick, len(t.inputs))
	for i := range t.inputs {
		axes[i], ticks[i] = numericAxis(t, i)
	}
	results := t.Results()

	data := &PlotData{ResultName: t.resultName, GridSize: gridSize, Agg: agg, Style: style}
	for _, pair := range Pairs(t.inputs) {
		ia, ib := t.Index(pair.A), t.Index(pair.B)
		data.Panels = append(data.Panels, Panel{
			Pair:   pair,
			X:      axes[ia],
			Y:      axes[ib],
			C:      results,
			XTicks: ticks[ia],
			YTicks: ticks[ib],
		})
	}
	return data, nil
}

// numericAxis maps column i to plot coordinates. Numeric columns plot their
// value; any non-numeric value switches the column to categorical positions
// 0..n-1 in first-appearance order with matching ticks.
func numericAxis(t *Table, i int) ([]float64, []Tick) {
	out := make([]float64, len(t.rows))
	numeric := true
	for k, r := range t.rows {
		if _, isStr := r.Inputs[i].(string); isStr {
			numeric = false
			break
		}
		if _, isBool := r.Inputs[i].(bool); isBool {
			numeric = false
			break
		}
		f, ok := ToFloat64(r.Inputs[i])
		if !ok {
			numeric = false
			break
		}
		out[k] = f
	}
	if numeric {
		return out, nil
	}

	pos := make(map[any]int)
	var ticks []Tick
	for k, r := range t.rows {
		p, ok := pos[r.Inputs[i]]
		if !ok {
			p = len(ticks)
			pos[r.Inputs[i]] = p
			ticks = append(ticks, Tick{Value: float64(p), Label: FormatValue(r.Inputs[i])})
		}
		out[k] = float64(p)
	}
	return out, ticks
}
