package render

import (
	"fmt"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Presentation is how a result table is rendered, independent of how it was
// evaluated. It is stored alongside a run so the run can be re-rendered
// without evaluating the model again.
type Presentation struct {
	Agg           string            `json:"-"`
	ColorMap      string            `json:"color_map"`
	ReverseColors bool              `json:"reverse_colors"`
	NumFmt        string            `json:"num_fmt"`
	GridSize      int               `json:"grid_size"`
	Labels        map[string]string `json:"labels,omitempty"`
}

// DefaultPresentation returns the presentation used when nothing is set.
func DefaultPresentation() Presentation {
	return Presentation{
		Agg:      sensitivity.DefaultAggregator,
		ColorMap: sensitivity.DefaultColorMap,
		NumFmt:   DefaultNumFmt,
		GridSize: sensitivity.DefaultGridSize,
	}
}

// Style returns the table style of p.
func (p Presentation) Style() sensitivity.Style {
	return sensitivity.Style{ColorMap: p.ColorMap, ReverseColors: p.ReverseColors, NumFmt: p.NumFmt}
}

// Validate checks every field resolves. Failures are ConfigurationErrors.
func (p Presentation) Validate() error {
	if _, err := sensitivity.DefaultAggregators().Lookup(p.Agg); err != nil {
		return err
	}
	if _, err := NewGradient(p.ColorMap, p.ReverseColors); err != nil {
		return err
	}
	if err := CheckNumFmt(p.NumFmt); err != nil {
		return err
	}
	if p.GridSize <= 0 {
		return &sensitivity.ConfigurationError{Msg: fmt.Sprintf("grid size must be positive, got %d", p.GridSize)}
	}
	return nil
}

// Rendered is a table prepared for the renderers.
type Rendered struct {
	Table *sensitivity.Table
	Views []sensitivity.View
	Plot  *sensitivity.PlotData
}

// Render relabels t and builds its styled views, and the hex-bin plot data
// when withPlot is set.
func (p Presentation) Render(t *sensitivity.Table, withPlot bool) (*Rendered, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	agg, err := sensitivity.DefaultAggregators().Lookup(p.Agg)
	if err != nil {
		return nil, err
	}
	labelled := t.Rename(p.Labels)
	out := &Rendered{Table: labelled}
	if out.Views, err = sensitivity.TableViews(labelled, agg, p.Style()); err != nil {
		return nil, err
	}
	if withPlot {
		if out.Plot, err = sensitivity.PlotTable(labelled, agg, p.GridSize, p.Style()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
