package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// EChartsAssetsHost serves the echarts javascript referenced by rendered
// pages. Empty keeps the go-echarts default CDN.
var EChartsAssetsHost = ""

// HeatmapPage writes an interactive HTML page with one heatmap per view.
func HeatmapPage(w io.Writer, title string, views []sensitivity.View) error {
	grids, err := viewsToGrids(views)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = title
	if EChartsAssetsHost != "" {
		page.SetAssetsHost(EChartsAssetsHost)
	}
	for _, g := range grids {
		page.AddCharts(heatmap(g))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render heatmap page: %w", err)
	}
	return nil
}

func heatmap(g *grid) *charts.HeatMap {
	data := make([]opts.HeatMapData, 0, len(g.rowHeads)*len(g.colHeads))
	for i := range g.rowHeads {
		for j := range g.colHeads {
			v := g.values[i][j]
			if !g.present[i][j] || math.IsNaN(v) {
				data = append(data, opts.HeatMapData{Value: []interface{}{j, i, "-"}})
				continue
			}
			data = append(data, opts.HeatMapData{Value: []interface{}{j, i, v}})
		}
	}

	lo, hi := g.min, g.max
	if !g.ok {
		lo, hi = 0, 1
	}

	height := 120 + 40*len(g.rowHeads)
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  g.title,
			Width:      "900px",
			Height:     fmt.Sprintf("%dpx", height),
			AssetsHost: EChartsAssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: g.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: g.colHeads, Name: g.corner, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: g.rowHeads}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: g.gradient.HexStops(9)},
		}),
	)
	hm.AddSeries(g.title, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}
