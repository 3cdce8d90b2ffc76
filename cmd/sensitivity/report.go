package main

import (
	"fmt"
	"io"
	"log"

	"github.com/banshee-data/sensitivity/internal/config"
	"github.com/banshee-data/sensitivity/internal/fsutil"
	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// outputs are the artifact paths of one report. Empty paths are skipped.
type outputs struct {
	csv, html, xlsx, heatmap, figure string
	terminal                         bool
}

func (o outputs) needPlot() bool { return o.figure != "" }

func configOutputs(cfg *config.AnalysisConfig) outputs {
	deref := func(p *string) string {
		if p == nil || *p == "" {
			return ""
		}
		return cfg.ResolvePath(*p)
	}
	return outputs{
		csv:      deref(cfg.Outputs.CSV),
		html:     deref(cfg.Outputs.HTML),
		xlsx:     deref(cfg.Outputs.XLSX),
		heatmap:  deref(cfg.Outputs.Heatmap),
		figure:   deref(cfg.Outputs.Figure),
		terminal: cfg.GetTerminal(),
	}
}

// report is the rendered result of a run.
type report struct {
	title string
	table *sensitivity.Table
	views []sensitivity.View
	plot  *sensitivity.PlotData
}

// write renders every requested artifact. The terminal table goes to
// stdout; files are written through fsys.
func (r *report) write(fsys fsutil.FileSystem, out outputs, stdout io.Writer) error {
	if out.terminal {
		s, err := render.TerminalTable(r.views)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, s); err != nil {
			return err
		}
	}

	artifacts := []struct {
		path  string
		write func(w io.Writer) error
	}{
		{out.csv, r.table.WriteCSV},
		{out.html, func(w io.Writer) error { return render.HTMLTable(w, r.title, r.views) }},
		{out.xlsx, func(w io.Writer) error { return render.Workbook(w, r.views) }},
		{out.heatmap, func(w io.Writer) error { return render.HeatmapPage(w, r.title, r.views) }},
		{out.figure, r.writeFigure(out.figure)},
	}
	for _, a := range artifacts {
		if a.path == "" {
			continue
		}
		if err := fsutil.WriteArtifact(fsys, a.path, a.write); err != nil {
			return err
		}
		log.Printf("Wrote %s", a.path)
	}
	return nil
}

func (r *report) writeFigure(path string) func(w io.Writer) error {
	return func(w io.Writer) error {
		if r.plot == nil {
			return fmt.Errorf("no plot data for %s", path)
		}
		format, err := render.FigureFormat(fsutil.TrimCompression(path))
		if err != nil {
			return err
		}
		return render.HexBinFigure(w, r.plot, format)
	}
}
