package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/fsutil"
	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/store"
)

type showFlags struct {
	agg      string
	colorMap string
	reverse  bool
	numFmt   string
	gridSize int
	out      outputs
}

func newShowCommand(a *app) *cobra.Command {
	f := &showFlags{}
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Re-render a stored run",
		Long: `Reload a stored run and render it again. Presentation defaults to the
settings the run was made with; flags override them without re-evaluating
the model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.show(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.agg, "agg", "", "Aggregation for repeated cells (default: the run's)")
	cmd.Flags().StringVar(&f.colorMap, "color-map", "", "Color map name, \"_r\" suffix reverses")
	cmd.Flags().BoolVar(&f.reverse, "reverse", false, "Reverse the color map")
	cmd.Flags().StringVar(&f.numFmt, "num-fmt", "", "Number format verb, e.g. %.2f")
	cmd.Flags().IntVar(&f.gridSize, "grid-size", 0, "Hex bins per plot axis")
	cmd.Flags().BoolVar(&f.out.terminal, "terminal", true, "Print styled tables")
	cmd.Flags().StringVar(&f.out.csv, "csv", "", "Write the result table as CSV")
	cmd.Flags().StringVar(&f.out.html, "html", "", "Write styled HTML tables")
	cmd.Flags().StringVar(&f.out.xlsx, "xlsx", "", "Write a styled Excel workbook")
	cmd.Flags().StringVar(&f.out.heatmap, "heatmap", "", "Write an interactive heatmap page")
	cmd.Flags().StringVar(&f.out.figure, "figure", "", "Write the hex-bin figure (.png, .svg or .pdf)")

	return cmd
}

func (a *app) show(cmd *cobra.Command, id string, f *showFlags) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, table, err := st.LoadRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	p, err := storedPresentation(run)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("agg") {
		p.Agg = f.agg
	}
	if flags.Changed("color-map") {
		p.ColorMap = f.colorMap
	}
	if flags.Changed("reverse") {
		p.ReverseColors = f.reverse
	}
	if flags.Changed("num-fmt") {
		p.NumFmt = f.numFmt
	}
	if flags.Changed("grid-size") {
		p.GridSize = f.gridSize
	}
	if f.out.figure != "" {
		if _, err := render.FigureFormat(fsutil.TrimCompression(f.out.figure)); err != nil {
			return err
		}
	}

	r, err := p.Render(table, f.out.needPlot())
	if err != nil {
		return err
	}
	rep := &report{title: run.Title, table: r.Table, views: r.Views, plot: r.Plot}
	return rep.write(a.fsys, f.out, cmd.OutOrStdout())
}

// storedPresentation decodes the presentation saved with run over the
// defaults.
func storedPresentation(run *store.Run) (render.Presentation, error) {
	p := render.DefaultPresentation()
	if err := run.DecodeSettings(&p); err != nil {
		return p, err
	}
	if run.AggFunc != "" {
		p.Agg = run.AggFunc
	}
	return p, nil
}
