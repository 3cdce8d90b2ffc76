package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/config"
	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
	"github.com/banshee-data/sensitivity/internal/store"
)

type runFlags struct {
	workers    int
	noStore    bool
	noProgress bool
}

func newRunCommand(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <config.yaml|config.json>",
		Short: "Evaluate a model over every input combination and write reports",
		Long: `Evaluate the configured model once for every combination of input values,
print the styled sensitivity tables and write the configured artifacts (CSV,
HTML, XLSX, heatmap page, hex-bin figure). The run is saved to the database
unless --no-store is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], f)
		},
	}

	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Concurrent evaluations (overrides the config)")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "Do not save the run to the database")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func (a *app) run(cmd *cobra.Command, path string, f *runFlags) error {
	ctx := cmd.Context()

	cfg, err := config.LoadAnalysisConfig(path)
	if err != nil {
		return &sensitivity.ConfigurationError{Msg: path, Err: err}
	}
	spec, err := cfg.InputSpec()
	if err != nil {
		return err
	}
	total, err := spec.Count()
	if err != nil {
		return err
	}
	tgt, err := resolveTarget(ctx, cfg, a.registry, spec.Names())
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Fixed = tgt.fixed
	opts.Parameters = tgt.params
	if f.workers > 0 {
		opts.Workers = f.workers
	}

	var bar *progressObserver
	if !f.noProgress && !a.quiet && isTerminal(cmd.ErrOrStderr()) {
		bar = newProgressObserver(total, cmd.ErrOrStderr())
		opts.Observer = bar
	}

	log.Printf("Evaluating %s over %d combinations of %s", tgt.name, total, strings.Join(spec.Names(), ", "))
	start := a.clock.Now()
	an, err := sensitivity.New(ctx, spec, tgt.fn, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	elapsed := a.clock.Since(start)
	log.Printf("Evaluated %d combinations in %s", an.Table().Len(), elapsed.Round(time.Millisecond))

	out := configOutputs(cfg)
	rep := &report{title: cfg.GetTitle(), table: an.Table()}
	if rep.views, err = an.StyledViews(sensitivity.ViewOptions{}); err != nil {
		return err
	}
	if out.needPlot() {
		if rep.plot, err = an.Plot(sensitivity.ViewOptions{}); err != nil {
			return err
		}
	}
	if err := rep.write(a.fsys, out, cmd.OutOrStdout()); err != nil {
		return err
	}

	if f.noStore || a.dbPath == "" {
		return nil
	}
	return a.saveRun(cmd, cfg, tgt, an, elapsed)
}

func (a *app) saveRun(cmd *cobra.Command, cfg *config.AnalysisConfig, tgt *target, an *sensitivity.Analyzer, elapsed time.Duration) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := json.Marshal(render.Presentation{
		ColorMap:      cfg.GetColorMap(),
		ReverseColors: cfg.GetReverseColors(),
		NumFmt:        cfg.GetNumFmt(),
		GridSize:      cfg.GetGridSize(),
		Labels:        cfg.Labels,
	})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	run := &store.Run{
		Title:    cfg.GetTitle(),
		Model:    tgt.name,
		AggFunc:  cfg.GetAggFunc(),
		Duration: elapsed,
		Settings: settings,
	}
	if err := st.SaveRun(cmd.Context(), run, an.RawTable()); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	log.Printf("Saved run %s to %s", run.ID, a.dbPath)

	same, err := st.FindByFingerprint(cmd.Context(), run.Fingerprint)
	if err != nil {
		return err
	}
	for _, prior := range same {
		if prior.ID != run.ID {
			log.Printf("Results are identical to run %s (%s)", prior.ID, prior.CreatedAt.Format(time.DateTime))
		}
	}
	return nil
}
