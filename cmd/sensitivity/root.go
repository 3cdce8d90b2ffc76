package main

import (
	"context"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/fsutil"
	"github.com/banshee-data/sensitivity/internal/model"
	"github.com/banshee-data/sensitivity/internal/timeutil"
	"github.com/banshee-data/sensitivity/internal/version"
)

const defaultDBPath = "sensitivity.db"

// app carries the dependencies shared by all subcommands.
type app struct {
	dbPath string
	quiet  bool

	registry *model.Registry
	fsys     fsutil.FileSystem
	clock    timeutil.Clock
}

func newApp() *app {
	return &app{
		registry: model.Default(),
		fsys:     fsutil.OSFileSystem{},
		clock:    timeutil.RealClock{},
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Parameter sensitivity analysis over input grids",
		Long: `sensitivity evaluates a deterministic model once for every combination of
candidate input values, then summarises how the result responds to each pair
of inputs as color-graded tables and hex-bin figures.

Runs are described by a JSON or YAML config and can be stored in SQLite and
re-rendered later without evaluating the model again.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath, "SQLite database for stored runs")
	cmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress progress and log output")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if a.quiet {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(cmd.ErrOrStderr())
		}
	}

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newRunsCommand(a))
	cmd.AddCommand(newShowCommand(a))
	cmd.AddCommand(newModelsCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func execute(ctx context.Context) error {
	return newRootCommand(newApp()).ExecuteContext(ctx)
}
