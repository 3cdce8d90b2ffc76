package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse stored runs over HTTP",
		Long: `Serve the stored runs: an index page, styled tables, heatmap pages and
hex-bin figures per run, and a JSON API under /api/runs. Presentation can be
overridden per request with the agg, color_map, reverse, num_fmt and
grid_size query parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(server.Config{Address: listen, Store: st, Clock: a.clock})
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "localhost:8080", "Address to listen on")
	return cmd
}
