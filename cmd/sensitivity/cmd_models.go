package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List built-in models, aggregations and color maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var rows [][]string
			for _, m := range a.registry.List() {
				rows = append(rows, []string{m.Name, m.Version, strings.Join(m.Parameters, ", "), formatDefaults(m.Defaults), m.Description})
			}
			fmt.Fprintln(out, listTable([]string{"Model", "Version", "Parameters", "Defaults", "Description"}, rows))

			rows = rows[:0]
			for _, agg := range sensitivity.DefaultAggregators().List() {
				rows = append(rows, []string{agg.Name, agg.Description})
			}
			fmt.Fprintln(out, listTable([]string{"Aggregation", "Description"}, rows))

			_, err := fmt.Fprintf(out, "Color maps: %s (append _r to reverse)\n", strings.Join(render.ColorMapNames(), ", "))
			return err
		},
	}
}

func formatDefaults(defaults map[string]any) string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + sensitivity.FormatValue(defaults[k])
	}
	return strings.Join(parts, " ")
}
