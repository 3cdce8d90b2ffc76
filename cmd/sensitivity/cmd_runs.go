package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
	"github.com/banshee-data/sensitivity/internal/store"
)

// maxTitleWidth bounds the title column of the run listing, in cells.
const maxTitleWidth = 32

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// listTable renders rows under headers as a bordered terminal table.
func listTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func newRunsCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
				return err
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					runewidth.Truncate(r.Title, maxTitleWidth, "…"),
					r.Model,
					strings.Join(r.Inputs, ", "),
					strconv.Itoa(r.RowCount),
					r.Duration.Round(time.Millisecond).String(),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				listTable([]string{"ID", "Created", "Title", "Model", "Inputs", "Rows", "Duration"}, rows))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			for _, id := range args {
				if err := st.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	})

	return cmd
}

func (a *app) openStore() (*store.Store, error) {
	if a.dbPath == "" {
		return nil, &sensitivity.ConfigurationError{Msg: "no database configured (--db)"}
	}
	return store.Open(a.dbPath, store.WithClock(a.clock))
}
