package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/tui"
)

func (a *app) formCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Open the interactive calculator form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			table, err := a.rateTable(ctx, "")
			if err != nil {
				return err
			}

			m := tui.NewModel(ctx, table, tui.Options{
				Prefs:     preference.NewService(a.prefs, table),
				Formatter: a.formatter,
			})
			return tui.Run(ctx, m)
		},
	}
}
