package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/preference"
)

func (a *app) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved preferences (theme, rank)",
	}

	service := func(cmd *cobra.Command) (*preference.Service, error) {
		table, err := a.rateTable(cmd.Context(), "")
		if err != nil {
			return nil, err
		}
		return preference.NewService(a.prefs, table), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(cmd)
			if err != nil {
				return err
			}
			all, err := svc.All(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, all[k])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(cmd)
			if err != nil {
				return err
			}
			value, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(cmd)
			if err != nil {
				return err
			}
			if err := svc.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			value, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], value)
			return nil
		},
	})

	return cmd
}
