package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/store/sqlite"
)

func (a *app) tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables [ID]",
		Short: "List rate tables or print one as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.showTable(cmd, args[0])
			}
			return a.listTables(cmd)
		},
	}

	cmd.AddCommand(a.tablesImportCmd())
	return cmd
}

func (a *app) listTables(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := a.openStore(); err != nil {
		return err
	}

	tables := make(map[string]*allowance.RateTable)
	for _, id := range factory.PresetIDs() {
		tables[id] = factory.MustPreset(id)
	}
	if a.store != nil {
		records, err := a.store.ListRateTables(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			table, err := factory.ParseRateTable(rec.ConfigJSON)
			if err != nil {
				a.logger.Warn("skipping invalid stored rate table", "rate_table", rec.ID, logging.FieldError, err)
				continue
			}
			tables[rec.ID] = table
		}
	}

	sorted := make([]*allowance.RateTable, 0, len(tables))
	for _, t := range tables {
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Version != sorted[j].Version {
			return sorted[i].Version < sorted[j].Version
		}
		return sorted[i].ID < sorted[j].ID
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tNAME\tRANKS\t")
	for _, t := range sorted {
		id := t.ID
		if id == a.cfg.Engine.RateTable {
			id += " *"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t\n", id, t.Version, t.Name, len(t.Ranks()))
	}
	return w.Flush()
}

func (a *app) showTable(cmd *cobra.Command, id string) error {
	table, err := a.rateTable(cmd.Context(), id)
	if err != nil {
		return err
	}
	doc, err := factory.MarshalRateTable(table)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), doc)
	return nil
}

func (a *app) tablesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Store a JSON or YAML rate table in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.noDB {
				return fmt.Errorf("import needs a database; drop --no-db")
			}
			table, err := factory.LoadRateTableFile(args[0])
			if err != nil {
				return err
			}
			if err := a.openStore(); err != nil {
				return err
			}

			doc, err := factory.MarshalRateTable(table)
			if err != nil {
				return err
			}
			err = a.store.SaveRateTable(cmd.Context(), sqlite.RateTableRecord{
				ID:         table.ID,
				Name:       table.Name,
				Version:    table.Version,
				ConfigJSON: doc,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (version %d, %d categories)\n",
				table.ID, table.Version, len(table.Categories()))
			return nil
		},
	}
}
