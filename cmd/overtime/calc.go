package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/render"
)

func (a *app) calcCmd() *cobra.Command {
	var (
		rank   string
		sets   []string
		pdfOut string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate an allowance from day counts",
		Long: `Calculate an allowance from per-category day counts.

Counts are given as Category=value. Invalid values count as zero and are
reported as warnings. Without --rank the last remembered rank is used.`,
		Example: `  overtime calc --rank "Level 2" --set "Regular Night=2" --set "Holiday=1"
  overtime calc --table fixed-v1 --set "Civic Day=1" --pdf payslip.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			raw, err := parseSets(sets)
			if err != nil {
				return err
			}

			table, err := a.rateTable(ctx, "")
			if err != nil {
				return err
			}
			prefs := preference.NewService(a.prefs, table)

			if rank == "" && table.UsesRanks() {
				if rank, err = prefs.Get(ctx, preference.KeyRank); err != nil {
					return err
				}
			}

			counts, notices := collector.CoerceStrings(table, raw)
			for _, n := range notices {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", n.Error())
			}

			result, err := allowance.Calculate(table, counts, rank)
			if err != nil {
				return err
			}
			if result.Rank != "" {
				if err := prefs.Set(ctx, preference.KeyRank, result.Rank); err != nil {
					a.logger.Warn("failed to remember rank", "rank", result.Rank, logging.FieldError, err)
				}
			}

			b := render.NewBreakdown(result, a.formatter, table.CurrencySymbol)
			a.logger.Debug("calculated", "table", table.ID, "rank", result.Rank, "net", result.NetAmount.String())

			if pdfOut != "" {
				if err := writePDF(pdfOut, b, table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", pdfOut)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}

			theme, err := prefs.Get(ctx, preference.KeyTheme)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Text(b, render.Theme(theme)))
			return nil
		},
	}

	cmd.Flags().StringVar(&rank, "rank", "", "rank for rank-dependent categories")
	cmd.Flags().StringArrayVar(&sets, "set", nil, `day count as "Category=value" (repeatable)`)
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "also write the breakdown to this PDF file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")

	return cmd
}

// parseSets splits "Category=value" pairs. A repeated category keeps the
// last value.
func parseSets(sets []string) (map[string]string, error) {
	raw := make(map[string]string, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected Category=value", s)
		}
		raw[name] = value
	}
	return raw, nil
}

func writePDF(path string, b render.Breakdown, table *allowance.RateTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	meta := render.PayslipMeta{
		Title:        table.Name,
		CurrencyCode: table.CurrencyCode,
		GeneratedAt:  time.Now(),
	}
	if err := render.PDF(f, b, meta); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return f.Close()
}
