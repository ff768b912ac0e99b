package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/store/sqlite"
)

var version = "dev"

// app holds state shared by every subcommand of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	noDB     bool
	tableSet bool // --table given explicitly

	cfg       *config.Config
	logger    *slog.Logger
	formatter *allowance.CurrencyFormatter
	store     *sqlite.Store
	prefs     preference.Store
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "overtime",
		Short: "Overtime allowance calculator",
		Long: `overtime computes overtime allowances from per-category day counts.

Counts are priced with a versioned rate table, 5% tax is deducted and the
itemized breakdown is printed, opened in an interactive form or written
as a PDF payslip.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.initConfig,
		PersistentPostRunE: a.close,
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./overtime.yaml or $HOME/.config/overtime/overtime.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("db", "", "SQLite database path")
	root.PersistentFlags().String("table", "", "rate table id")
	root.PersistentFlags().BoolVar(&a.noDB, "no-db", false, "keep preferences in memory and use built-in rate tables only")

	// Bind flags to viper
	_ = a.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("database.path", root.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("engine.rate_table", root.PersistentFlags().Lookup("table"))

	// Add commands
	root.AddCommand(a.calcCmd())
	root.AddCommand(a.tablesCmd())
	root.AddCommand(a.formCmd())
	root.AddCommand(a.prefsCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if f := cmd.Flag("table"); f != nil {
		a.tableSet = f.Changed
	}

	cfg, err := config.LoadWith(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	a.logger = logging.Component(logger, logging.ComponentCLI)

	a.formatter, err = allowance.NewCurrencyFormatterFor(cfg.Engine.Locale)
	if err != nil {
		return err
	}
	return nil
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// openStore opens the configured database once. With --no-db it only sets
// up an in-memory preference store.
func (a *app) openStore() error {
	if a.prefs != nil {
		return nil
	}
	if a.noDB {
		a.prefs = preference.NewMemory()
		return nil
	}

	if err := a.cfg.EnsureDataDir(); err != nil {
		return err
	}
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.logger.Debug("database opened", "path", a.cfg.Database.Path)
	a.store = store
	a.prefs = store
	return nil
}

// rateTable resolves id, or the configured default when id is empty. The
// default is engine.rate_table_file unless --table was given. Stored tables
// shadow presets with the same id.
func (a *app) rateTable(ctx context.Context, id string) (*allowance.RateTable, error) {
	if err := a.openStore(); err != nil {
		return nil, err
	}

	if id == "" {
		if a.cfg.Engine.RateTableFile != "" && !a.tableSet {
			return factory.LoadRateTableFile(a.cfg.Engine.RateTableFile)
		}
		id = a.cfg.Engine.RateTable
	}

	if a.store != nil {
		record, err := a.store.GetRateTable(ctx, id)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return factory.ParseRateTable(record.ConfigJSON)
		}
	}
	return factory.Preset(id)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "overtime %s\n", version)
		},
	}
}
