/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime allowance API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize SQLite store (migrations run here)
  3. Store any missing preset rate tables
  4. Create API handler, load stored rate tables
  5. Configure HTTP router
  6. Run the server and form sweeper under one errgroup

COMMAND-LINE FLAGS:
  -config  YAML config file (default: ./overtime.yaml if present)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the form sweeper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/overtime.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  OVERTIME_SERVER_PORT=3000 ./server

ENVIRONMENT:
  Every config key can be set as OVERTIME_<SECTION>_<KEY>, also from .env.
  See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port, *dbPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, port int, dbPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = fmt.Sprint(port)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	appLog := logging.Component(logger, logging.ComponentApp)

	// Initialize store
	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Optional rate table document
	var fileTable *allowance.RateTable
	if cfg.Engine.RateTableFile != "" {
		fileTable, err = factory.LoadRateTableFile(cfg.Engine.RateTableFile)
		if err != nil {
			return err
		}
	}

	// Initialize handler
	handler, err := api.NewHandler(store, api.Options{
		DefaultTableID: cfg.Engine.RateTable,
		DefaultTable:   fileTable,
		Locale:         cfg.Engine.Locale,
		FormTTL:        cfg.Server.FormTTL,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seeded, err := handler.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to store preset rate tables: %w", err)
	}
	if err := handler.LoadRateTables(ctx); err != nil {
		appLog.Warn("failed to load rate tables", logging.FieldError, err)
	}
	table, err := handler.DefaultRateTable(ctx)
	if err != nil {
		return fmt.Errorf("default rate table: %w", err)
	}

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweeper := api.NewFormSweeper(handler.Forms, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.Info("server starting",
			"addr", "http://localhost:"+cfg.Server.Port,
			"rate_table", table.ID,
			"table_version", table.Version,
			"presets_stored", seeded,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	appLog.Info("server stopped")
	return nil
}
