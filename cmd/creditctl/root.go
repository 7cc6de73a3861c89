package main

import (
	"context"
	"log/slog"

	"credit-engine/internal/app"
	"credit-engine/internal/config"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Operational commands for the credit engine",
		Long:          "Loads spreadsheets, refreshes customer debt and manages the database schema outside the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", ".", "Directory containing config.yml")

	root.AddCommand(newIngestCmd(opts), newRecalculateDebtCmd(opts), newMigrateCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(cfg.Logger), nil
}

// environment holds the connections a database-backed command needs.
type environment struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	components *app.Components
}

func openEnvironment(ctx context.Context, opts *rootOptions) (*environment, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		components: app.NewComponents(pool, nil, app.NewClock(cfg.Credit, logger), logger),
	}, nil
}

func (e *environment) Close() {
	e.pool.Close()
}
