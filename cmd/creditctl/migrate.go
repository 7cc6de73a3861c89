package main

import (
	"fmt"

	"credit-engine/internal/infrastructure/database/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(root)
			if err != nil {
				return err
			}

			switch args[0] {
			case "up":
				err = postgres.RunMigrations(cfg.Database.URL)
			case "down":
				err = postgres.RunMigrationsDown(cfg.Database.URL)
			}
			if err != nil {
				return err
			}
			logger.Info("Migrations applied", "direction", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return nil
		},
	}
}
