package main

import (
	"fmt"

	"credit-engine/internal/batch"

	"github.com/spf13/cobra"
)

func newRecalculateDebtCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate-debt",
		Short: "Recompute every customer's current debt from active loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := batch.NewDebtRecalculationJob(env.components.Recalculator, env.logger).Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Current debts updated.")
			return nil
		},
	}
}
