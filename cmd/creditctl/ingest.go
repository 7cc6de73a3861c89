package main

import (
	"fmt"

	"credit-engine/internal/app"
	"credit-engine/internal/event"
	"credit-engine/internal/ingestion"

	"github.com/spf13/cobra"
)

type ingestOptions struct {
	customerFile string
	loanFile     string
	async        bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load customers and loans from spreadsheets and refresh current debt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.async {
				return runIngestAsync(cmd, root, opts)
			}
			return runIngest(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.customerFile, "customers", "", "Path to the customer spreadsheet (.xlsx)")
	cmd.Flags().StringVar(&opts.loanFile, "loans", "", "Path to the loan spreadsheet (.xlsx)")
	cmd.Flags().BoolVar(&opts.async, "async", false, "Queue the run on RabbitMQ and print the task id")
	_ = cmd.MarkFlagRequired("customers")
	_ = cmd.MarkFlagRequired("loans")
	return cmd
}

func runIngest(cmd *cobra.Command, root *rootOptions, opts *ingestOptions) error {
	env, err := openEnvironment(cmd.Context(), root)
	if err != nil {
		return err
	}
	defer env.Close()

	status, err := env.components.Pipeline.Run(cmd.Context(), opts.customerFile, opts.loanFile)
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return err
}

func runIngestAsync(cmd *cobra.Command, root *rootOptions, opts *ingestOptions) error {
	cfg, logger, err := loadConfig(root)
	if err != nil {
		return err
	}

	conn, err := app.ConnectRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		return err
	}
	defer app.CloseRabbitMQ(conn, logger)

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		return err
	}

	redisClient, err := app.NewRedisClient(cmd.Context(), cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer app.CloseRedis(redisClient, logger)

	dispatcher := ingestion.NewDispatcher(publisher, ingestion.NewRedisTaskStore(redisClient, cfg.Ingestion.ResultTTL), logger)
	task, err := dispatcher.Submit(cmd.Context(), opts.customerFile, opts.loanFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "task_id=%s status=%s\n", task.TaskID, task.State)
	return nil
}
