package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/credit"

	"github.com/robfig/cron/v3"
)

const (
	defaultSchedule = "0 1 * * *"
	defaultTimeout  = 1 * time.Hour
)

type Recalculator interface {
	Recalculate(ctx context.Context) (*credit.RecalculationSummary, error)
}

// DebtRecalculationJob keeps current_debt from drifting as loans pass their end date.
type DebtRecalculationJob struct {
	recalculator Recalculator
	logger       *slog.Logger
}

func NewDebtRecalculationJob(recalculator Recalculator, logger *slog.Logger) *DebtRecalculationJob {
	if recalculator == nil || logger == nil {
		panic("DebtRecalculationJob dependencies cannot be nil")
	}
	return &DebtRecalculationJob{
		recalculator: recalculator,
		logger:       logger.With("job", "DebtRecalculation"),
	}
}

func (j *DebtRecalculationJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting current debt recalculation job.")

	summary, err := j.recalculator.Recalculate(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Current debt recalculation failed, nothing was changed.", slog.Any("error", err))
		return fmt.Errorf("debt recalculation job failed: %w", err)
	}

	j.logger.InfoContext(ctx, "Current debt recalculation job finished successfully.",
		slog.Duration("duration", time.Since(startTime)),
		slog.String("as_of", summary.AsOf.String()),
		slog.Int64("customers_updated", summary.CustomersUpdated),
		slog.Int("customers_with_debt", summary.CustomersWithDebt),
		slog.Int("active_loans", summary.ActiveLoans),
	)
	return nil
}

// NewScheduler registers the job on a new, unstarted cron scheduler.
func NewScheduler(cfg config.BatchConfig, job *DebtRecalculationJob, logger *slog.Logger) (*cron.Cron, cron.EntryID, error) {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.DebtRecalculationSchedule
	if scheduleSpec == "" {
		scheduleSpec = defaultSchedule
		logger.Warn("Debt recalculation schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := runTimeout(cfg)

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "DebtRecalculation")
		jobLogger.Info("Cron triggered: Running debt recalculation job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := job.Run(ctx); runErr != nil {
			jobLogger.Error("Debt recalculation job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule debt recalculation job", "schedule", scheduleSpec, slog.Any("error", err))
		return nil, 0, fmt.Errorf("invalid debt recalculation schedule %q: %w", scheduleSpec, err)
	}

	logger.Info("Scheduled debt recalculation job", "schedule", scheduleSpec, "job_id", jobID, "timeout", jobTimeout)
	return c, jobID, nil
}

func runTimeout(cfg config.BatchConfig) time.Duration {
	if cfg.DebtRecalculationTimeout <= 0 {
		return defaultTimeout
	}
	return cfg.DebtRecalculationTimeout
}
