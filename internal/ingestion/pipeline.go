package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

const (
	StatusSucceeded = "Successfully ingested all data and updated current debts."
	statusFailedFmt = "An error occurred: %v"
)

type DebtRecalculator interface {
	Recalculate(ctx context.Context) (*credit.RecalculationSummary, error)
}

type Runner interface {
	Run(ctx context.Context, customerFile, loanFile string) (string, error)
}

type Report struct {
	CustomersUpserted int
	CustomersSkipped  int
	LoansInserted     int
	LoansSkipped      int
	Debts             *credit.RecalculationSummary
	Duration          time.Duration
}

type Pipeline struct {
	source    Source
	customers customer.Repository
	loans     loan.Repository
	debts     DebtRecalculator
	logger    *slog.Logger
}

var _ Runner = (*Pipeline)(nil)

func NewPipeline(source Source, customers customer.Repository, loans loan.Repository, debts DebtRecalculator, logger *slog.Logger) *Pipeline {
	if source == nil || customers == nil || loans == nil || debts == nil {
		panic("ingestion pipeline dependencies cannot be nil")
	}
	return &Pipeline{
		source:    source,
		customers: customers,
		loans:     loans,
		debts:     debts,
		logger:    logger.With(slog.String("component", "ingestionPipeline")),
	}
}

// Run ingests both workbooks and refreshes current debts. The returned status string is
// always set; err is non-nil when the status reports a failure.
func (p *Pipeline) Run(ctx context.Context, customerFile, loanFile string) (status string, err error) {
	logCtx := p.logger.With(slog.String("customerFile", customerFile), slog.String("loanFile", loanFile))

	defer func() {
		if r := recover(); r != nil {
			logCtx.ErrorContext(ctx, "Panic during ingestion", slog.Any("panic", r))
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			status = fmt.Sprintf(statusFailedFmt, err)
			if !errors.Is(err, apperrors.ErrIngestion) {
				err = fmt.Errorf("%w: %w", apperrors.ErrIngestion, err)
			}
			monitoring.RecordIngestionRun("error")
			return
		}
		monitoring.RecordIngestionRun("success")
	}()

	report, err := p.ingest(ctx, logCtx, customerFile, loanFile)
	if err != nil {
		logCtx.ErrorContext(ctx, "Ingestion failed", slog.Any("error", err))
		return "", err
	}

	logCtx.InfoContext(ctx, "Ingestion finished",
		slog.Int("customersUpserted", report.CustomersUpserted),
		slog.Int("customersSkipped", report.CustomersSkipped),
		slog.Int("loansInserted", report.LoansInserted),
		slog.Int("loansSkipped", report.LoansSkipped),
		slog.Int64("debtsUpdated", report.Debts.CustomersUpdated),
		slog.Duration("duration", report.Duration))
	return StatusSucceeded, nil
}

func (p *Pipeline) ingest(ctx context.Context, logCtx *slog.Logger, customerFile, loanFile string) (*Report, error) {
	startTime := time.Now()
	report := &Report{}

	known, err := p.ingestCustomers(ctx, logCtx, customerFile, report)
	if err != nil {
		return nil, err
	}

	if err := p.ingestLoans(ctx, logCtx, loanFile, known, report); err != nil {
		return nil, err
	}

	if err := p.loans.SyncIDSequence(ctx); err != nil {
		return nil, fmt.Errorf("could not sync loan id sequence: %w", err)
	}

	summary, err := p.debts.Recalculate(ctx)
	if err != nil {
		return nil, err
	}
	report.Debts = summary
	report.Duration = time.Since(startTime)
	return report, nil
}

func (p *Pipeline) ingestCustomers(ctx context.Context, logCtx *slog.Logger, path string, report *Report) (map[int64]struct{}, error) {
	customers, rowErrs, err := p.source.ReadCustomers(path)
	if err != nil {
		return nil, err
	}
	for _, re := range rowErrs {
		logCtx.WarnContext(ctx, "Skipping unreadable customer row", slog.Int("row", re.Row), slog.Any("error", re.Err))
	}
	report.CustomersSkipped = len(rowErrs)

	known := make(map[int64]struct{}, len(customers))
	for _, c := range customers {
		if err := p.customers.Upsert(ctx, c); err != nil {
			return nil, fmt.Errorf("could not upsert customer %d: %w", c.CustomerID, err)
		}
		known[c.CustomerID] = struct{}{}
	}
	report.CustomersUpserted = len(customers)

	monitoring.RecordIngestionRows("customer", "upserted", report.CustomersUpserted)
	monitoring.RecordIngestionRows("customer", "skipped", report.CustomersSkipped)
	logCtx.InfoContext(ctx, "Customers ingested",
		slog.Int("upserted", report.CustomersUpserted),
		slog.Int("skipped", report.CustomersSkipped))
	return known, nil
}

func (p *Pipeline) ingestLoans(ctx context.Context, logCtx *slog.Logger, path string, known map[int64]struct{}, report *Report) error {
	loans, rowErrs, err := p.source.ReadLoans(path)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		logCtx.WarnContext(ctx, "Skipping unreadable loan row", slog.Int("row", re.Row), slog.Any("error", re.Err))
	}
	report.LoansSkipped = len(rowErrs)

	for _, l := range loans {
		err := p.ingestLoan(ctx, l, known)
		switch {
		case err == nil:
			report.LoansInserted++
		case errors.Is(err, apperrors.ErrDataQuality):
			report.LoansSkipped++
			logCtx.WarnContext(ctx, "Skipping loan",
				slog.Int64("loanID", l.LoanID),
				slog.Int64("customerID", l.CustomerID),
				slog.Any("reason", err))
		default:
			return err
		}
	}

	monitoring.RecordIngestionRows("loan", "inserted", report.LoansInserted)
	monitoring.RecordIngestionRows("loan", "skipped", report.LoansSkipped)
	logCtx.InfoContext(ctx, "Loans ingested",
		slog.Int("inserted", report.LoansInserted),
		slog.Int("skipped", report.LoansSkipped))
	return nil
}

// ingestLoan inserts a loan under its external id. Existing loans and loans for unknown
// customers come back as data quality errors.
func (p *Pipeline) ingestLoan(ctx context.Context, l *loan.Loan, known map[int64]struct{}) error {
	exists, err := p.loans.Exists(ctx, l.LoanID)
	if err != nil {
		return fmt.Errorf("could not check loan %d: %w", l.LoanID, err)
	}
	if exists {
		return apperrors.NewDataQualityError("loan %d already exists", l.LoanID)
	}

	if _, ok := known[l.CustomerID]; !ok {
		found, err := p.customers.Exists(ctx, l.CustomerID)
		if err != nil {
			return fmt.Errorf("could not check customer %d: %w", l.CustomerID, err)
		}
		if !found {
			return apperrors.NewDataQualityError("customer %d does not exist", l.CustomerID)
		}
		known[l.CustomerID] = struct{}{}
	}

	if err := p.loans.InsertWithID(ctx, l); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return apperrors.NewDataQualityError("loan %d already exists", l.LoanID)
		}
		return fmt.Errorf("could not insert loan %d: %w", l.LoanID, err)
	}
	return nil
}
