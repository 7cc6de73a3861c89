package credit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type RecalculationSummary struct {
	AsOf              civil.Date
	CustomersUpdated  int64
	CustomersWithDebt int
	ActiveLoans       int
	Duration          time.Duration
}

// RemainingPrincipal approximates outstanding principal assuming linear repayment.
func RemainingPrincipal(l *loan.Loan) decimal.Decimal {
	if l.Tenure == 0 {
		return decimal.Zero
	}
	remaining := int64(l.Tenure - l.EMIsPaidOnTime)
	return decimal.NewFromFloat(l.LoanAmount).
		Mul(decimal.NewFromInt(remaining)).
		Div(decimal.NewFromInt(int64(l.Tenure)))
}

// CurrentDebts sums remaining principal per customer and rounds each total to cents, ties to even.
func CurrentDebts(active []*loan.Loan) map[int64]decimal.Decimal {
	sums := make(map[int64]decimal.Decimal)
	for _, l := range active {
		sums[l.CustomerID] = sums[l.CustomerID].Add(RemainingPrincipal(l))
	}
	for id, sum := range sums {
		sums[id] = sum.RoundBank(2)
	}
	return sums
}

type DebtRecalculator struct {
	customers customer.Repository
	loans     loan.Repository
	clock     Clock
	logger    *slog.Logger
}

func NewDebtRecalculator(customers customer.Repository, loans loan.Repository, clock Clock, logger *slog.Logger) *DebtRecalculator {
	if customers == nil || loans == nil {
		panic("repositories cannot be nil for DebtRecalculator")
	}
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &DebtRecalculator{
		customers: customers,
		loans:     loans,
		clock:     clock,
		logger:    logger.With(slog.String("component", "debtRecalculator")),
	}
}

// Recalculate refreshes every customer's current debt in a single transaction.
func (d *DebtRecalculator) Recalculate(ctx context.Context) (summary *RecalculationSummary, err error) {
	startTime := time.Now()
	asOf := d.clock()
	logCtx := d.logger.With(slog.String("asOf", asOf.String()))
	logCtx.InfoContext(ctx, "Starting debt recalculation")

	tx, err := d.customers.BeginTx(ctx)
	if err != nil {
		monitoring.RecordDebtRecalculation("error")
		return nil, fmt.Errorf("could not begin debt recalculation: %w", err)
	}

	defer func() {
		status := "success"
		if p := recover(); p != nil {
			logCtx.ErrorContext(ctx, "Panic during debt recalculation", slog.Any("panic", p))
			_ = d.customers.RollbackTx(ctx, tx)
			monitoring.RecordDebtRecalculation("error")
			panic(p)
		}
		if err != nil {
			status = "error"
			logCtx.ErrorContext(ctx, "Rolling back debt recalculation", slog.Any("error", err))
			_ = d.customers.RollbackTx(ctx, tx)
		}
		monitoring.RecordDebtRecalculation(status)
	}()

	active, err := d.loans.ListActiveInTx(ctx, tx, asOf)
	if err != nil {
		return nil, fmt.Errorf("could not load active loans: %w", err)
	}

	debts := CurrentDebts(active)

	updated, err := d.customers.UpdateCurrentDebtsInTx(ctx, tx, debts)
	if err != nil {
		return nil, fmt.Errorf("could not persist current debts: %w", err)
	}

	if err = d.customers.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("could not commit debt recalculation: %w", err)
	}

	summary = &RecalculationSummary{
		AsOf:              asOf,
		CustomersUpdated:  updated,
		CustomersWithDebt: len(debts),
		ActiveLoans:       len(active),
		Duration:          time.Since(startTime),
	}
	logCtx.InfoContext(ctx, "Debt recalculation finished",
		slog.Int64("customersUpdated", summary.CustomersUpdated),
		slog.Int("customersWithDebt", summary.CustomersWithDebt),
		slog.Int("activeLoans", summary.ActiveLoans),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}
