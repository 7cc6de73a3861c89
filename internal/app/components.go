package app

import (
	"log/slog"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/ingestion"
)

// Components is the wired domain graph shared by the API server and creditctl.
type Components struct {
	CustomerRepo *postgres.CustomerRepository
	LoanRepo     *postgres.LoanRepository
	Customers    customer.CustomerService
	Loans        loan.LoanService
	Scorer       *credit.Scorer
	Engine       *credit.EligibilityEngine
	Issuer       *credit.LoanIssuer
	Recalculator *credit.DebtRecalculator
	Pipeline     *ingestion.Pipeline
}

// NewComponents builds repositories and services on db. pub may be nil.
func NewComponents(db postgres.DBPool, pub event.EventPublisher, clock credit.Clock, logger *slog.Logger) *Components {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(db, logger)
	loanRepo := postgres.NewLoanRepository(db, logger)

	customerService := customer.NewCustomerService(customerRepo, pub, logger)
	loanService := loan.NewLoanService(loanRepo, customerService, logger)

	scorer := credit.NewScorer(customerRepo, loanRepo, clock, logger)
	engine := credit.NewEligibilityEngine(customerRepo, loanRepo, scorer, clock, logger)
	recalculator := credit.NewDebtRecalculator(customerRepo, loanRepo, clock, logger)

	return &Components{
		CustomerRepo: customerRepo,
		LoanRepo:     loanRepo,
		Customers:    customerService,
		Loans:        loanService,
		Scorer:       scorer,
		Engine:       engine,
		Issuer:       credit.NewLoanIssuer(engine, loanRepo, pub, clock, logger),
		Recalculator: recalculator,
		Pipeline:     ingestion.NewPipeline(ingestion.ExcelSource{}, customerRepo, loanRepo, recalculator, logger),
	}
}

// NewClock returns a system clock in the configured timezone, falling back to local time.
func NewClock(cfg config.CreditConfig, logger *slog.Logger) credit.Clock {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return credit.SystemClock(time.Local)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("Unknown credit timezone, using local time", "timezone", cfg.Timezone, slog.Any("error", err))
		return credit.SystemClock(time.Local)
	}
	return credit.SystemClock(loc)
}
