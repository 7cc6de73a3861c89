package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

const (
	MessageEMIBurden     = "Sum of current EMIs exceeds 50% of monthly salary."
	messageLowScoreFmt   = "Loan not approved due to low credit score (%d)."
	mediumTierMinRate    = 12.0
	lowTierMinRate       = 16.0
	highTierScoreFloor   = 50
	mediumTierScoreFloor = 30
	lowTierScoreFloor    = 10
)

type Request struct {
	CustomerID   int64
	LoanAmount   float64
	InterestRate float64
	Tenure       int
}

func (r Request) Validate() error {
	switch {
	case r.CustomerID <= 0:
		return apperrors.NewValidationError("customer_id", "must be a positive integer")
	case r.LoanAmount <= 0:
		return apperrors.NewValidationError("loan_amount", "must be greater than zero")
	case r.InterestRate < 0:
		return apperrors.NewValidationError("interest_rate", "cannot be negative")
	case r.Tenure <= 0:
		return apperrors.NewValidationError("tenure", "must be a positive number of months")
	}
	return nil
}

type Decision struct {
	CustomerID            int64
	Approval              bool
	InterestRate          float64
	CorrectedInterestRate float64
	Tenure                int
	MonthlyInstallment    float64
	Message               string
	CreditScore           int
}

// RateCorrected reports whether the tier forced a higher rate than requested.
func (d *Decision) RateCorrected() bool {
	return d.CorrectedInterestRate != d.InterestRate
}

type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Decision, error)
}

type EligibilityEngine struct {
	customers customer.Repository
	loans     loan.Repository
	scorer    CreditScorer
	clock     Clock
	logger    *slog.Logger
}

var _ Evaluator = (*EligibilityEngine)(nil)

func NewEligibilityEngine(customers customer.Repository, loans loan.Repository, scorer CreditScorer, clock Clock, logger *slog.Logger) *EligibilityEngine {
	if customers == nil || loans == nil || scorer == nil {
		panic("EligibilityEngine requires repositories and a scorer")
	}
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &EligibilityEngine{
		customers: customers,
		loans:     loans,
		scorer:    scorer,
		clock:     clock,
		logger:    logger.With(slog.String("component", "eligibilityEngine")),
	}
}

// ApplyRateTier maps a score and requested rate to an approval and the rate the installment uses.
func ApplyRateTier(score int, rate float64) (approved bool, corrected float64) {
	switch {
	case score > highTierScoreFloor:
		return true, rate
	case score > mediumTierScoreFloor:
		if rate > mediumTierMinRate {
			return true, rate
		}
		return false, mediumTierMinRate
	case score > lowTierScoreFloor:
		if rate > lowTierMinRate {
			return true, rate
		}
		return false, lowTierMinRate
	default:
		return false, rate
	}
}

func (e *EligibilityEngine) Evaluate(ctx context.Context, req Request) (*Decision, error) {
	logCtx := e.logger.With(slog.Int64("customerID", req.CustomerID))

	if err := req.Validate(); err != nil {
		logCtx.WarnContext(ctx, "Eligibility request validation failed", slog.Any("error", err))
		return nil, err
	}

	cust, err := e.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Eligibility requested for unknown customer")
			return nil, customer.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to load customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customer %d: %w", req.CustomerID, err)
	}

	decision := &Decision{
		CustomerID:            req.CustomerID,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: req.InterestRate,
		Tenure:                req.Tenure,
	}

	active, err := e.loans.ListActiveByCustomer(ctx, req.CustomerID, e.clock())
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load active loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load active loans for customer %d: %w", req.CustomerID, err)
	}

	var currentEMIs float64
	for _, l := range active {
		currentEMIs += l.MonthlyPayment
	}
	if currentEMIs > float64(cust.MonthlySalary)/2 {
		decision.Message = MessageEMIBurden
		logCtx.InfoContext(ctx, "Loan rejected on EMI burden",
			slog.Float64("currentEMIs", currentEMIs),
			slog.Int64("monthlySalary", cust.MonthlySalary))
		monitoring.RecordEligibilityCheck("rejected_emi_burden", 0)
		return decision, nil
	}

	score, err := e.scorer.Score(ctx, req.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to score customer", slog.Any("error", err))
		return nil, err
	}
	decision.CreditScore = score
	decision.Approval, decision.CorrectedInterestRate = ApplyRateTier(score, req.InterestRate)

	if !decision.Approval && !decision.RateCorrected() {
		decision.Message = fmt.Sprintf(messageLowScoreFmt, score)
		logCtx.InfoContext(ctx, "Loan rejected on credit score", slog.Int("score", score))
		monitoring.RecordEligibilityCheck("rejected_low_score", score)
		return decision, nil
	}

	// A corrected but unapproved request still reports the installment at the corrected rate.
	decision.MonthlyInstallment = RoundCents(MonthlyInstallment(req.LoanAmount, decision.CorrectedInterestRate, req.Tenure))

	outcome := "approved"
	if !decision.Approval {
		outcome = "rate_corrected"
	}
	monitoring.RecordEligibilityCheck(outcome, score)
	logCtx.InfoContext(ctx, "Eligibility evaluated",
		slog.Int("score", score),
		slog.Bool("approval", decision.Approval),
		slog.Float64("correctedInterestRate", decision.CorrectedInterestRate),
		slog.Float64("monthlyInstallment", decision.MonthlyInstallment))
	return decision, nil
}
