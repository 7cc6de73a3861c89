package credit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
)

const (
	MessageLoanCreated     = "Loan approved and created successfully."
	MessageNotApprovedBase = "Loan not approved based on eligibility check."
)

type Issuance struct {
	LoanID             *int64
	CustomerID         int64
	Approved           bool
	Message            string
	MonthlyInstallment float64
	Loan               *loan.Loan
}

type Issuer interface {
	Issue(ctx context.Context, req Request) (*Issuance, error)
}

type LoanIssuer struct {
	engine Evaluator
	loans  loan.Repository
	pub    event.EventPublisher
	clock  Clock
	logger *slog.Logger
}

var _ Issuer = (*LoanIssuer)(nil)

func NewLoanIssuer(engine Evaluator, loans loan.Repository, pub event.EventPublisher, clock Clock, logger *slog.Logger) *LoanIssuer {
	if engine == nil || loans == nil {
		panic("LoanIssuer requires an eligibility evaluator and a loan repository")
	}
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &LoanIssuer{
		engine: engine,
		loans:  loans,
		pub:    pub,
		clock:  clock,
		logger: logger.With(slog.String("component", "loanIssuer")),
	}
}

func (i *LoanIssuer) Issue(ctx context.Context, req Request) (*Issuance, error) {
	logCtx := i.logger.With(slog.Int64("customerID", req.CustomerID))

	decision, err := i.engine.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !decision.Approval {
		msg := decision.Message
		if msg == "" {
			msg = MessageNotApprovedBase
		}
		logCtx.InfoContext(ctx, "Loan not issued", slog.String("reason", msg))
		return &Issuance{
			CustomerID: req.CustomerID,
			Approved:   false,
			Message:    msg,
		}, nil
	}

	newLoan, err := loan.NewLoan(
		req.CustomerID,
		req.LoanAmount,
		req.Tenure,
		decision.CorrectedInterestRate,
		decision.MonthlyInstallment,
		i.clock(),
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build loan from approved decision", slog.Any("error", err))
		return nil, fmt.Errorf("failed to build loan: %w", err)
	}

	if err := i.loans.Create(ctx, newLoan); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist approved loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}
	monitoring.RecordLoanCreated()
	logCtx = logCtx.With(slog.Int64("loanID", newLoan.LoanID))
	logCtx.InfoContext(ctx, "Loan issued")

	i.publishCreated(ctx, logCtx, newLoan)

	loanID := newLoan.LoanID
	return &Issuance{
		LoanID:             &loanID,
		CustomerID:         req.CustomerID,
		Approved:           true,
		Message:            MessageLoanCreated,
		MonthlyInstallment: newLoan.MonthlyPayment,
		Loan:               newLoan,
	}, nil
}

func (i *LoanIssuer) publishCreated(ctx context.Context, logCtx *slog.Logger, l *loan.Loan) {
	if i.pub == nil {
		return
	}
	evt := event.LoanCreatedEvent{
		Timestamp: time.Now(),
		Payload: event.LoanPayload{
			LoanID:             l.LoanID,
			CustomerID:         l.CustomerID,
			LoanAmount:         l.LoanAmount,
			InterestRate:       l.InterestRate,
			Tenure:             l.Tenure,
			MonthlyInstallment: l.MonthlyPayment,
			StartDate:          l.StartDate.String(),
			EndDate:            l.EndDate.String(),
		},
	}
	if err := i.pub.PublishLoanCreated(ctx, evt); err != nil {
		logCtx.ErrorContext(ctx, "Loan created, but FAILED to publish loan event", slog.Any("error", err))
	}
}
