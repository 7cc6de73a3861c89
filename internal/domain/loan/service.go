package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

type LoanService interface {
	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	GetLoanWithCustomer(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error)

	ListCustomerLoans(ctx context.Context, customerID int64) ([]*Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, logger *slog.Logger) LoanService {
	if r == nil {
		panic("loan repository cannot be nil")
	}
	if cs == nil {
		panic("customer service cannot be nil")
	}
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		logger:          logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	logCtx := s.logger.With(slog.Int64("loanID", loanID))

	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found")
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to get loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	logCtx.InfoContext(ctx, "Loan retrieved")
	return loan, nil
}

func (s *loanServiceImpl) GetLoanWithCustomer(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	cust, err := s.customerService.GetCustomer(ctx, loan.CustomerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load customer for loan",
			slog.Int64("loanID", loanID),
			slog.Int64("customerID", loan.CustomerID),
			slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to load customer for loan %d: %w", loanID, err)
	}

	return loan, cust, nil
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]*Loan, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))

	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to list customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans for customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Customer loans retrieved", slog.Int("count", len(loans)))
	return loans, nil
}
