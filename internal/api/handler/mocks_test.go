package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/ingestion"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Register(ctx context.Context, reg customer.Registration) (*customer.Customer, error) {
	args := m.Called(ctx, reg)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if c, ok := args.Get(0).([]*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, customerID int64) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, req credit.Request) (*credit.Decision, error) {
	args := m.Called(ctx, req)
	if d, ok := args.Get(0).(*credit.Decision); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(ctx context.Context, req credit.Request) (*credit.Issuance, error) {
	args := m.Called(ctx, req)
	if i, ok := args.Get(0).(*credit.Issuance); ok {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoanWithCustomer(ctx context.Context, loanID int64) (*loan.Loan, *customer.Customer, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	c, _ := args.Get(1).(*customer.Customer)
	return l, c, args.Error(2)
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	args := m.Called(ctx, customerID)
	if l, ok := args.Get(0).([]*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Submit(ctx context.Context, customerFile, loanFile string) (*ingestion.Task, error) {
	args := m.Called(ctx, customerFile, loanFile)
	if t, ok := args.Get(0).(*ingestion.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDispatcher) Status(ctx context.Context, taskID string) (*ingestion.Task, error) {
	args := m.Called(ctx, taskID)
	if t, ok := args.Get(0).(*ingestion.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
