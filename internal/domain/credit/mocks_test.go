package credit

import (
	"context"
	"io"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var today = civil.Date{Year: 2026, Month: 10, Day: 17}

func fixedClock(d civil.Date) Clock {
	return func() civil.Date { return d }
}

type MockCustomerRepository struct {
	mock.Mock
}

var _ customer.Repository = (*MockCustomerRepository)(nil)

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)
	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)
	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return _m.Called(ctx, c).Error(0)
}

func (_m *MockCustomerRepository) Upsert(ctx context.Context, c *customer.Customer) error {
	return _m.Called(ctx, c).Error(0)
}

func (_m *MockCustomerRepository) Exists(ctx context.Context, customerID int64) (bool, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockCustomerRepository) UpdateCurrentDebtsInTx(ctx context.Context, tx pgx.Tx, debts map[int64]decimal.Decimal) (int64, error) {
	ret := _m.Called(ctx, tx, debts)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockCustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)
	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

func (_m *MockCustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

var _ loan.Repository = (*MockLoanRepository)(nil)

func (_m *MockLoanRepository) loans(ret mock.Arguments) ([]*loan.Loan, error) {
	var r0 []*loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*loan.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	ret := _m.Called(ctx, loanID)
	var r0 *loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	return _m.loans(_m.Called(ctx, customerID))
}

func (_m *MockLoanRepository) ListActiveByCustomer(ctx context.Context, customerID int64, asOf civil.Date) ([]*loan.Loan, error) {
	return _m.loans(_m.Called(ctx, customerID, asOf))
}

func (_m *MockLoanRepository) ListActiveInTx(ctx context.Context, tx pgx.Tx, asOf civil.Date) ([]*loan.Loan, error) {
	return _m.loans(_m.Called(ctx, tx, asOf))
}

func (_m *MockLoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	ret := _m.Called(ctx, l)
	if rf, ok := ret.Get(0).(func(context.Context, *loan.Loan) error); ok {
		return rf(ctx, l)
	}
	return ret.Error(0)
}

func (_m *MockLoanRepository) InsertWithID(ctx context.Context, l *loan.Loan) error {
	return _m.Called(ctx, l).Error(0)
}

func (_m *MockLoanRepository) Exists(ctx context.Context, loanID int64) (bool, error) {
	ret := _m.Called(ctx, loanID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockLoanRepository) SyncIDSequence(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

type MockScorer struct {
	mock.Mock
}

func (_m *MockScorer) Score(ctx context.Context, customerID int64) (int, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Int(0), ret.Error(1)
}

type MockEvaluator struct {
	mock.Mock
}

func (_m *MockEvaluator) Evaluate(ctx context.Context, req Request) (*Decision, error) {
	ret := _m.Called(ctx, req)
	var r0 *Decision
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Decision)
	}
	return r0, ret.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ event.EventPublisher = (*MockEventPublisher)(nil)

func (_m *MockEventPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockEventPublisher) PublishLoanCreated(ctx context.Context, evt event.LoanCreatedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockEventPublisher) PublishIngestionRequested(ctx context.Context, evt event.IngestionRequestedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}
