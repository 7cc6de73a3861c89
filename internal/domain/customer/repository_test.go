package customer

import (
	"context"

	"credit-engine/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

var _ Repository = (*MockCustomerRepository)(nil)

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context) ([]*Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		return rf(ctx, customer)
	}
	return ret.Error(0)
}

func (_m *MockCustomerRepository) Upsert(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)
	return ret.Error(0)
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
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ event.EventPublisher = (*MockEventPublisher)(nil)

func (_m *MockEventPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

func (_m *MockEventPublisher) PublishLoanCreated(ctx context.Context, evt event.LoanCreatedEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

func (_m *MockEventPublisher) PublishIngestionRequested(ctx context.Context, evt event.IngestionRequestedEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}
