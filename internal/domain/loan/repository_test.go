package loan

import (
	"context"

	"credit-engine/internal/domain/customer"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (_m *MockRepository) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*Loan, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListActiveByCustomer(ctx context.Context, customerID int64, asOf civil.Date) ([]*Loan, error) {
	ret := _m.Called(ctx, customerID, asOf)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListActiveInTx(ctx context.Context, tx pgx.Tx, asOf civil.Date) ([]*Loan, error) {
	ret := _m.Called(ctx, tx, asOf)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) Create(ctx context.Context, loan *Loan) error {
	ret := _m.Called(ctx, loan)

	if rf, ok := ret.Get(0).(func(context.Context, *Loan) error); ok {
		return rf(ctx, loan)
	}
	return ret.Error(0)
}

func (_m *MockRepository) InsertWithID(ctx context.Context, loan *Loan) error {
	ret := _m.Called(ctx, loan)
	return ret.Error(0)
}

func (_m *MockRepository) Exists(ctx context.Context, loanID int64) (bool, error) {
	ret := _m.Called(ctx, loanID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockRepository) SyncIDSequence(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

var _ customer.CustomerService = (*MockCustomerService)(nil)

func (_m *MockCustomerService) Register(ctx context.Context, reg customer.Registration) (*customer.Customer, error) {
	ret := _m.Called(ctx, reg)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}
