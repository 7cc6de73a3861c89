package ingestion

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockSource struct {
	mock.Mock
}

func (_m *MockSource) ReadCustomers(path string) ([]*customer.Customer, []RowError, error) {
	ret := _m.Called(path)
	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	var r1 []RowError
	if ret.Get(1) != nil {
		r1 = ret.Get(1).([]RowError)
	}
	return r0, r1, ret.Error(2)
}

func (_m *MockSource) ReadLoans(path string) ([]*loan.Loan, []RowError, error) {
	ret := _m.Called(path)
	var r0 []*loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*loan.Loan)
	}
	var r1 []RowError
	if ret.Get(1) != nil {
		r1 = ret.Get(1).([]RowError)
	}
	return r0, r1, ret.Error(2)
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

func (_m *MockLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	ret := _m.Called(ctx, loanID)
	var r0 *loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Get(0).([]*loan.Loan), ret.Error(1)
}

func (_m *MockLoanRepository) ListActiveByCustomer(ctx context.Context, customerID int64, asOf civil.Date) ([]*loan.Loan, error) {
	ret := _m.Called(ctx, customerID, asOf)
	return ret.Get(0).([]*loan.Loan), ret.Error(1)
}

func (_m *MockLoanRepository) ListActiveInTx(ctx context.Context, tx pgx.Tx, asOf civil.Date) ([]*loan.Loan, error) {
	ret := _m.Called(ctx, tx, asOf)
	return ret.Get(0).([]*loan.Loan), ret.Error(1)
}

func (_m *MockLoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return _m.Called(ctx, l).Error(0)
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

type MockRecalculator struct {
	mock.Mock
}

func (_m *MockRecalculator) Recalculate(ctx context.Context) (*credit.RecalculationSummary, error) {
	ret := _m.Called(ctx)
	var r0 *credit.RecalculationSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*credit.RecalculationSummary)
	}
	return r0, ret.Error(1)
}

type MockRunner struct {
	mock.Mock
}

func (_m *MockRunner) Run(ctx context.Context, customerFile, loanFile string) (string, error) {
	ret := _m.Called(ctx, customerFile, loanFile)
	return ret.String(0), ret.Error(1)
}

// memoryTaskStore keeps every saved state so tests can assert on transitions.
type memoryTaskStore struct {
	mu      sync.Mutex
	history []Task
	saveErr error
}

func (s *memoryTaskStore) Save(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.history = append(s.history, *task)
	return nil
}

func (s *memoryTaskStore) Get(_ context.Context, taskID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].TaskID == taskID {
			t := s.history[i]
			return &t, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (s *memoryTaskStore) states() []TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskState
	for _, t := range s.history {
		out = append(out, t.State)
	}
	return out
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

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if r.failErr != nil {
		return redis.NewStatusResult("", r.failErr)
	}
	switch v := value.(type) {
	case []byte:
		r.values[key] = string(v)
	case string:
		r.values[key] = v
	}
	r.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if r.failErr != nil {
		return redis.NewStringResult("", r.failErr)
	}
	v, ok := r.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}
