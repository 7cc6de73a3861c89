package credit

import (
	"context"
	"errors"
	"testing"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type eligibilityFixture struct {
	customers *MockCustomerRepository
	loans     *MockLoanRepository
	scorer    *MockScorer
	engine    *EligibilityEngine
}

func newEligibilityFixture() *eligibilityFixture {
	f := &eligibilityFixture{
		customers: new(MockCustomerRepository),
		loans:     new(MockLoanRepository),
		scorer:    new(MockScorer),
	}
	f.engine = NewEligibilityEngine(f.customers, f.loans, f.scorer, fixedClock(today), logger)
	return f
}

func (f *eligibilityFixture) withCustomer(ctx context.Context, salary int64, activeEMIs ...float64) {
	f.customers.On("FindByID", ctx, int64(1)).Return(&customer.Customer{CustomerID: 1, MonthlySalary: salary}, nil).Once()
	active := make([]*loan.Loan, 0, len(activeEMIs))
	for _, emi := range activeEMIs {
		active = append(active, &loan.Loan{CustomerID: 1, MonthlyPayment: emi})
	}
	f.loans.On("ListActiveByCustomer", ctx, int64(1), today).Return(active, nil).Once()
}

func request(rate float64) Request {
	return Request{CustomerID: 1, LoanAmount: 100000, InterestRate: rate, Tenure: 12}
}

func TestApplyRateTier(t *testing.T) {
	tests := []struct {
		name          string
		score         int
		rate          float64
		wantApproved  bool
		wantCorrected float64
	}{
		{"high score keeps rate", 51, 8, true, 8},
		{"score 50 with high rate", 50, 12.5, true, 12.5},
		{"score 50 with low rate is corrected", 50, 10, false, 12},
		{"score 31 with rate exactly 12 is corrected", 31, 12, false, 12},
		{"score 30 with high rate", 30, 16.5, true, 16.5},
		{"score 30 with low rate is corrected", 30, 14, false, 16},
		{"score 11 with rate exactly 16 is corrected", 11, 16, false, 16},
		{"score 10 is rejected", 10, 25, false, 25},
		{"score 0 is rejected", 0, 5, false, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approved, corrected := ApplyRateTier(tt.score, tt.rate)
			assert.Equal(t, tt.wantApproved, approved)
			assert.Equal(t, tt.wantCorrected, corrected)
		})
	}
}

func TestEligibilityEngine_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("EMI burden above half the salary is rejected before scoring", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000, 20000, 5000.01)

		d, err := f.engine.Evaluate(ctx, request(10))

		require.NoError(t, err)
		assert.False(t, d.Approval)
		assert.Equal(t, 10.0, d.CorrectedInterestRate)
		assert.Equal(t, 0.0, d.MonthlyInstallment)
		assert.Equal(t, MessageEMIBurden, d.Message)
		f.scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
	})

	t.Run("EMI burden exactly half the salary proceeds to scoring", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000, 20000, 5000)
		f.scorer.On("Score", ctx, int64(1)).Return(70, nil).Once()

		d, err := f.engine.Evaluate(ctx, request(10))

		require.NoError(t, err)
		assert.True(t, d.Approval)
		assert.Equal(t, 8791.59, d.MonthlyInstallment)
		assert.Empty(t, d.Message)
		assert.Equal(t, 70, d.CreditScore)
		f.scorer.AssertExpectations(t)
	})

	t.Run("No active loans counts as zero EMIs", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 1)
		f.scorer.On("Score", ctx, int64(1)).Return(55, nil).Once()

		d, err := f.engine.Evaluate(ctx, request(10))

		require.NoError(t, err)
		assert.True(t, d.Approval)
	})

	t.Run("Medium tier corrects the rate and still reports an installment", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(40, nil).Once()

		d, err := f.engine.Evaluate(ctx, request(10))

		require.NoError(t, err)
		assert.False(t, d.Approval)
		assert.Equal(t, 10.0, d.InterestRate)
		assert.Equal(t, 12.0, d.CorrectedInterestRate)
		assert.True(t, d.RateCorrected())
		assert.Equal(t, 8884.88, d.MonthlyInstallment, "installment uses the corrected rate")
		assert.Empty(t, d.Message)
	})

	t.Run("Low tier corrects to sixteen percent", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(20, nil).Once()

		d, err := f.engine.Evaluate(ctx, request(14))

		require.NoError(t, err)
		assert.False(t, d.Approval)
		assert.Equal(t, 16.0, d.CorrectedInterestRate)
		assert.Equal(t, 9073.09, d.MonthlyInstallment)
	})

	t.Run("Approved in medium tier uses the requested rate", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(45, nil).Once()

		d, err := f.engine.Evaluate(ctx, Request{CustomerID: 1, LoanAmount: 200000, InterestRate: 14, Tenure: 24})

		require.NoError(t, err)
		assert.True(t, d.Approval)
		assert.False(t, d.RateCorrected())
		assert.Equal(t, 9602.58, d.MonthlyInstallment)
	})

	t.Run("Low score without correction is rejected with the score in the message", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(10, nil).Once()

		d, err := f.engine.Evaluate(ctx, request(20))

		require.NoError(t, err)
		assert.False(t, d.Approval)
		assert.Equal(t, 20.0, d.CorrectedInterestRate)
		assert.Equal(t, 0.0, d.MonthlyInstallment)
		assert.Equal(t, "Loan not approved due to low credit score (10).", d.Message)
	})

	t.Run("Zero rate uses straight line installment", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(80, nil).Once()

		d, err := f.engine.Evaluate(ctx, Request{CustomerID: 1, LoanAmount: 50000, InterestRate: 0, Tenure: 6})

		require.NoError(t, err)
		assert.True(t, d.Approval)
		assert.Equal(t, 8333.33, d.MonthlyInstallment)
	})

	t.Run("Unknown customer", func(t *testing.T) {
		f := newEligibilityFixture()
		f.customers.On("FindByID", ctx, int64(1)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := f.engine.Evaluate(ctx, request(10))

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		f.loans.AssertNotCalled(t, "ListActiveByCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Scorer failure propagates", func(t *testing.T) {
		f := newEligibilityFixture()
		f.withCustomer(ctx, 50000)
		f.scorer.On("Score", ctx, int64(1)).Return(0, errors.New("db down")).Once()

		_, err := f.engine.Evaluate(ctx, request(10))

		assert.EqualError(t, err, "db down")
	})

	t.Run("Invalid requests are rejected before any read", func(t *testing.T) {
		f := newEligibilityFixture()
		for _, req := range []Request{
			{CustomerID: 0, LoanAmount: 1, InterestRate: 1, Tenure: 1},
			{CustomerID: 1, LoanAmount: 0, InterestRate: 1, Tenure: 1},
			{CustomerID: 1, LoanAmount: 1, InterestRate: -1, Tenure: 1},
			{CustomerID: 1, LoanAmount: 1, InterestRate: 1, Tenure: 0},
		} {
			_, err := f.engine.Evaluate(ctx, req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		}
		f.customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestEligibilityEngine_CorrectedRateAlwaysDrivesInstallment(t *testing.T) {
	ctx := context.Background()
	for score := 0; score <= 100; score += 5 {
		for _, rate := range []float64{0, 8, 12, 13, 16, 18} {
			f := newEligibilityFixture()
			f.withCustomer(ctx, 100000)
			f.scorer.On("Score", ctx, int64(1)).Return(score, nil).Once()

			d, err := f.engine.Evaluate(ctx, Request{CustomerID: 1, LoanAmount: 250000, InterestRate: rate, Tenure: 36})
			require.NoError(t, err)

			if d.MonthlyInstallment == 0 {
				assert.False(t, d.Approval)
				assert.False(t, d.RateCorrected())
				continue
			}
			expected := RoundCents(MonthlyInstallment(250000, d.CorrectedInterestRate, 36))
			assert.Equal(t, expected, d.MonthlyInstallment, "score=%d rate=%v", score, rate)
		}
	}
}
