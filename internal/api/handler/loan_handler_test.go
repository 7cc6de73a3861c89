package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const loanRequestBody = `{"customer_id":7,"loan_amount":100000,"interest_rate":10,"tenure":12}`

var parsedLoanRequest = credit.Request{CustomerID: 7, LoanAmount: 100000, InterestRate: 10, Tenure: 12}

func newLoanHandlerFixture() (*LoanHandler, *MockEvaluator, *MockIssuer, *MockLoanService) {
	ev, is, ls := new(MockEvaluator), new(MockIssuer), new(MockLoanService)
	return NewLoanHandler(ev, is, ls, logger), ev, is, ls
}

func TestLoanHandlerCheckEligibility(t *testing.T) {
	t.Run("returns decision with corrected rate", func(t *testing.T) {
		h, ev, _, _ := newLoanHandlerFixture()
		ev.On("Evaluate", mock.Anything, parsedLoanRequest).Return(&credit.Decision{
			CustomerID: 7, Approval: true, InterestRate: 10, CorrectedInterestRate: 12,
			Tenure: 12, MonthlyInstallment: 8884.88,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", strings.NewReader(loanRequestBody))
		rec := httptest.NewRecorder()

		h.CheckEligibility(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.EligibilityResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Approval)
		assert.Equal(t, 12.0, resp.CorrectedInterestRate)
		assert.Equal(t, 8884.88, resp.MonthlyInstallment)
		assert.NotContains(t, rec.Body.String(), `"message"`)
		ev.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown customer", func(t *testing.T) {
		h, ev, _, _ := newLoanHandlerFixture()
		ev.On("Evaluate", mock.Anything, parsedLoanRequest).Return(nil, customer.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", strings.NewReader(loanRequestBody))
		rec := httptest.NewRecorder()

		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		h, _, _, _ := newLoanHandlerFixture()
		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", strings.NewReader(`{"customer_id":"seven"}`))
		rec := httptest.NewRecorder()

		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoanHandlerCreateLoan(t *testing.T) {
	t.Run("returns 201 when approved", func(t *testing.T) {
		h, _, is, _ := newLoanHandlerFixture()
		id := int64(9001)
		is.On("Issue", mock.Anything, parsedLoanRequest).Return(&credit.Issuance{
			LoanID: &id, CustomerID: 7, Approved: true,
			Message: credit.MessageLoanCreated, MonthlyInstallment: 8791.59,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/create-loan", strings.NewReader(loanRequestBody))
		rec := httptest.NewRecorder()

		h.CreateLoan(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CreateLoanResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.LoanID)
		assert.Equal(t, id, *resp.LoanID)
		assert.True(t, resp.LoanApproved)
	})

	t.Run("returns 200 with null loan id when rejected", func(t *testing.T) {
		h, _, is, _ := newLoanHandlerFixture()
		is.On("Issue", mock.Anything, parsedLoanRequest).Return(&credit.Issuance{
			CustomerID: 7, Message: "Loan not approved due to low credit score (5).",
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/create-loan", strings.NewReader(loanRequestBody))
		rec := httptest.NewRecorder()

		h.CreateLoan(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"loan_id":null`)
		assert.Contains(t, rec.Body.String(), `"loan_approved":false`)
	})
}

func TestLoanHandlerViewLoan(t *testing.T) {
	t.Run("returns loan with customer", func(t *testing.T) {
		h, _, _, ls := newLoanHandlerFixture()
		l := &loan.Loan{LoanID: 42, CustomerID: 7, LoanAmount: 100000, InterestRate: 12, MonthlyPayment: 8884.8788, Tenure: 12,
			StartDate: civil.Date{Year: 2026, Month: 1, Day: 1}}
		c := &customer.Customer{CustomerID: 7, FirstName: "Ravi", LastName: "K", PhoneNumber: "999", Age: 40}
		ls.On("GetLoanWithCustomer", mock.Anything, int64(42)).Return(l, c, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/42", nil), "loanID", "42")
		rec := httptest.NewRecorder()

		h.ViewLoan(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.LoanDetailResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(42), resp.LoanID)
		assert.Equal(t, int64(7), resp.Customer.ID)
		assert.Equal(t, "Ravi", resp.Customer.FirstName)
		assert.Equal(t, 8884.88, resp.MonthlyInstallment)
	})

	t.Run("returns 404 for unknown loan", func(t *testing.T) {
		h, _, _, ls := newLoanHandlerFixture()
		ls.On("GetLoanWithCustomer", mock.Anything, int64(5)).Return(nil, nil, loan.ErrNotFound).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/5", nil), "loanID", "5")
		rec := httptest.NewRecorder()

		h.ViewLoan(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 for non-positive id", func(t *testing.T) {
		h, _, _, _ := newLoanHandlerFixture()
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/0", nil), "loanID", "0")
		rec := httptest.NewRecorder()

		h.ViewLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoanHandlerViewLoans(t *testing.T) {
	t.Run("lists loans with repayments left", func(t *testing.T) {
		h, _, _, ls := newLoanHandlerFixture()
		ls.On("ListCustomerLoans", mock.Anything, int64(7)).Return([]*loan.Loan{
			{LoanID: 1, Tenure: 12, EMIsPaidOnTime: 4, LoanAmount: 1000, MonthlyPayment: 90},
			{LoanID: 2, Tenure: 6, EMIsPaidOnTime: 6, LoanAmount: 500, MonthlyPayment: 85},
		}, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loans/7", nil), "customerID", "7")
		rec := httptest.NewRecorder()

		h.ViewLoans(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.LoanSummaryResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 2)
		assert.Equal(t, 8, resp[0].RepaymentsLeft)
		assert.Equal(t, 0, resp[1].RepaymentsLeft)
	})

	t.Run("returns empty array for customer without loans", func(t *testing.T) {
		h, _, _, ls := newLoanHandlerFixture()
		ls.On("ListCustomerLoans", mock.Anything, int64(8)).Return([]*loan.Loan{}, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loans/8", nil), "customerID", "8")
		rec := httptest.NewRecorder()

		h.ViewLoans(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
