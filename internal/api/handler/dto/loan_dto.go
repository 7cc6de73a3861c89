package dto

import (
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
)

type LoanRequest struct {
	CustomerID   int64   `json:"customer_id"`
	LoanAmount   float64 `json:"loan_amount"`
	InterestRate float64 `json:"interest_rate"`
	Tenure       int     `json:"tenure"`
}

func (r *LoanRequest) ToCreditRequest() credit.Request {
	return credit.Request{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		InterestRate: r.InterestRate,
		Tenure:       r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
	Message               string  `json:"message,omitempty"`
}

func NewEligibilityResponse(d *credit.Decision) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            d.CustomerID,
		Approval:              d.Approval,
		InterestRate:          d.InterestRate,
		CorrectedInterestRate: d.CorrectedInterestRate,
		Tenure:                d.Tenure,
		MonthlyInstallment:    d.MonthlyInstallment,
		Message:               d.Message,
	}
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

func NewCreateLoanResponse(i *credit.Issuance) CreateLoanResponse {
	return CreateLoanResponse{
		LoanID:             i.LoanID,
		CustomerID:         i.CustomerID,
		LoanApproved:       i.Approved,
		Message:            i.Message,
		MonthlyInstallment: i.MonthlyInstallment,
	}
}

type LoanCustomer struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

type LoanDetailResponse struct {
	LoanID             int64        `json:"loan_id"`
	Customer           LoanCustomer `json:"customer"`
	LoanAmount         float64      `json:"loan_amount"`
	InterestRate       float64      `json:"interest_rate"`
	MonthlyInstallment float64      `json:"monthly_installment"`
	Tenure             int          `json:"tenure"`
}

func NewLoanDetailResponse(l *loan.Loan, c *customer.Customer) LoanDetailResponse {
	resp := LoanDetailResponse{
		LoanID:             l.LoanID,
		LoanAmount:         money(l.LoanAmount),
		InterestRate:       l.InterestRate,
		MonthlyInstallment: money(l.MonthlyPayment),
		Tenure:             l.Tenure,
	}
	if c != nil {
		resp.Customer = LoanCustomer{
			ID:          c.CustomerID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		}
	}
	return resp
}

type LoanSummaryResponse struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         float64 `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

func NewLoanSummaryResponses(loans []*loan.Loan) []LoanSummaryResponse {
	resp := make([]LoanSummaryResponse, len(loans))
	for i, l := range loans {
		resp[i] = LoanSummaryResponse{
			LoanID:             l.LoanID,
			LoanAmount:         money(l.LoanAmount),
			InterestRate:       l.InterestRate,
			MonthlyInstallment: money(l.MonthlyPayment),
			RepaymentsLeft:     l.RepaymentsLeft(),
		}
	}
	return resp
}
