package loan

import (
	"fmt"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/civil"
)

type Loan struct {
	LoanID         int64      `json:"loanId"`
	CustomerID     int64      `json:"customerId"`
	LoanAmount     float64    `json:"loanAmount"`
	Tenure         int        `json:"tenure"`
	InterestRate   float64    `json:"interestRate"`
	MonthlyPayment float64    `json:"monthlyPayment"`
	EMIsPaidOnTime int        `json:"emisPaidOnTime"`
	StartDate      civil.Date `json:"startDate"`
	EndDate        civil.Date `json:"endDate"`
}

// NewLoan builds an unsaved loan starting on startDate with no repayments recorded.
func NewLoan(customerID int64, amount float64, tenure int, interestRate, monthlyPayment float64, startDate civil.Date) (*Loan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrInvalidArgument)
	}
	if tenure <= 0 {
		return nil, fmt.Errorf("%w: tenure must be positive", apperrors.ErrInvalidArgument)
	}
	if !startDate.IsValid() {
		return nil, fmt.Errorf("%w: invalid start date %s", apperrors.ErrInvalidArgument, startDate)
	}

	return &Loan{
		CustomerID:     customerID,
		LoanAmount:     amount,
		Tenure:         tenure,
		InterestRate:   interestRate,
		MonthlyPayment: monthlyPayment,
		EMIsPaidOnTime: 0,
		StartDate:      startDate,
		EndDate:        AddMonths(startDate, tenure),
	}, nil
}

func (l *Loan) RepaymentsLeft() int {
	return l.Tenure - l.EMIsPaidOnTime
}

// AddMonths advances d by n calendar months, clamping the day to the last day of the target month.
func AddMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()

	day := d.Day
	if day > lastDay {
		day = lastDay
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}
