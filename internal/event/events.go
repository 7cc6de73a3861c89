package event

import "time"

const (
	RoutingKeyCustomerRegistered = "customer.registered"
	RoutingKeyLoanCreated        = "loan.created"
	RoutingKeyIngestionRequested = "ingestion.requested"
)

type CustomerPayload struct {
	CustomerID    int64  `json:"customerId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Age           int    `json:"age"`
	PhoneNumber   string `json:"phoneNumber"`
	MonthlyIncome int64  `json:"monthlyIncome"`
	ApprovedLimit int64  `json:"approvedLimit"`
}

type CustomerRegisteredEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   CustomerPayload `json:"payload"`
}

type LoanPayload struct {
	LoanID             int64   `json:"loanId"`
	CustomerID         int64   `json:"customerId"`
	LoanAmount         float64 `json:"loanAmount"`
	InterestRate       float64 `json:"interestRate"`
	Tenure             int     `json:"tenure"`
	MonthlyInstallment float64 `json:"monthlyInstallment"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
}

type LoanCreatedEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Payload   LoanPayload `json:"payload"`
}

type IngestionRequestedEvent struct {
	TaskID       string    `json:"taskId"`
	CustomerFile string    `json:"customerFile"`
	LoanFile     string    `json:"loanFile"`
	Timestamp    time.Time `json:"timestamp"`
}
