package dto

import (
	"credit-engine/internal/domain/customer"
)

type RegisterRequest struct {
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Age           int         `json:"age"`
	MonthlyIncome int64       `json:"monthly_income"`
	PhoneNumber   PhoneNumber `json:"phone_number"`
}

func (r *RegisterRequest) ToRegistration() customer.Registration {
	return customer.Registration{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Age:           r.Age,
		MonthlyIncome: r.MonthlyIncome,
		PhoneNumber:   string(r.PhoneNumber),
	}
}

type RegisterResponse struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MonthlyIncome int64  `json:"monthly_income"`
	ApprovedLimit int64  `json:"approved_limit"`
	PhoneNumber   string `json:"phone_number"`
}

func NewRegisterResponse(c *customer.Customer) RegisterResponse {
	if c == nil {
		return RegisterResponse{}
	}
	return RegisterResponse{
		CustomerID:    c.CustomerID,
		Name:          c.FullName(),
		Age:           c.Age,
		MonthlyIncome: c.MonthlySalary,
		ApprovedLimit: c.ApprovedLimit,
		PhoneNumber:   c.PhoneNumber,
	}
}

type CustomerResponse struct {
	CustomerID    int64   `json:"customer_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Age           int     `json:"age"`
	PhoneNumber   string  `json:"phone_number"`
	MonthlyIncome int64   `json:"monthly_income"`
	ApprovedLimit int64   `json:"approved_limit"`
	CurrentDebt   float64 `json:"current_debt"`
	CreditScore   *int    `json:"credit_score,omitempty"`
}

func NewCustomerResponse(c *customer.Customer, score *int) CustomerResponse {
	if c == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:    c.CustomerID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Age:           c.Age,
		PhoneNumber:   c.PhoneNumber,
		MonthlyIncome: c.MonthlySalary,
		ApprovedLimit: c.ApprovedLimit,
		CurrentDebt:   money(c.CurrentDebt),
		CreditScore:   score,
	}
}
