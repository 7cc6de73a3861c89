package customer

import (
	"math"
	"time"
)

const limitStep = 100000

type Customer struct {
	CustomerID    int64     `json:"customerId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlySalary int64     `json:"monthlySalary"`
	ApprovedLimit int64     `json:"approvedLimit"`
	CurrentDebt   float64   `json:"currentDebt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlySalary int64) *Customer {
	now := time.Now()
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimitFor(monthlySalary),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApprovedLimitFor rounds 36 months of income to the nearest lakh, ties to even.
func ApprovedLimitFor(monthlySalary int64) int64 {
	return int64(math.RoundToEven(36*float64(monthlySalary)/limitStep)) * limitStep
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
