package credit

import (
	"math"
	"strconv"
)

// MonthlyInstallment amortizes principal over tenure months at an annual percentage rate.
// A zero rate falls back to straight-line repayment. Tenure must be positive.
func MonthlyInstallment(principal, annualRate float64, tenure int) float64 {
	r := annualRate / (12 * 100)
	if r > 0 {
		growth := math.Pow(1+r, float64(tenure))
		return principal * r * growth / (growth - 1)
	}
	return principal / float64(tenure)
}

// RoundCents rounds to two decimals using the exact binary value of x, ties to even.
func RoundCents(x float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}
