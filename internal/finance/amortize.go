package finance

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Monthly payment for a fixed-rate loan.
//
// Formula: M = P * [r(1+r)^n] / [(1+r)^n - 1]
// where r is the monthly rate (annual rate / 12 / 100) and n the term in
// months. A zero-rate loan divides the principal evenly across the term.
//
// All intermediate math stays in decimal; the result is quantized to two
// places with banker's rounding so repeated recomputation is drift-free.

var (
	ErrNonPositivePrincipal = errors.New("principal must be greater than zero")
	ErrNegativeRate         = errors.New("interest rate cannot be negative")
	ErrInvalidTerm          = errors.New("term must be at least 1 month")
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if principal.Sign() <= 0 {
		return decimal.Zero, ErrNonPositivePrincipal
	}
	if annualRate.Sign() < 0 {
		return decimal.Zero, ErrNegativeRate
	}
	if termMonths < 1 {
		return decimal.Zero, ErrInvalidTerm
	}

	if annualRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(termMonths))).RoundBank(2), nil
	}

	monthlyRate := annualRate.Div(hundred).Div(twelve)
	compound := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))

	numerator := monthlyRate.Mul(compound)
	denominator := compound.Sub(one)

	return principal.Mul(numerator.Div(denominator)).RoundBank(2), nil
}

// TotalPayment is derived from the stored monthly figure, not cached, so it
// stays consistent after any update.
func TotalPayment(monthlyPayment decimal.Decimal, termMonths int) decimal.Decimal {
	return monthlyPayment.Mul(decimal.NewFromInt(int64(termMonths))).RoundBank(2)
}

func TotalInterest(totalPayment, principal decimal.Decimal) decimal.Decimal {
	return totalPayment.Sub(principal).RoundBank(2)
}
