// Package amortization spreads a principal and its interest into a fixed
// monthly payment schedule. Everything here is pure and deterministic.
package amortization

import (
	"errors"
	"math"
	"time"

	"loan-workflow-engine/pkg/money"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTerm      = errors.New("term must be at least one month")
	ErrInvalidPrincipal = errors.New("principal must be greater than zero")
	ErrInvalidRate      = errors.New("annual rate must not be negative")
)

var twelveHundred = decimal.NewFromInt(1200)

// Installment is one due-date/amount pair of a schedule. Principal, Interest and
// RemainingPrincipal are informational; Amount is what the borrower owes.
type Installment struct {
	Sequence           int             `json:"sequence"`
	DueDate            time.Time       `json:"due_date"`
	Amount             decimal.Decimal `json:"amount"`
	Principal          decimal.Decimal `json:"principal"`
	Interest           decimal.Decimal `json:"interest"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
}

type Result struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Total          decimal.Decimal `json:"total"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	Installments   []Installment   `json:"installments"`
}

// ComputeSchedule returns the fixed monthly payment and the full installment list.
//
// Every installment carries the cent-rounded payment except the last one, which
// absorbs the residual so that the amounts add up to round(payment × term)
// computed on the unrounded payment.
func ComputeSchedule(principal, annualRatePercent decimal.Decimal, termMonths int, startDate time.Time) (Result, error) {
	if termMonths < 1 {
		return Result{}, ErrInvalidTerm
	}
	if !principal.IsPositive() {
		return Result{}, ErrInvalidPrincipal
	}
	if annualRatePercent.IsNegative() {
		return Result{}, ErrInvalidRate
	}

	n := decimal.NewFromInt(int64(termMonths))
	r := annualRatePercent.Div(twelveHundred)

	exact := exactPayment(principal, r, termMonths)
	payment := money.Round2(exact)
	total := money.Round2(exact.Mul(n))

	out := Result{
		MonthlyPayment: payment,
		Total:          total,
		TotalInterest:  total.Sub(principal),
		Installments:   make([]Installment, 0, termMonths),
	}

	remaining := principal
	allocated := decimal.Zero
	for seq := 1; seq <= termMonths; seq++ {
		amount := payment
		if seq == termMonths {
			amount = total.Sub(allocated)
		}
		interest := money.Round2(remaining.Mul(r))
		principalPart := amount.Sub(interest)
		if seq == termMonths {
			principalPart = remaining
			interest = amount.Sub(remaining)
		}
		remaining = money.NonNegative(remaining.Sub(principalPart))
		allocated = allocated.Add(amount)

		out.Installments = append(out.Installments, Installment{
			Sequence:           seq,
			DueDate:            DueDate(startDate, seq),
			Amount:             amount,
			Principal:          principalPart,
			Interest:           interest,
			RemainingPrincipal: remaining,
		})
	}
	return out, nil
}

// exactPayment is the unrounded annuity payment. The power term goes through
// float64; the result is converted back before any monetary arithmetic.
func exactPayment(principal, monthlyRate decimal.Decimal, term int) decimal.Decimal {
	if monthlyRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(term)))
	}
	rf := monthlyRate.InexactFloat64()
	factor := 1 - math.Pow(1+rf, -float64(term))
	return principal.Mul(decimal.NewFromFloat(rf / factor))
}

// DueDate is startDate plus seq months. When the start day does not exist in
// the target month the due date falls on that month's last day.
func DueDate(startDate time.Time, seq int) time.Time {
	y, m, d := startDate.Date()
	loc := startDate.Location()
	first := time.Date(y, m+time.Month(seq), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
}
