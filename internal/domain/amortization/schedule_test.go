package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sumAmounts(in []Installment) decimal.Decimal {
	s := decimal.Zero
	for _, i := range in {
		s = s.Add(i.Amount)
	}
	return s
}

func TestComputeSchedule_StandardAnnuity(t *testing.T) {
	res, err := ComputeSchedule(d("120000"), d("12"), 12, start)
	require.NoError(t, err)

	assert.Equal(t, "10661.85", res.MonthlyPayment.StringFixed(2))
	require.Len(t, res.Installments, 12)
	assert.True(t, sumAmounts(res.Installments).Equal(res.Total), "sum %s != total %s", sumAmounts(res.Installments), res.Total)

	// the residual never exceeds a cent per period
	drift := res.Total.Sub(res.MonthlyPayment.Mul(decimal.NewFromInt(12))).Abs()
	assert.True(t, drift.LessThanOrEqual(d("0.12")), "drift %s", drift)

	for _, in := range res.Installments[:11] {
		assert.True(t, in.Amount.Equal(res.MonthlyPayment))
	}
	last := res.Installments[11]
	assert.True(t, last.RemainingPrincipal.IsZero())
	assert.True(t, res.TotalInterest.Equal(res.Total.Sub(d("120000"))))
}

func TestComputeSchedule_SumInvariant(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		term      int
	}{
		{"1000", "7.5", 7},
		{"5000000", "22", 36},
		{"999.99", "3.25", 13},
		{"10000", "0", 3},
		{"250000", "18.9", 60},
		{"1", "99", 1},
	}
	for _, c := range cases {
		res, err := ComputeSchedule(d(c.principal), d(c.rate), c.term, start)
		require.NoError(t, err, c)
		assert.Len(t, res.Installments, c.term)
		assert.True(t, sumAmounts(res.Installments).Equal(res.Total), "case %+v: sum %s total %s", c, sumAmounts(res.Installments), res.Total)
		assert.True(t, res.Total.Equal(res.Total.Round(2)), "total must be cent-scaled")
	}
}

func TestComputeSchedule_ZeroRate(t *testing.T) {
	res, err := ComputeSchedule(d("12000"), decimal.Zero, 12, start)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", res.MonthlyPayment.StringFixed(2))
	assert.True(t, res.Total.Equal(d("12000")))
	for _, in := range res.Installments {
		assert.True(t, in.Amount.Equal(d("1000")))
		assert.True(t, in.Interest.IsZero())
	}
}

func TestComputeSchedule_ZeroRateResidualOnLast(t *testing.T) {
	res, err := ComputeSchedule(d("10000"), decimal.Zero, 3, start)
	require.NoError(t, err)
	assert.Equal(t, "3333.33", res.Installments[0].Amount.StringFixed(2))
	assert.Equal(t, "3333.33", res.Installments[1].Amount.StringFixed(2))
	assert.Equal(t, "3333.34", res.Installments[2].Amount.StringFixed(2))
	assert.True(t, res.Total.Equal(d("10000")))
}

func TestComputeSchedule_Validation(t *testing.T) {
	_, err := ComputeSchedule(d("1000"), d("10"), 0, start)
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = ComputeSchedule(decimal.Zero, d("10"), 12, start)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = ComputeSchedule(d("-5"), d("10"), 12, start)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = ComputeSchedule(d("1000"), d("-1"), 12, start)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestComputeSchedule_Deterministic(t *testing.T) {
	a, err := ComputeSchedule(d("75000"), d("14.5"), 24, start)
	require.NoError(t, err)
	b, err := ComputeSchedule(d("75000"), d("14.5"), 24, start)
	require.NoError(t, err)
	require.Equal(t, len(a.Installments), len(b.Installments))
	for i := range a.Installments {
		assert.True(t, a.Installments[i].Amount.Equal(b.Installments[i].Amount))
		assert.True(t, a.Installments[i].DueDate.Equal(b.Installments[i].DueDate))
	}
}

func TestDueDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), DueDate(start, 1))
	assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), DueDate(start, 12))

	endOfJan := time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), DueDate(endOfJan, 1))
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), DueDate(endOfJan, 2))
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), DueDate(endOfJan, 3))
}
