package money

import "github.com/shopspring/decimal"

// Cents is the scale every stored amount is rounded to.
const Cents int32 = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(Cents) }

// Sum adds amounts without intermediate rounding.
func Sum(ds ...decimal.Decimal) decimal.Decimal {
	out := decimal.Zero
	for _, d := range ds {
		out = out.Add(d)
	}
	return out
}

// NonNegative clamps negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent returns part/whole*100 to 16 places, enough that a cent short of a
// threshold never rounds up to it. ok is false when whole is zero.
func Percent(part, whole decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Mul(hundred).DivRound(whole, 16), true
}

// Hundred is 100 as a decimal.
func Hundred() decimal.Decimal { return hundred }
