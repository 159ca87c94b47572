package loan

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientGuarantee = errors.New("guarantor/collateral coverage below policy minimum")
	ErrUnknownGuaranteeMode  = errors.New("unknown guarantee mode")
)

// GuaranteeMode decides how a guarantor's absolute amount and percentage combine.
type GuaranteeMode string

const (
	// GuaranteeAdditive counts amount + percentage×principal.
	GuaranteeAdditive GuaranteeMode = "additive"
	// GuaranteeAmountFirst uses the amount when set, else the percentage.
	GuaranteeAmountFirst GuaranteeMode = "amount_first"
	// GuaranteePercentageFirst uses the percentage when set, else the amount.
	GuaranteePercentageFirst GuaranteeMode = "percentage_first"
	// GuaranteeGreater uses whichever of the two covers more.
	GuaranteeGreater GuaranteeMode = "greater"
)

func ParseGuaranteeMode(s string) (GuaranteeMode, error) {
	switch m := GuaranteeMode(s); m {
	case GuaranteeAdditive, GuaranteeAmountFirst, GuaranteePercentageFirst, GuaranteeGreater:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGuaranteeMode, s)
}

// Policy holds the configurable submission rules.
type Policy struct {
	GuaranteeMode      GuaranteeMode
	MinGuarantors      int
	MinCoverageRatio   decimal.Decimal // coverage / principal, e.g. 1.0 = fully covered
	AnchorAtSubmission bool
}

func DefaultPolicy() Policy {
	return Policy{GuaranteeMode: GuaranteeAmountFirst, MinCoverageRatio: decimal.Zero}
}

var hundred = decimal.NewFromInt(100)

// GuarantorCoverage is the amount one guarantor is counted for.
func (p Policy) GuarantorCoverage(g Guarantor, principal decimal.Decimal) decimal.Decimal {
	byAmount := g.GuaranteeAmount
	byPct := principal.Mul(g.GuaranteePercentage).Div(hundred)
	switch p.GuaranteeMode {
	case GuaranteeAdditive:
		return byAmount.Add(byPct)
	case GuaranteePercentageFirst:
		if g.GuaranteePercentage.IsPositive() {
			return byPct
		}
		return byAmount
	case GuaranteeGreater:
		return decimal.Max(byAmount, byPct)
	default:
		if g.GuaranteeAmount.IsPositive() {
			return byAmount
		}
		return byPct
	}
}

// Coverage adds guarantor coverage and collateral estimated value.
func (p Policy) Coverage(principal decimal.Decimal, gs []Guarantor, cs []Collateral) decimal.Decimal {
	total := decimal.Zero
	for _, g := range gs {
		total = total.Add(p.GuarantorCoverage(g, principal))
	}
	for _, c := range cs {
		total = total.Add(c.EstimatedValue)
	}
	return total
}

func (p Policy) Check(principal decimal.Decimal, gs []Guarantor, cs []Collateral) error {
	if len(gs) < p.MinGuarantors {
		return fmt.Errorf("%w: %d guarantors, need %d", ErrInsufficientGuarantee, len(gs), p.MinGuarantors)
	}
	if !p.MinCoverageRatio.IsPositive() {
		return nil
	}
	need := principal.Mul(p.MinCoverageRatio)
	if got := p.Coverage(principal, gs, cs); got.LessThan(need) {
		return fmt.Errorf("%w: covered %s of required %s", ErrInsufficientGuarantee, got.StringFixed(2), need.StringFixed(2))
	}
	return nil
}
