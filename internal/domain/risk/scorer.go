package risk

import (
	"errors"
	"sort"
	"time"

	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/pkg/money"

	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("period must be YYYY-MM")

type Classification string

const (
	AtRisk  Classification = "at_risk"
	Watch   Classification = "watch"
	OnTrack Classification = "on_track"
)

var (
	atRiskBelow = decimal.NewFromInt(80)
	watchBelow  = decimal.NewFromInt(90)
	overdueW    = decimal.NewFromInt(1000)
)

// Period is the half-open interval [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// MonthPeriod parses "YYYY-MM" into the calendar month in UTC.
func MonthPeriod(s string) (Period, error) {
	start, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{From: start, To: start.AddDate(0, 1, 0)}, nil
}

// CurrentMonth is the calendar month containing t.
func CurrentMonth(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: start, To: start.AddDate(0, 1, 0)}
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

func (p Period) String() string { return p.From.Format("2006-01") }

// LoanData is one active loan's schedule and its full ledger, used for
// allocation and overdue status.
type LoanData struct {
	LoanID       string
	MemberID     string
	Installments []loan.Installment
	Repayments   []repayment.Record
}

type MemberRiskEntry struct {
	MemberID        string           `json:"member_id"`
	ExpectedAmount  decimal.Decimal  `json:"expected_amount"`
	ActualAmount    decimal.Decimal  `json:"actual_amount"`
	AchievementRate *decimal.Decimal `json:"achievement_rate"`
	OverdueAmount   decimal.Decimal  `json:"overdue_amount"`
	OverdueCount    int              `json:"overdue_count"`
	Classification  Classification   `json:"classification"`
	Score           decimal.Decimal  `json:"score"`
}

// Classify applies AtRisk before Watch. A nil rate (nothing expected) is
// never below a threshold.
func Classify(overdueCount int, rate *decimal.Decimal) Classification {
	below := func(limit decimal.Decimal) bool { return rate != nil && rate.LessThan(limit) }
	switch {
	case overdueCount > 0 && below(atRiskBelow):
		return AtRisk
	case overdueCount > 0 || below(watchBelow):
		return Watch
	}
	return OnTrack
}

// RiskScore is overdueAmount×1000 + (100 − rate); a nil rate counts as 100.
func RiskScore(overdueAmount decimal.Decimal, rate *decimal.Decimal) decimal.Decimal {
	r := money.Hundred()
	if rate != nil {
		r = *rate
	}
	return overdueAmount.Mul(overdueW).Add(money.Hundred().Sub(r))
}

// Score summarises each member's active loans for period and ranks them by
// risk, highest first. ledger is every record dated in period, whatever the
// state of its loan now; only members with an entry in loans are reported.
// today decides what is overdue.
func Score(loans []LoanData, ledger []repayment.Record, period Period, today time.Time) []MemberRiskEntry {
	byMember := map[string]*MemberRiskEntry{}
	var order []string

	for _, l := range loans {
		e, ok := byMember[l.MemberID]
		if !ok {
			e = &MemberRiskEntry{MemberID: l.MemberID}
			byMember[l.MemberID] = e
			order = append(order, l.MemberID)
		}
		for _, it := range l.Installments {
			if period.Contains(it.DueDate) {
				e.ExpectedAmount = e.ExpectedAmount.Add(it.Amount)
			}
		}
		for _, v := range repayment.Allocate(l.Installments, l.Repayments, today) {
			if v.Status == repayment.StatusOverdue {
				e.OverdueAmount = e.OverdueAmount.Add(v.Outstanding)
				e.OverdueCount++
			}
		}
	}

	for _, r := range ledger {
		if e, ok := byMember[r.MemberID]; ok && period.Contains(r.PaymentDate) {
			e.ActualAmount = e.ActualAmount.Add(r.Amount)
		}
	}

	out := make([]MemberRiskEntry, 0, len(order))
	for _, id := range order {
		e := byMember[id]
		var rate *decimal.Decimal
		if pct, ok := money.Percent(e.ActualAmount, e.ExpectedAmount); ok {
			rate = &pct
			shown := money.Round2(pct)
			e.AchievementRate = &shown
		}
		// thresholds compare the exact rate; only the reported one is rounded
		e.Classification = Classify(e.OverdueCount, rate)
		e.Score = RiskScore(e.OverdueAmount, rate)
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Score.Cmp(out[j].Score); c != 0 {
			return c > 0
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// TopN keeps the first n entries; n <= 0 keeps all.
func TopN(entries []MemberRiskEntry, n int) []MemberRiskEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
