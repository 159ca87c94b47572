package repayment

import (
	"sort"
	"time"

	"loan-workflow-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	StatusUnpaid        InstallmentStatus = "unpaid"
	StatusPartiallyPaid InstallmentStatus = "partially_paid"
	StatusPaid          InstallmentStatus = "paid"
	StatusOverdue       InstallmentStatus = "overdue"
)

// InstallmentView is an installment with its paid state derived from the
// ledger at read time.
type InstallmentView struct {
	Sequence    int               `json:"sequence"`
	DueDate     time.Time         `json:"due_date"`
	Scheduled   decimal.Decimal   `json:"scheduled"`
	Allocated   decimal.Decimal   `json:"allocated"`
	Outstanding decimal.Decimal   `json:"outstanding"`
	Status      InstallmentStatus `json:"status"`
}

// Allocate applies the net paid amount to installments earliest-due first.
// A later installment receives nothing while an earlier one is outstanding.
func Allocate(items []loan.Installment, records []Record, today time.Time) []InstallmentView {
	ordered := make([]loan.Installment, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	pool := TotalPaid(records)
	if pool.IsNegative() {
		pool = decimal.Zero
	}
	y, m, d := today.Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	out := make([]InstallmentView, 0, len(ordered))
	for _, it := range ordered {
		alloc := decimal.Min(pool, it.Amount)
		pool = pool.Sub(alloc)

		v := InstallmentView{
			Sequence:    it.Sequence,
			DueDate:     it.DueDate,
			Scheduled:   it.Amount,
			Allocated:   alloc,
			Outstanding: it.Amount.Sub(alloc),
		}
		switch {
		case alloc.GreaterThanOrEqual(it.Amount):
			v.Status = StatusPaid
		case it.DueDate.Before(startOfToday):
			v.Status = StatusOverdue
		case alloc.IsPositive():
			v.Status = StatusPartiallyPaid
		default:
			v.Status = StatusUnpaid
		}
		out = append(out, v)
	}
	return out
}
