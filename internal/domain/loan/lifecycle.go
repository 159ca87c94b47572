package loan

import (
	"fmt"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/amortization"

	"github.com/shopspring/decimal"
)

// ApprovalOutcome is what the approval workflow reports back to a loan.
type ApprovalOutcome string

const (
	OutcomeInProgress ApprovalOutcome = "in_progress"
	OutcomeApproved   ApprovalOutcome = "approved"
	OutcomeRejected   ApprovalOutcome = "rejected"
)

func (l *Loan) apply(ev Event, now time.Time) error {
	to, err := Next(l.State, ev)
	if err != nil {
		return err
	}
	l.State = to
	l.StateUpdatedAt = now.UTC()
	return nil
}

func (l *Loan) missingFields() []string {
	var missing []string
	if !l.Principal.IsPositive() {
		missing = append(missing, "principal")
	}
	if l.TermMonths < 1 {
		missing = append(missing, "term_months")
	}
	if l.AnnualRate.IsNegative() {
		missing = append(missing, "annual_rate")
	}
	if strings.TrimSpace(l.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	return missing
}

// Submit moves a draft to submitted after checking required fields and the
// guarantee policy. It returns the schedule the loan is bound to.
func (l *Loan) Submit(p Policy, gs []Guarantor, cs []Collateral, now time.Time) ([]Installment, error) {
	if l.State != StateDraft {
		return nil, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, l.State, EventSubmit)
	}
	if missing := l.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if err := p.Check(l.Principal, gs, cs); err != nil {
		return nil, err
	}

	res, err := amortization.ComputeSchedule(l.Principal, l.AnnualRate, l.TermMonths, l.ApplicationDate)
	if err != nil {
		return nil, err
	}
	items := make([]Installment, 0, len(res.Installments))
	for _, in := range res.Installments {
		items = append(items, Installment{
			LoanID:    l.ID,
			Sequence:  in.Sequence,
			DueDate:   in.DueDate,
			Amount:    in.Amount,
			Principal: in.Principal,
			Interest:  in.Interest,
		})
	}

	if err := l.apply(EventSubmit, now); err != nil {
		return nil, err
	}
	l.MonthlyPayment = res.MonthlyPayment
	l.ScheduleTotal = res.Total
	l.ScheduleAnchored = p.AnchorAtSubmission
	return items, nil
}

// ApplyApprovalOutcome consumes the workflow result for this loan's application.
func (l *Loan) ApplyApprovalOutcome(o ApprovalOutcome, now time.Time) error {
	switch o {
	case OutcomeInProgress:
		if l.State == StateUnderApproval {
			return nil
		}
		return l.apply(EventReview, now)
	case OutcomeApproved:
		if err := l.apply(EventApprove, now); err != nil {
			return err
		}
		at := now.UTC()
		l.ApprovalDate = &at
		return nil
	case OutcomeRejected:
		return l.apply(EventReject, now)
	}
	return fmt.Errorf("%w: unknown outcome %q", ErrIllegalTransition, o)
}

// Disburse takes an approved loan through disbursed to active. When the
// schedule was not anchored at submission its due dates are re-anchored to
// the disbursement date; amounts never change.
func (l *Loan) Disburse(items []Installment, now time.Time) ([]Installment, error) {
	if l.State != StateApproved {
		return nil, fmt.Errorf("%w: cannot disburse from %s", ErrInvalidState, l.State)
	}
	if err := l.apply(EventDisburse, now); err != nil {
		return nil, err
	}
	at := now.UTC()
	l.DisbursementDate = &at
	if err := l.apply(EventActivate, now); err != nil {
		return nil, err
	}
	if l.ScheduleAnchored {
		return items, nil
	}
	out := make([]Installment, len(items))
	for i, it := range items {
		it.DueDate = amortization.DueDate(at, it.Sequence)
		out[i] = it
	}
	l.ScheduleAnchored = true
	return out, nil
}

// RecordRepaymentEffect settles an active loan once totalPaid reaches the
// schedule total within tolerance. Calling it on a paid loan is a no-op.
func (l *Loan) RecordRepaymentEffect(totalPaid, tolerance decimal.Decimal, now time.Time) (bool, error) {
	if l.State == StatePaid {
		return false, nil
	}
	if totalPaid.LessThan(l.ScheduleTotal.Sub(tolerance)) {
		return false, nil
	}
	if err := l.apply(EventSettle, now); err != nil {
		return false, err
	}
	at := now.UTC()
	l.SettledAt = &at
	return true, nil
}

func (l *Loan) MarkDefaulted(now time.Time) error { return l.apply(EventDefault, now) }

func (l *Loan) WriteOff(now time.Time) error { return l.apply(EventWriteOff, now) }
