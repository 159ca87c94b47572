package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var (
	appDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now     = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func draftLoan() *Loan {
	return &Loan{
		LoanID:          "LN-1",
		MemberID:        "M-1",
		Principal:       dec("12000"),
		AnnualRate:      decimal.Zero,
		TermMonths:      12,
		Purpose:         "working capital",
		State:           StateDraft,
		ApplicationDate: appDate,
	}
}

func activeLoan(total string) *Loan {
	return &Loan{LoanID: "LN-A", State: StateActive, ScheduleTotal: dec(total)}
}

func TestSubmit_BuildsScheduleAndMovesToSubmitted(t *testing.T) {
	l := draftLoan()
	items, err := l.Submit(DefaultPolicy(), nil, nil, now)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if l.State != StateSubmitted {
		t.Fatalf("state = %s", l.State)
	}
	if len(items) != 12 {
		t.Fatalf("installments = %d", len(items))
	}
	if !l.MonthlyPayment.Equal(dec("1000")) || !l.ScheduleTotal.Equal(dec("12000")) {
		t.Fatalf("payment=%s total=%s", l.MonthlyPayment, l.ScheduleTotal)
	}
	if !ScheduleTotalOf(items).Equal(l.ScheduleTotal) {
		t.Fatalf("schedule sum %s != total %s", ScheduleTotalOf(items), l.ScheduleTotal)
	}
	if l.ScheduleAnchored {
		t.Fatal("default policy anchors at disbursement")
	}
}

func TestSubmit_MissingFields(t *testing.T) {
	l := draftLoan()
	l.Purpose = "  "
	l.TermMonths = 0
	if _, err := l.Submit(DefaultPolicy(), nil, nil, now); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("want ErrMissingFields, got %v", err)
	}
	if l.State != StateDraft {
		t.Fatalf("state mutated to %s", l.State)
	}
}

func TestSubmit_PolicyMinimums(t *testing.T) {
	p := Policy{GuaranteeMode: GuaranteeAmountFirst, MinGuarantors: 1, MinCoverageRatio: dec("0.5")}

	l := draftLoan()
	if _, err := l.Submit(p, nil, nil, now); !errors.Is(err, ErrInsufficientGuarantee) {
		t.Fatalf("want ErrInsufficientGuarantee, got %v", err)
	}

	l = draftLoan()
	weak := []Guarantor{{MemberID: "G-1", GuaranteeAmount: dec("1000")}}
	if _, err := l.Submit(p, weak, nil, now); !errors.Is(err, ErrInsufficientGuarantee) {
		t.Fatalf("want ErrInsufficientGuarantee for low coverage, got %v", err)
	}

	l = draftLoan()
	cs := []Collateral{{Type: "vehicle", EstimatedValue: dec("5000")}}
	if _, err := l.Submit(p, weak, cs, now); err != nil {
		t.Fatalf("guarantor+collateral should cover 6000 of 6000: %v", err)
	}
}

func TestSubmit_OnlyFromDraft(t *testing.T) {
	l := draftLoan()
	l.State = StateSubmitted
	if _, err := l.Submit(DefaultPolicy(), nil, nil, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("want ErrIllegalTransition, got %v", err)
	}
}

func TestApplyApprovalOutcome(t *testing.T) {
	l := draftLoan()
	l.State = StateSubmitted

	if err := l.ApplyApprovalOutcome(OutcomeInProgress, now); err != nil || l.State != StateUnderApproval {
		t.Fatalf("in-progress: state=%s err=%v", l.State, err)
	}
	// repeated stage advances keep the loan under approval
	if err := l.ApplyApprovalOutcome(OutcomeInProgress, now); err != nil || l.State != StateUnderApproval {
		t.Fatalf("in-progress again: state=%s err=%v", l.State, err)
	}
	if err := l.ApplyApprovalOutcome(OutcomeApproved, now); err != nil || l.State != StateApproved {
		t.Fatalf("approved: state=%s err=%v", l.State, err)
	}
	if l.ApprovalDate == nil {
		t.Fatal("approval date not set")
	}
	if err := l.ApplyApprovalOutcome(OutcomeRejected, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("reject after approve: want ErrIllegalTransition, got %v", err)
	}

	r := draftLoan()
	r.State = StateSubmitted
	if err := r.ApplyApprovalOutcome(OutcomeRejected, now); err != nil || r.State != StateRejected {
		t.Fatalf("rejected: state=%s err=%v", r.State, err)
	}
}

func TestDisburse_OnlyFromApproved(t *testing.T) {
	for _, s := range []State{StateDraft, StateSubmitted, StateUnderApproval, StateRejected, StateActive, StatePaid} {
		l := draftLoan()
		l.State = s
		if _, err := l.Disburse(nil, now); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("disburse from %s: want ErrInvalidState, got %v", s, err)
		}
		if l.State != s || l.DisbursementDate != nil {
			t.Fatalf("disburse from %s mutated loan: %+v", s, l)
		}
	}
}

func TestDisburse_ReanchorsSchedule(t *testing.T) {
	l := draftLoan()
	items, err := l.Submit(DefaultPolicy(), nil, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyApprovalOutcome(OutcomeApproved, now); err != nil {
		t.Fatal(err)
	}

	disbursedAt := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	out, err := l.Disburse(items, disbursedAt)
	if err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if l.State != StateActive || l.DisbursementDate == nil {
		t.Fatalf("state=%s disbursed=%v", l.State, l.DisbursementDate)
	}
	if want := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC); !out[0].DueDate.Equal(want) {
		t.Fatalf("first due = %v, want %v", out[0].DueDate, want)
	}
	for i := range out {
		if !out[i].Amount.Equal(items[i].Amount) {
			t.Fatalf("amount changed at %d", i)
		}
	}
	if !l.ScheduleAnchored {
		t.Fatal("expected schedule anchored after disbursement")
	}
}

func TestDisburse_KeepsSubmissionAnchor(t *testing.T) {
	l := draftLoan()
	p := DefaultPolicy()
	p.AnchorAtSubmission = true
	items, err := l.Submit(p, nil, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	l.State = StateApproved
	out, err := l.Disburse(items, now.AddDate(0, 0, 20))
	if err != nil {
		t.Fatal(err)
	}
	if !out[0].DueDate.Equal(items[0].DueDate) {
		t.Fatalf("due date moved: %v -> %v", items[0].DueDate, out[0].DueDate)
	}
}

func TestRecordRepaymentEffect(t *testing.T) {
	tol := dec("0.01")

	l := activeLoan("1000")
	settled, err := l.RecordRepaymentEffect(dec("500"), tol, now)
	if err != nil || settled || l.State != StateActive {
		t.Fatalf("partial: settled=%v state=%s err=%v", settled, l.State, err)
	}

	settled, err = l.RecordRepaymentEffect(dec("999.99"), tol, now)
	if err != nil || !settled || l.State != StatePaid {
		t.Fatalf("within tolerance: settled=%v state=%s err=%v", settled, l.State, err)
	}

	// idempotent on an already paid loan
	settled, err = l.RecordRepaymentEffect(dec("999.99"), tol, now)
	if err != nil || settled || l.State != StatePaid {
		t.Fatalf("repeat: settled=%v state=%s err=%v", settled, l.State, err)
	}
}

func TestRecordRepaymentEffect_NotActive(t *testing.T) {
	l := activeLoan("1000")
	l.State = StateDefaulted
	if _, err := l.RecordRepaymentEffect(dec("1000"), decimal.Zero, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("want ErrIllegalTransition, got %v", err)
	}
}

func TestDefaultAndWriteOff(t *testing.T) {
	l := activeLoan("1000")
	if err := l.WriteOff(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("write-off from active: %v", err)
	}
	if err := l.MarkDefaulted(now); err != nil || l.State != StateDefaulted {
		t.Fatalf("default: state=%s err=%v", l.State, err)
	}
	if err := l.WriteOff(now); err != nil || l.State != StateWrittenOff {
		t.Fatalf("write-off: state=%s err=%v", l.State, err)
	}
}
