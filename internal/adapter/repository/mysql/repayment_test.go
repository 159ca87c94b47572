package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	loanDomain "loan-workflow-engine/internal/domain/loan"
	domain "loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/pkg/id"

	"gorm.io/gorm"
)

func makeRecord(loanNumericID uint64, key, amount string, on time.Time) *domain.Record {
	return &domain.Record{
		RepaymentID:    id.NewID32(),
		LoanID:         loanNumericID,
		MemberID:       "M1",
		Kind:           domain.KindPayment,
		Amount:         dec(amount),
		PaymentDate:    on,
		Method:         domain.MethodCash,
		IdempotencyKey: key,
		RecordedBy:     "teller-1",
	}
}

func TestRepayment_CreateAndLookups(t *testing.T) {
	db := openTestDB(t)
	loans := NewLoanRepository(db)
	repo := NewRepaymentRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), "M1", loanDomain.StateActive)
	if err := loans.Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	first := makeRecord(l.ID, "key-1", "1000", feb)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByIdempotencyKey(ctx, l.ID, "key-1")
	if err != nil || got.RepaymentID != first.RepaymentID {
		t.Fatalf("GetByIdempotencyKey = %+v, %v", got, err)
	}
	if _, err := repo.GetByIdempotencyKey(ctx, l.ID+1, "key-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("key must be scoped to loan, got %v", err)
	}
	if _, err := repo.GetByRepaymentID(ctx, first.RepaymentID); err != nil {
		t.Fatalf("GetByRepaymentID: %v", err)
	}

	dup := makeRecord(l.ID, "key-1", "1000", feb)
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatal("expected unique violation for repeated (loan_id, idempotency_key)")
	}

	rev := makeRecord(l.ID, "rev-"+first.RepaymentID, "-1000", feb.AddDate(0, 0, 1))
	rev.Kind = domain.KindReversal
	rev.ReversesID = first.RepaymentID
	if err := repo.Create(ctx, rev); err != nil {
		t.Fatalf("Create reversal: %v", err)
	}
	gotRev, err := repo.GetReversalOf(ctx, first.RepaymentID)
	if err != nil || gotRev.RepaymentID != rev.RepaymentID {
		t.Fatalf("GetReversalOf = %+v, %v", gotRev, err)
	}

	all, err := repo.ListByLoanID(ctx, l.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByLoanID = %d, %v", len(all), err)
	}
	if total := domain.TotalPaid(all); !total.IsZero() {
		t.Fatalf("TotalPaid after reversal = %s", total)
	}
}

func TestRepayment_ListByDateRangeAndLoans(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepaymentRepository(db)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		if err := repo.Create(ctx, makeRecord(uint64(i%2+1), id.NewID32(), "10", d)); err != nil {
			t.Fatal(err)
		}
	}

	march, err := repo.ListByDateRange(ctx, dates[1], dates[3])
	if err != nil || len(march) != 2 {
		t.Fatalf("ListByDateRange = %d, %v", len(march), err)
	}

	byLoans, err := repo.ListByLoanIDs(ctx, []uint64{1})
	if err != nil || len(byLoans) != 2 {
		t.Fatalf("ListByLoanIDs = %d, %v", len(byLoans), err)
	}
	none, err := repo.ListByLoanIDs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty ids = %d, %v", len(none), err)
	}
}
