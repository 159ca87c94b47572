package repayment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/actor"
	"loan-workflow-engine/internal/domain/loan"
	domain "loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/internal/domain/uow"
	"loan-workflow-engine/internal/infrastructure/metrics"
	"loan-workflow-engine/pkg/id"
	"loan-workflow-engine/pkg/money"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Usecase struct {
	tx         uow.UnitOfWork
	loans      loan.Repository
	repayments domain.Repository
	tolerance  decimal.Decimal
	margin     decimal.Decimal
	now        func() time.Time
}

// NewUsecase: tolerance is how close total paid must get to the schedule
// total to settle; margin is how far past it a payment may go.
func NewUsecase(tx uow.UnitOfWork, loans loan.Repository, repayments domain.Repository, tolerance, margin decimal.Decimal) *Usecase {
	return &Usecase{
		tx:         tx,
		loans:      loans,
		repayments: repayments,
		tolerance:  tolerance,
		margin:     margin,
		now:        time.Now,
	}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordPayment appends a payment under the loan row lock and settles the
// loan when the ledger reaches the schedule total. A reused idempotency key
// returns the earlier record together with ErrDuplicatePayment.
func (u *Usecase) RecordPayment(ctx context.Context, a actor.Actor, in RecordInput) (*Result, error) {
	amount := money.Round2(in.Amount)
	if !amount.IsPositive() {
		metrics.Repayments.WithLabelValues(string(domain.KindPayment), "rejected").Inc()
		return nil, domain.ErrInvalidAmount
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		return nil, fmt.Errorf("%w: idempotency key", loan.ErrMissingFields)
	}
	now := u.now().UTC()
	paidOn := in.PaymentDate
	if paidOn.IsZero() {
		paidOn = now
	}
	method := in.Method
	if method == "" {
		method = domain.MethodCash
	}

	var res *Result
	err := u.tx.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		prev, err := r.Repayments.GetByIdempotencyKey(ctx, l.ID, key)
		switch {
		case err == nil:
			records, err := r.Repayments.ListByLoanID(ctx, l.ID)
			if err != nil {
				return err
			}
			res = position(l, records, prev, false)
			res.Duplicate = true
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePayment, prev.RepaymentID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if l.State != loan.StateActive {
			return fmt.Errorf("%w: loan is %s", loan.ErrInvalidState, l.State)
		}
		records, err := r.Repayments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := domain.CheckPayment(amount, domain.TotalPaid(records), l.ScheduleTotal, u.margin); err != nil {
			return err
		}

		rec := &domain.Record{
			RepaymentID:    id.NewID32(),
			LoanID:         l.ID,
			MemberID:       l.MemberID,
			Kind:           domain.KindPayment,
			Amount:         amount,
			PaymentDate:    dateOnly(paidOn),
			Method:         method,
			IdempotencyKey: key,
			ReceiptRef:     in.ReceiptRef,
			Notes:          in.Notes,
			RecordedBy:     a.ID,
		}
		if err := r.Repayments.Create(ctx, rec); err != nil {
			return err
		}
		records = append(records, *rec)

		settled, err := l.RecordRepaymentEffect(domain.TotalPaid(records), u.tolerance, now)
		if err != nil {
			return err
		}
		if settled {
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}
		res = position(l, records, rec, settled)
		return nil
	})
	if errors.Is(err, domain.ErrDuplicatePayment) && res != nil {
		metrics.Repayments.WithLabelValues(string(domain.KindPayment), "duplicate").Inc()
		return res, err
	}
	if err != nil {
		metrics.Repayments.WithLabelValues(string(domain.KindPayment), "rejected").Inc()
		return nil, u.fail("record", in.LoanID, err)
	}

	metrics.Repayments.WithLabelValues(string(domain.KindPayment), "recorded").Inc()
	if res.Settled {
		metrics.LoanTransitions.WithLabelValues(string(loan.StateActive), string(loan.StatePaid)).Inc()
		log.Infof("loan %s settled by repayment %s", in.LoanID, res.Record.RepaymentID)
	}
	return res, nil
}

// ReversePayment appends a compensating negative record. The original is
// never touched and can be reversed at most once.
func (u *Usecase) ReversePayment(ctx context.Context, a actor.Actor, loanID, repaymentID, reason string) (*Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	now := u.now().UTC()

	var res *Result
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateActive {
			return fmt.Errorf("%w: loan is %s", loan.ErrInvalidState, l.State)
		}
		orig, err := r.Repayments.GetByRepaymentID(ctx, repaymentID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && orig.LoanID != l.ID) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, repaymentID)
		}
		if err != nil {
			return err
		}
		if orig.Kind != domain.KindPayment {
			return fmt.Errorf("%w: %s is a %s", domain.ErrNotReversible, repaymentID, orig.Kind)
		}
		switch _, err := r.Repayments.GetReversalOf(ctx, repaymentID); {
		case err == nil:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyReversed, repaymentID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		rev := &domain.Record{
			RepaymentID:    id.NewID32(),
			LoanID:         l.ID,
			MemberID:       l.MemberID,
			Kind:           domain.KindReversal,
			Amount:         orig.Amount.Neg(),
			PaymentDate:    dateOnly(now),
			Method:         domain.MethodAdjustment,
			IdempotencyKey: "reversal:" + orig.RepaymentID,
			ReversesID:     orig.RepaymentID,
			Notes:          reason,
			RecordedBy:     a.ID,
		}
		if err := r.Repayments.Create(ctx, rev); err != nil {
			return err
		}
		records, err := r.Repayments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		res = position(l, records, rev, false)
		return nil
	})
	if err != nil {
		metrics.Repayments.WithLabelValues(string(domain.KindReversal), "rejected").Inc()
		return nil, u.fail("reverse", loanID, err)
	}
	metrics.Repayments.WithLabelValues(string(domain.KindReversal), "recorded").Inc()
	log.Infof("loan %s: repayment %s reversed by %s", loanID, repaymentID, a.ID)
	return res, nil
}

func (u *Usecase) OutstandingBalance(ctx context.Context, loanID string) (*BalanceDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, u.fail("balance", loanID, err)
	}
	records, err := u.repayments.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, u.fail("balance", loanID, err)
	}
	paid := domain.TotalPaid(records)
	return &BalanceDTO{
		LoanID:        l.LoanID,
		State:         string(l.State),
		ScheduleTotal: l.ScheduleTotal,
		TotalPaid:     paid,
		Outstanding:   domain.Outstanding(l.ScheduleTotal, paid),
	}, nil
}

// List returns the loan's ledger in insertion order.
func (u *Usecase) List(ctx context.Context, loanID string) ([]domain.Record, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, u.fail("list", loanID, err)
	}
	records, err := u.repayments.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, u.fail("list", loanID, err)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

func position(l *loan.Loan, records []domain.Record, rec *domain.Record, settled bool) *Result {
	paid := domain.TotalPaid(records)
	return &Result{
		Record:      rec,
		LoanState:   string(l.State),
		TotalPaid:   paid,
		Outstanding: domain.Outstanding(l.ScheduleTotal, paid),
		Settled:     settled,
	}
}

// fail maps a missing loan to loan.ErrNotFound and logs by severity.
func (u *Usecase) fail(op, loanID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = fmt.Errorf("%w: %s", loan.ErrNotFound, loanID)
	}
	switch {
	case errors.Is(err, loan.ErrInvalidState), errors.Is(err, loan.ErrIllegalTransition):
		log.Warnf("loan %s: repayment %s refused: %v", loanID, op, err)
	case uow.IsRetryable(err):
		metrics.LockTimeouts.WithLabelValues("loan").Inc()
		log.Infof("loan %s: repayment %s not applied, retryable: %v", loanID, op, err)
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, loan.ErrMissingFields),
		errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOverpayment),
		errors.Is(err, domain.ErrAlreadyReversed), errors.Is(err, domain.ErrNotReversible):
	default:
		log.Errorf("loan %s: repayment %s failed: %v", loanID, op, err)
	}
	return err
}
