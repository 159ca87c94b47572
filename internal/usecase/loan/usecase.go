package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/actor"
	"loan-workflow-engine/internal/domain/amortization"
	"loan-workflow-engine/internal/domain/approval"
	domain "loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/member"
	"loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/internal/domain/uow"
	"loan-workflow-engine/internal/infrastructure/metrics"
	"loan-workflow-engine/pkg/id"
	"loan-workflow-engine/pkg/money"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

type Usecase struct {
	tx         uow.UnitOfWork
	loans      domain.Repository
	repayments repayment.Repository
	members    member.Directory
	policy     domain.Policy
	workflows  approval.Workflows
	now        func() time.Time
}

// NewUsecase: reads go through the plain repos, every write through tx.
func NewUsecase(tx uow.UnitOfWork, loans domain.Repository, repayments repayment.Repository, members member.Directory, policy domain.Policy) *Usecase {
	return &Usecase{
		tx:         tx,
		loans:      loans,
		repayments: repayments,
		members:    members,
		policy:     policy,
		workflows:  approval.DefaultWorkflows(),
		now:        time.Now,
	}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Preview computes a schedule without persisting anything.
func (u *Usecase) Preview(in PreviewInput) (amortization.Result, error) {
	start := in.StartDate
	if start.IsZero() {
		start = today(u.now())
	}
	return amortization.ComputeSchedule(in.Principal, in.AnnualRate, in.TermMonths, start)
}

type SubmitResult struct {
	Loan         *LoanDTO             `json:"loan"`
	Installments []domain.Installment `json:"installments"`
}

// Submit validates the application, writes the loan, its schedule, its
// guarantors and collateral, and opens the LoanApplication approval request,
// all in one transaction.
func (u *Usecase) Submit(ctx context.Context, a actor.Actor, in SubmitInput) (*SubmitResult, error) {
	now := u.now().UTC()
	priority, err := approval.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	if err := u.checkMembers(ctx, in, now); err != nil {
		return nil, u.fail("submit", in.MemberID, err)
	}

	l := &domain.Loan{
		LoanID:          id.NewID32(),
		MemberID:        in.MemberID,
		Principal:       money.Round2(in.Principal),
		AnnualRate:      in.AnnualRate,
		TermMonths:      in.TermMonths,
		Purpose:         strings.TrimSpace(in.Purpose),
		LoanType:        in.LoanType,
		State:           domain.StateDraft,
		ApplicationDate: today(now),
		StateUpdatedAt:  now,
	}
	gs := make([]domain.Guarantor, 0, len(in.Guarantors))
	for _, g := range in.Guarantors {
		gs = append(gs, domain.Guarantor{
			MemberID:            g.MemberID,
			GuaranteeAmount:     money.Round2(g.GuaranteeAmount),
			GuaranteePercentage: g.GuaranteePercentage,
			Status:              domain.GuarantorPending,
		})
	}
	cs := make([]domain.Collateral, 0, len(in.Collateral))
	for _, c := range in.Collateral {
		cs = append(cs, domain.Collateral{
			Type:           c.Type,
			Description:    c.Description,
			EstimatedValue: money.Round2(c.EstimatedValue),
			Status:         domain.CollateralPledged,
		})
	}

	items, err := l.Submit(u.policy, gs, cs, now)
	if err != nil {
		return nil, u.fail("submit", l.LoanID, err)
	}
	req, err := u.workflows.NewRequest(approval.KindLoanApplication, l.LoanID, priority, in.Notes, a.ID, now)
	if err != nil {
		return nil, err
	}
	req.RequestID = id.NewID32()
	l.ApprovalRequestID = req.RequestID

	err = u.tx.WithinMemberTx(ctx, l.MemberID, func(r uow.Repos) error {
		// Block if the member already has an application awaiting a decision.
		pending, err := r.Loans.GetPendingLoanByMemberID(ctx, l.MemberID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", domain.ErrPendingExists, pending.LoanID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		for i := range items {
			items[i].LoanID = l.ID
		}
		for i := range gs {
			gs[i].LoanID = l.ID
		}
		for i := range cs {
			cs[i].LoanID = l.ID
		}
		if err := r.Loans.CreateInstallments(ctx, items); err != nil {
			return err
		}
		if err := r.Loans.CreateGuarantors(ctx, gs); err != nil {
			return err
		}
		if err := r.Loans.CreateCollateral(ctx, cs); err != nil {
			return err
		}
		return r.Approvals.Create(ctx, req)
	})
	if err != nil {
		return nil, u.fail("submit", l.LoanID, err)
	}

	metrics.LoanTransitions.WithLabelValues(string(domain.StateDraft), string(l.State)).Inc()
	log.Infof("loan %s submitted for member %s by %s (approval %s)", l.LoanID, l.MemberID, a.ID, req.RequestID)
	out := toDTO(l)
	out.Guarantors, out.Collateral = gs, cs
	return &SubmitResult{Loan: out, Installments: items}, nil
}

func (u *Usecase) checkMembers(ctx context.Context, in SubmitInput, now time.Time) error {
	if err := u.eligible(ctx, in.MemberID, now); err != nil {
		return err
	}
	for _, g := range in.Guarantors {
		if g.MemberID == in.MemberID {
			return member.ErrSelfGuarantee
		}
		if err := u.eligible(ctx, g.MemberID, now); err != nil {
			return fmt.Errorf("guarantor: %w", err)
		}
	}
	return nil
}

func (u *Usecase) eligible(ctx context.Context, memberID string, now time.Time) error {
	m, err := u.members.Lookup(ctx, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", member.ErrNotFound, memberID)
	}
	if err != nil {
		return err
	}
	if !m.Eligible(now) {
		return fmt.Errorf("%w: %s", member.ErrIneligible, memberID)
	}
	return nil
}

// Get returns the loan with the guarantors and collateral pledged at submission.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, u.fail("get", loanID, err)
	}
	out := toDTO(l)
	if out.Guarantors, err = u.loans.ListGuarantors(ctx, l.ID); err != nil {
		return nil, u.fail("get", loanID, err)
	}
	if out.Collateral, err = u.loans.ListCollateral(ctx, l.ID); err != nil {
		return nil, u.fail("get", loanID, err)
	}
	return out, nil
}

// GetSchedule reads outside any lock; statuses are projected from the ledger.
func (u *Usecase) GetSchedule(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, u.fail("schedule", loanID, err)
	}
	items, err := u.loans.ListInstallments(ctx, l.ID)
	if err != nil {
		return nil, u.fail("schedule", loanID, err)
	}
	records, err := u.repayments.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, u.fail("schedule", loanID, err)
	}
	paid := repayment.TotalPaid(records)
	return &ScheduleDTO{
		LoanID:         l.LoanID,
		State:          string(l.State),
		Anchored:       l.ScheduleAnchored,
		MonthlyPayment: l.MonthlyPayment,
		ScheduleTotal:  l.ScheduleTotal,
		TotalPaid:      paid,
		Outstanding:    repayment.Outstanding(l.ScheduleTotal, paid),
		Installments:   repayment.Allocate(items, records, u.now()),
	}, nil
}

// Disburse moves an approved loan to active and re-anchors due dates when
// the schedule was not anchored at submission.
func (u *Usecase) Disburse(ctx context.Context, a actor.Actor, loanID string) (*LoanDTO, error) {
	now := u.now().UTC()
	var out *domain.Loan
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		items, err := r.Loans.ListInstallments(ctx, l.ID)
		if err != nil {
			return err
		}
		wasAnchored := l.ScheduleAnchored
		moved, err := l.Disburse(items, now)
		if err != nil {
			return err
		}
		if !wasAnchored {
			if err := r.Loans.UpdateInstallmentDueDates(ctx, moved); err != nil {
				return err
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, u.fail("disburse", loanID, err)
	}

	metrics.LoanTransitions.WithLabelValues(string(domain.StateApproved), string(domain.StateDisbursed)).Inc()
	metrics.LoanTransitions.WithLabelValues(string(domain.StateDisbursed), string(domain.StateActive)).Inc()
	log.Infof("loan %s disbursed by %s", loanID, a.ID)
	return toDTO(out), nil
}

func (u *Usecase) MarkDefaulted(ctx context.Context, a actor.Actor, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, a, loanID, "default", (*domain.Loan).MarkDefaulted)
}

func (u *Usecase) WriteOff(ctx context.Context, a actor.Actor, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, a, loanID, "write-off", (*domain.Loan).WriteOff)
}

func (u *Usecase) transition(ctx context.Context, a actor.Actor, loanID, op string, apply func(*domain.Loan, time.Time) error) (*LoanDTO, error) {
	now := u.now().UTC()
	var out *domain.Loan
	var from domain.State
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		from = l.State
		if err := apply(l, now); err != nil {
			return err
		}
		out = l
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, u.fail(op, loanID, err)
	}
	metrics.LoanTransitions.WithLabelValues(string(from), string(out.State)).Inc()
	log.Infof("loan %s: %s -> %s by %s", loanID, from, out.State, a.ID)
	return toDTO(out), nil
}

// expected errors are the caller's problem and are not logged as failures.
var expected = []error{
	domain.ErrNotFound, domain.ErrMissingFields, domain.ErrPendingExists, domain.ErrInsufficientGuarantee,
	member.ErrNotFound, member.ErrIneligible, member.ErrSelfGuarantee,
	amortization.ErrInvalidPrincipal, amortization.ErrInvalidTerm, amortization.ErrInvalidRate,
}

// fail translates persistence errors and logs by severity.
func (u *Usecase) fail(op, ref string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	switch {
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrInvalidState):
		log.Warnf("loan %s: %s refused: %v", ref, op, err)
	case uow.IsRetryable(err):
		metrics.LockTimeouts.WithLabelValues("loan").Inc()
		log.Infof("loan %s: %s not applied, retryable: %v", ref, op, err)
	default:
		for _, e := range expected {
			if errors.Is(err, e) {
				return err
			}
		}
		log.Errorf("loan %s: %s failed: %v", ref, op, err)
	}
	return err
}
