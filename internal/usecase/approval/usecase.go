package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/actor"
	domain "loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/uow"
	"loan-workflow-engine/internal/infrastructure/metrics"
	"loan-workflow-engine/pkg/id"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

type Usecase struct {
	tx        uow.UnitOfWork
	requests  domain.Repository
	workflows domain.Workflows
	now       func() time.Time
}

// NewUsecase: decisions run under the request lock, queue reads go through requests.
func NewUsecase(tx uow.UnitOfWork, requests domain.Repository) *Usecase {
	return &Usecase{tx: tx, requests: requests, workflows: domain.DefaultWorkflows(), now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) WithWorkflows(w domain.Workflows) *Usecase {
	u.workflows = w
	return u
}

// ProcessDecision records one stage decision. For loan applications the
// outcome is applied to the loan inside the same transaction, locking the
// loan after the request.
func (u *Usecase) ProcessDecision(ctx context.Context, a actor.Actor, in DecisionInput) (*DecisionResult, error) {
	now := u.now().UTC()
	var res *DecisionResult
	var loanFrom loan.State

	err := u.tx.WithinApprovalTx(ctx, in.RequestID, func(r uow.Repos, req *domain.Request) error {
		entry, err := u.workflows.Decide(req, a, in.Decision, in.Comments, now)
		if err != nil {
			return err
		}
		if err := r.Approvals.AppendDecision(ctx, &entry); err != nil {
			return err
		}
		if err := r.Approvals.UpdateWithVersion(ctx, req); err != nil {
			return err
		}
		res = &DecisionResult{Request: req, Decision: entry}
		if req.Kind != domain.KindLoanApplication {
			return nil
		}

		l, err := r.Loans.GetByLoanIDForUpdate(ctx, req.ReferenceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", loan.ErrNotFound, req.ReferenceID)
		}
		if err != nil {
			return err
		}
		loanFrom = l.State
		if err := l.ApplyApprovalOutcome(outcomeOf(req.Status), now); err != nil {
			return err
		}
		if l.State != loanFrom {
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}
		res.LoanID, res.LoanState = l.LoanID, string(l.State)
		return nil
	})
	if err != nil {
		return nil, u.fail("decide", in.RequestID, err)
	}

	req := res.Request
	metrics.ApprovalDecisions.WithLabelValues(string(req.Kind), string(in.Decision), string(req.Status)).Inc()
	if res.LoanState != "" && res.LoanState != string(loanFrom) {
		metrics.LoanTransitions.WithLabelValues(string(loanFrom), res.LoanState).Inc()
	}
	log.Infof("approval %s stage %d: %s by %s (%s), status %s", req.RequestID, res.Decision.Stage, in.Decision, a.ID, a.Role, req.Status)
	return res, nil
}

func outcomeOf(s domain.Status) loan.ApprovalOutcome {
	switch s {
	case domain.StatusApproved:
		return loan.OutcomeApproved
	case domain.StatusRejected:
		return loan.OutcomeRejected
	}
	return loan.OutcomeInProgress
}

// PendingForRole is the work queue for role, highest priority and oldest first.
func (u *Usecase) PendingForRole(ctx context.Context, role actor.Role) ([]domain.Request, error) {
	open, err := u.requests.ListOpen(ctx)
	if err != nil {
		return nil, u.fail("pending", string(role), err)
	}
	return u.workflows.PendingFor(role, open), nil
}

// SubmitRequest opens a workflow for the kinds that are not driven by loan submission.
func (u *Usecase) SubmitRequest(ctx context.Context, a actor.Actor, in SubmitInput) (*domain.Request, error) {
	if in.Kind == domain.KindLoanApplication {
		return nil, domain.ErrReservedKind
	}
	ref := strings.TrimSpace(in.ReferenceID)
	if ref == "" {
		return nil, domain.ErrMissingReference
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	req, err := u.workflows.NewRequest(in.Kind, ref, priority, in.Notes, a.ID, u.now())
	if err != nil {
		return nil, err
	}
	req.RequestID = id.NewID32()

	if err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		return r.Approvals.Create(ctx, req)
	}); err != nil {
		return nil, u.fail("submit", req.RequestID, err)
	}
	log.Infof("approval %s opened: %s for %s by %s", req.RequestID, req.Kind, ref, a.ID)
	return req, nil
}

// GetRequest returns the request with its decision trail, oldest first.
func (u *Usecase) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, u.fail("get", requestID, err)
	}
	ds, err := u.requests.ListDecisions(ctx, req.ID)
	if err != nil {
		return nil, u.fail("get", requestID, err)
	}
	req.Decisions = ds
	return req, nil
}

func (u *Usecase) fail(op, ref string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, loan.ErrIllegalTransition):
		log.Warnf("approval %s: %s refused: %v", ref, op, err)
	case uow.IsRetryable(err):
		metrics.LockTimeouts.WithLabelValues("approval").Inc()
		log.Infof("approval %s: %s not applied, retryable: %v", ref, op, err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, loan.ErrNotFound),
		errors.Is(err, domain.ErrInvalidDecision), errors.Is(err, domain.ErrCommentsRequired):
	default:
		log.Errorf("approval %s: %s failed: %v", ref, op, err)
	}
	return err
}
