package uow

import (
	"context"
	"errors"

	"loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/repayment"
)

// ErrLockTimeout is returned when a row lock is not granted within the
// configured wait. Callers may retry.
var ErrLockTimeout = errors.New("timed out waiting for row lock")

// IsRetryable reports transient concurrency failures.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, approval.ErrOptimisticConflict)
}

// Repos are bound to a single transaction.
type Repos struct {
	Loans      loan.Repository
	Repayments repayment.Repository
	Approvals  approval.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
	// lock the approval request row first; loans referenced by it are locked after it
	WithinApprovalTx(ctx context.Context, requestID string, fn func(r Repos, req *approval.Request) error) error
	// lock the member row first; one member's applications are submitted one at a time
	WithinMemberTx(ctx context.Context, memberID string, fn func(r Repos) error) error
}
