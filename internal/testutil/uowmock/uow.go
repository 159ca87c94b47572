package uowmock

import (
	"context"
	"errors"

	"loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn     func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
	WithinApprovalTxFn func(ctx context.Context, requestID string, fn func(r uow.Repos, req *approval.Request) error) error
	WithinMemberTxFn   func(ctx context.Context, memberID string, fn func(r uow.Repos) error) error
}

func New() *UoW { return &UoW{} }

// Over runs every scope directly against repos, locking through the repos'
// ForUpdate getters. Rollback is not simulated.
func Over(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
		WithinApprovalTxFn: func(ctx context.Context, requestID string, fn func(uow.Repos, *approval.Request) error) error {
			req, err := repos.Approvals.GetByRequestIDForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			return fn(repos, req)
		},
		WithinMemberTxFn: func(_ context.Context, _ string, fn func(uow.Repos) error) error { return fn(repos) },
	}
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLoanTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}
func (m *UoW) WithWithinApprovalTx(fn func(context.Context, string, func(uow.Repos, *approval.Request) error) error) *UoW {
	m.WithinApprovalTxFn = fn
	return m
}
func (m *UoW) WithWithinMemberTx(fn func(context.Context, string, func(uow.Repos) error) error) *UoW {
	m.WithinMemberTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinApprovalTx(ctx context.Context, requestID string, fn func(r uow.Repos, req *approval.Request) error) error {
	if m.WithinApprovalTxFn != nil {
		return m.WithinApprovalTxFn(ctx, requestID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinMemberTx(ctx context.Context, memberID string, fn func(r uow.Repos) error) error {
	if m.WithinMemberTxFn != nil {
		return m.WithinMemberTxFn(ctx, memberID, fn)
	}
	return errUnimplemented
}
