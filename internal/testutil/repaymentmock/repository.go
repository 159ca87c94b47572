package repaymentmock

import (
	"context"
	"time"

	domain "loan-workflow-engine/internal/domain/repayment"

	"gorm.io/gorm"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn              func(ctx context.Context, r *domain.Record) error
	GetByRepaymentIDFn    func(ctx context.Context, repaymentID string) (*domain.Record, error)
	GetByIdempotencyKeyFn func(ctx context.Context, loanNumericID uint64, key string) (*domain.Record, error)
	GetReversalOfFn       func(ctx context.Context, repaymentID string) (*domain.Record, error)
	ListByLoanIDFn        func(ctx context.Context, loanNumericID uint64) ([]domain.Record, error)
	ListByLoanIDsFn       func(ctx context.Context, loanNumericIDs []uint64) ([]domain.Record, error)
	ListByDateRangeFn     func(ctx context.Context, from, to time.Time) ([]domain.Record, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRepaymentID(ctx context.Context, repaymentID string) (*domain.Record, error) {
	if m.GetByRepaymentIDFn != nil {
		return m.GetByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetByIdempotencyKey(ctx context.Context, loanNumericID uint64, key string) (*domain.Record, error) {
	if m.GetByIdempotencyKeyFn != nil {
		return m.GetByIdempotencyKeyFn(ctx, loanNumericID, key)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetReversalOf(ctx context.Context, repaymentID string) (*domain.Record, error) {
	if m.GetReversalOfFn != nil {
		return m.GetReversalOfFn(ctx, repaymentID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) ListByLoanID(ctx context.Context, loanNumericID uint64) ([]domain.Record, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanNumericID)
	}
	return nil, nil
}

func (m *Repo) ListByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]domain.Record, error) {
	if m.ListByLoanIDsFn != nil {
		return m.ListByLoanIDsFn(ctx, loanNumericIDs)
	}
	return nil, nil
}

func (m *Repo) ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Record, error) {
	if m.ListByDateRangeFn != nil {
		return m.ListByDateRangeFn(ctx, from, to)
	}
	return nil, nil
}
