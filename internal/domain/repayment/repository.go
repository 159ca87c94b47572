package repayment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByRepaymentID(ctx context.Context, repaymentID string) (*Record, error)
	GetByIdempotencyKey(ctx context.Context, loanNumericID uint64, key string) (*Record, error)
	GetReversalOf(ctx context.Context, repaymentID string) (*Record, error)
	ListByLoanID(ctx context.Context, loanNumericID uint64) ([]Record, error)
	ListByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]Record, error)
	// ListByDateRange returns records with from <= payment_date < to.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Record, error)
}
