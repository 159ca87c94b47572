package mysql

import (
	"context"
	"time"

	repaymentDomain "loan-workflow-engine/internal/domain/repayment"

	"gorm.io/gorm"
)

// RepaymentRepository is append-only: no update or delete.
type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository { return &RepaymentRepository{db: db} }

func (r *RepaymentRepository) Create(ctx context.Context, rec *repaymentDomain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RepaymentRepository) GetByRepaymentID(ctx context.Context, repaymentID string) (*repaymentDomain.Record, error) {
	var out repaymentDomain.Record
	res := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) GetByIdempotencyKey(ctx context.Context, loanNumericID uint64, key string) (*repaymentDomain.Record, error) {
	var out repaymentDomain.Record
	res := r.db.WithContext(ctx).Where("loan_id = ? AND idempotency_key = ?", loanNumericID, key).First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) GetReversalOf(ctx context.Context, repaymentID string) (*repaymentDomain.Record, error) {
	var out repaymentDomain.Record
	res := r.db.WithContext(ctx).
		Where("reverses_id = ? AND kind = ?", repaymentID, repaymentDomain.KindReversal).
		First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) ListByLoanID(ctx context.Context, loanNumericID uint64) ([]repaymentDomain.Record, error) {
	var out []repaymentDomain.Record
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("payment_date, id").Find(&out)
	return out, res.Error
}

func (r *RepaymentRepository) ListByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]repaymentDomain.Record, error) {
	var out []repaymentDomain.Record
	if len(loanNumericIDs) == 0 {
		return out, nil
	}
	res := r.db.WithContext(ctx).Where("loan_id IN ?", loanNumericIDs).Order("loan_id, payment_date, id").Find(&out)
	return out, res.Error
}

// ListByDateRange returns records with from <= payment_date < to.
func (r *RepaymentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]repaymentDomain.Record, error) {
	var out []repaymentDomain.Record
	res := r.db.WithContext(ctx).
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Order("payment_date, id").
		Find(&out)
	return out, res.Error
}
