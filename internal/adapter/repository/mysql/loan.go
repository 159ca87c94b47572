package mysql

import (
	"context"

	loanDomain "loan-workflow-engine/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return &out, lockErr(res.Error)
}

func (r *LoanRepository) GetPendingLoanByMemberID(ctx context.Context, memberID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("member_id = ? AND state IN ?", memberID, []loanDomain.State{loanDomain.StateSubmitted, loanDomain.StateUnderApproval}).
		Order("state_updated_at DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) ListByStates(ctx context.Context, states ...loanDomain.State) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).Where("state IN ?", states).Order("id").Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CreateInstallments(ctx context.Context, items []loanDomain.Installment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *LoanRepository) ListInstallments(ctx context.Context, loanNumericID uint64) ([]loanDomain.Installment, error) {
	var out []loanDomain.Installment
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("sequence").Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListInstallmentsByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]loanDomain.Installment, error) {
	var out []loanDomain.Installment
	if len(loanNumericIDs) == 0 {
		return out, nil
	}
	res := r.db.WithContext(ctx).Where("loan_id IN ?", loanNumericIDs).Order("loan_id, sequence").Find(&out)
	return out, res.Error
}

// UpdateInstallmentDueDates rewrites due dates only; amounts are immutable.
func (r *LoanRepository) UpdateInstallmentDueDates(ctx context.Context, items []loanDomain.Installment) error {
	for _, it := range items {
		res := r.db.WithContext(ctx).
			Model(&loanDomain.Installment{}).
			Where("id = ?", it.ID).
			Update("due_date", it.DueDate)
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (r *LoanRepository) CreateGuarantors(ctx context.Context, gs []loanDomain.Guarantor) error {
	if len(gs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&gs).Error
}

func (r *LoanRepository) ListGuarantors(ctx context.Context, loanNumericID uint64) ([]loanDomain.Guarantor, error) {
	var out []loanDomain.Guarantor
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("id").Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CreateCollateral(ctx context.Context, cs []loanDomain.Collateral) error {
	if len(cs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&cs).Error
}

func (r *LoanRepository) ListCollateral(ctx context.Context, loanNumericID uint64) ([]loanDomain.Collateral, error) {
	var out []loanDomain.Collateral
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("id").Find(&out)
	return out, res.Error
}
