package loanmock

import (
	"context"

	domain "loan-workflow-engine/internal/domain/loan"

	"gorm.io/gorm"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset getters report gorm.ErrRecordNotFound; other unset methods are no-ops.
type Repo struct {
	CreateFn                    func(ctx context.Context, l *domain.Loan) error
	SaveFn                      func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn               func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn      func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByMemberIDFn  func(ctx context.Context, memberID string) (*domain.Loan, error)
	ListByStatesFn              func(ctx context.Context, states ...domain.State) ([]domain.Loan, error)
	CreateInstallmentsFn        func(ctx context.Context, items []domain.Installment) error
	ListInstallmentsFn          func(ctx context.Context, loanNumericID uint64) ([]domain.Installment, error)
	ListInstallmentsByLoanIDsFn func(ctx context.Context, loanNumericIDs []uint64) ([]domain.Installment, error)
	UpdateInstallmentDueDatesFn func(ctx context.Context, items []domain.Installment) error
	CreateGuarantorsFn          func(ctx context.Context, gs []domain.Guarantor) error
	ListGuarantorsFn            func(ctx context.Context, loanNumericID uint64) ([]domain.Guarantor, error)
	CreateCollateralFn          func(ctx context.Context, cs []domain.Collateral) error
	ListCollateralFn            func(ctx context.Context, loanNumericID uint64) ([]domain.Collateral, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetPendingLoanByMemberID(ctx context.Context, memberID string) (*domain.Loan, error) {
	if m.GetPendingLoanByMemberIDFn != nil {
		return m.GetPendingLoanByMemberIDFn(ctx, memberID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) ListByStates(ctx context.Context, states ...domain.State) ([]domain.Loan, error) {
	if m.ListByStatesFn != nil {
		return m.ListByStatesFn(ctx, states...)
	}
	return nil, nil
}

func (m *Repo) CreateInstallments(ctx context.Context, items []domain.Installment) error {
	if m.CreateInstallmentsFn != nil {
		return m.CreateInstallmentsFn(ctx, items)
	}
	return nil
}

func (m *Repo) ListInstallments(ctx context.Context, loanNumericID uint64) ([]domain.Installment, error) {
	if m.ListInstallmentsFn != nil {
		return m.ListInstallmentsFn(ctx, loanNumericID)
	}
	return nil, nil
}

func (m *Repo) ListInstallmentsByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]domain.Installment, error) {
	if m.ListInstallmentsByLoanIDsFn != nil {
		return m.ListInstallmentsByLoanIDsFn(ctx, loanNumericIDs)
	}
	return nil, nil
}

func (m *Repo) UpdateInstallmentDueDates(ctx context.Context, items []domain.Installment) error {
	if m.UpdateInstallmentDueDatesFn != nil {
		return m.UpdateInstallmentDueDatesFn(ctx, items)
	}
	return nil
}

func (m *Repo) CreateGuarantors(ctx context.Context, gs []domain.Guarantor) error {
	if m.CreateGuarantorsFn != nil {
		return m.CreateGuarantorsFn(ctx, gs)
	}
	return nil
}

func (m *Repo) ListGuarantors(ctx context.Context, loanNumericID uint64) ([]domain.Guarantor, error) {
	if m.ListGuarantorsFn != nil {
		return m.ListGuarantorsFn(ctx, loanNumericID)
	}
	return nil, nil
}

func (m *Repo) CreateCollateral(ctx context.Context, cs []domain.Collateral) error {
	if m.CreateCollateralFn != nil {
		return m.CreateCollateralFn(ctx, cs)
	}
	return nil
}

func (m *Repo) ListCollateral(ctx context.Context, loanNumericID uint64) ([]domain.Collateral, error) {
	if m.ListCollateralFn != nil {
		return m.ListCollateralFn(ctx, loanNumericID)
	}
	return nil, nil
}
