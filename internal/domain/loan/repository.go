package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the loan row for the rest of the transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByMemberID(ctx context.Context, memberID string) (*Loan, error)
	ListByStates(ctx context.Context, states ...State) ([]Loan, error)

	// Schedule
	CreateInstallments(ctx context.Context, items []Installment) error
	ListInstallments(ctx context.Context, loanNumericID uint64) ([]Installment, error)
	ListInstallmentsByLoanIDs(ctx context.Context, loanNumericIDs []uint64) ([]Installment, error)
	UpdateInstallmentDueDates(ctx context.Context, items []Installment) error

	// Eligibility inputs
	CreateGuarantors(ctx context.Context, gs []Guarantor) error
	ListGuarantors(ctx context.Context, loanNumericID uint64) ([]Guarantor, error)
	CreateCollateral(ctx context.Context, cs []Collateral) error
	ListCollateral(ctx context.Context, loanNumericID uint64) ([]Collateral, error)
}
