package mysql

import (
	"context"
	"math"
	"time"

	"loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct {
	db       *gorm.DB
	lockWait time.Duration
}

// NewGormUoW bounds every row-lock acquisition by lockWait; zero means no bound.
func NewGormUoW(db *gorm.DB, lockWait time.Duration) *GormUoW {
	return &GormUoW{db: db, lockWait: lockWait}
}

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:      &LoanRepository{db: tx},
		Repayments: &RepaymentRepository{db: tx},
		Approvals:  &ApprovalRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
	return lockErr(err)
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.boundLockWait(tx); err != nil {
			return err
		}
		r := reposFor(tx)
		lctx, cancel := u.lockCtx(ctx)
		l, err := r.Loans.GetByLoanIDForUpdate(lctx, loanID)
		cancel()
		if err != nil {
			return err
		}
		return fn(r, l)
	})
	return lockErr(err)
}

func (u *GormUoW) WithinApprovalTx(ctx context.Context, requestID string, fn func(r uow.Repos, req *approval.Request) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.boundLockWait(tx); err != nil {
			return err
		}
		r := reposFor(tx)
		lctx, cancel := u.lockCtx(ctx)
		req, err := r.Approvals.GetByRequestIDForUpdate(lctx, requestID)
		cancel()
		if err != nil {
			return err
		}
		return fn(r, req)
	})
	return lockErr(err)
}

func (u *GormUoW) WithinMemberTx(ctx context.Context, memberID string, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.boundLockWait(tx); err != nil {
			return err
		}
		lctx, cancel := u.lockCtx(ctx)
		err := (&MemberDirectory{db: tx}).LockForUpdate(lctx, memberID)
		cancel()
		if err != nil {
			return err
		}
		return fn(reposFor(tx))
	})
	return lockErr(err)
}

func (u *GormUoW) lockCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.lockWait <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, u.lockWait)
}

// boundLockWait sets InnoDB's own lock wait (whole seconds) for the session
// so later locks in the same tx are bounded too.
func (u *GormUoW) boundLockWait(tx *gorm.DB) error {
	if u.lockWait <= 0 || tx.Dialector.Name() != "mysql" {
		return nil
	}
	secs := int(math.Ceil(u.lockWait.Seconds()))
	return tx.Exec("SET SESSION innodb_lock_wait_timeout = ?", secs).Error
}
