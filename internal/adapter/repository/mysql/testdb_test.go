package mysql

import (
	"testing"
	"time"

	approvalDomain "loan-workflow-engine/internal/domain/approval"
	loanDomain "loan-workflow-engine/internal/domain/loan"
	memberDomain "loan-workflow-engine/internal/domain/member"
	repaymentDomain "loan-workflow-engine/internal/domain/repayment"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB holding every table. One
// connection only: each new :memory: connection is a fresh database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&loanDomain.Loan{}, &loanDomain.Installment{}, &loanDomain.Guarantor{}, &loanDomain.Collateral{},
		&repaymentDomain.Record{},
		&approvalDomain.Request{}, &approvalDomain.StageDecision{},
		&memberDomain.Member{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeLoan(loanID, memberID string, state loanDomain.State) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:          loanID,
		MemberID:        memberID,
		Principal:       dec("120000"),
		AnnualRate:      dec("12"),
		TermMonths:      12,
		Purpose:         "working capital",
		MonthlyPayment:  dec("10661.85"),
		ScheduleTotal:   dec("127942.25"),
		State:           state,
		ApplicationDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		StateUpdatedAt:  time.Now().UTC(),
	}
}

func makeRequest(requestID, ref string) *approvalDomain.Request {
	return &approvalDomain.Request{
		RequestID:    requestID,
		Kind:         approvalDomain.KindLoanApplication,
		ReferenceID:  ref,
		Priority:     approvalDomain.PriorityNormal,
		CurrentStage: 1,
		TotalStages:  3,
		Status:       approvalDomain.StatusPending,
		SubmittedBy:  "adm-1",
		SubmittedAt:  time.Now().UTC(),
		Version:      1,
	}
}
