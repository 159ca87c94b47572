package repayment

import (
	"time"

	domain "loan-workflow-engine/internal/domain/repayment"

	"github.com/shopspring/decimal"
)

type RecordInput struct {
	LoanID         string
	Amount         decimal.Decimal
	PaymentDate    time.Time // zero means today
	Method         domain.Method
	IdempotencyKey string
	ReceiptRef     string
	Notes          string
}

// Result is a ledger write plus the loan's position after it.
// Duplicate is set when the idempotency key had already been used; Record
// is then the earlier record and nothing was written.
type Result struct {
	Record      *domain.Record  `json:"record"`
	LoanState   string          `json:"loan_state"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Settled     bool            `json:"settled"`
	Duplicate   bool            `json:"duplicate,omitempty"`
}

type BalanceDTO struct {
	LoanID        string          `json:"loan_id"`
	State         string          `json:"state"`
	ScheduleTotal decimal.Decimal `json:"schedule_total"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}
