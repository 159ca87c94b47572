package repayment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("repayment not found")
	ErrDuplicatePayment = errors.New("repayment with this idempotency key already recorded")
	ErrInvalidAmount    = errors.New("repayment amount must be greater than zero")
	ErrOverpayment      = errors.New("repayment exceeds outstanding schedule total")
	ErrAlreadyReversed  = errors.New("repayment already reversed")
	ErrNotReversible    = errors.New("repayment cannot be reversed")
	ErrReasonRequired   = errors.New("a reason is required to reverse a repayment")
)

type Kind string

const (
	KindPayment  Kind = "payment"
	KindReversal Kind = "reversal"
)

type Method string

const (
	MethodCash       Method = "cash"
	MethodTransfer   Method = "bank_transfer"
	MethodPayroll    Method = "payroll_deduction"
	MethodMobile     Method = "mobile_money"
	MethodAdjustment Method = "adjustment"
)

// Record is an immutable ledger line. Corrections are new reversal records
// with a negative amount; nothing is ever updated or deleted.
type Record struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID    string          `gorm:"size:32;uniqueIndex:ux_repayments_repayment_id" json:"repayment_id"`
	LoanID         uint64          `gorm:"column:loan_id;not null;index;uniqueIndex:ux_repayments_loan_key" json:"-"`
	MemberID       string          `gorm:"size:32;index" json:"member_id"`
	Kind           Kind            `gorm:"size:16;not null" json:"kind"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentDate    time.Time       `gorm:"type:date;index" json:"payment_date"`
	Method         Method          `gorm:"size:24" json:"method"`
	IdempotencyKey string          `gorm:"size:64;not null;uniqueIndex:ux_repayments_loan_key" json:"idempotency_key"`
	ReceiptRef     string          `gorm:"size:64" json:"receipt_ref,omitempty"`
	ReversesID     string          `gorm:"size:32;index" json:"reverses_id,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	RecordedBy     string          `gorm:"size:32" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Record) TableName() string { return "loan_repayments" }

// TotalPaid is the net of all records, reversals included.
func TotalPaid(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// CheckPayment validates a new payment against what has been paid so far.
// margin is the configured overpayment allowance.
func CheckPayment(amount, paidSoFar, scheduleTotal, margin decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if paidSoFar.Add(amount).GreaterThan(scheduleTotal.Add(margin)) {
		return ErrOverpayment
	}
	return nil
}

// Outstanding is scheduleTotal - paid, never negative.
func Outstanding(scheduleTotal, paid decimal.Decimal) decimal.Decimal {
	out := scheduleTotal.Sub(paid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
