package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Loan struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID            string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	MemberID          string          `gorm:"size:32;index:idx_loans_member_state" json:"member_id"`
	Principal         decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	AnnualRate        decimal.Decimal `gorm:"type:decimal(7,4)" json:"annual_rate"`
	TermMonths        int             `json:"term_months"`
	Purpose           string          `gorm:"type:text" json:"purpose"`
	LoanType          string          `gorm:"size:32" json:"loan_type"`
	MonthlyPayment    decimal.Decimal `gorm:"type:decimal(18,2)" json:"monthly_payment"`
	ScheduleTotal     decimal.Decimal `gorm:"type:decimal(18,2)" json:"schedule_total"`
	ScheduleAnchored  bool            `json:"schedule_anchored"`
	State             State           `gorm:"size:24;index:idx_loans_member_state;default:'draft'" json:"state"`
	ApprovalRequestID string          `gorm:"size:32;index" json:"approval_request_id,omitempty"`
	ApplicationDate   time.Time       `gorm:"type:date" json:"application_date"`
	ApprovalDate      *time.Time      `json:"approval_date,omitempty"`
	DisbursementDate  *time.Time      `json:"disbursement_date,omitempty"`
	SettledAt         *time.Time      `json:"settled_at,omitempty"`
	StateUpdatedAt    time.Time       `json:"state_updated_at"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Installment is one row of a loan's schedule. Amounts are written once at
// submission; paid status is never stored (see repayment.Allocate).
type Installment struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID    uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_schedule_loan_seq" json:"-"`
	Sequence  int             `gorm:"not null;uniqueIndex:ux_schedule_loan_seq" json:"sequence"`
	DueDate   time.Time       `gorm:"type:date;not null" json:"due_date"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Principal decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	Interest  decimal.Decimal `gorm:"type:decimal(18,2)" json:"interest"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"-"`
}

func (Installment) TableName() string { return "loan_schedule" }

type GuarantorStatus string

const (
	GuarantorPending  GuarantorStatus = "pending"
	GuarantorActive   GuarantorStatus = "active"
	GuarantorReleased GuarantorStatus = "released"
)

type Guarantor struct {
	ID                  uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID              uint64          `gorm:"column:loan_id;not null;index" json:"-"`
	MemberID            string          `gorm:"size:32;not null" json:"member_id"`
	GuaranteeAmount     decimal.Decimal `gorm:"type:decimal(18,2)" json:"guarantee_amount"`
	GuaranteePercentage decimal.Decimal `gorm:"type:decimal(7,4)" json:"guarantee_percentage"`
	Status              GuarantorStatus `gorm:"size:16" json:"status"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"-"`
}

func (Guarantor) TableName() string { return "loan_guarantors" }

type CollateralStatus string

const (
	CollateralPledged  CollateralStatus = "pledged"
	CollateralVerified CollateralStatus = "verified"
	CollateralReleased CollateralStatus = "released"
)

type Collateral struct {
	ID             uint64           `gorm:"primaryKey;column:id" json:"-"`
	LoanID         uint64           `gorm:"column:loan_id;not null;index" json:"-"`
	Type           string           `gorm:"size:32;not null" json:"type"`
	Description    string           `gorm:"type:text" json:"description,omitempty"`
	EstimatedValue decimal.Decimal  `gorm:"type:decimal(18,2)" json:"estimated_value"`
	Status         CollateralStatus `gorm:"size:16" json:"status"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"-"`
}

func (Collateral) TableName() string { return "loan_collateral" }

// ScheduleTotalOf sums the scheduled amounts.
func ScheduleTotalOf(items []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
