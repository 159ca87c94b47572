package loan

import (
	"time"

	domain "loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/repayment"

	"github.com/shopspring/decimal"
)

type PreviewInput struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal
	TermMonths int
	StartDate  time.Time // zero means today
}

type GuarantorInput struct {
	MemberID            string
	GuaranteeAmount     decimal.Decimal
	GuaranteePercentage decimal.Decimal
}

type CollateralInput struct {
	Type           string
	Description    string
	EstimatedValue decimal.Decimal
}

type SubmitInput struct {
	MemberID   string
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal
	TermMonths int
	Purpose    string
	LoanType   string
	Priority   string
	Notes      string
	Guarantors []GuarantorInput
	Collateral []CollateralInput
}

type LoanDTO struct {
	LoanID            string          `json:"loan_id"`
	MemberID          string          `json:"member_id"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRate        decimal.Decimal `json:"annual_rate"`
	TermMonths        int             `json:"term_months"`
	Purpose           string          `json:"purpose"`
	LoanType          string          `json:"loan_type,omitempty"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	ScheduleTotal     decimal.Decimal `json:"schedule_total"`
	State             string          `json:"state"`
	ApprovalRequestID string          `json:"approval_request_id,omitempty"`
	ApplicationDate   time.Time       `json:"application_date"`
	ApprovalDate      *time.Time      `json:"approval_date,omitempty"`
	DisbursementDate  *time.Time      `json:"disbursement_date,omitempty"`
	SettledAt         *time.Time      `json:"settled_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`

	Guarantors []domain.Guarantor  `json:"guarantors,omitempty"`
	Collateral []domain.Collateral `json:"collateral,omitempty"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:            l.LoanID,
		MemberID:          l.MemberID,
		Principal:         l.Principal,
		AnnualRate:        l.AnnualRate,
		TermMonths:        l.TermMonths,
		Purpose:           l.Purpose,
		LoanType:          l.LoanType,
		MonthlyPayment:    l.MonthlyPayment,
		ScheduleTotal:     l.ScheduleTotal,
		State:             string(l.State),
		ApprovalRequestID: l.ApprovalRequestID,
		ApplicationDate:   l.ApplicationDate,
		ApprovalDate:      l.ApprovalDate,
		DisbursementDate:  l.DisbursementDate,
		SettledAt:         l.SettledAt,
		CreatedAt:         l.CreatedAt,
	}
}

// ScheduleDTO is the binding schedule with statuses derived from the ledger.
type ScheduleDTO struct {
	LoanID         string                      `json:"loan_id"`
	State          string                      `json:"state"`
	Anchored       bool                        `json:"anchored"`
	MonthlyPayment decimal.Decimal             `json:"monthly_payment"`
	ScheduleTotal  decimal.Decimal             `json:"schedule_total"`
	TotalPaid      decimal.Decimal             `json:"total_paid"`
	Outstanding    decimal.Decimal             `json:"outstanding"`
	Installments   []repayment.InstallmentView `json:"installments"`
}
