package approval

import (
	"errors"
	"time"

	"loan-workflow-engine/internal/domain/actor"
)

var (
	ErrNotFound           = errors.New("approval request not found")
	ErrUnknownKind        = errors.New("unknown workflow kind")
	ErrInvalidDecision    = errors.New("decision must be approve or reject")
	ErrInvalidPriority    = errors.New("unknown priority")
	ErrNotAuthorized      = errors.New("actor role does not match the current approval stage")
	ErrAlreadyTerminal    = errors.New("approval request already decided")
	ErrCommentsRequired   = errors.New("comments are required when rejecting")
	ErrOptimisticConflict = errors.New("approval request was modified concurrently")
	ErrReservedKind       = errors.New("loan application requests are opened by loan submission")
	ErrMissingReference   = errors.New("approval request needs a reference id")
)

type Kind string

const (
	KindLoanApplication     Kind = "loan_application"
	KindDisbursement        Kind = "disbursement"
	KindWithdrawal          Kind = "withdrawal"
	KindPenaltyWaiver       Kind = "penalty_waiver"
	KindDividendDeclaration Kind = "dividend_declaration"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	p := Priority(s)
	if _, ok := priorityRank[p]; !ok {
		return "", ErrInvalidPriority
	}
	return p, nil
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Request is one run of a workflow. Version guards concurrent decisions.
type Request struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	RequestID    string          `gorm:"size:32;uniqueIndex:ux_approval_requests_request_id" json:"request_id"`
	Kind         Kind            `gorm:"size:32;not null;index:idx_approval_requests_open" json:"kind"`
	ReferenceID  string          `gorm:"size:32;not null;index" json:"reference_id"`
	Priority     Priority        `gorm:"size:16;not null" json:"priority"`
	CurrentStage int             `gorm:"not null" json:"current_stage"`
	TotalStages  int             `gorm:"not null" json:"total_stages"`
	Status       Status          `gorm:"size:16;not null;index:idx_approval_requests_open" json:"status"`
	SubmittedBy  string          `gorm:"size:32" json:"submitted_by"`
	SubmittedAt  time.Time       `gorm:"not null" json:"submitted_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Notes        string          `gorm:"type:text" json:"notes,omitempty"`
	Version      int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"-"`
	Decisions    []StageDecision `gorm:"-" json:"decisions,omitempty"`
}

func (Request) TableName() string { return "approval_requests" }

// StageDecision is an append-only audit entry.
type StageDecision struct {
	ID           uint64     `gorm:"primaryKey;column:id" json:"-"`
	RequestID    uint64     `gorm:"column:request_id;not null;index" json:"-"`
	Stage        int        `gorm:"not null" json:"stage"`
	RequiredRole actor.Role `gorm:"size:32" json:"required_role"`
	ApproverID   string     `gorm:"size:32;not null" json:"approver_id"`
	Decision     Decision   `gorm:"size:16;not null" json:"decision"`
	Comments     string     `gorm:"type:text" json:"comments,omitempty"`
	DecidedAt    time.Time  `gorm:"not null" json:"decided_at"`
}

func (StageDecision) TableName() string { return "approval_stage_decisions" }
