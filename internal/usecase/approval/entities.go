package approval

import (
	domain "loan-workflow-engine/internal/domain/approval"
)

type SubmitInput struct {
	Kind        domain.Kind
	ReferenceID string
	Priority    string
	Notes       string
}

type DecisionInput struct {
	RequestID string
	Decision  domain.Decision
	Comments  string
}

// DecisionResult is the request after the decision and, for loan
// applications, the state the loan was left in.
type DecisionResult struct {
	Request   *domain.Request      `json:"request"`
	Decision  domain.StageDecision `json:"decision"`
	LoanID    string               `json:"loan_id,omitempty"`
	LoanState string               `json:"loan_state,omitempty"`
}
