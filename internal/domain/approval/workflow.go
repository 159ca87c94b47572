package approval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/actor"
)

// Workflows maps each kind to its ordered approver roles.
type Workflows map[Kind][]actor.Role

func DefaultWorkflows() Workflows {
	return Workflows{
		KindLoanApplication:     {actor.RoleLoanOfficer, actor.RoleBranchManager, actor.RoleCreditCommittee},
		KindDisbursement:        {actor.RoleBranchManager, actor.RoleFinanceOfficer},
		KindWithdrawal:          {actor.RoleFinanceOfficer, actor.RoleBranchManager},
		KindPenaltyWaiver:       {actor.RoleLoanOfficer, actor.RoleBranchManager},
		KindDividendDeclaration: {actor.RoleFinanceOfficer, actor.RoleBoard},
	}
}

func (w Workflows) Stages(k Kind) ([]actor.Role, error) {
	stages, ok := w[k]
	if !ok || len(stages) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return stages, nil
}

// RequiredRole is the role that must act on the request's current stage.
func (w Workflows) RequiredRole(r *Request) (actor.Role, bool) {
	stages, ok := w[r.Kind]
	if !ok || r.CurrentStage < 1 || r.CurrentStage > len(stages) {
		return "", false
	}
	return stages[r.CurrentStage-1], true
}

func (w Workflows) NewRequest(kind Kind, referenceID string, priority Priority, notes, submittedBy string, now time.Time) (*Request, error) {
	stages, err := w.Stages(kind)
	if err != nil {
		return nil, err
	}
	if _, ok := priorityRank[priority]; !ok {
		return nil, ErrInvalidPriority
	}
	return &Request{
		Kind:         kind,
		ReferenceID:  referenceID,
		Priority:     priority,
		CurrentStage: 1,
		TotalStages:  len(stages),
		Status:       StatusPending,
		SubmittedBy:  submittedBy,
		SubmittedAt:  now.UTC(),
		Notes:        notes,
		Version:      1,
	}, nil
}

// Decide applies one decision to r and returns the audit entry to append.
// On error r is left untouched.
func (w Workflows) Decide(r *Request, a actor.Actor, d Decision, comments string, now time.Time) (StageDecision, error) {
	if r.Status.Terminal() {
		return StageDecision{}, ErrAlreadyTerminal
	}
	if d != DecisionApprove && d != DecisionReject {
		return StageDecision{}, ErrInvalidDecision
	}
	role, ok := w.RequiredRole(r)
	if !ok {
		return StageDecision{}, fmt.Errorf("%w: stage %d of %s", ErrUnknownKind, r.CurrentStage, r.Kind)
	}
	if a.Role != role {
		return StageDecision{}, fmt.Errorf("%w: stage %d requires %s, actor is %s", ErrNotAuthorized, r.CurrentStage, role, a.Role)
	}
	comments = strings.TrimSpace(comments)
	if d == DecisionReject && comments == "" {
		return StageDecision{}, ErrCommentsRequired
	}

	at := now.UTC()
	entry := StageDecision{
		RequestID:    r.ID,
		Stage:        r.CurrentStage,
		RequiredRole: role,
		ApproverID:   a.ID,
		Decision:     d,
		Comments:     comments,
		DecidedAt:    at,
	}

	switch {
	case d == DecisionReject:
		r.Status = StatusRejected
		r.CompletedAt = &at
	case r.CurrentStage >= r.TotalStages:
		r.Status = StatusApproved
		r.CompletedAt = &at
	default:
		r.CurrentStage++
		r.Status = StatusInProgress
	}
	return entry, nil
}

// PendingFor filters open requests waiting on role and orders them as a work queue.
func (w Workflows) PendingFor(role actor.Role, reqs []Request) []Request {
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		if r.Status.Terminal() {
			continue
		}
		if need, ok := w.RequiredRole(&r); ok && need == role {
			out = append(out, r)
		}
	}
	SortQueue(out)
	return out
}

// SortQueue orders urgent > high > normal > low, then oldest submission first.
func SortQueue(reqs []Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		pi, pj := priorityRank[reqs[i].Priority], priorityRank[reqs[j].Priority]
		if pi != pj {
			return pi < pj
		}
		if !reqs[i].SubmittedAt.Equal(reqs[j].SubmittedAt) {
			return reqs[i].SubmittedAt.Before(reqs[j].SubmittedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
}
