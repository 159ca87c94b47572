package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-workflow-engine/internal/domain/actor"
	domain "loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/uow"
	"loan-workflow-engine/internal/testutil/approvalmock"
	"loan-workflow-engine/internal/testutil/loanmock"
	"loan-workflow-engine/internal/testutil/uowmock"

	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

var (
	officer   = actor.Actor{ID: "adm-lo", Role: actor.RoleLoanOfficer}
	manager   = actor.Actor{ID: "adm-bm", Role: actor.RoleBranchManager}
	committee = actor.Actor{ID: "adm-cc", Role: actor.RoleCreditCommittee}
	finance   = actor.Actor{ID: "adm-fo", Role: actor.RoleFinanceOfficer}
)

// store keeps one request and one loan and mimics the CAS update.
type store struct {
	req       domain.Request
	loan      loan.Loan
	decisions []domain.StageDecision
	loanSaves int
	updates   int
}

func (s *store) repos(t *testing.T) (*approvalmock.Repo, *loanmock.Repo) {
	apprs := &approvalmock.Repo{
		GetByRequestIDForUpdateFn: func(_ context.Context, id string) (*domain.Request, error) {
			if id != s.req.RequestID {
				return nil, gorm.ErrRecordNotFound
			}
			cp := s.req
			return &cp, nil
		},
		GetByRequestIDFn: func(_ context.Context, id string) (*domain.Request, error) {
			if id != s.req.RequestID {
				return nil, gorm.ErrRecordNotFound
			}
			cp := s.req
			return &cp, nil
		},
		UpdateWithVersionFn: func(_ context.Context, r *domain.Request) error {
			if r.Version != s.req.Version {
				return domain.ErrOptimisticConflict
			}
			r.Version++
			s.req = *r
			s.updates++
			return nil
		},
		AppendDecisionFn: func(_ context.Context, d *domain.StageDecision) error {
			s.decisions = append(s.decisions, *d)
			return nil
		},
		ListDecisionsFn: func(_ context.Context, id uint64) ([]domain.StageDecision, error) {
			if id != s.req.ID {
				t.Fatalf("ListDecisions for %d, want %d", id, s.req.ID)
			}
			return s.decisions, nil
		},
	}
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*loan.Loan, error) {
			if id != s.loan.LoanID {
				return nil, gorm.ErrRecordNotFound
			}
			cp := s.loan
			return &cp, nil
		},
		SaveFn: func(_ context.Context, l *loan.Loan) error {
			s.loan = *l
			s.loanSaves++
			return nil
		},
	}
	return apprs, loans
}

func newLoanApplication() *store {
	return &store{
		req: domain.Request{
			ID: 11, RequestID: "REQ-1", Kind: domain.KindLoanApplication, ReferenceID: "LN-1",
			Priority: domain.PriorityNormal, CurrentStage: 1, TotalStages: 3,
			Status: domain.StatusPending, SubmittedAt: fixedNow.Add(-time.Hour), Version: 1,
		},
		loan: loan.Loan{ID: 1, LoanID: "LN-1", State: loan.StateSubmitted},
	}
}

func newUC(t *testing.T, s *store) *Usecase {
	apprs, loans := s.repos(t)
	tx := uowmock.Over(uow.Repos{Loans: loans, Approvals: apprs})
	return NewUsecase(tx, apprs).WithClock(func() time.Time { return fixedNow })
}

func approve(requestID string) DecisionInput {
	return DecisionInput{RequestID: requestID, Decision: domain.DecisionApprove}
}

func TestProcessDecision_FullChainApprovesLoan(t *testing.T) {
	s := newLoanApplication()
	uc := newUC(t, s)
	ctx := context.Background()

	res, err := uc.ProcessDecision(ctx, officer, approve("REQ-1"))
	if err != nil {
		t.Fatalf("stage 1: %v", err)
	}
	if res.Request.CurrentStage != 2 || res.Request.Status != domain.StatusInProgress {
		t.Fatalf("after stage 1: %+v", res.Request)
	}
	if res.LoanState != string(loan.StateUnderApproval) || s.loan.State != loan.StateUnderApproval {
		t.Fatalf("loan after stage 1 = %s / %s", res.LoanState, s.loan.State)
	}

	if _, err := uc.ProcessDecision(ctx, manager, approve("REQ-1")); err != nil {
		t.Fatalf("stage 2: %v", err)
	}
	if s.loanSaves != 1 {
		t.Fatalf("loan saved %d times, want 1 (stage 2 leaves it under approval)", s.loanSaves)
	}

	res, err = uc.ProcessDecision(ctx, committee, approve("REQ-1"))
	if err != nil {
		t.Fatalf("stage 3: %v", err)
	}
	if res.Request.Status != domain.StatusApproved || res.Request.CompletedAt == nil {
		t.Fatalf("final request = %+v", res.Request)
	}
	if s.loan.State != loan.StateApproved || s.loan.ApprovalDate == nil {
		t.Fatalf("final loan = %+v", s.loan)
	}
	if s.req.Version != 4 || s.updates != 3 {
		t.Fatalf("version=%d updates=%d", s.req.Version, s.updates)
	}
	if len(s.decisions) != 3 {
		t.Fatalf("decisions = %d", len(s.decisions))
	}
	for i, d := range s.decisions {
		if d.Stage != i+1 || d.RequestID != 11 || d.Decision != domain.DecisionApprove {
			t.Fatalf("decision %d = %+v", i, d)
		}
	}
}

func TestProcessDecision_RejectIsTerminal(t *testing.T) {
	s := newLoanApplication()
	uc := newUC(t, s)
	ctx := context.Background()

	if _, err := uc.ProcessDecision(ctx, officer, approve("REQ-1")); err != nil {
		t.Fatalf("stage 1: %v", err)
	}
	rej := DecisionInput{RequestID: "REQ-1", Decision: domain.DecisionReject}
	if _, err := uc.ProcessDecision(ctx, manager, rej); !errors.Is(err, domain.ErrCommentsRequired) {
		t.Fatalf("want ErrCommentsRequired, got %v", err)
	}
	rej.Comments = "income not verified"
	res, err := uc.ProcessDecision(ctx, manager, rej)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if res.Request.Status != domain.StatusRejected || s.loan.State != loan.StateRejected {
		t.Fatalf("request=%s loan=%s", res.Request.Status, s.loan.State)
	}

	if _, err := uc.ProcessDecision(ctx, committee, approve("REQ-1")); !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Fatalf("want ErrAlreadyTerminal, got %v", err)
	}
	if len(s.decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(s.decisions))
	}
}

func TestProcessDecision_Refusals(t *testing.T) {
	cases := []struct {
		name string
		who  actor.Actor
		in   DecisionInput
		want error
	}{
		{"wrong role", manager, approve("REQ-1"), domain.ErrNotAuthorized},
		{"bad decision", officer, DecisionInput{RequestID: "REQ-1", Decision: "maybe"}, domain.ErrInvalidDecision},
		{"unknown request", officer, approve("REQ-404"), domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newLoanApplication()
			uc := newUC(t, s)
			if _, err := uc.ProcessDecision(context.Background(), tc.who, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if len(s.decisions) != 0 || s.updates != 0 || s.loanSaves != 0 {
				t.Fatalf("refused decision wrote: decisions=%d updates=%d saves=%d", len(s.decisions), s.updates, s.loanSaves)
			}
			if s.req.CurrentStage != 1 || s.req.Status != domain.StatusPending {
				t.Fatalf("request mutated: %+v", s.req)
			}
		})
	}
}

func TestProcessDecision_OptimisticConflictIsRetryable(t *testing.T) {
	s := newLoanApplication()
	apprs, loans := s.repos(t)
	apprs.UpdateWithVersionFn = func(context.Context, *domain.Request) error { return domain.ErrOptimisticConflict }
	uc := NewUsecase(uowmock.Over(uow.Repos{Loans: loans, Approvals: apprs}), apprs)

	_, err := uc.ProcessDecision(context.Background(), officer, approve("REQ-1"))
	if !errors.Is(err, domain.ErrOptimisticConflict) || !uow.IsRetryable(err) {
		t.Fatalf("want retryable conflict, got %v", err)
	}
	if s.loanSaves != 0 {
		t.Fatalf("loan must not change when the request update lost")
	}
}

func TestProcessDecision_MissingLoan(t *testing.T) {
	s := newLoanApplication()
	s.req.ReferenceID = "LN-gone"
	uc := newUC(t, s)
	if _, err := uc.ProcessDecision(context.Background(), officer, approve("REQ-1")); !errors.Is(err, loan.ErrNotFound) {
		t.Fatalf("want loan.ErrNotFound, got %v", err)
	}
}

func TestProcessDecision_NonLoanKindLeavesLoansAlone(t *testing.T) {
	s := &store{req: domain.Request{
		ID: 12, RequestID: "REQ-W", Kind: domain.KindWithdrawal, ReferenceID: "WD-9",
		Priority: domain.PriorityHigh, CurrentStage: 1, TotalStages: 2, Status: domain.StatusPending, Version: 1,
	}}
	apprs, loans := s.repos(t)
	loans.GetByLoanIDForUpdateFn = func(context.Context, string) (*loan.Loan, error) {
		t.Fatalf("withdrawal decisions must not touch loans")
		return nil, nil
	}
	uc := NewUsecase(uowmock.Over(uow.Repos{Loans: loans, Approvals: apprs}), apprs).WithClock(func() time.Time { return fixedNow })

	res, err := uc.ProcessDecision(context.Background(), finance, approve("REQ-W"))
	if err != nil {
		t.Fatalf("ProcessDecision: %v", err)
	}
	if res.LoanID != "" || res.Request.CurrentStage != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestPendingForRole(t *testing.T) {
	base := fixedNow.Add(-48 * time.Hour)
	open := []domain.Request{
		{ID: 1, RequestID: "low", Kind: domain.KindPenaltyWaiver, Priority: domain.PriorityLow, CurrentStage: 1, Status: domain.StatusPending, SubmittedAt: base},
		{ID: 2, RequestID: "normal-new", Kind: domain.KindLoanApplication, Priority: domain.PriorityNormal, CurrentStage: 1, Status: domain.StatusPending, SubmittedAt: base.Add(2 * time.Hour)},
		{ID: 3, RequestID: "urgent", Kind: domain.KindLoanApplication, Priority: domain.PriorityUrgent, CurrentStage: 1, Status: domain.StatusPending, SubmittedAt: base.Add(3 * time.Hour)},
		{ID: 4, RequestID: "normal-old", Kind: domain.KindLoanApplication, Priority: domain.PriorityNormal, CurrentStage: 1, Status: domain.StatusPending, SubmittedAt: base},
		{ID: 5, RequestID: "manager-stage", Kind: domain.KindLoanApplication, Priority: domain.PriorityUrgent, CurrentStage: 2, Status: domain.StatusInProgress, SubmittedAt: base},
	}
	apprs := &approvalmock.Repo{ListOpenFn: func(context.Context) ([]domain.Request, error) { return open, nil }}
	uc := NewUsecase(uowmock.New(), apprs)

	got, err := uc.PendingForRole(context.Background(), actor.RoleLoanOfficer)
	if err != nil {
		t.Fatalf("PendingForRole: %v", err)
	}
	want := []string{"urgent", "normal-old", "normal-new", "low"}
	if len(got) != len(want) {
		t.Fatalf("got %d requests, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.RequestID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, r.RequestID, want[i])
		}
	}

	got, _ = uc.PendingForRole(context.Background(), actor.RoleBranchManager)
	if len(got) != 1 || got[0].RequestID != "manager-stage" {
		t.Fatalf("branch manager queue = %+v", got)
	}
}

func TestSubmitRequest(t *testing.T) {
	var created *domain.Request
	apprs := &approvalmock.Repo{CreateFn: func(_ context.Context, r *domain.Request) error { created = r; return nil }}
	uc := NewUsecase(uowmock.Over(uow.Repos{Approvals: apprs}), apprs).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	cases := []struct {
		name string
		in   SubmitInput
		want error
	}{
		{"loan application reserved", SubmitInput{Kind: domain.KindLoanApplication, ReferenceID: "LN-1"}, domain.ErrReservedKind},
		{"missing reference", SubmitInput{Kind: domain.KindWithdrawal, ReferenceID: " "}, domain.ErrMissingReference},
		{"unknown kind", SubmitInput{Kind: "bonus", ReferenceID: "X"}, domain.ErrUnknownKind},
		{"bad priority", SubmitInput{Kind: domain.KindWithdrawal, ReferenceID: "X", Priority: "now"}, domain.ErrInvalidPriority},
	}
	for _, tc := range cases {
		if _, err := uc.SubmitRequest(ctx, finance, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}
	if created != nil {
		t.Fatalf("rejected submissions must not write")
	}

	req, err := uc.SubmitRequest(ctx, finance, SubmitInput{Kind: domain.KindDividendDeclaration, ReferenceID: "DIV-2025", Priority: "high"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if created != req || len(req.RequestID) != 32 || req.TotalStages != 2 || req.Status != domain.StatusPending {
		t.Fatalf("request = %+v", req)
	}
	if req.SubmittedBy != finance.ID || req.Priority != domain.PriorityHigh || !req.SubmittedAt.Equal(fixedNow) {
		t.Fatalf("request = %+v", req)
	}
}

func TestGetRequest_IncludesTrail(t *testing.T) {
	s := newLoanApplication()
	uc := newUC(t, s)
	ctx := context.Background()
	if _, err := uc.ProcessDecision(ctx, officer, approve("REQ-1")); err != nil {
		t.Fatalf("decide: %v", err)
	}
	req, err := uc.GetRequest(ctx, "REQ-1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if len(req.Decisions) != 1 || req.Decisions[0].ApproverID != officer.ID {
		t.Fatalf("trail = %+v", req.Decisions)
	}
	if _, err := uc.GetRequest(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
