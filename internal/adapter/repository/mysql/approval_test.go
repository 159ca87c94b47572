package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/actor"

	"gorm.io/gorm"
)

func TestApproval_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	in := makeRequest("APR-001", "LN-1")
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByRequestID(ctx, "APR-001")
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if got.ReferenceID != "LN-1" || got.Version != 1 || got.Status != domain.StatusPending {
		t.Errorf("unexpected row: %+v", got)
	}

	if _, err := repo.GetByRequestIDForUpdate(ctx, "APR-001"); err != nil {
		t.Fatalf("GetByRequestIDForUpdate: %v", err)
	}
	if _, err := repo.GetByRequestID(ctx, "NOPE"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestApproval_UpdateWithVersion(t *testing.T) {
	db := openTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	in := makeRequest("APR-V", "LN-2")
	if err := repo.Create(ctx, in); err != nil {
		t.Fatal(err)
	}

	// two readers of version 1
	a, _ := repo.GetByRequestID(ctx, "APR-V")
	b, _ := repo.GetByRequestID(ctx, "APR-V")

	a.CurrentStage, a.Status = 2, domain.StatusInProgress
	if err := repo.UpdateWithVersion(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("version = %d, want 2", a.Version)
	}

	now := time.Now().UTC()
	b.Status, b.CompletedAt = domain.StatusRejected, &now
	if err := repo.UpdateWithVersion(ctx, b); !errors.Is(err, domain.ErrOptimisticConflict) {
		t.Fatalf("stale update: want ErrOptimisticConflict, got %v", err)
	}

	got, _ := repo.GetByRequestID(ctx, "APR-V")
	if got.Status != domain.StatusInProgress || got.CurrentStage != 2 || got.Version != 2 {
		t.Fatalf("stored row = %+v", got)
	}
}

func TestApproval_ListOpenAndDecisions(t *testing.T) {
	db := openTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	open := makeRequest("APR-OPEN", "LN-3")
	done := makeRequest("APR-DONE", "LN-4")
	done.Status = domain.StatusApproved
	for _, r := range []*domain.Request{open, done} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.ListOpen(ctx)
	if err != nil || len(list) != 1 || list[0].RequestID != "APR-OPEN" {
		t.Fatalf("ListOpen = %+v, %v", list, err)
	}

	for i, d := range []domain.Decision{domain.DecisionApprove, domain.DecisionApprove} {
		if err := repo.AppendDecision(ctx, &domain.StageDecision{
			RequestID:    open.ID,
			Stage:        i + 1,
			RequiredRole: actor.RoleLoanOfficer,
			ApproverID:   "adm-1",
			Decision:     d,
			DecidedAt:    time.Now().UTC(),
		}); err != nil {
			t.Fatalf("AppendDecision: %v", err)
		}
	}
	trail, err := repo.ListDecisions(ctx, open.ID)
	if err != nil || len(trail) != 2 || trail[0].Stage != 1 || trail[1].Stage != 2 {
		t.Fatalf("ListDecisions = %+v, %v", trail, err)
	}
}
