package mysql

import (
	"context"

	approvalDomain "loan-workflow-engine/internal/domain/approval"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Request) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApprovalRepository) GetByRequestID(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *ApprovalRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, lockErr(res.Error)
}

// UpdateWithVersion is a compare-and-set on version.
func (r *ApprovalRepository) UpdateWithVersion(ctx context.Context, a *approvalDomain.Request) error {
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Request{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"current_stage": a.CurrentStage,
			"status":        a.Status,
			"completed_at":  a.CompletedAt,
			"version":       a.Version + 1,
		})
	if res.Error != nil {
		return lockErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return approvalDomain.ErrOptimisticConflict
	}
	a.Version++
	return nil
}

func (r *ApprovalRepository) ListOpen(ctx context.Context) ([]approvalDomain.Request, error) {
	var out []approvalDomain.Request
	res := r.db.WithContext(ctx).
		Where("status IN ?", []approvalDomain.Status{approvalDomain.StatusPending, approvalDomain.StatusInProgress}).
		Order("submitted_at, id").
		Find(&out)
	return out, res.Error
}

func (r *ApprovalRepository) AppendDecision(ctx context.Context, d *approvalDomain.StageDecision) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *ApprovalRepository) ListDecisions(ctx context.Context, requestNumericID uint64) ([]approvalDomain.StageDecision, error) {
	var out []approvalDomain.StageDecision
	res := r.db.WithContext(ctx).Where("request_id = ?", requestNumericID).Order("id").Find(&out)
	return out, res.Error
}
