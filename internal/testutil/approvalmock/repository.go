package approvalmock

import (
	"context"

	domain "loan-workflow-engine/internal/domain/approval"

	"gorm.io/gorm"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                  func(ctx context.Context, r *domain.Request) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.Request, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.Request, error)
	UpdateWithVersionFn       func(ctx context.Context, r *domain.Request) error
	ListOpenFn                func(ctx context.Context) ([]domain.Request, error)
	AppendDecisionFn          func(ctx context.Context, d *domain.StageDecision) error
	ListDecisionsFn           func(ctx context.Context, requestNumericID uint64) ([]domain.StageDecision, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, gorm.ErrRecordNotFound
}

// UpdateWithVersion defaults to a successful compare-and-set.
func (m *Repo) UpdateWithVersion(ctx context.Context, r *domain.Request) error {
	if m.UpdateWithVersionFn != nil {
		return m.UpdateWithVersionFn(ctx, r)
	}
	r.Version++
	return nil
}

func (m *Repo) ListOpen(ctx context.Context) ([]domain.Request, error) {
	if m.ListOpenFn != nil {
		return m.ListOpenFn(ctx)
	}
	return nil, nil
}

func (m *Repo) AppendDecision(ctx context.Context, d *domain.StageDecision) error {
	if m.AppendDecisionFn != nil {
		return m.AppendDecisionFn(ctx, d)
	}
	return nil
}

func (m *Repo) ListDecisions(ctx context.Context, requestNumericID uint64) ([]domain.StageDecision, error) {
	if m.ListDecisionsFn != nil {
		return m.ListDecisionsFn(ctx, requestNumericID)
	}
	return nil, nil
}
