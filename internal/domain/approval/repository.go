package approval

import "context"

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByRequestID(ctx context.Context, requestID string) (*Request, error)
	// GetByRequestIDForUpdate locks the request row for the rest of the transaction.
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*Request, error)
	// UpdateWithVersion persists r only if its stored version still equals
	// r.Version, then bumps the version. Returns ErrOptimisticConflict otherwise.
	UpdateWithVersion(ctx context.Context, r *Request) error
	ListOpen(ctx context.Context) ([]Request, error)

	AppendDecision(ctx context.Context, d *StageDecision) error
	ListDecisions(ctx context.Context, requestNumericID uint64) ([]StageDecision, error)
}
