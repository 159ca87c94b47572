package membermock

import (
	"context"

	domain "loan-workflow-engine/internal/domain/member"

	"gorm.io/gorm"
)

var _ domain.Directory = (*Directory)(nil)

// Directory serves Members from a map unless LookupFn is set.
type Directory struct {
	Members  map[string]domain.Member
	LookupFn func(ctx context.Context, memberID string) (*domain.Member, error)
}

// Active builds a directory in which every id is an active member.
func Active(ids ...string) *Directory {
	d := &Directory{Members: map[string]domain.Member{}}
	for _, id := range ids {
		d.Members[id] = domain.Member{MemberID: id, Status: domain.StatusActive}
	}
	return d
}

func (d *Directory) Lookup(ctx context.Context, memberID string) (*domain.Member, error) {
	if d.LookupFn != nil {
		return d.LookupFn(ctx, memberID)
	}
	m, ok := d.Members[memberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}
