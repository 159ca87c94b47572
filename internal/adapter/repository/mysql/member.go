package mysql

import (
	"context"

	memberDomain "loan-workflow-engine/internal/domain/member"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberDirectory reads the members table owned by the membership system.
type MemberDirectory struct{ db *gorm.DB }

func NewMemberDirectory(db *gorm.DB) *MemberDirectory { return &MemberDirectory{db: db} }

// LockForUpdate holds the member row until the surrounding tx ends.
func (r *MemberDirectory) LockForUpdate(ctx context.Context, memberID string) error {
	var m memberDomain.Member
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("member_id = ?", memberID).
		First(&m)
	return lockErr(res.Error)
}

func (r *MemberDirectory) Lookup(ctx context.Context, memberID string) (*memberDomain.Member, error) {
	var out memberDomain.Member
	res := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&out)
	return &out, res.Error
}
