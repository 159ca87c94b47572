package member

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("member not found")
	ErrIneligible    = errors.New("member is not eligible")
	ErrSelfGuarantee = errors.New("borrower cannot guarantee their own loan")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExited    Status = "exited"
)

// Member is owned by the membership system; this service only reads it.
type Member struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"-"`
	MemberID       string     `gorm:"size:32;uniqueIndex:ux_members_member_id" json:"member_id"`
	FullName       string     `gorm:"size:128" json:"full_name"`
	Status         Status     `gorm:"size:16" json:"status"`
	JoinedAt       time.Time  `json:"joined_at"`
	MembershipEnds *time.Time `json:"membership_ends,omitempty"`
}

func (Member) TableName() string { return "members" }

// Eligible reports an active membership that has not lapsed at now.
func (m Member) Eligible(now time.Time) bool {
	if m.Status != StatusActive {
		return false
	}
	return m.MembershipEnds == nil || now.Before(*m.MembershipEnds)
}

type Directory interface {
	Lookup(ctx context.Context, memberID string) (*Member, error)
}
