package actor

import "errors"

var ErrUnknownRole = errors.New("unknown role")

// Role is an approver/administrator role as issued by the session layer.
type Role string

const (
	RoleLoanOfficer     Role = "loan_officer"
	RoleBranchManager   Role = "branch_manager"
	RoleCreditCommittee Role = "credit_committee"
	RoleFinanceOfficer  Role = "finance_officer"
	RoleBoard           Role = "board"
	RoleTeller          Role = "teller"
	RoleAuditor         Role = "auditor"
)

var knownRoles = map[Role]struct{}{
	RoleLoanOfficer:     {},
	RoleBranchManager:   {},
	RoleCreditCommittee: {},
	RoleFinanceOfficer:  {},
	RoleBoard:           {},
	RoleTeller:          {},
	RoleAuditor:         {},
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Actor is the authenticated admin performing an operation. It is passed
// explicitly into every mutating call; the core never reads it from ambient state.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Valid() bool {
	_, ok := knownRoles[a.Role]
	return a.ID != "" && ok
}
