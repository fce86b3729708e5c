package model

import "time"

// Role determines which routes a principal may reach. The set is fixed;
// roles are never created at runtime.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleNurse      Role = "nurse"
	RoleSpecialist Role = "specialist"
	RolePatient    Role = "patient"

	// RoleAll is the wildcard used in route declarations only. It is never
	// stored on a principal.
	RoleAll Role = "all"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleNurse, RoleSpecialist, RolePatient:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}

// AccountType partitions principals into the two identity namespaces the
// clinic runs: back-office staff and patients. The same email may exist in
// both partitions.
type AccountType string

const (
	AccountTypeStaff   AccountType = "staff"
	AccountTypePatient AccountType = "patient"
)

// Principal is any authenticated entity. PasswordHash is nil for accounts
// created through flows that never set one (e.g. an invite that has not
// been redeemed with a password yet, or an external identity provider).
type Principal struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash *string     `json:"-"` // never exposed in JSON responses
	Role         Role        `json:"role"`
	AccountType  AccountType `json:"account_type"`
	CreatedAt    time.Time   `json:"created_at"`
}
