package domain

import "fmt"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleTechnician   Role = "technician"
	RoleReceptionist Role = "receptionist"
	RoleCustomer     Role = "customer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleTechnician, RoleReceptionist, RoleCustomer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// RoleSet is an unordered set of roles. The zero value is an empty set.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

func (s RoleSet) Len() int {
	return len(s)
}

func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for r := range small {
		if large.Has(r) {
			return true
		}
	}
	return false
}
