package policy

import "autoshop/internal/domain"

// IsAuthorized reports whether a holder of userRoles may access something
// restricted to requiredRoles. An empty requiredRoles admits any
// authenticated user, i.e. any non-empty userRoles.
func IsAuthorized(userRoles, requiredRoles domain.RoleSet) bool {
	if userRoles.Len() == 0 {
		return false
	}
	if requiredRoles.Len() == 0 {
		return true
	}
	return userRoles.Intersects(requiredRoles)
}

// CanRender resolves the policy for a possibly anonymous user.
func CanRender(user *domain.User, requiredRoles domain.RoleSet) bool {
	return IsAuthorized(user.RoleSet(), requiredRoles)
}
