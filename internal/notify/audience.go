package notify

import (
	"encoding/json"

	"autoshop/internal/domain"
)

var staffRoles = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician, domain.RoleReceptionist)

type audience struct {
	UserID      string        `json:"userId"`
	RecipientID string        `json:"recipientId"`
	Roles       []domain.Role `json:"roles"`
}

// VisibleTo reports whether user may see e. An event naming a recipient is
// visible to that user only; one naming roles to holders of those roles.
// Anything else is visible to shop staff.
func (e Event) VisibleTo(user *domain.User) bool {
	if user == nil {
		return false
	}
	var aud audience
	if len(e.Data) > 0 {
		// non-object payloads carry no audience
		_ = json.Unmarshal(e.Data, &aud)
	}
	switch {
	case aud.RecipientID != "":
		return aud.RecipientID == user.ID
	case aud.UserID != "":
		return aud.UserID == user.ID
	case len(aud.Roles) > 0:
		return user.RoleSet().Intersects(domain.NewRoleSet(aud.Roles...))
	default:
		return user.RoleSet().Intersects(staffRoles)
	}
}
