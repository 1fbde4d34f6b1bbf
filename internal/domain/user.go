package domain

// User is the read-only projection of the authenticated account returned by
// the auth collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

func (u *User) RoleSet() RoleSet {
	if u == nil {
		return RoleSet{}
	}
	return NewRoleSet(u.Roles...)
}

func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthGrant is what a successful login hands back.
type AuthGrant struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Persisted token keys, one row per key per client.
const (
	StorageKeyAccessToken  = "accessToken"
	StorageKeyRefreshToken = "refreshToken"
)

type SessionTokens struct {
	AccessToken  string
	RefreshToken string
}

func (t SessionTokens) Empty() bool {
	return t.AccessToken == ""
}
